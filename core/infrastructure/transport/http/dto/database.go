package dto

// GenerateDataRequest is the body of POST /api/database/generate-data.
// A missing count means the default batch size.
type GenerateDataRequest struct {
	Count *int `json:"count" validate:"omitempty,gte=1,lte=100000"`
}

// TableDataQuery holds the paging query parameters of table-data
type TableDataQuery struct {
	Page     int `validate:"gte=1,lte=1000000"`
	PageSize int `validate:"gte=1,lte=1000"`
}
