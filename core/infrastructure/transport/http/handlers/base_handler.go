package handlers

import (
	"encoding/json"
	"net/http"
	"sort"

	"github.com/meterscope/meterscope/core/infrastructure/logging"
	"github.com/meterscope/meterscope/core/infrastructure/transport/http/dto"
	"github.com/meterscope/meterscope/core/shared/errors"
)

// BaseHandler provides common functionality for all handlers
type BaseHandler struct {
	logger logging.Logger
}

// NewBaseHandler creates a new base handler
func NewBaseHandler(tag string) *BaseHandler {
	return &BaseHandler{
		logger: logging.New(tag),
	}
}

// Logger returns the handler's tagged logger
func (h *BaseHandler) Logger() logging.Logger {
	return h.logger
}

// WriteJSON writes a JSON response
func (h *BaseHandler) WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	WriteJSON(w, statusCode, data, h.logger)
}

// WriteError writes an error envelope. message summarizes the failed
// operation; the error detail comes from err.
func (h *BaseHandler) WriteError(w http.ResponseWriter, err error, message string) {
	appErr, ok := errors.As(err)
	if !ok {
		appErr = errors.NewAppError(errors.ErrCodeInternalError, err.Error(), err)
	}

	if appErr.Status >= http.StatusInternalServerError {
		h.logger.Errorf("%s: %v", message, err)
	} else {
		h.logger.Warnf("%s: %s", message, appErr.Message)
	}

	h.WriteJSON(w, appErr.Status, dto.Envelope{
		Success: false,
		Message: message,
		Error:   appErr.Message,
		Code:    string(appErr.Code),
	})
}

// WriteValidationError writes a validation error response
func (h *BaseHandler) WriteValidationError(w http.ResponseWriter, validationErrors map[string]string) {
	WriteValidationError(w, validationErrors, h.logger)
}

// WriteSuccess writes a success envelope
func (h *BaseHandler) WriteSuccess(w http.ResponseWriter, data any, meta any) {
	h.WriteJSON(w, http.StatusOK, dto.Envelope{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

// WriteSuccessMessage writes a success envelope with a message
func (h *BaseHandler) WriteSuccessMessage(w http.ResponseWriter, data any, message string) {
	h.WriteJSON(w, http.StatusOK, dto.Envelope{
		Success: true,
		Data:    data,
		Message: message,
	})
}

// WriteJSON writes data as JSON with the given status
func WriteJSON(w http.ResponseWriter, statusCode int, data any, logger logging.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil && logger != nil {
		logger.Errorf("Failed to encode JSON response: %v", err)
	}
}

// WriteValidationError writes a 400 envelope listing failed fields in a
// stable order
func WriteValidationError(w http.ResponseWriter, validationErrors map[string]string, logger logging.Logger) {
	fields := make([]string, 0, len(validationErrors))
	for field := range validationErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	details := make([]dto.ErrorDetail, 0, len(fields))
	for _, field := range fields {
		details = append(details, dto.ErrorDetail{
			Field:   field,
			Tag:     validationErrors[field],
			Message: "Validation failed",
		})
	}

	WriteJSON(w, http.StatusBadRequest, dto.Envelope{
		Success: false,
		Message: "Validation failed",
		Error:   "request validation failed",
		Code:    string(errors.ErrCodeInvalidInput),
		Details: details,
	}, logger)
}
