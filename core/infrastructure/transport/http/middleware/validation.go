package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/meterscope/meterscope/core/infrastructure/logging"
	"github.com/meterscope/meterscope/core/infrastructure/transport/http/dto"
	"github.com/meterscope/meterscope/core/infrastructure/transport/http/handlers"
	apperrors "github.com/meterscope/meterscope/core/shared/errors"
)

var validate = validator.New()

// maxBodyBytes caps request bodies
const maxBodyBytes = 1 << 20

// ValidateJSON decodes the request body into a fresh T, validates it and
// hands it to handle. An empty body decodes to the zero value.
func ValidateJSON[T any](handle func(http.ResponseWriter, *http.Request, *T)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logging.New("validation")
		body := new(T)

		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := json.NewDecoder(r.Body).Decode(body); err != nil && !errors.Is(err, io.EOF) {
			log.Warnf("Invalid JSON body on %s: %v", r.URL.Path, err)
			handlers.WriteJSON(w, http.StatusBadRequest, dto.Envelope{
				Success: false,
				Message: "Invalid JSON",
				Error:   err.Error(),
				Code:    string(apperrors.ErrCodeInvalidInput),
			}, log)
			return
		}

		if fields := ValidateStruct(body); fields != nil {
			handlers.WriteValidationError(w, fields, log)
			return
		}

		handle(w, r, body)
	}
}

// ValidateStruct validates v and returns failed fields mapped to the tag
// that failed, or nil.
func ValidateStruct(v any) map[string]string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	validationErrors := make(map[string]string)
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		for _, validationErr := range validationErrs {
			validationErrors[validationErr.Field()] = validationErr.Tag()
		}
	} else {
		validationErrors["body"] = err.Error()
	}
	return validationErrors
}

// ValidateQueryParams validates query parameters
func ValidateQueryParams(validatorFunc func(*http.Request) error) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := validatorFunc(r); err != nil {
				handlers.WriteJSON(w, http.StatusBadRequest, dto.Envelope{
					Success: false,
					Message: "Invalid query parameters",
					Error:   err.Error(),
					Code:    string(apperrors.ErrCodeInvalidInput),
				}, nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
