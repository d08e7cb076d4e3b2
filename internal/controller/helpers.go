package controller

import (
	"encoding/json"
	"errors"
	"net/http"

	domainErrors "github.com/cassiomorais/paygate/internal/domain/errors"
	"github.com/cassiomorais/paygate/internal/domain/payment"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

var validate = validator.New()

type errorMapping struct {
	err    error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{domainErrors.ErrUnknownBank, http.StatusNotFound, "unknown_bank"},
	{domainErrors.ErrBankDisabled, http.StatusServiceUnavailable, "bank_disabled"},
	{domainErrors.ErrNoProcessors, http.StatusServiceUnavailable, "no_processors"},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	resp := ErrorResponse{Error: err.Error()}

	var validationErr *domainErrors.ValidationError
	if errors.As(err, &validationErr) {
		resp.Code = "validation_error"
		writeJSON(w, http.StatusBadRequest, resp)
		return
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			resp.Code = m.code
			writeJSON(w, m.status, resp)
			return
		}
	}

	log.Error().Err(err).Msg("unhandled error in handler")
	resp.Code = "internal_error"
	resp.Error = "internal server error"
	writeJSON(w, http.StatusInternalServerError, resp)
}

func decodeAndValidate(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domainErrors.NewValidationError("body", "invalid JSON: "+err.Error())
	}
	if err := validate.Struct(dst); err != nil {
		if ve, ok := err.(validator.ValidationErrors); ok && len(ve) > 0 {
			return domainErrors.NewValidationError(ve[0].Field(), ve[0].Tag()+" validation failed")
		}
		return domainErrors.NewValidationError("body", err.Error())
	}
	return nil
}

// chargeStatus maps a unified response onto an HTTP status. The body
// is always the full normalized response; the code is a convenience
// for HTTP-native callers.
func chargeStatus(resp payment.Response) int {
	switch resp.Status {
	case payment.StatusSuccess, payment.StatusCancelled:
		return http.StatusOK
	case payment.StatusPending:
		return http.StatusAccepted
	case payment.StatusTimeout:
		return http.StatusGatewayTimeout
	default:
		switch resp.ErrorCode {
		case domainErrors.CodeInvalidRequest:
			return http.StatusBadRequest
		case domainErrors.CodeServiceUnavailable:
			return http.StatusServiceUnavailable
		case domainErrors.CodeProcessingError:
			return http.StatusInternalServerError
		default:
			// Bank-native decline
			return http.StatusUnprocessableEntity
		}
	}
}
