package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/hlog"
	"todo/internal/interfaces"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Envelope wraps every JSON body. StatusCode always equals the HTTP status.
type Envelope struct {
	StatusCode int    `json:"statusCode"`
	Status     string `json:"status"`
	Message    string `json:"message"`
	Data       any    `json:"data,omitempty"`
}

func JSON(w http.ResponseWriter, code int, message string, data any) {
	status := StatusSuccess
	if code >= http.StatusBadRequest {
		status = StatusError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(Envelope{
		StatusCode: code,
		Status:     status,
		Message:    message,
		Data:       data,
	})
}

func Error(w http.ResponseWriter, code int, message string) {
	JSON(w, code, message, nil)
}

// FromError renders err as an envelope. AppError messages are client safe;
// anything else collapses to a generic 500 and is only logged.
func FromError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *interfaces.AppError
	if !errors.As(err, &appErr) {
		appErr = interfaces.Internal(err)
	}

	code := StatusCode(appErr.Kind)
	if code >= http.StatusInternalServerError {
		hlog.FromRequest(r).Error().Err(err).Msg("request failed")
	}
	Error(w, code, appErr.Message)
}

func StatusCode(kind interfaces.ErrorKind) int {
	switch kind {
	case interfaces.KindBadRequest:
		return http.StatusBadRequest
	case interfaces.KindUnauthorized:
		return http.StatusUnauthorized
	case interfaces.KindForbidden:
		return http.StatusForbidden
	case interfaces.KindNotFound:
		return http.StatusNotFound
	case interfaces.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
