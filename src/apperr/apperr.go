package apperr

import (
	"encoding/json"
	"errors"
	"net/http"

	logger "github.com/sirupsen/logrus"
)

// Kind classifies an application error for HTTP status mapping.
type Kind int

const (
	KindAuthentication Kind = iota // 401
	KindValidation                 // 400
	KindNotFound                   // 404
	KindPolicy                     // 403 (or explicit 429)
	KindUpstream                   // captured per item, 502 when surfaced alone
	KindUnexpected                 // 500
)

// Error is an application error with a user-facing message and optional
// structured context echoed back to the caller.
type Error struct {
	Kind    Kind
	Message string
	Status  int // optional explicit status (e.g. 429 for daily limits)
	Context map[string]interface{}
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) HTTPStatus() int {
	if e.Status != 0 {
		return e.Status
	}
	switch e.Kind {
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindPolicy:
		return http.StatusForbidden
	case KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// WithStatus overrides the derived HTTP status, e.g. 429 for rate limits.
func (e *Error) WithStatus(status int) *Error {
	e.Status = status
	return e
}

// WithContext attaches a key/value echoed in the JSON error body.
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = map[string]interface{}{}
	}
	e.Context[key] = value
	return e
}

// errorBody is the wire shape of every error response.
type errorBody struct {
	Error   string                 `json:"error"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func kindLabel(k Kind) string {
	switch k {
	case KindAuthentication:
		return "authentication_error"
	case KindValidation:
		return "validation_error"
	case KindNotFound:
		return "not_found"
	case KindPolicy:
		return "policy_violation"
	case KindUpstream:
		return "upstream_error"
	default:
		return "internal_error"
	}
}

// WriteJSON writes err as a structured JSON error response. Unexpected errors
// are logged with their cause but the response carries the message only,
// never a stack trace.
func WriteJSON(w http.ResponseWriter, err error) {
	var appErr *Error
	if !errors.As(err, &appErr) {
		appErr = &Error{Kind: KindUnexpected, Message: "internal server error", Err: err}
	}

	if appErr.Kind == KindUnexpected {
		logger.WithError(err).Error("request failed with unexpected error")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.HTTPStatus())
	body := errorBody{
		Error:   kindLabel(appErr.Kind),
		Message: appErr.Message,
		Context: appErr.Context,
	}
	if encodeErr := json.NewEncoder(w).Encode(body); encodeErr != nil {
		logger.WithError(encodeErr).Error("failed to encode error response")
	}
}
