package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/yanqian/surgecast/pkg/errors"
)

// HTTPError captures the metadata required to serialize an error response consistently.
type HTTPError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap exposes the underlying error.
func (e *HTTPError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewHTTPError is a helper to build an HTTPError instance.
func NewHTTPError(status int, code, message string, err error) *HTTPError {
	return &HTTPError{Status: status, Code: code, Message: message, Err: err}
}

// statusByCode maps domain error codes onto HTTP statuses.
var statusByCode = map[string]int{
	"invalid_input":       http.StatusBadRequest,
	"not_found":           http.StatusNotFound,
	"invalid_credentials": http.StatusUnauthorized,
	"invalid_token":       http.StatusUnauthorized,
	"predictor_error":     http.StatusBadGateway,
	"history_error":       http.StatusInternalServerError,
	"auth_error":          http.StatusInternalServerError,
}

// fromDomainError translates a service error into an HTTPError, keeping the
// domain code and message.
func fromDomainError(err error) *HTTPError {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		return asHTTPError(err)
	}
	status, ok := statusByCode[appErr.Code]
	if !ok {
		status = http.StatusInternalServerError
	}
	message := appErr.Message
	if status >= http.StatusInternalServerError && appErr.Code != "predictor_error" {
		message = "something went wrong"
	}
	return NewHTTPError(status, appErr.Code, message, err)
}

func asHTTPError(err error) *HTTPError {
	if err == nil {
		return nil
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	return &HTTPError{
		Status:  http.StatusInternalServerError,
		Code:    "internal_error",
		Message: "something went wrong",
		Err:     err,
	}
}

func abortWithError(c *gin.Context, err *HTTPError) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}
