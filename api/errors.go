package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Kind classifies an API error
type Kind int

const (
	KindValidation Kind = iota
	KindConfiguration
	KindDownstream
)

func (k Kind) status() int {
	if k == KindValidation {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// Error is returned by handlers and mapped to a status in respondError
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func validationError(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

func configurationError(msg string) *Error {
	return &Error{Kind: KindConfiguration, Message: msg}
}

func downstreamError(msg string, err error) *Error {
	return &Error{Kind: KindDownstream, Message: msg, Err: err}
}

// ErrorResponse is the JSON body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError writes err as {error} with the status of its kind. Errors
// that are not *Error are treated as downstream failures.
func respondError(c *gin.Context, err error) {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		apiErr = downstreamError("internal error", err)
	}

	status := apiErr.Kind.status()
	if status >= http.StatusInternalServerError {
		slog.Error("Request failed", "path", c.Request.URL.Path, "error", err)
	} else {
		slog.Info("Rejected request", "path", c.Request.URL.Path, "reason", apiErr.Message)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: apiErr.Error()})
}
