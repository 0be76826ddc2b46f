package api

import (
	"context"
	stderrors "errors"
	"net/http"

	"gochurn/domain/core"
	"gochurn/internal/errors"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// statusFor maps an application error to its HTTP status
func statusFor(err error) int {
	switch {
	case stderrors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case stderrors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	}

	switch errors.GetCode(err) {
	case errors.CodeEncodingError, errors.CodeInvalidInput:
		return http.StatusUnprocessableEntity
	case errors.CodeNotFound:
		return http.StatusNotFound
	case errors.CodeModelLoadError:
		return http.StatusServiceUnavailable
	}
	if core.IsEncodingError(err) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// errorBody builds the wire error. Internal failures do not leak their cause.
func errorBody(err error) ErrorResponse {
	code := errors.GetCode(err)
	if code == "UNKNOWN" {
		code = errors.CodeInternalError
	}
	if statusFor(err) == http.StatusInternalServerError {
		return ErrorResponse{Error: "internal server error", Code: code}
	}
	return ErrorResponse{Error: err.Error(), Code: code}
}

func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), errorBody(err))
}

// respondBindError reports a malformed or incomplete request body
func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Code: errors.CodeInvalidInput})
}
