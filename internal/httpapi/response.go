package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/apothecary/pkg/types"
)

// Error codes carried in the error envelope.
const (
	CodeNotFound              = "not_found"
	CodeReferentialConstraint = "referential_constraint"
	CodeInvalidInput          = "invalid_input"
	CodeInternal              = "internal"
)

// APIError is the body of a failed request.
type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ErrorEnvelope wraps APIError as {"error": {...}}.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// classify maps a store error to an HTTP status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, types.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, types.ErrReferentialConstraint):
		return http.StatusConflict, CodeReferentialConstraint
	case types.IsUserError(err):
		return http.StatusBadRequest, CodeInvalidInput
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// respondError writes the error envelope and aborts the request. Internal
// errors are logged and reported without detail.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	status, code := classify(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		msg = "internal error"
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{Error: APIError{Message: msg, Code: code}})
}
