package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"aigate/internal/domain"
)

type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// statusFor maps a domain error code to its HTTP status.
func statusFor(code domain.ErrorCode) int {
	switch code {
	case domain.CodeInvalidArgument:
		return http.StatusBadRequest
	case domain.CodeNotFound:
		return http.StatusNotFound
	case domain.CodeFailedPrecond:
		return http.StatusConflict
	case domain.CodePermissionDenied:
		return http.StatusForbidden
	case domain.CodeDeadlineExceeded:
		return http.StatusGatewayTimeout
	case domain.CodeUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	code, ok := domain.CodeFrom(err)
	if !ok {
		code = domain.CodeInternal
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(statusFor(code), errorResponse{Error: errorBody{Code: string(code), Message: err.Error()}})
}
