package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/keyhub/internal/shared/constants"
	"github.com/orris-inc/keyhub/internal/shared/errors"
)

// APIResponse is the envelope of every API response. RequestID is only set on
// errors so a caller can quote it when reporting a problem.
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *ErrorInfo  `json:"error,omitempty"`
	Message   string      `json:"message,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

type ErrorInfo struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// SuccessResponse sends a successful response with custom status code
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, APIResponse{
		Success: true,
		Data:    data,
		Message: message,
	})
}

// CreatedResponse sends a 201 with the created resource.
func CreatedResponse(c *gin.Context, data interface{}, message ...string) {
	response := APIResponse{
		Success: true,
		Data:    data,
	}
	if len(message) > 0 {
		response.Message = message[0]
	}

	c.JSON(http.StatusCreated, response)
}

// ErrorResponse sends an error whose type is derived from the status code.
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	writeError(c, statusCode, ErrorInfo{
		Type:    string(errorTypeForStatus(statusCode)),
		Message: message,
	})
}

// ErrorResponseWithError sends err as an error response. Anything that is not
// an AppError becomes a generic 500 so internal details never leak.
func ErrorResponseWithError(c *gin.Context, err error) {
	appErr := errors.GetAppError(err)
	if appErr == nil {
		writeError(c, http.StatusInternalServerError, ErrorInfo{
			Type:    string(errors.ErrorTypeInternal),
			Message: "Internal server error occurred",
		})
		return
	}

	writeError(c, appErr.Code, ErrorInfo{
		Type:    string(appErr.Type),
		Message: appErr.Message,
		Details: appErr.Details,
	})
}

// NoContentResponse sends a no content response
func NoContentResponse(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func writeError(c *gin.Context, statusCode int, info ErrorInfo) {
	c.JSON(statusCode, APIResponse{
		Success:   false,
		Error:     &info,
		RequestID: c.GetString(constants.ContextKeyRequestID),
	})
}

func errorTypeForStatus(statusCode int) errors.ErrorType {
	switch statusCode {
	case http.StatusBadRequest:
		return errors.ErrorTypeBadRequest
	case http.StatusNotFound:
		return errors.ErrorTypeNotFound
	case http.StatusConflict:
		return errors.ErrorTypeConflict
	case http.StatusGone:
		return errors.ErrorTypeGone
	case http.StatusTooManyRequests:
		return errors.ErrorTypeRateLimited
	case http.StatusBadGateway:
		return errors.ErrorTypeUpstream
	case http.StatusServiceUnavailable:
		return errors.ErrorTypeUnavailable
	}
	return errors.ErrorTypeInternal
}
