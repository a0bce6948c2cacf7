package response

import (
	"net/http"

	"codejudge/pkg/errors"
	"codejudge/pkg/utils/contextkey"
	"codejudge/pkg/utils/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response represents a standard API response
type Response struct {
	Code    errors.ErrorCode `json:"code"`               // Error code
	Message string           `json:"message"`            // Error message
	Data    interface{}      `json:"data,omitempty"`     // Response data (omit if nil)
	Details interface{}      `json:"details,omitempty"`  // Additional details (omit if nil)
	TraceID string           `json:"trace_id,omitempty"` // Request trace ID
}

// Success sends a successful response with data
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    errors.Success,
		Message: "Success",
		Data:    data,
		TraceID: getTraceID(c),
	})
}

// Error sends an error response
// It automatically extracts error code and message from the error
func Error(c *gin.Context, err error) {
	customErr := errors.GetError(err)
	logError(c, customErr)

	c.JSON(customErr.Code.HTTPStatus(), Response{
		Code:    customErr.Code,
		Message: customErr.Error(),
		Details: detailsOrNil(customErr.Details),
		TraceID: getTraceID(c),
	})
}

// ErrorWithData sends an error response that still carries a payload.
// Used when the client needs a structured body alongside the failure, such as a run result.
func ErrorWithData(c *gin.Context, err error, data interface{}) {
	customErr := errors.GetError(err)
	logError(c, customErr)

	c.JSON(customErr.Code.HTTPStatus(), Response{
		Code:    customErr.Code,
		Message: customErr.Error(),
		Data:    data,
		Details: detailsOrNil(customErr.Details),
		TraceID: getTraceID(c),
	})
}

// ErrorWithCode sends an error response with specific error code
func ErrorWithCode(c *gin.Context, code errors.ErrorCode, message string) {
	if message == "" {
		message = code.Message()
	}

	logger.Warn(c.Request.Context(), "request error",
		zap.Int("code", int(code)),
		zap.String("message", message),
	)

	c.JSON(code.HTTPStatus(), Response{
		Code:    code,
		Message: message,
		TraceID: getTraceID(c),
	})
}

// BadRequest sends a 400 bad request error
func BadRequest(c *gin.Context, message string) {
	ErrorWithCode(c, errors.InvalidParams, message)
}

// Unauthorized sends a 401 unauthorized error
func Unauthorized(c *gin.Context, message string) {
	ErrorWithCode(c, errors.Unauthorized, message)
}

// NotFound sends a 404 not found error
func NotFound(c *gin.Context, message string) {
	ErrorWithCode(c, errors.NotFound, message)
}

// AbortWithError aborts the request and sends error response
func AbortWithError(c *gin.Context, err error) {
	Error(c, err)
	c.Abort()
}

// AbortWithErrorCode aborts the request with error code
func AbortWithErrorCode(c *gin.Context, code errors.ErrorCode, message string) {
	ErrorWithCode(c, code, message)
	c.Abort()
}

// Client faults are logged at warn, everything else at error with the stack.
func logError(c *gin.Context, e *errors.Error) {
	ctx := c.Request.Context()
	if status := e.Code.HTTPStatus(); status < http.StatusInternalServerError {
		logger.Warn(ctx, "request error",
			zap.Int("code", int(e.Code)),
			zap.String("message", e.Error()),
		)
		return
	}
	logger.Error(ctx, "request error",
		zap.Int("code", int(e.Code)),
		zap.String("message", e.Error()),
		zap.Any("details", e.Details),
		zap.String("stack", e.Stack),
		zap.Error(e.Err),
	)
}

func detailsOrNil(details map[string]interface{}) interface{} {
	if len(details) == 0 {
		return nil
	}
	return details
}

func getTraceID(c *gin.Context) string {
	if traceID, exists := c.Get(contextkey.TraceID.String()); exists {
		if s, ok := traceID.(string); ok {
			return s
		}
	}
	if traceID, ok := c.Request.Context().Value(contextkey.TraceID).(string); ok {
		return traceID
	}
	return ""
}
