package response

import (
	"errors"
	"net/http"
	"time"

	"crowdfund-ledger/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDKey is the gin context key holding the request correlation ID.
const RequestIDKey = "request_id"

// SuccessResponse wraps every 2xx payload.
type SuccessResponse struct {
	Data      any    `json:"data"`
	RequestID string `json:"request_id"`
	Timestamp string `json:"timestamp"`
}

// ErrorResponse carries a stable error code; internal causes never leave the server.
type ErrorResponse struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp string `json:"timestamp"`
}

func OK(c *gin.Context, data any) {
	write(c, http.StatusOK, SuccessResponse{Data: data})
}

func Created(c *gin.Context, data any) {
	write(c, http.StatusCreated, SuccessResponse{Data: data})
}

// Error renders err. AppErrors, wrapped or not, keep their code and status;
// anything else is reported as SYS_001.
func Error(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		appErr = apperror.InternalError(err)
	}
	write(c, appErr.HTTPStatus, ErrorResponse{ErrorCode: appErr.Code, Message: appErr.Message})
}

func write(c *gin.Context, status int, body any) {
	id, ts := requestID(c), time.Now().UTC().Format(time.RFC3339)
	switch b := body.(type) {
	case SuccessResponse:
		b.RequestID, b.Timestamp = id, ts
		body = b
	case ErrorResponse:
		b.RequestID, b.Timestamp = id, ts
		body = b
	}
	c.JSON(status, body)
}

// requestID returns the ID set by the RequestID middleware, or a fresh one.
func requestID(c *gin.Context) string {
	if id, ok := c.Get(RequestIDKey); ok {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return uuid.New().String()
}
