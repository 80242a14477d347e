package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes surfaced to API clients.
const (
	CodeInsufficientValue  = "FUND_001"
	CodeOracleUnavailable  = "FUND_002"
	CodeTransferFailed     = "FUND_003"
	CodeIndexOutOfRange    = "FUND_004"
	CodeInvalidCredentials = "AUTH_001"
	CodeIdentityExists     = "AUTH_002"
	CodeInvalidToken       = "AUTH_003"
	CodeNotOwner           = "AUTH_005"
	CodeRateLimitExceeded  = "RATE_001"
	CodeInternal           = "SYS_001"
	CodeLockTimeout        = "SYS_002"
	CodeArithmeticOverflow = "SYS_004"
	CodeValidation         = "REQ_001"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// HasCode reports whether err is (or wraps) an AppError with the given code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// ---- Funding (FUND) ----

func ErrInsufficientValue() *AppError {
	return New(CodeInsufficientValue, "Contribution is below the minimum", http.StatusPaymentRequired)
}

func ErrOracleUnavailable(err error) *AppError {
	return Wrap(CodeOracleUnavailable, "Price oracle unavailable", http.StatusServiceUnavailable, err)
}

func ErrTransferFailed(err error) *AppError {
	return Wrap(CodeTransferFailed, "Transfer to owner failed", http.StatusBadGateway, err)
}

func ErrIndexOutOfRange(index int) *AppError {
	return New(CodeIndexOutOfRange, fmt.Sprintf("No contributor at index %d", index), http.StatusNotFound)
}

// ---- Authentication (AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New(CodeInvalidCredentials, "Invalid credentials", http.StatusUnauthorized)
}

func ErrIdentityExists() *AppError {
	return New(CodeIdentityExists, "Identity already registered", http.StatusConflict)
}

func ErrInvalidToken() *AppError {
	return New(CodeInvalidToken, "Invalid or expired token", http.StatusUnauthorized)
}

func ErrNotOwner() *AppError {
	return New(CodeNotOwner, "Caller is not the owner", http.StatusForbidden)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New(CodeRateLimitExceeded, "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

func ErrLockTimeout(err error) *AppError {
	return Wrap(CodeLockTimeout, "Lock acquisition timeout", http.StatusServiceUnavailable, err)
}

func ErrArithmeticOverflow(err error) *AppError {
	return Wrap(CodeArithmeticOverflow, "Arithmetic overflow", http.StatusInternalServerError, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap(CodeInternal, "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a REQ_001 validation error.
func Validation(message string) *AppError {
	return New(CodeValidation, message, http.StatusBadRequest)
}
