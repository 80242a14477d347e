package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without wrapped error",
			appErr:   New("FUND_001", "Contribution is below the minimum", http.StatusPaymentRequired),
			expected: "[FUND_001] Contribution is below the minimum",
		},
		{
			name:     "with wrapped error",
			appErr:   Wrap("FUND_002", "Price oracle unavailable", http.StatusServiceUnavailable, fmt.Errorf("connection refused")),
			expected: "[FUND_002] Price oracle unavailable: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.appErr.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("payout endpoint returned 500")
	appErr := ErrTransferFailed(inner)

	assert.True(t, errors.Is(appErr, inner))
}

func TestAppError_IsNilUnwrap(t *testing.T) {
	appErr := ErrNotOwner()
	assert.Nil(t, appErr.Unwrap())
}

func TestHasCode(t *testing.T) {
	wrapped := fmt.Errorf("withdraw: %w", ErrNotOwner())

	assert.True(t, HasCode(wrapped, CodeNotOwner))
	assert.False(t, HasCode(wrapped, CodeTransferFailed))
	assert.False(t, HasCode(errors.New("plain"), CodeNotOwner))
	assert.False(t, HasCode(nil, CodeNotOwner))
}

func TestFundingErrors(t *testing.T) {
	inner := errors.New("boom")
	tests := []struct {
		name       string
		err        *AppError
		code       string
		httpStatus int
	}{
		{"InsufficientValue", ErrInsufficientValue(), "FUND_001", 402},
		{"OracleUnavailable", ErrOracleUnavailable(inner), "FUND_002", 503},
		{"TransferFailed", ErrTransferFailed(inner), "FUND_003", 502},
		{"IndexOutOfRange", ErrIndexOutOfRange(3), "FUND_004", 404},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.httpStatus, tt.err.HTTPStatus)
		})
	}
}

func TestAuthErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		code       string
		httpStatus int
	}{
		{"InvalidCredentials", ErrInvalidCredentials(), "AUTH_001", 401},
		{"IdentityExists", ErrIdentityExists(), "AUTH_002", 409},
		{"InvalidToken", ErrInvalidToken(), "AUTH_003", 401},
		{"NotOwner", ErrNotOwner(), "AUTH_005", 403},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.httpStatus, tt.err.HTTPStatus)
		})
	}
}

func TestSystemErrors(t *testing.T) {
	inner := fmt.Errorf("context deadline exceeded")

	internal := InternalError(inner)
	assert.Equal(t, "SYS_001", internal.Code)
	assert.Equal(t, 500, internal.HTTPStatus)
	assert.True(t, errors.Is(internal, inner))

	lockErr := ErrLockTimeout(inner)
	assert.Equal(t, "SYS_002", lockErr.Code)
	assert.Equal(t, 503, lockErr.HTTPStatus)

	overflow := ErrArithmeticOverflow(inner)
	assert.Equal(t, "SYS_004", overflow.Code)
	assert.Equal(t, 500, overflow.HTTPStatus)
}

func TestRateLimitError(t *testing.T) {
	err := ErrRateLimitExceeded()
	assert.Equal(t, "RATE_001", err.Code)
	assert.Equal(t, 429, err.HTTPStatus)
}

func TestIndexOutOfRange_MentionsIndex(t *testing.T) {
	err := ErrIndexOutOfRange(7)
	assert.Contains(t, err.Message, "7")
}
