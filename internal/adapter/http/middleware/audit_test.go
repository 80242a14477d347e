package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"crowdfund-ledger/internal/core/domain"
	"crowdfund-ledger/internal/core/ports/mocks"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestAuditLog_ContributionSuccess(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAudit := mocks.NewMockAuditService(ctrl)

	var captured *domain.AuditLog
	mockAudit.EXPECT().Log(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, log *domain.AuditLog) {
			captured = log
		},
	)

	r := gin.New()
	r.Use(AuditLog(mockAudit))
	r.POST("/api/v1/fund/contributions", func(c *gin.Context) {
		c.Set(CtxIdentity, domain.Identity("alice"))
		c.JSON(http.StatusCreated, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/fund/contributions", nil))

	assert.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, captured)
	assert.Equal(t, domain.AuditActionContribute, captured.Action)
	assert.Equal(t, "contribution", captured.ResourceType)
	require.NotNil(t, captured.Identity)
	assert.Equal(t, domain.Identity("alice"), *captured.Identity)
	assert.Contains(t, captured.Details, `"status":201`)
	assert.WithinDuration(t, time.Now(), captured.CreatedAt, time.Minute)
}

func TestAuditLog_WithdrawDenied(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAudit := mocks.NewMockAuditService(ctrl)
	mockAudit.EXPECT().Log(gomock.Any(), gomock.Any()).Do(
		func(ctx context.Context, log *domain.AuditLog) {
			assert.Equal(t, domain.AuditActionWithdrawDenied, log.Action)
			assert.Equal(t, domain.Identity("mallory"), *log.Identity)
		},
	)

	r := gin.New()
	r.Use(AuditLog(mockAudit))
	r.POST("/api/v1/fund/withdrawals", func(c *gin.Context) {
		c.Set(CtxIdentity, domain.Identity("mallory"))
		c.JSON(http.StatusForbidden, gin.H{"error_code": "AUTH_005"})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/fund/withdrawals", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAuditLog_SkipsGET(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAudit := mocks.NewMockAuditService(ctrl)
	// No expectations: Log must not be called.

	r := gin.New()
	r.Use(AuditLog(mockAudit))
	r.GET("/api/v1/fund", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/fund", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuditLog_SkipsFailedRequests(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAudit := mocks.NewMockAuditService(ctrl)

	r := gin.New()
	r.Use(AuditLog(mockAudit))
	r.POST("/api/v1/fund/contributions", func(c *gin.Context) {
		c.JSON(http.StatusPaymentRequired, gin.H{"error_code": "FUND_001"})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/fund/contributions", nil))
	assert.Equal(t, http.StatusPaymentRequired, w.Code)
}

func TestAuditAction(t *testing.T) {
	tests := []struct {
		method, path string
		status       int
		action       domain.AuditAction
		resource     string
	}{
		{"POST", "/api/v1/auth/register", 201, domain.AuditActionRegister, "account"},
		{"POST", "/api/v1/auth/login", 200, domain.AuditActionLogin, "session"},
		{"POST", "/api/v1/fund/contributions", 201, domain.AuditActionContribute, "contribution"},
		{"POST", "/api/v1/fund/withdrawals", 200, domain.AuditActionWithdraw, "withdrawal"},
		{"POST", "/api/v1/fund/withdrawals", 403, domain.AuditActionWithdrawDenied, "withdrawal"},
		{"POST", "/api/v1/fund/withdrawals", 502, "", ""},
		{"POST", "/api/v1/auth/login", 401, "", ""},
		{"GET", "/api/v1/fund/journal", 200, "", ""},
		{"POST", "/unknown", 200, "", ""},
	}

	for _, tt := range tests {
		action, resource := auditAction(tt.method, tt.path, tt.status)
		assert.Equal(t, tt.action, action, "%s %s %d", tt.method, tt.path, tt.status)
		assert.Equal(t, tt.resource, resource, "%s %s %d", tt.method, tt.path, tt.status)
	}
}
