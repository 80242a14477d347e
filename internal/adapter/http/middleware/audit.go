package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"crowdfund-ledger/internal/core/domain"
	"crowdfund-ledger/internal/core/ports"
	"crowdfund-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const withdrawalsPath = "/api/v1/fund/withdrawals"

// AuditLog records successful write requests and refused withdrawal attempts
// after the handler has run.
func AuditLog(auditSvc ports.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		status := c.Writer.Status()
		action, resourceType := auditAction(c.Request.Method, c.Request.URL.Path, status)
		if action == "" {
			return
		}

		var identity *domain.Identity
		if id, ok := CallerIdentity(c); ok {
			identity = &id
		}

		details, _ := json.Marshal(map[string]interface{}{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     status,
			"request_id": c.GetString(response.RequestIDKey),
		})

		auditSvc.Log(c.Request.Context(), &domain.AuditLog{
			ID:           uuid.New(),
			Identity:     identity,
			Action:       action,
			ResourceType: resourceType,
			IPAddress:    c.ClientIP(),
			Details:      string(details),
			CreatedAt:    time.Now().UTC(),
		})
	}
}

func auditAction(method, path string, status int) (domain.AuditAction, string) {
	if method != http.MethodPost {
		return "", ""
	}
	if path == withdrawalsPath && status == http.StatusForbidden {
		return domain.AuditActionWithdrawDenied, "withdrawal"
	}
	if status < 200 || status >= 300 {
		return "", ""
	}

	switch path {
	case "/api/v1/auth/register":
		return domain.AuditActionRegister, "account"
	case "/api/v1/auth/login":
		return domain.AuditActionLogin, "session"
	case "/api/v1/fund/contributions":
		return domain.AuditActionContribute, "contribution"
	case withdrawalsPath:
		return domain.AuditActionWithdraw, "withdrawal"
	}
	return "", ""
}
