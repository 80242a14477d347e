package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of audited action.
type AuditAction string

const (
	AuditActionRegister       AuditAction = "REGISTER"
	AuditActionLogin          AuditAction = "LOGIN"
	AuditActionContribute     AuditAction = "CONTRIBUTE"
	AuditActionWithdraw       AuditAction = "WITHDRAW"
	AuditActionWithdrawDenied AuditAction = "WITHDRAW_DENIED"
)

// AuditLog records a single audited request.
type AuditLog struct {
	ID           uuid.UUID   `json:"id"`
	Identity     *Identity   `json:"identity,omitempty"`
	Action       AuditAction `json:"action"`
	ResourceType string      `json:"resource_type"`
	ResourceID   string      `json:"resource_id,omitempty"`
	Details      string      `json:"details,omitempty"` // JSON string
	IPAddress    string      `json:"ip_address"`
	CreatedAt    time.Time   `json:"created_at"`
}
