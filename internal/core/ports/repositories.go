package ports

import (
	"context"
	"time"

	"crowdfund-ledger/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

//go:generate mockgen -source=repositories.go -destination=mocks/repositories_mock.go -package=mocks

// AccountRepository defines persistence operations for registered identities.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByIdentity(ctx context.Context, identity domain.Identity) (*domain.Account, error)
}

// JournalRepository persists the append-only contribution history.
// Methods accepting pgx.Tx are used when several rows must land together.
type JournalRepository interface {
	Append(ctx context.Context, entry *domain.JournalEntry) error
	AppendBatch(ctx context.Context, tx pgx.Tx, entries []domain.JournalEntry) error
	// Reporting queries
	List(ctx context.Context, params JournalListParams) ([]domain.JournalEntry, int64, error)
	Summary(ctx context.Context, identity *domain.Identity, since *time.Time) (*domain.JournalSummary, error)
}

// JournalListParams holds filter + pagination for listing journal rows.
type JournalListParams struct {
	Identity *domain.Identity
	Type     *domain.EntryType
	From     *int64 // Unix timestamp
	To       *int64 // Unix timestamp
	Page     int
	PageSize int
}

// AuditRepository persists audit logs.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
