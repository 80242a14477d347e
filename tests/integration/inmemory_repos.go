package integration

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"crowdfund-ledger/internal/core/domain"
	"crowdfund-ledger/internal/core/ports"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// --- In-Memory Account Repo ---

type inMemoryAccountRepo struct {
	mu       sync.RWMutex
	accounts map[domain.Identity]*domain.Account
}

func newInMemoryAccountRepo() *inMemoryAccountRepo {
	return &inMemoryAccountRepo{accounts: make(map[domain.Identity]*domain.Account)}
}

func (r *inMemoryAccountRepo) Create(ctx context.Context, a *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[a.Identity]; ok {
		return fmt.Errorf("insert account %s: %w", a.Identity, domain.ErrDuplicateIdentity)
	}
	r.accounts[a.Identity] = a
	return nil
}

func (r *inMemoryAccountRepo) GetByIdentity(ctx context.Context, identity domain.Identity) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.accounts[identity]
	if !ok {
		return nil, nil
	}
	return a, nil
}

// --- In-Memory Journal Repo ---

type inMemoryJournalRepo struct {
	mu      sync.RWMutex
	entries []domain.JournalEntry
}

func newInMemoryJournalRepo() *inMemoryJournalRepo {
	return &inMemoryJournalRepo{}
}

func (r *inMemoryJournalRepo) Append(ctx context.Context, e *domain.JournalEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *e)
	return nil
}

func (r *inMemoryJournalRepo) AppendBatch(ctx context.Context, tx pgx.Tx, entries []domain.JournalEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entries...)
	return nil
}

func (r *inMemoryJournalRepo) List(ctx context.Context, params ports.JournalListParams) ([]domain.JournalEntry, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.JournalEntry
	for _, e := range r.entries {
		if params.Identity != nil && e.Identity != *params.Identity {
			continue
		}
		if params.Type != nil && e.Type != *params.Type {
			continue
		}
		if params.From != nil && e.CreatedAt.Unix() < *params.From {
			continue
		}
		if params.To != nil && e.CreatedAt.Unix() > *params.To {
			continue
		}
		result = append(result, e)
	}
	// Newest first; insertion order breaks ties.
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	total := int64(len(result))

	start := (params.Page - 1) * params.PageSize
	if start >= len(result) {
		return []domain.JournalEntry{}, total, nil
	}
	end := min(start+params.PageSize, len(result))
	return result[start:end], total, nil
}

func (r *inMemoryJournalRepo) Summary(ctx context.Context, identity *domain.Identity, since *time.Time) (*domain.JournalSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := &domain.JournalSummary{}
	for _, e := range r.entries {
		if identity != nil && e.Identity != *identity {
			continue
		}
		if since != nil && e.CreatedAt.Before(*since) {
			continue
		}
		var err error
		switch e.Type {
		case domain.EntryTypeContribution:
			s.Contributions++
			s.ContributedAmount, err = s.ContributedAmount.Add(e.Amount)
		case domain.EntryTypeWithdrawal:
			s.Withdrawals++
			s.WithdrawnAmount, err = s.WithdrawnAmount.Add(e.Amount)
		}
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (r *inMemoryJournalRepo) snapshot() []domain.JournalEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.JournalEntry(nil), r.entries...)
}

// --- In-Memory Audit Repo ---

type inMemoryAuditRepo struct {
	mu   sync.Mutex
	logs []domain.AuditLog
}

func (r *inMemoryAuditRepo) Create(ctx context.Context, log *domain.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, *log)
	return nil
}

func (r *inMemoryAuditRepo) actions() []domain.AuditAction {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.AuditAction, 0, len(r.logs))
	for _, l := range r.logs {
		out = append(out, l.Action)
	}
	return out
}

// --- In-Memory Transactor (no-op tx) ---

type inMemoryTransactor struct{}

func newInMemoryTransactor() *inMemoryTransactor {
	return &inMemoryTransactor{}
}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return &noopTx{}, nil
}

// noopTx is a no-op pgx.Tx implementation for in-memory testing.
type noopTx struct{}

func (t *noopTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *noopTx) Commit(ctx context.Context) error          { return nil }
func (t *noopTx) Rollback(ctx context.Context) error        { return nil }
func (t *noopTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *noopTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *noopTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *noopTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *noopTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *noopTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *noopTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *noopTx) Conn() *pgx.Conn { return nil }
