package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"crowdfund-ledger/internal/core/domain"
	"crowdfund-ledger/internal/core/ports"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const journalColumns = `id, entry_type, identity, amount, converted_reference, rate, parent_id, created_at`

// JournalRepo implements ports.JournalRepository. Amounts are stored as
// NUMERIC(20,0) since uint64 does not fit BIGINT.
type JournalRepo struct {
	pool Pool
}

func NewJournalRepo(pool Pool) *JournalRepo {
	return &JournalRepo{pool: pool}
}

// Append inserts a single entry outside any transaction.
func (r *JournalRepo) Append(ctx context.Context, e *domain.JournalEntry) error {
	_, err := r.pool.Exec(ctx, insertJournalSQL, journalArgs(e)...)
	if err != nil {
		return fmt.Errorf("insert journal entry: %w", err)
	}
	return nil
}

// AppendBatch inserts entries in order within tx. The caller commits.
func (r *JournalRepo) AppendBatch(ctx context.Context, tx pgx.Tx, entries []domain.JournalEntry) error {
	for i := range entries {
		if _, err := tx.Exec(ctx, insertJournalSQL, journalArgs(&entries[i])...); err != nil {
			return fmt.Errorf("insert journal entry %s: %w", entries[i].ID, err)
		}
	}
	return nil
}

// List fetches entries with filtering and pagination, newest first.
func (r *JournalRepo) List(ctx context.Context, params ports.JournalListParams) ([]domain.JournalEntry, int64, error) {
	var conditions []string
	var args []any
	argIdx := 1

	if params.Identity != nil {
		conditions = append(conditions, fmt.Sprintf("identity = $%d", argIdx))
		args = append(args, *params.Identity)
		argIdx++
	}
	if params.Type != nil {
		conditions = append(conditions, fmt.Sprintf("entry_type = $%d", argIdx))
		args = append(args, *params.Type)
		argIdx++
	}
	if params.From != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= to_timestamp($%d)", argIdx))
		args = append(args, *params.From)
		argIdx++
	}
	if params.To != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= to_timestamp($%d)", argIdx))
		args = append(args, *params.To)
		argIdx++
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM journal_entries %s", where)
	var total int64
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count journal entries: %w", err)
	}

	offset := (params.Page - 1) * params.PageSize
	dataQuery := fmt.Sprintf(`SELECT %s FROM journal_entries %s
		ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`, journalColumns, where, argIdx, argIdx+1)
	args = append(args, params.PageSize, offset)

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list journal entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.JournalEntry
	for rows.Next() {
		e, err := scanJournalEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate journal rows: %w", err)
	}
	return entries, total, nil
}

// Summary aggregates contributions and withdrawals, optionally for one
// identity and from a point in time.
func (r *JournalRepo) Summary(ctx context.Context, identity *domain.Identity, since *time.Time) (*domain.JournalSummary, error) {
	var conditions []string
	var args []any
	argIdx := 1

	if identity != nil {
		conditions = append(conditions, fmt.Sprintf("identity = $%d", argIdx))
		args = append(args, *identity)
		argIdx++
	}
	if since != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argIdx))
		args = append(args, *since)
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`SELECT
		COUNT(*) FILTER (WHERE entry_type = 'CONTRIBUTION') AS contributions,
		COALESCE(SUM(amount) FILTER (WHERE entry_type = 'CONTRIBUTION'), 0) AS contributed,
		COUNT(*) FILTER (WHERE entry_type = 'WITHDRAWAL') AS withdrawals,
		COALESCE(SUM(amount) FILTER (WHERE entry_type = 'WITHDRAWAL'), 0) AS withdrawn
		FROM journal_entries %s`, where)

	var (
		s                      domain.JournalSummary
		contributed, withdrawn decimal.Decimal
	)
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&s.Contributions, &contributed, &s.Withdrawals, &withdrawn,
	)
	if err != nil {
		return nil, fmt.Errorf("journal summary: %w", err)
	}

	if s.ContributedAmount, err = toAmount(contributed); err != nil {
		return nil, fmt.Errorf("contributed amount: %w", err)
	}
	if s.WithdrawnAmount, err = toAmount(withdrawn); err != nil {
		return nil, fmt.Errorf("withdrawn amount: %w", err)
	}
	return &s, nil
}

const insertJournalSQL = `INSERT INTO journal_entries (` + journalColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

func journalArgs(e *domain.JournalEntry) []any {
	return []any{
		e.ID, e.Type, e.Identity, e.Amount.Decimal(0),
		e.Reference, e.Rate, e.ParentID, e.CreatedAt,
	}
}

func scanJournalEntry(row pgx.Row) (domain.JournalEntry, error) {
	var (
		e      domain.JournalEntry
		amount decimal.Decimal
	)
	err := row.Scan(
		&e.ID, &e.Type, &e.Identity, &amount,
		&e.Reference, &e.Rate, &e.ParentID, &e.CreatedAt,
	)
	if err != nil {
		return e, fmt.Errorf("scan journal entry: %w", err)
	}
	if e.Amount, err = toAmount(amount); err != nil {
		return e, fmt.Errorf("journal entry %s: %w", e.ID, err)
	}
	return e, nil
}

func toAmount(d decimal.Decimal) (domain.Amount, error) {
	return domain.ParseAmount(d.String())
}
