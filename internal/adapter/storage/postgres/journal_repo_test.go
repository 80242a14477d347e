package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"crowdfund-ledger/internal/core/domain"
	"crowdfund-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func newTestContribution(who domain.Identity, amount domain.Amount) *domain.JournalEntry {
	return &domain.JournalEntry{
		ID:        uuid.New(),
		Type:      domain.EntryTypeContribution,
		Identity:  who,
		Amount:    amount,
		Reference: strPtr("60"),
		Rate:      strPtr("2000"),
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

func journalColumnList() []string {
	return []string{"id", "entry_type", "identity", "amount", "converted_reference", "rate", "parent_id", "created_at"}
}

func journalRow(rows *pgxmock.Rows, e *domain.JournalEntry) *pgxmock.Rows {
	return rows.AddRow(
		e.ID, e.Type, e.Identity, decimal.RequireFromString(e.Amount.String()),
		e.Reference, e.Rate, e.ParentID, e.CreatedAt,
	)
}

func TestJournalRepo_Append(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewJournalRepo(mock)
	e := newTestContribution("alice", 30_000_000_000_000_000)

	mock.ExpectExec("INSERT INTO journal_entries").
		WithArgs(e.ID, e.Type, e.Identity, e.Amount.Decimal(0), e.Reference, e.Rate, e.ParentID, e.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.Append(context.Background(), e)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJournalRepo_Append_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewJournalRepo(mock)

	mock.ExpectExec("INSERT INTO journal_entries").
		WillReturnError(errors.New("connection refused"))

	err = repo.Append(context.Background(), newTestContribution("alice", 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert journal entry")
}

func TestJournalRepo_AppendBatch(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewJournalRepo(mock)
	w := domain.Withdrawal{
		ID:          uuid.New(),
		Recipient:   "owner",
		Amount:      90,
		CompletedAt: time.Now().UTC(),
	}
	entries := domain.NewSettlementEntries(w, []domain.Contribution{
		{Contributor: "alice", Amount: 30},
		{Contributor: "bob", Amount: 60},
	})

	mock.ExpectBegin()
	for i := range entries {
		e := entries[i]
		mock.ExpectExec("INSERT INTO journal_entries").
			WithArgs(e.ID, e.Type, e.Identity, e.Amount.Decimal(0), e.Reference, e.Rate, e.ParentID, e.CreatedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}
	mock.ExpectCommit()

	dbTx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	require.NoError(t, repo.AppendBatch(context.Background(), dbTx, entries))
	require.NoError(t, dbTx.Commit(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJournalRepo_AppendBatch_StopsOnError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewJournalRepo(mock)
	entries := []domain.JournalEntry{
		*newTestContribution("alice", 1),
		*newTestContribution("bob", 2),
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO journal_entries").
		WillReturnError(errors.New("disk full"))

	dbTx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.AppendBatch(context.Background(), dbTx, entries)
	require.Error(t, err)
	assert.Contains(t, err.Error(), entries[0].ID.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJournalRepo_List_Filtered(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewJournalRepo(mock)
	who := domain.Identity("alice")
	typ := domain.EntryTypeContribution
	e := newTestContribution(who, 30_000_000_000_000_000)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM journal_entries WHERE identity = \\$1 AND entry_type = \\$2").
		WithArgs(who, typ).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectQuery("SELECT .+ FROM journal_entries WHERE identity = \\$1 AND entry_type = \\$2 .+ LIMIT \\$3 OFFSET \\$4").
		WithArgs(who, typ, 20, 0).
		WillReturnRows(journalRow(pgxmock.NewRows(journalColumnList()), e))

	entries, total, err := repo.List(context.Background(), ports.JournalListParams{
		Identity: &who,
		Type:     &typ,
		Page:     1,
		PageSize: 20,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, entries, 1)
	assert.Equal(t, e.ID, entries[0].ID)
	assert.Equal(t, e.Amount, entries[0].Amount)
	assert.Equal(t, "60", *entries[0].Reference)
	assert.Nil(t, entries[0].ParentID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJournalRepo_List_NoFilters(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewJournalRepo(mock)
	from, to := int64(1700000000), int64(1800000000)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM journal_entries WHERE created_at >= to_timestamp\\(\\$1\\) AND created_at <= to_timestamp\\(\\$2\\)").
		WithArgs(from, to).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(0)))
	mock.ExpectQuery("SELECT .+ FROM journal_entries").
		WithArgs(from, to, 10, 10).
		WillReturnRows(pgxmock.NewRows(journalColumnList()))

	entries, total, err := repo.List(context.Background(), ports.JournalListParams{
		From:     &from,
		To:       &to,
		Page:     2,
		PageSize: 10,
	})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, entries)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJournalRepo_List_RejectsCorruptAmount(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewJournalRepo(mock)
	e := newTestContribution("alice", 1)

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectQuery("SELECT .+ FROM journal_entries").
		WithArgs(20, 0).
		WillReturnRows(pgxmock.NewRows(journalColumnList()).AddRow(
			e.ID, e.Type, e.Identity, decimal.RequireFromString("99999999999999999999"),
			e.Reference, e.Rate, e.ParentID, e.CreatedAt,
		))

	_, _, err = repo.List(context.Background(), ports.JournalListParams{Page: 1, PageSize: 20})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAmountOverflow)
}

func TestJournalRepo_Summary(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewJournalRepo(mock)
	who := domain.Identity("alice")
	since := time.Now().Add(-24 * time.Hour)

	mock.ExpectQuery("SELECT .+ FROM journal_entries WHERE identity = \\$1 AND created_at >= \\$2").
		WithArgs(who, since).
		WillReturnRows(pgxmock.NewRows(
			[]string{"contributions", "contributed", "withdrawals", "withdrawn"},
		).AddRow(int64(3), decimal.RequireFromString("90000000000000000"), int64(0), decimal.Zero))

	s, err := repo.Summary(context.Background(), &who, &since)
	require.NoError(t, err)
	assert.Equal(t, int64(3), s.Contributions)
	assert.Equal(t, domain.Amount(90_000_000_000_000_000), s.ContributedAmount)
	assert.Zero(t, s.Withdrawals)
	assert.True(t, s.WithdrawnAmount.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJournalRepo_Summary_AllTime(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewJournalRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM journal_entries").
		WithArgs().
		WillReturnRows(pgxmock.NewRows(
			[]string{"contributions", "contributed", "withdrawals", "withdrawn"},
		).AddRow(int64(2), decimal.NewFromInt(150), int64(1), decimal.NewFromInt(150)))

	s, err := repo.Summary(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), s.Withdrawals)
	assert.Equal(t, domain.Amount(150), s.WithdrawnAmount)
	assert.NoError(t, mock.ExpectationsWereMet())
}
