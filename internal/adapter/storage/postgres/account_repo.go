package postgres

import (
	"context"
	"errors"
	"fmt"

	"crowdfund-ledger/internal/core/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueViolation is the PostgreSQL SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

// AccountRepo implements ports.AccountRepository.
type AccountRepo struct {
	pool Pool
}

func NewAccountRepo(pool Pool) *AccountRepo {
	return &AccountRepo{pool: pool}
}

// Create inserts a new account.
func (r *AccountRepo) Create(ctx context.Context, a *domain.Account) error {
	query := `INSERT INTO accounts (id, identity, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.pool.Exec(ctx, query, a.ID, a.Identity, a.PasswordHash, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("insert account %s: %w", a.Identity, domain.ErrDuplicateIdentity)
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// GetByIdentity returns nil, nil when no account exists.
func (r *AccountRepo) GetByIdentity(ctx context.Context, identity domain.Identity) (*domain.Account, error) {
	query := `SELECT id, identity, password_hash, created_at, updated_at
		FROM accounts WHERE identity = $1`

	a := &domain.Account{}
	err := r.pool.QueryRow(ctx, query, identity).Scan(
		&a.ID, &a.Identity, &a.PasswordHash, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get account by identity: %w", err)
	}
	return a, nil
}
