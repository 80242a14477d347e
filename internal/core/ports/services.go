package ports

import (
	"context"
	"time"

	"crowdfund-ledger/internal/core/domain"

	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=services.go -destination=mocks/services_mock.go -package=mocks

// PriceSource reads the reference-currency price of one native unit.
// Implementations report what the feed says; plausibility is checked by the caller.
type PriceSource interface {
	LatestQuote(ctx context.Context) (domain.PriceQuote, error)
}

// ValueTransfer moves pooled value out to a recipient. A nil error means the
// recipient accepted the transfer.
type ValueTransfer interface {
	Transfer(ctx context.Context, payout domain.Payout) error
}

// SignatureService handles HMAC-SHA256 signing and verification.
type SignatureService interface {
	Sign(secretKey string, payload string) string
	Verify(secretKey string, payload string, signature string) bool
}

// HashService handles password hashing (Argon2id).
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(identity domain.Identity) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	Identity domain.Identity
}

// IdempotencyCache is the Redis-layer replay cache for contributions.
type IdempotencyCache interface {
	Get(ctx context.Context, key string) ([]byte, error) // Returns cached response JSON or nil
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// --- Service Ports (Business Logic) ---

// FundingService accepts contributions and pays the pool out to the owner.
type FundingService interface {
	Contribute(ctx context.Context, req domain.ContributionRequest) (*domain.ContributionReceipt, error)
	Withdraw(ctx context.Context, caller domain.Identity) (*domain.Withdrawal, error)

	ContributionOf(identity domain.Identity) domain.Amount
	TotalBalance() domain.Amount
	OwnerIdentity() domain.Identity
	ContributorCount() int
	ContributorAt(index int) (domain.Identity, error)
	PriceFeed() string
	MinimumContribution() decimal.Decimal
	Summary() domain.FundSummary
}

// AuthService defines authentication business logic.
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*domain.Account, error)
	Login(ctx context.Context, identity domain.Identity, password string) (string, time.Time, error) // token, expiry, error
}

// RegisterRequest holds input for account registration.
type RegisterRequest struct {
	Identity domain.Identity
	Password string
}

// ReportingService defines journal reporting.
type ReportingService interface {
	GetSummary(ctx context.Context, identity *domain.Identity, period string) (*domain.JournalSummary, error)
	ListJournal(ctx context.Context, params JournalListParams) ([]domain.JournalEntry, int64, error)
}

// AuditService records audit entries.
type AuditService interface {
	Log(ctx context.Context, entry *domain.AuditLog)
}
