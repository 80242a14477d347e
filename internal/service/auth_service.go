package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"crowdfund-ledger/internal/core/domain"
	"crowdfund-ledger/internal/core/ports"
	"crowdfund-ledger/pkg/apperror"

	"github.com/google/uuid"
)

const minPasswordLength = 8

// AuthServiceImpl implements ports.AuthService.
type AuthServiceImpl struct {
	accountRepo ports.AccountRepository
	hashSvc     ports.HashService
	tokenSvc    ports.TokenService
}

// NewAuthService creates a new AuthServiceImpl.
func NewAuthService(
	accountRepo ports.AccountRepository,
	hashSvc ports.HashService,
	tokenSvc ports.TokenService,
) *AuthServiceImpl {
	return &AuthServiceImpl{
		accountRepo: accountRepo,
		hashSvc:     hashSvc,
		tokenSvc:    tokenSvc,
	}
}

// Register creates an account for a new identity.
func (s *AuthServiceImpl) Register(ctx context.Context, req ports.RegisterRequest) (*domain.Account, error) {
	if err := req.Identity.Validate(); err != nil {
		return nil, apperror.Validation("identity must be 1-64 characters of letters, digits, '.', '_' or '-'")
	}
	if len(req.Password) < minPasswordLength {
		return nil, apperror.Validation(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	existing, err := s.accountRepo.GetByIdentity(ctx, req.Identity)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check identity: %w", err))
	}
	if existing != nil {
		return nil, apperror.ErrIdentityExists()
	}

	return s.create(ctx, req)
}

// EnsureAccount creates the account if the identity is not registered yet.
// It seeds the owner's login at startup so nobody else can claim the name.
func (s *AuthServiceImpl) EnsureAccount(ctx context.Context, req ports.RegisterRequest) (*domain.Account, bool, error) {
	existing, err := s.accountRepo.GetByIdentity(ctx, req.Identity)
	if err != nil {
		return nil, false, fmt.Errorf("check identity: %w", err)
	}
	if existing != nil {
		return existing, false, nil
	}

	account, err := s.create(ctx, req)
	if err != nil {
		return nil, false, err
	}
	return account, true, nil
}

func (s *AuthServiceImpl) create(ctx context.Context, req ports.RegisterRequest) (*domain.Account, error) {
	passwordHash, err := s.hashSvc.Hash(req.Password)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("hash password: %w", err))
	}

	now := time.Now().UTC()
	account := &domain.Account{
		ID:           uuid.New(),
		Identity:     req.Identity,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.accountRepo.Create(ctx, account); err != nil {
		if errors.Is(err, domain.ErrDuplicateIdentity) {
			return nil, apperror.ErrIdentityExists()
		}
		return nil, apperror.InternalError(fmt.Errorf("create account: %w", err))
	}

	return account, nil
}

// Login validates credentials and returns a JWT whose subject is the identity.
func (s *AuthServiceImpl) Login(ctx context.Context, identity domain.Identity, password string) (string, time.Time, error) {
	account, err := s.accountRepo.GetByIdentity(ctx, identity)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("find account: %w", err))
	}
	if account == nil {
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}

	valid, err := s.hashSvc.Verify(password, account.PasswordHash)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("verify password: %w", err))
	}
	if !valid {
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}

	token, expiry, err := s.tokenSvc.Generate(account.Identity)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("generate token: %w", err))
	}

	return token, expiry, nil
}
