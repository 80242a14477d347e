package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"crowdfund-ledger/internal/core/access"
	"crowdfund-ledger/internal/core/domain"
	"crowdfund-ledger/internal/core/ledger"
	"crowdfund-ledger/internal/core/ports"
	"crowdfund-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/semaphore"
)

const idempotencyTTL = 24 * time.Hour

// opKey marks a context as running inside a Contribute or Withdraw of a
// specific service. Calls carrying it are nested in that operation.
type opKey struct{}

// FundingServiceDeps wires a FundingServiceImpl. Journal, Transactor and
// IdempCache are optional; without them the in-memory ledger still works.
type FundingServiceDeps struct {
	Owner       *access.Owner
	Ledger      *ledger.Ledger
	PriceSource ports.PriceSource
	PriceFeed   string // Address the PriceSource reads from
	Transfer    ports.ValueTransfer
	Policy      domain.ConversionPolicy
	Journal     ports.JournalRepository
	Transactor  ports.DBTransactor
	IdempCache  ports.IdempotencyCache
	LockTimeout time.Duration
	Now         func() time.Time
	Log         zerolog.Logger
}

// FundingServiceImpl implements ports.FundingService.
type FundingServiceImpl struct {
	owner       *access.Owner
	ledger      *ledger.Ledger
	priceSource ports.PriceSource
	priceFeed   string
	transfer    ports.ValueTransfer
	policy      domain.ConversionPolicy
	journal     ports.JournalRepository
	transactor  ports.DBTransactor
	idempCache  ports.IdempotencyCache
	lockTimeout time.Duration
	sem         *semaphore.Weighted
	now         func() time.Time
	log         zerolog.Logger
}

// NewFundingService creates a new FundingServiceImpl.
func NewFundingService(deps FundingServiceDeps) (*FundingServiceImpl, error) {
	switch {
	case deps.Owner == nil:
		return nil, errors.New("funding service: owner is required")
	case deps.PriceSource == nil:
		return nil, errors.New("funding service: price source is required")
	case deps.Transfer == nil:
		return nil, errors.New("funding service: value transfer is required")
	case deps.Journal != nil && deps.Transactor == nil:
		return nil, errors.New("funding service: journal requires a transactor")
	}

	l := deps.Ledger
	if l == nil {
		l = ledger.New()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	return &FundingServiceImpl{
		owner:       deps.Owner,
		ledger:      l,
		priceSource: deps.PriceSource,
		priceFeed:   deps.PriceFeed,
		transfer:    deps.Transfer,
		policy:      deps.Policy,
		journal:     deps.Journal,
		transactor:  deps.Transactor,
		idempCache:  deps.IdempCache,
		lockTimeout: deps.LockTimeout,
		sem:         semaphore.NewWeighted(1),
		now:         now,
		log:         deps.Log,
	}, nil
}

// Contribute validates value against the minimum at the current price and
// records it for the caller. Nothing is recorded on any error.
func (s *FundingServiceImpl) Contribute(ctx context.Context, req domain.ContributionRequest) (*domain.ContributionReceipt, error) {
	if req.Value.IsZero() {
		return nil, apperror.ErrInsufficientValue()
	}
	if err := req.Caller.Validate(); err != nil {
		return nil, apperror.Validation("invalid contributor identity")
	}

	ctx, release, err := s.enter(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	var idempKey string
	if req.IdempotencyKey != "" && s.idempCache != nil {
		idempKey = domain.BuildIdempotencyKey(req.Caller, req.IdempotencyKey)
		cached, err := s.idempCache.Get(ctx, idempKey)
		if err != nil {
			s.log.Warn().Err(err).Str("key", idempKey).Msg("redis idempotency check failed, processing contribution")
		}
		if cached != nil {
			return s.unmarshalCachedReceipt(cached)
		}
	}

	// One quote serves both the check and the receipt.
	quote, err := s.priceSource.LatestQuote(ctx)
	if err != nil {
		return nil, apperror.ErrOracleUnavailable(fmt.Errorf("read price feed: %w", err))
	}
	if err := s.policy.CheckQuote(quote, s.now()); err != nil {
		return nil, apperror.ErrOracleUnavailable(err)
	}

	converted := s.policy.ToReference(req.Value, quote)
	if !s.policy.MeetsMinimum(converted) {
		s.log.Debug().
			Str("contributor", req.Caller.String()).
			Str("value", req.Value.String()).
			Str("converted", s.policy.FormatReference(converted)).
			Msg("contribution below minimum")
		return nil, apperror.ErrInsufficientValue()
	}

	cumulative, err := s.ledger.Record(req.Caller, req.Value)
	if err != nil {
		if errors.Is(err, domain.ErrAmountOverflow) {
			return nil, apperror.ErrArithmeticOverflow(err)
		}
		return nil, apperror.InternalError(fmt.Errorf("record contribution: %w", err))
	}

	receipt := &domain.ContributionReceipt{
		ID:          uuid.New(),
		Contributor: req.Caller,
		Value:       req.Value,
		Converted:   s.policy.FormatReference(converted),
		Rate:        quote.Decimal().String(),
		Cumulative:  cumulative,
		PoolTotal:   s.ledger.Total(),
		CreatedAt:   s.now().UTC(),
	}

	// Post-process: journal + idempotency cache (best-effort)
	if s.journal != nil {
		entry := domain.NewContributionEntry(*receipt)
		if err := s.journal.Append(ctx, &entry); err != nil {
			s.log.Warn().Err(err).Str("receipt_id", receipt.ID.String()).Msg("failed to journal contribution")
		}
	}
	if idempKey != "" {
		s.cacheReceipt(ctx, idempKey, receipt)
	}

	s.log.Info().
		Str("receipt_id", receipt.ID.String()).
		Str("contributor", req.Caller.String()).
		Str("value", req.Value.String()).
		Str("converted", receipt.Converted).
		Msg("contribution accepted")

	return receipt, nil
}

// Withdraw pays the whole pool to the owner and clears the ledger. The ledger
// is drained before the transfer starts and restored if the transfer fails.
func (s *FundingServiceImpl) Withdraw(ctx context.Context, caller domain.Identity) (*domain.Withdrawal, error) {
	if err := s.owner.Require(caller); err != nil {
		s.log.Warn().Str("caller", caller.String()).Msg("withdraw denied: caller is not the owner")
		return nil, apperror.ErrNotOwner()
	}

	ctx, release, err := s.enter(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	snap := s.ledger.Drain()
	w := &domain.Withdrawal{
		ID:           uuid.New(),
		Recipient:    s.owner.Identity(),
		Amount:       snap.Total,
		Contributors: len(snap.Contributions),
	}

	if !snap.Total.IsZero() {
		payout := domain.Payout{
			ID:        w.ID,
			Recipient: w.Recipient,
			Amount:    snap.Total,
			Timestamp: s.now().Unix(),
		}
		if err := s.transfer.Transfer(ctx, payout); err != nil {
			// Unreachable for a snapshot from Drain: the ledger reserves
			// its range while it is in flight.
			if rerr := s.ledger.Restore(snap); rerr != nil {
				s.log.Error().Err(rerr).Str("withdrawal_id", w.ID.String()).
					Str("amount", snap.Total.String()).
					Msg("transfer failed and ledger could not be restored")
				return nil, apperror.ErrArithmeticOverflow(rerr)
			}
			s.log.Error().Err(err).Str("withdrawal_id", w.ID.String()).
				Str("amount", snap.Total.String()).
				Msg("transfer failed, ledger restored")
			return nil, apperror.ErrTransferFailed(err)
		}
	}

	s.ledger.Settle(snap)
	w.CompletedAt = s.now().UTC()
	s.journalWithdrawal(ctx, w, snap.Contributions)

	s.log.Info().
		Str("withdrawal_id", w.ID.String()).
		Str("recipient", w.Recipient.String()).
		Str("amount", w.Amount.String()).
		Int("contributors", w.Contributors).
		Msg("withdrawal completed")

	return w, nil
}

func (s *FundingServiceImpl) ContributionOf(identity domain.Identity) domain.Amount {
	return s.ledger.ContributionOf(identity)
}

func (s *FundingServiceImpl) TotalBalance() domain.Amount {
	return s.ledger.Total()
}

func (s *FundingServiceImpl) OwnerIdentity() domain.Identity {
	return s.owner.Identity()
}

func (s *FundingServiceImpl) ContributorCount() int {
	return s.ledger.ContributorCount()
}

// ContributorAt returns the contributor at index in first-contribution order.
func (s *FundingServiceImpl) ContributorAt(index int) (domain.Identity, error) {
	who, err := s.ledger.ContributorAt(index)
	if err != nil {
		return "", apperror.ErrIndexOutOfRange(index)
	}
	return who, nil
}

// PriceFeed returns the address of the configured price feed.
func (s *FundingServiceImpl) PriceFeed() string {
	return s.priceFeed
}

// MinimumContribution is the reference-currency floor a single contribution
// must reach at the current price.
func (s *FundingServiceImpl) MinimumContribution() decimal.Decimal {
	return s.policy.Minimum()
}

func (s *FundingServiceImpl) Summary() domain.FundSummary {
	snap := s.ledger.Snapshot()
	return domain.FundSummary{
		Owner:            s.owner.Identity(),
		TotalBalance:     snap.Total,
		ContributorCount: len(snap.Contributions),
		Minimum:          s.MinimumContribution().String(),
		PriceFeed:        s.priceFeed,
	}
}

// enter takes the operation lock unless ctx is already inside an operation
// of this service. Nested calls run against whatever state the outer
// operation has reached, which for Withdraw is the drained ledger.
func (s *FundingServiceImpl) enter(ctx context.Context) (context.Context, func(), error) {
	if outer, ok := ctx.Value(opKey{}).(*FundingServiceImpl); ok && outer == s {
		return ctx, func() {}, nil
	}

	lockCtx := ctx
	if s.lockTimeout > 0 {
		var cancel context.CancelFunc
		lockCtx, cancel = context.WithTimeout(ctx, s.lockTimeout)
		defer cancel()
	}
	if err := s.sem.Acquire(lockCtx, 1); err != nil {
		return nil, nil, apperror.ErrLockTimeout(err)
	}
	return context.WithValue(ctx, opKey{}, s), func() { s.sem.Release(1) }, nil
}

func (s *FundingServiceImpl) journalWithdrawal(ctx context.Context, w *domain.Withdrawal, settled []domain.Contribution) {
	if s.journal == nil {
		return
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		s.log.Warn().Err(err).Str("withdrawal_id", w.ID.String()).Msg("failed to begin journal tx")
		return
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if err := s.journal.AppendBatch(ctx, dbTx, domain.NewSettlementEntries(*w, settled)); err != nil {
		s.log.Warn().Err(err).Str("withdrawal_id", w.ID.String()).Msg("failed to journal withdrawal")
		return
	}
	if err := dbTx.Commit(ctx); err != nil {
		s.log.Warn().Err(err).Str("withdrawal_id", w.ID.String()).Msg("failed to commit withdrawal journal")
	}
}

func (s *FundingServiceImpl) cacheReceipt(ctx context.Context, key string, receipt *domain.ContributionReceipt) {
	respJSON, err := json.Marshal(receipt)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("failed to marshal receipt for idempotency cache")
		return
	}
	if err := s.idempCache.Set(ctx, key, respJSON, idempotencyTTL); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("failed to cache idempotency in redis")
	}
}

func (s *FundingServiceImpl) unmarshalCachedReceipt(data []byte) (*domain.ContributionReceipt, error) {
	var receipt domain.ContributionReceipt
	if err := json.Unmarshal(data, &receipt); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("unmarshal cached receipt: %w", err))
	}
	return &receipt, nil
}
