package domain

import (
	"time"

	"github.com/google/uuid"
)

// Contribution is a contributor's cumulative accepted value.
type Contribution struct {
	Contributor Identity `json:"contributor"`
	Amount      Amount   `json:"amount"`
}

// ContributionRequest is a single call to contribute native value.
type ContributionRequest struct {
	Caller         Identity
	Value          Amount
	IdempotencyKey string
}

// ContributionReceipt is returned for an accepted contribution.
type ContributionReceipt struct {
	ID          uuid.UUID `json:"id"`
	Contributor Identity  `json:"contributor"`
	Value       Amount    `json:"value"`
	Converted   string    `json:"converted_reference"` // Reference-currency value, floored
	Rate        string    `json:"rate"`
	Cumulative  Amount    `json:"cumulative"` // Contributor's total after this contribution
	PoolTotal   Amount    `json:"pool_total"`
	CreatedAt   time.Time `json:"created_at"`
}

// Withdrawal records a completed drain of the pool to the owner.
type Withdrawal struct {
	ID           uuid.UUID `json:"id"`
	Recipient    Identity  `json:"recipient"`
	Amount       Amount    `json:"amount"`
	Contributors int       `json:"contributors_settled"`
	CompletedAt  time.Time `json:"completed_at"`
}

// Payout is the instruction handed to the value-transfer rail.
type Payout struct {
	ID        uuid.UUID `json:"payout_id"`
	Recipient Identity  `json:"recipient"`
	Amount    Amount    `json:"amount"`
	Timestamp int64     `json:"timestamp"`
}

// FundSummary is the public view of the pool.
type FundSummary struct {
	Owner            Identity `json:"owner"`
	TotalBalance     Amount   `json:"total_balance"`
	ContributorCount int      `json:"contributor_count"`
	Minimum          string   `json:"minimum_reference"`
	PriceFeed        string   `json:"price_feed"`
}
