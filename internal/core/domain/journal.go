package domain

import (
	"time"

	"github.com/google/uuid"
)

// EntryType is the kind of journal row.
type EntryType string

const (
	EntryTypeContribution EntryType = "CONTRIBUTION"
	EntryTypeWithdrawal   EntryType = "WITHDRAWAL"
	EntryTypeSettlement   EntryType = "SETTLEMENT"
)

// JournalEntry is an append-only history row. The in-memory ledger is the
// source of truth; the journal is a durable record of what it accepted.
type JournalEntry struct {
	ID        uuid.UUID  `json:"id"`
	Type      EntryType  `json:"entry_type"`
	Identity  Identity   `json:"identity"`
	Amount    Amount     `json:"amount"`
	Reference *string    `json:"converted_reference,omitempty"`
	Rate      *string    `json:"rate,omitempty"`
	ParentID  *uuid.UUID `json:"parent_id,omitempty"` // Settlement rows point at their withdrawal
	CreatedAt time.Time  `json:"created_at"`
}

// JournalSummary aggregates journal rows by type.
type JournalSummary struct {
	Contributions     int64  `json:"contributions"`
	ContributedAmount Amount `json:"contributed_amount"`
	Withdrawals       int64  `json:"withdrawals"`
	WithdrawnAmount   Amount `json:"withdrawn_amount"`
}

// NewContributionEntry builds the journal row for an accepted contribution.
func NewContributionEntry(r ContributionReceipt) JournalEntry {
	converted, rate := r.Converted, r.Rate
	return JournalEntry{
		ID:        r.ID,
		Type:      EntryTypeContribution,
		Identity:  r.Contributor,
		Amount:    r.Value,
		Reference: &converted,
		Rate:      &rate,
		CreatedAt: r.CreatedAt,
	}
}

// NewSettlementEntries builds one WITHDRAWAL row followed by a SETTLEMENT row
// per contributor whose balance the withdrawal cleared.
func NewSettlementEntries(w Withdrawal, settled []Contribution) []JournalEntry {
	entries := make([]JournalEntry, 0, len(settled)+1)
	entries = append(entries, JournalEntry{
		ID:        w.ID,
		Type:      EntryTypeWithdrawal,
		Identity:  w.Recipient,
		Amount:    w.Amount,
		CreatedAt: w.CompletedAt,
	})
	parent := w.ID
	for _, c := range settled {
		entries = append(entries, JournalEntry{
			ID:        uuid.New(),
			Type:      EntryTypeSettlement,
			Identity:  c.Contributor,
			Amount:    c.Amount,
			ParentID:  &parent,
			CreatedAt: w.CompletedAt,
		})
	}
	return entries
}
