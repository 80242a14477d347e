// Package ledger holds the in-memory pool: per-contributor cumulative
// contributions, their first-seen order and the running total.
package ledger

import (
	"errors"
	"fmt"
	"sync"

	"crowdfund-ledger/internal/core/domain"
)

var (
	// ErrZeroAmount is returned when recording a zero contribution.
	ErrZeroAmount = errors.New("contribution amount must be positive")
	// ErrIndexOutOfRange is returned by ContributorAt for an index past the end.
	ErrIndexOutOfRange = errors.New("contributor index out of range")
)

// Snapshot is a point-in-time copy of the ledger, in contributor order.
type Snapshot struct {
	Contributions []domain.Contribution
	Total         domain.Amount
}

// Ledger is safe for concurrent use. Every mutation is all-or-nothing.
//
// Drained value stays in flight until it is settled or restored. Record
// counts in-flight value against the uint64 range, so a drained snapshot
// always fits back.
type Ledger struct {
	mu       sync.RWMutex
	balances map[domain.Identity]domain.Amount
	order    []domain.Identity
	total    domain.Amount

	inFlight      map[domain.Identity]domain.Amount
	inFlightTotal domain.Amount
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{
		balances: make(map[domain.Identity]domain.Amount),
		inFlight: make(map[domain.Identity]domain.Amount),
	}
}

// Record adds amount to who's balance and returns the new cumulative amount.
func (l *Ledger) Record(who domain.Identity, amount domain.Amount) (domain.Amount, error) {
	if amount.IsZero() {
		return 0, ErrZeroAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	current, seen := l.balances[who]
	next, err := current.Add(amount)
	if err == nil {
		_, err = next.Add(l.inFlight[who])
	}
	if err != nil {
		return 0, fmt.Errorf("balance of %s: %w", who, err)
	}
	total, err := l.total.Add(amount)
	if err == nil {
		_, err = total.Add(l.inFlightTotal)
	}
	if err != nil {
		return 0, fmt.Errorf("pool total: %w", err)
	}

	if !seen {
		l.order = append(l.order, who)
	}
	l.balances[who] = next
	l.total = total
	return next, nil
}

// Drain clears the ledger and returns what it held. The snapshot stays in
// flight until it is passed to Settle or Restore.
func (l *Ledger) Drain() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	snap := l.snapshotLocked()
	for _, c := range snap.Contributions {
		// Cannot overflow: Record kept balance plus in-flight within range.
		l.inFlight[c.Contributor] += c.Amount
	}
	l.inFlightTotal += snap.Total
	l.balances = make(map[domain.Identity]domain.Amount)
	l.order = nil
	l.total = 0
	return snap
}

// Restore puts a drained snapshot back. Snapshot contributors keep their
// original positions ahead of anyone recorded since the drain, and balances
// recorded since are added on top. Nothing changes if any sum overflows.
func (l *Ledger) Restore(snap Snapshot) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	balances := make(map[domain.Identity]domain.Amount, len(snap.Contributions)+len(l.order))
	order := make([]domain.Identity, 0, len(snap.Contributions)+len(l.order))
	var total domain.Amount

	merge := func(who domain.Identity, amount domain.Amount) error {
		current, seen := balances[who]
		next, err := current.Add(amount)
		if err != nil {
			return fmt.Errorf("balance of %s: %w", who, err)
		}
		if total, err = total.Add(amount); err != nil {
			return fmt.Errorf("pool total: %w", err)
		}
		if !seen {
			order = append(order, who)
		}
		balances[who] = next
		return nil
	}

	for _, c := range snap.Contributions {
		if err := merge(c.Contributor, c.Amount); err != nil {
			return err
		}
	}
	for _, who := range l.order {
		if err := merge(who, l.balances[who]); err != nil {
			return err
		}
	}

	l.balances = balances
	l.order = order
	l.total = total
	l.releaseLocked(snap)
	return nil
}

// Settle marks a drained snapshot as paid out.
func (l *Ledger) Settle(snap Snapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.releaseLocked(snap)
}

// InFlight returns the value drained but neither settled nor restored.
func (l *Ledger) InFlight() domain.Amount {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.inFlightTotal
}

func (l *Ledger) releaseLocked(snap Snapshot) {
	for _, c := range snap.Contributions {
		held := l.inFlight[c.Contributor]
		if c.Amount >= held {
			delete(l.inFlight, c.Contributor)
			continue
		}
		l.inFlight[c.Contributor] = held - c.Amount
	}
	l.inFlightTotal -= min(snap.Total, l.inFlightTotal)
}

// ContributionOf returns who's cumulative contribution, zero if unknown.
func (l *Ledger) ContributionOf(who domain.Identity) domain.Amount {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[who]
}

// ContributorAt returns the contributor first seen at position index.
func (l *Ledger) ContributorAt(index int) (domain.Identity, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if index < 0 || index >= len(l.order) {
		return "", fmt.Errorf("index %d of %d: %w", index, len(l.order), ErrIndexOutOfRange)
	}
	return l.order[index], nil
}

func (l *Ledger) ContributorCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.order)
}

func (l *Ledger) Total() domain.Amount {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.total
}

// Snapshot returns a copy of the current state without changing it.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snapshotLocked()
}

func (l *Ledger) snapshotLocked() Snapshot {
	contributions := make([]domain.Contribution, 0, len(l.order))
	for _, who := range l.order {
		contributions = append(contributions, domain.Contribution{Contributor: who, Amount: l.balances[who]})
	}
	return Snapshot{Contributions: contributions, Total: l.total}
}
