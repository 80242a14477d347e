package ledger

import (
	"fmt"
	"math"
	"sync"
	"testing"

	"crowdfund-ledger/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sumOf(l *Ledger) domain.Amount {
	var sum domain.Amount
	for i := 0; i < l.ContributorCount(); i++ {
		who, _ := l.ContributorAt(i)
		sum += l.ContributionOf(who)
	}
	return sum
}

func TestRecord_AccumulatesAndKeepsOrder(t *testing.T) {
	l := New()

	got, err := l.Record("alice", 10)
	require.NoError(t, err)
	assert.Equal(t, domain.Amount(10), got)

	_, err = l.Record("bob", 5)
	require.NoError(t, err)

	got, err = l.Record("alice", 7)
	require.NoError(t, err)
	assert.Equal(t, domain.Amount(17), got)

	assert.Equal(t, 2, l.ContributorCount())
	first, _ := l.ContributorAt(0)
	second, _ := l.ContributorAt(1)
	assert.Equal(t, domain.Identity("alice"), first)
	assert.Equal(t, domain.Identity("bob"), second)
	assert.Equal(t, domain.Amount(22), l.Total())
	assert.Equal(t, l.Total(), sumOf(l))
}

func TestRecord_RejectsZero(t *testing.T) {
	l := New()
	_, err := l.Record("alice", 0)
	assert.ErrorIs(t, err, ErrZeroAmount)
	assert.Equal(t, 0, l.ContributorCount())
}

func TestRecord_OverflowLeavesStateUntouched(t *testing.T) {
	l := New()
	_, err := l.Record("alice", math.MaxUint64-1)
	require.NoError(t, err)

	// Total overflows even though bob's own balance would not.
	_, err = l.Record("bob", 2)
	assert.ErrorIs(t, err, domain.ErrAmountOverflow)
	assert.Equal(t, 1, l.ContributorCount())
	assert.Equal(t, domain.Amount(0), l.ContributionOf("bob"))
	assert.Equal(t, domain.Amount(math.MaxUint64-1), l.Total())

	_, err = l.Record("alice", 5)
	assert.ErrorIs(t, err, domain.ErrAmountOverflow)
	assert.Equal(t, domain.Amount(math.MaxUint64-1), l.ContributionOf("alice"))
}

func TestContributionOf_UnknownIsZero(t *testing.T) {
	assert.Equal(t, domain.Amount(0), New().ContributionOf("nobody"))
}

func TestContributorAt_OutOfRange(t *testing.T) {
	l := New()
	_, _ = l.Record("alice", 1)

	for _, idx := range []int{-1, 1, 100} {
		_, err := l.ContributorAt(idx)
		assert.ErrorIs(t, err, ErrIndexOutOfRange, "index %d", idx)
	}
}

func TestDrain_ClearsEverything(t *testing.T) {
	l := New()
	_, _ = l.Record("alice", 10)
	_, _ = l.Record("bob", 20)

	snap := l.Drain()
	assert.Equal(t, domain.Amount(30), snap.Total)
	assert.Equal(t, []domain.Contribution{{Contributor: "alice", Amount: 10}, {Contributor: "bob", Amount: 20}}, snap.Contributions)

	assert.Equal(t, domain.Amount(0), l.Total())
	assert.Equal(t, 0, l.ContributorCount())
	assert.Equal(t, domain.Amount(0), l.ContributionOf("alice"))

	// Draining an empty ledger is fine and yields nothing.
	empty := l.Drain()
	assert.Equal(t, domain.Amount(0), empty.Total)
	assert.Empty(t, empty.Contributions)
}

func TestRestore_RoundTrip(t *testing.T) {
	l := New()
	_, _ = l.Record("alice", 10)
	_, _ = l.Record("bob", 20)
	before := l.Snapshot()

	require.NoError(t, l.Restore(l.Drain()))
	assert.Equal(t, before, l.Snapshot())
}

func TestRestore_MergesWithLaterContributions(t *testing.T) {
	l := New()
	_, _ = l.Record("alice", 10)
	_, _ = l.Record("bob", 20)
	snap := l.Drain()

	_, _ = l.Record("carol", 3)
	_, _ = l.Record("bob", 1)

	require.NoError(t, l.Restore(snap))

	got := l.Snapshot()
	assert.Equal(t, []domain.Contribution{
		{Contributor: "alice", Amount: 10},
		{Contributor: "bob", Amount: 21},
		{Contributor: "carol", Amount: 3},
	}, got.Contributions)
	assert.Equal(t, domain.Amount(34), got.Total)
	assert.Equal(t, got.Total, sumOf(l))
}

func TestRecord_CountsInFlightValue(t *testing.T) {
	l := New()
	_, _ = l.Record("alice", math.MaxUint64-1)
	snap := l.Drain()

	// The drained value may come back, so the range it needs stays reserved.
	_, err := l.Record("bob", 2)
	assert.ErrorIs(t, err, domain.ErrAmountOverflow)
	_, err = l.Record("alice", 2)
	assert.ErrorIs(t, err, domain.ErrAmountOverflow)

	_, err = l.Record("bob", 1)
	require.NoError(t, err)

	require.NoError(t, l.Restore(snap))
	assert.Equal(t, domain.Amount(math.MaxUint64), l.Total())
	assert.Equal(t, domain.Amount(math.MaxUint64-1), l.ContributionOf("alice"))
	assert.Equal(t, domain.Amount(1), l.ContributionOf("bob"))
	assert.Equal(t, domain.Amount(0), l.InFlight())
}

func TestSettle_ReleasesReservedRange(t *testing.T) {
	l := New()
	_, _ = l.Record("alice", math.MaxUint64)
	snap := l.Drain()
	assert.Equal(t, domain.Amount(math.MaxUint64), l.InFlight())

	_, err := l.Record("alice", 1)
	assert.ErrorIs(t, err, domain.ErrAmountOverflow)

	l.Settle(snap)
	assert.Equal(t, domain.Amount(0), l.InFlight())

	got, err := l.Record("alice", 1)
	require.NoError(t, err)
	assert.Equal(t, domain.Amount(1), got)
}

func TestRestore_NestedDrainsSettleIndependently(t *testing.T) {
	l := New()
	_, _ = l.Record("alice", 10)
	outer := l.Drain()

	_, _ = l.Record("bob", 5)
	inner := l.Drain()
	assert.Equal(t, domain.Amount(15), l.InFlight())

	l.Settle(inner)
	require.NoError(t, l.Restore(outer))

	assert.Equal(t, domain.Amount(0), l.InFlight())
	assert.Equal(t, domain.Amount(10), l.Total())
	assert.Equal(t, domain.Amount(0), l.ContributionOf("bob"))
}

func TestRestore_ForeignSnapshotOverflowLeavesStateUntouched(t *testing.T) {
	l := New()
	_, _ = l.Record("bob", 1)

	foreign := Snapshot{
		Contributions: []domain.Contribution{{Contributor: "alice", Amount: math.MaxUint64}},
		Total:         math.MaxUint64,
	}
	err := l.Restore(foreign)
	assert.ErrorIs(t, err, domain.ErrAmountOverflow)
	assert.Equal(t, 1, l.ContributorCount())
	assert.Equal(t, domain.Amount(1), l.Total())
}

func TestSnapshot_IsACopy(t *testing.T) {
	l := New()
	_, _ = l.Record("alice", 10)

	snap := l.Snapshot()
	snap.Contributions[0].Amount = 999

	assert.Equal(t, domain.Amount(10), l.ContributionOf("alice"))
}

func TestConcurrentRecord_TotalMatchesSum(t *testing.T) {
	l := New()
	const workers, perWorker = 16, 200

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			who := domain.Identity(fmt.Sprintf("user-%d", w%4))
			for i := 0; i < perWorker; i++ {
				_, err := l.Record(who, 1)
				assert.NoError(t, err)
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, domain.Amount(workers*perWorker), l.Total())
	assert.Equal(t, 4, l.ContributorCount())
	assert.Equal(t, l.Total(), sumOf(l))
}
