package detector

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rank11/sol-wallet-monitor/internal/models"
	"github.com/rank11/sol-wallet-monitor/pkg/solanarpc"
)

type fakeLedger struct {
	balances map[string]uint64
	err      error
	calls    int
}

func (f *fakeLedger) GetBalances(ctx context.Context, addrs []string) (map[string]uint64, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]uint64, len(addrs))
	for _, a := range addrs {
		out[a] = f.balances[a]
	}
	return out, nil
}

func wallets(addrs ...string) []models.WatchedWallet {
	out := make([]models.WatchedWallet, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, models.WatchedWallet{Address: a, Name: a})
	}
	return out
}

func TestDetector(t *testing.T) {
	ctx := context.Background()

	t.Run("First Cycle Primes Without Changes", func(t *testing.T) {
		ledger := &fakeLedger{balances: map[string]uint64{"A": 1_000_000, "B": 2_000_000}}
		d := New(ledger, 100, 10_000)

		changes, rateLimited := d.Detect(ctx, wallets("A", "B"))
		assert.Empty(t, changes)
		assert.False(t, rateLimited)
		assert.Equal(t, uint64(1_000_000), d.Balances()["A"])
	})

	t.Run("Change Above Threshold Is Reported", func(t *testing.T) {
		ledger := &fakeLedger{balances: map[string]uint64{"A": 1_000_000}}
		d := New(ledger, 100, 10_000)
		d.Detect(ctx, wallets("A"))

		ledger.balances["A"] = 1_500_000
		changes, _ := d.Detect(ctx, wallets("A"))
		require.Len(t, changes, 1)
		assert.Equal(t, "A", changes[0].Address)
		assert.Equal(t, uint64(1_000_000), changes[0].OldLamports)
		assert.Equal(t, uint64(1_500_000), changes[0].NewLamports)
		assert.Equal(t, int64(500_000), changes[0].DeltaLamports())
	})

	t.Run("Change At Or Below Threshold Is Ignored", func(t *testing.T) {
		ledger := &fakeLedger{balances: map[string]uint64{"A": 1_000_000}}
		d := New(ledger, 100, 10_000)
		d.Detect(ctx, wallets("A"))

		ledger.balances["A"] = 1_010_000 // exactly the threshold
		changes, _ := d.Detect(ctx, wallets("A"))
		assert.Empty(t, changes)

		ledger.balances["A"] = 1_010_001
		changes, _ = d.Detect(ctx, wallets("A"))
		assert.Len(t, changes, 1)
	})

	t.Run("Unchanged Wallets Emit Nothing", func(t *testing.T) {
		ledger := &fakeLedger{balances: map[string]uint64{"A": 5_000_000}}
		d := New(ledger, 100, 10_000)
		d.Detect(ctx, wallets("A"))

		changes, _ := d.Detect(ctx, wallets("A"))
		assert.Empty(t, changes)
	})

	t.Run("Failed Batch Keeps Stale Snapshot", func(t *testing.T) {
		ledger := &fakeLedger{balances: map[string]uint64{"A": 1_000_000}}
		d := New(ledger, 100, 10_000)
		d.Detect(ctx, wallets("A"))

		ledger.err = errors.New("connection reset")
		changes, rateLimited := d.Detect(ctx, wallets("A"))
		assert.Empty(t, changes)
		assert.False(t, rateLimited)

		// Next successful cycle diffs against the old baseline.
		ledger.err = nil
		ledger.balances["A"] = 2_000_000
		changes, _ = d.Detect(ctx, wallets("A"))
		require.Len(t, changes, 1)
		assert.Equal(t, uint64(1_000_000), changes[0].OldLamports)
	})

	t.Run("Rate Limit Error Is Surfaced", func(t *testing.T) {
		ledger := &fakeLedger{err: solanarpc.ErrRateLimited}
		d := New(ledger, 100, 10_000)

		changes, rateLimited := d.Detect(ctx, wallets("A"))
		assert.Empty(t, changes)
		assert.True(t, rateLimited)
	})

	t.Run("Batches Split By Batch Size", func(t *testing.T) {
		ledger := &fakeLedger{balances: map[string]uint64{"A": 1, "B": 2, "C": 3}}
		d := New(ledger, 2, 0)

		d.Detect(ctx, wallets("A", "B", "C"))
		assert.Equal(t, 2, ledger.calls)
	})

	t.Run("Forget Prunes Removed Wallets", func(t *testing.T) {
		ledger := &fakeLedger{balances: map[string]uint64{"A": 1_000_000, "B": 2_000_000}}
		d := New(ledger, 100, 10_000)
		d.Detect(ctx, wallets("A", "B"))

		d.Forget(wallets("A"))
		balances := d.Balances()
		assert.Contains(t, balances, "A")
		assert.NotContains(t, balances, "B")
	})
}
