package detector

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/rank11/sol-wallet-monitor/internal/models"
	"github.com/rank11/sol-wallet-monitor/pkg/solanarpc"
)

// BalanceFetcher is the slice of the ledger client the detector needs.
type BalanceFetcher interface {
	GetBalances(ctx context.Context, addrs []string) (map[string]uint64, error)
}

// Detector owns the balance snapshot. Each Detect call queries current
// balances in fixed-size batches, diffs against the snapshot, and emits a
// ChangeRecord for every wallet that moved by more than the threshold.
//
// The snapshot is applied per successful batch: a failed batch leaves its
// accounts at their previous values and produces no changes this cycle, so
// the next cycle re-diffs against the stale baseline.
type Detector struct {
	ledger    BalanceFetcher
	batchSize int
	threshold uint64

	mu       sync.RWMutex
	balances map[string]uint64
}

// New creates a Detector. threshold is the minimum absolute lamport delta
// that counts as a change; it is deliberately small so legitimate small
// transfers are not dropped.
func New(ledger BalanceFetcher, batchSize int, threshold uint64) *Detector {
	if batchSize <= 0 || batchSize > solanarpc.MaxAccountsPerBatch {
		batchSize = solanarpc.MaxAccountsPerBatch
	}
	return &Detector{
		ledger:    ledger,
		batchSize: batchSize,
		threshold: threshold,
		balances:  make(map[string]uint64),
	}
}

// Detect runs one detection cycle over the wallet set. It returns the
// changes found and whether any batch failed on a rate-limit signal so the
// caller can back off.
func (d *Detector) Detect(ctx context.Context, wallets []models.WatchedWallet) ([]models.ChangeRecord, bool) {
	var changes []models.ChangeRecord
	rateLimited := false

	for start := 0; start < len(wallets); start += d.batchSize {
		end := start + d.batchSize
		if end > len(wallets) {
			end = len(wallets)
		}
		addrs := make([]string, 0, end-start)
		for _, w := range wallets[start:end] {
			addrs = append(addrs, w.Address)
		}

		fresh, err := d.ledger.GetBalances(ctx, addrs)
		if err != nil {
			if solanarpc.IsRateLimit(err) {
				rateLimited = true
			}
			log.WithFields(log.Fields{
				"batch_start": start,
				"batch_size":  len(addrs),
				"error":       err.Error(),
			}).Warn("Balance batch failed, keeping stale snapshot for those wallets")
			continue
		}

		changes = append(changes, d.applyBatch(addrs, fresh)...)

		if ctx.Err() != nil {
			break
		}
	}

	return changes, rateLimited
}

// applyBatch diffs one batch against the snapshot and commits its new values
// atomically under the lock. Wallets seen for the first time are primed
// without emitting a change.
func (d *Detector) applyBatch(addrs []string, fresh map[string]uint64) []models.ChangeRecord {
	d.mu.Lock()
	defer d.mu.Unlock()

	var changes []models.ChangeRecord
	for _, addr := range addrs {
		newBal, ok := fresh[addr]
		if !ok {
			continue
		}
		oldBal, seen := d.balances[addr]
		d.balances[addr] = newBal
		if !seen {
			continue
		}
		if absDelta(oldBal, newBal) > d.threshold {
			changes = append(changes, models.ChangeRecord{
				Address:     addr,
				OldLamports: oldBal,
				NewLamports: newBal,
			})
		}
	}
	return changes
}

// Balances returns a copy of the current snapshot for inspection.
func (d *Detector) Balances() map[string]uint64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(map[string]uint64, len(d.balances))
	for k, v := range d.balances {
		out[k] = v
	}
	return out
}

// Forget drops wallets that left the watch list so the snapshot does not
// grow without bound across hot reloads.
func (d *Detector) Forget(current []models.WatchedWallet) {
	keep := make(map[string]bool, len(current))
	for _, w := range current {
		keep[w.Address] = true
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for addr := range d.balances {
		if !keep[addr] {
			delete(d.balances, addr)
		}
	}
}

func absDelta(a, b uint64) uint64 {
	if a > b {
		return a - b
	}
	return b - a
}
