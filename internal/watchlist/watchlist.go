package watchlist

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/rank11/sol-wallet-monitor/internal/models"
)

// Registry owns the watched wallet set. Reload swaps the whole slice under
// the lock; Snapshot hands out the current slice, which callers must treat
// as immutable.
type Registry struct {
	path string

	mu      sync.RWMutex
	wallets []models.WatchedWallet
}

// NewRegistry loads the wallet file at path. A load failure here is a
// startup-time configuration failure and therefore fatal to the caller.
func NewRegistry(path string) (*Registry, error) {
	r := &Registry{path: path}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload re-reads the wallet file. On failure the previous set is kept, so a
// bad edit never takes the monitor down mid-run.
func (r *Registry) Reload() error {
	wallets, err := loadFile(r.path)
	if err != nil {
		return err
	}

	r.mu.Lock()
	prev := len(r.wallets)
	r.wallets = wallets
	r.mu.Unlock()

	if prev != len(wallets) {
		log.WithFields(log.Fields{
			"file":    r.path,
			"wallets": len(wallets),
		}).Info("Watched wallet list loaded")
	}
	return nil
}

// Snapshot returns the current wallet set. The returned slice is shared and
// must not be modified.
func (r *Registry) Snapshot() []models.WatchedWallet {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.wallets
}

// Addresses returns just the addresses of the current snapshot.
func (r *Registry) Addresses() []string {
	wallets := r.Snapshot()
	addrs := make([]string, 0, len(wallets))
	for _, w := range wallets {
		addrs = append(addrs, w.Address)
	}
	return addrs
}

// Lookup finds a wallet by address in the current snapshot.
func (r *Registry) Lookup(address string) (models.WatchedWallet, bool) {
	for _, w := range r.Snapshot() {
		if w.Address == address {
			return w, true
		}
	}
	return models.WatchedWallet{}, false
}

func loadFile(path string) ([]models.WatchedWallet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read wallet file %s: %w", path, err)
	}

	var wallets []models.WatchedWallet
	if err := json.Unmarshal(data, &wallets); err != nil {
		return nil, fmt.Errorf("parse wallet file %s: %w", path, err)
	}

	out := wallets[:0]
	for _, w := range wallets {
		if w.Address == "" {
			log.Warnf("Skipping wallet entry with empty address in %s", path)
			continue
		}
		if w.Name == "" {
			w.Name = models.ShortAddress(w.Address)
		}
		out = append(out, w)
	}
	return out, nil
}
