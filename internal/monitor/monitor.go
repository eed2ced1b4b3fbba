package monitor

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/rank11/sol-wallet-monitor/internal/models"
	"github.com/rank11/sol-wallet-monitor/internal/watchlist"
	"github.com/rank11/sol-wallet-monitor/pkg/solanarpc"
)

// ChangeSource produces the balance changes for one polling cycle. It
// reports whether any upstream call hit a rate limit.
type ChangeSource interface {
	Detect(ctx context.Context, wallets []models.WatchedWallet) ([]models.ChangeRecord, bool)
}

// Handler resolves, classifies and dispatches a single change record.
// The bool reports rate-limit pressure seen along the way, even when the
// change was handled successfully; a non-nil error means the change was
// not fully handled.
type Handler interface {
	Handle(ctx context.Context, wallet models.WatchedWallet, change models.ChangeRecord) (rateLimited bool, err error)
}

// Stats is a point-in-time view of the runner for the status API.
type Stats struct {
	Cycles       uint64        `json:"cycles"`
	Changes      uint64        `json:"changes"`
	HandleErrors uint64        `json:"handle_errors"`
	RateLimits   uint64        `json:"rate_limits"`
	LastCycle    time.Time     `json:"last_cycle"`
	PollDelay    time.Duration `json:"poll_delay"`
	Wallets      int           `json:"wallets"`
}

// Runner drives the polling loop: detect changes, fan out resolution and
// classification under a fixed permit count, adapt the cycle delay.
type Runner struct {
	wallets *watchlist.Registry
	source  ChangeSource
	handler Handler
	backoff *Backoff

	// permits bounds concurrently in-flight resolve+classify tasks.
	// Excess changes wait for a release; they never fire unboundedly.
	permits chan struct{}

	// nudgeCh wakes the loop early when the WebSocket fast path saw a
	// mention of a watched wallet.
	nudgeCh chan struct{}

	mu    sync.Mutex
	stats Stats
}

// NewRunner creates a Runner with the given permit count.
func NewRunner(wallets *watchlist.Registry, source ChangeSource, handler Handler, backoff *Backoff, permits int) *Runner {
	if permits <= 0 {
		permits = 3
	}
	return &Runner{
		wallets: wallets,
		source:  source,
		handler: handler,
		backoff: backoff,
		permits: make(chan struct{}, permits),
		nudgeCh: make(chan struct{}, 1),
	}
}

// Nudge requests an early next cycle. Safe from any goroutine; extra nudges
// while one is pending are coalesced.
func (r *Runner) Nudge() {
	select {
	case r.nudgeCh <- struct{}{}:
	default:
	}
}

// Run loops until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) {
	log.Info("Monitor loop started")
	for {
		r.RunCycle(ctx)

		delay := r.backoff.Next()
		select {
		case <-ctx.Done():
			log.Info("Monitor loop stopped")
			return
		case <-r.nudgeCh:
			log.Debug("Woken early by WebSocket nudge")
		case <-time.After(delay):
		}
	}
}

// RunCycle executes one detection cycle and fans out the resulting changes
// with bounded concurrency. On a rate-limit signal further dispatch within
// the cycle is suspended and the poll delay hardens.
func (r *Runner) RunCycle(ctx context.Context) {
	wallets := r.wallets.Snapshot()
	changes, rateLimited := r.source.Detect(ctx, wallets)

	if len(changes) > 0 {
		log.WithFields(log.Fields{
			"changes": len(changes),
			"wallets": len(wallets),
		}).Info("Balance changes detected")
	}

	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		handleErrs uint64
		sawRateLim = rateLimited
	)

	for _, change := range changes {
		mu.Lock()
		suspended := sawRateLim
		mu.Unlock()
		if suspended {
			// The detector already committed the new balances, so the
			// remaining changes of this cycle are dropped, not retried.
			// Dropping bounded work beats hammering a rate-limited RPC.
			log.WithFields(log.Fields{"address": change.Address}).Info("Dispatch suspended by rate limit, change dropped")
			break
		}

		select {
		case <-ctx.Done():
			wg.Wait()
			return
		case r.permits <- struct{}{}:
		}

		wallet, ok := r.wallets.Lookup(change.Address)
		if !ok {
			// Wallet left the watch list between detect and dispatch.
			<-r.permits
			continue
		}

		wg.Add(1)
		go func(w models.WatchedWallet, c models.ChangeRecord) {
			defer wg.Done()
			defer func() { <-r.permits }()

			pressured, err := r.handler.Handle(ctx, w, c)
			mu.Lock()
			if err != nil {
				handleErrs++
			}
			if pressured || solanarpc.IsRateLimit(err) {
				sawRateLim = true
			}
			mu.Unlock()
		}(wallet, change)
	}
	wg.Wait()

	mu.Lock()
	cycleRateLimited := sawRateLim
	mu.Unlock()

	if cycleRateLimited {
		r.backoff.Harden()
		log.WithFields(log.Fields{"next_delay": r.backoff.Next()}).Warn("Rate limited, hardening poll delay")
	} else {
		r.backoff.Relax()
	}

	r.mu.Lock()
	r.stats.Cycles++
	r.stats.Changes += uint64(len(changes))
	r.stats.HandleErrors += handleErrs
	if cycleRateLimited {
		r.stats.RateLimits++
	}
	r.stats.LastCycle = time.Now()
	r.stats.PollDelay = r.backoff.Next()
	r.stats.Wallets = len(wallets)
	r.mu.Unlock()
}

// Stats returns a snapshot of the runner counters.
func (r *Runner) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}
