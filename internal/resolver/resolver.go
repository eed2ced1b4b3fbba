package resolver

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/rank11/sol-wallet-monitor/pkg/solanarpc"
)

// ErrNoSignature means the transaction index never caught up within the
// retry budget. The caller skips the event for this cycle; the balance
// snapshot has already advanced.
var ErrNoSignature = errors.New("no confirmed signature found")

// SignatureFetcher is the slice of the ledger client the retrier needs.
type SignatureFetcher interface {
	LatestSignature(ctx context.Context, addr string) (*solanarpc.SignatureInfo, error)
}

// Retrier resolves the most recent confirmed signature for an account while
// tolerating ledger indexing lag. It is an explicit bounded state machine:
// an attempt counter with a linearly growing delay, never an unbounded
// recursive sleep loop.
//
// Rate limits and indexing lag are different failure modes with separate
// budgets: a rate-limit signal waits strictly longer and does not consume a
// lag attempt, so upstream overload cannot starve the lag budget. The
// rate-limit budget is itself bounded (consecutive waits), so a permanently
// throttled endpoint cannot pin a Resolve call forever.
type Retrier struct {
	ledger            SignatureFetcher
	maxAttempts       int
	maxRateLimitWaits int
	baseDelay         time.Duration
	maxDelay          time.Duration
	rateLimitDelay    time.Duration

	// sleep is swappable in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Retrier with the given budgets.
func New(ledger SignatureFetcher, maxAttempts, maxRateLimitWaits int, baseDelay, maxDelay, rateLimitDelay time.Duration) *Retrier {
	if maxAttempts <= 0 {
		maxAttempts = 10
	}
	if maxRateLimitWaits <= 0 {
		maxRateLimitWaits = 6
	}
	if baseDelay <= 0 {
		baseDelay = 2 * time.Second
	}
	if maxDelay < baseDelay {
		maxDelay = baseDelay
	}
	if rateLimitDelay <= 0 {
		rateLimitDelay = 10 * time.Second
	}
	return &Retrier{
		ledger:            ledger,
		maxAttempts:       maxAttempts,
		maxRateLimitWaits: maxRateLimitWaits,
		baseDelay:         baseDelay,
		maxDelay:          maxDelay,
		rateLimitDelay:    rateLimitDelay,
		sleep:             sleepCtx,
	}
}

// Resolve returns the most recent confirmed, successful signature for addr,
// or ErrNoSignature once the lag budget is exhausted. rateLimited reports
// whether any attempt hit an upstream rate limit, so the caller can harden
// its backoff even on success. Exhausting the consecutive rate-limit budget
// fails with a wrapped solanarpc.ErrRateLimited instead of looping.
func (r *Retrier) Resolve(ctx context.Context, addr string) (signature string, rateLimited bool, err error) {
	attempt := 0
	rateLimitWaits := 0
	for attempt < r.maxAttempts {
		info, err := r.ledger.LatestSignature(ctx, addr)
		if err != nil && solanarpc.IsRateLimit(err) {
			// Upstream overload: wait longer, charge nothing to the lag
			// budget, but only so many consecutive times.
			rateLimited = true
			rateLimitWaits++
			if rateLimitWaits > r.maxRateLimitWaits {
				log.WithFields(log.Fields{
					"address": addr,
					"waits":   r.maxRateLimitWaits,
				}).Warn("Signature lookup rate limited beyond budget, giving up")
				return "", true, fmt.Errorf("signature lookup for %s: %w", addr, solanarpc.ErrRateLimited)
			}
			log.WithFields(log.Fields{"address": addr}).Debug("Signature lookup rate limited, waiting")
			if serr := r.sleep(ctx, r.rateLimitDelay); serr != nil {
				return "", rateLimited, serr
			}
			continue
		}
		rateLimitWaits = 0

		if err != nil {
			if ctx.Err() != nil {
				return "", rateLimited, ctx.Err()
			}
			// Transient error: counts against the lag budget like an
			// empty result.
			log.WithFields(log.Fields{
				"address": addr,
				"attempt": attempt + 1,
				"error":   err.Error(),
			}).Debug("Signature lookup failed")
		} else if info != nil && !info.Failed {
			return info.Signature, rateLimited, nil
		}
		// Zero signatures, or the newest one errored on-chain: the index
		// has not caught up with the balance read yet.

		attempt++
		if attempt >= r.maxAttempts {
			break
		}
		if serr := r.sleep(ctx, r.delayFor(attempt)); serr != nil {
			return "", rateLimited, serr
		}
	}
	return "", rateLimited, ErrNoSignature
}

// delayFor grows linearly with the attempt count up to the cap.
func (r *Retrier) delayFor(attempt int) time.Duration {
	d := r.baseDelay + time.Duration(attempt-1)*r.baseDelay/2
	if d > r.maxDelay {
		d = r.maxDelay
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
