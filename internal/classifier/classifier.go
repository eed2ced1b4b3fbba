package classifier

import (
	"context"
	"errors"
	"math"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/rank11/sol-wallet-monitor/internal/market"
	"github.com/rank11/sol-wallet-monitor/internal/models"
)

// ErrUnclassifiable means the transaction shape carries no movement above
// the noise threshold. The caller skips it; no event is emitted.
var ErrUnclassifiable = errors.New("transaction shape is unclassifiable")

// Thresholds are the heuristic classification constants, in SOL. They are
// policy choices, not correctness requirements, and come from configuration.
type Thresholds struct {
	// LargeSwapSol classifies a transaction as a swap on native movement
	// alone when no known swap program appears in the trace.
	LargeSwapSol float64
	// WrapToleranceSol is how close to zero the native+wrapped sum must be
	// for a wrap/unwrap.
	WrapToleranceSol float64
	// NoiseSol is the floor below which individual deltas are ignored.
	NoiseSol float64
}

// Classifier turns TransactionFacts into exactly one TradeEvent. The
// decision itself is a pure function of facts and thresholds; swap events
// are additionally enriched with market and risk data, both best-effort.
type Classifier struct {
	market     *market.Resolver
	thresholds Thresholds
}

// New creates a Classifier. market may be nil in tests; swaps then carry no
// enrichment.
func New(m *market.Resolver, thresholds Thresholds) *Classifier {
	return &Classifier{market: m, thresholds: thresholds}
}

// Classify decides the event kind for facts and enriches swaps. It returns
// ErrUnclassifiable for noise-only shapes.
func (c *Classifier) Classify(ctx context.Context, wallet models.WatchedWallet, facts *models.TransactionFacts) (*models.TradeEvent, error) {
	event, err := decide(facts, c.thresholds)
	if err != nil {
		return nil, err
	}
	event.Wallet = wallet
	event.Time = eventTime(facts)

	if event.Kind == models.EventSwap && c.market != nil {
		c.enrich(ctx, event)
	}
	return event, nil
}

// decide is the pure classification core. Given identical facts and
// thresholds it always returns an identical event.
func decide(facts *models.TransactionFacts, th Thresholds) (*models.TradeEvent, error) {
	nativeDiff := facts.NativeDiffSol()
	wrappedDiff := facts.WrappedDiff()

	// The non-wrapped mint with the largest absolute move is the swap
	// candidate. True ties are vanishingly rare; first encountered wins.
	var targetMint string
	var targetDelta float64
	for mint, move := range facts.TokenMoves {
		if mint == models.WrappedSolMint {
			continue
		}
		delta := move.Delta()
		if delta != 0 && math.Abs(delta) > math.Abs(targetDelta) {
			targetMint = mint
			targetDelta = delta
		}
	}

	if targetMint != "" {
		if facts.SwapProgramSeen() || math.Abs(nativeDiff) > th.LargeSwapSol {
			return &models.TradeEvent{
				Kind:        models.EventSwap,
				Signature:   facts.Signature,
				TokenMint:   targetMint,
				TokenDelta:  targetDelta,
				NativeDelta: nativeDiff,
				IsBuy:       targetDelta > 0,
			}, nil
		}
		// Token moved without a swap program or meaningful native leg:
		// an airdrop or distribution, recorded but not a market trade.
		return &models.TradeEvent{
			Kind:             models.EventTransfer,
			Signature:        facts.Signature,
			TokenMint:        targetMint,
			TokenDelta:       targetDelta,
			NativeDelta:      nativeDiff,
			IsIncoming:       targetDelta > 0,
			TokenDenominated: true,
		}, nil
	}

	if math.Abs(nativeDiff) > th.NoiseSol &&
		math.Abs(wrappedDiff) > th.NoiseSol &&
		math.Abs(nativeDiff+wrappedDiff) < th.WrapToleranceSol {
		// SOL moved one way and wrapped SOL the other; net economic
		// movement is ~zero, so this is a wrap or unwrap, not a transfer.
		return &models.TradeEvent{
			Kind:         models.EventWrap,
			Signature:    facts.Signature,
			NativeDelta:  nativeDiff,
			WrappedDelta: wrappedDiff,
			IsWrapping:   wrappedDiff > 0,
		}, nil
	}

	total := nativeDiff + wrappedDiff
	if math.Abs(total) <= th.NoiseSol {
		return nil, ErrUnclassifiable
	}
	return &models.TradeEvent{
		Kind:        models.EventTransfer,
		Signature:   facts.Signature,
		NativeDelta: total,
		IsIncoming:  total > 0,
	}, nil
}

// enrich attaches market and risk data to a swap. Either lookup may fail
// independently; a swap without enrichment is still dispatched with
// placeholder display values.
func (c *Classifier) enrich(ctx context.Context, event *models.TradeEvent) {
	data, err := c.market.Resolve(ctx, event.TokenMint)
	if err != nil {
		log.WithFields(log.Fields{
			"mint":  event.TokenMint,
			"error": err.Error(),
		}).Debug("Market data unavailable, dispatching with placeholders")
	} else {
		event.Market = data
	}

	risk, err := c.market.Risk(ctx, event.TokenMint)
	if err != nil {
		log.WithFields(log.Fields{
			"mint":  event.TokenMint,
			"error": err.Error(),
		}).Debug("Risk data unavailable")
	} else {
		event.Risk = risk
	}
}

// eventTime maps a missing block time to the zero time so that identical
// facts always produce identical events.
func eventTime(facts *models.TransactionFacts) time.Time {
	if facts.BlockTime > 0 {
		return time.Unix(facts.BlockTime, 0)
	}
	return time.Time{}
}
