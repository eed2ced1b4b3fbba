package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rank11/sol-wallet-monitor/internal/classifier"
	"github.com/rank11/sol-wallet-monitor/internal/dispatch"
	"github.com/rank11/sol-wallet-monitor/internal/models"
	"github.com/rank11/sol-wallet-monitor/internal/resolver"
	"github.com/rank11/sol-wallet-monitor/pkg/solanarpc"
)

type stubSignatures struct {
	info *solanarpc.SignatureInfo
	err  error

	// rateLimitFirst makes that many leading calls fail with a rate limit.
	rateLimitFirst int
	calls          int
}

func (s *stubSignatures) LatestSignature(ctx context.Context, addr string) (*solanarpc.SignatureInfo, error) {
	s.calls++
	if s.calls <= s.rateLimitFirst {
		return nil, solanarpc.ErrRateLimited
	}
	return s.info, s.err
}

type stubFacts struct {
	facts *models.TransactionFacts
	err   error
}

func (s *stubFacts) FetchTransactionFacts(ctx context.Context, signature, owner string) (*models.TransactionFacts, error) {
	return s.facts, s.err
}

type recordingNotifier struct {
	sent []string
}

func (r *recordingNotifier) Send(ctx context.Context, text string) error {
	r.sent = append(r.sent, text)
	return nil
}

func swapFacts(sig string) *models.TransactionFacts {
	return &models.TransactionFacts{
		Signature:    sig,
		Owner:        "Wallet0",
		PreLamports:  10_000_000_000,
		PostLamports: 9_500_000_000,
		TokenMoves: map[string]models.TokenAmounts{
			"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v": {Pre: 0, Post: 1000},
		},
		SwapProgram: "Jupiter",
	}
}

func quickRetrier(ledger resolver.SignatureFetcher, attempts int) *resolver.Retrier {
	return resolver.New(ledger, attempts, 6, time.Millisecond, time.Millisecond, time.Millisecond)
}

func TestPipeline(t *testing.T) {
	ctx := context.Background()
	wallet := models.WatchedWallet{Address: "Wallet0", Name: "w0"}
	thresholds := classifier.Thresholds{LargeSwapSol: 0.1, WrapToleranceSol: 0.005, NoiseSol: 0.00001}

	t.Run("End To End Dispatch", func(t *testing.T) {
		notifier := &recordingNotifier{}
		ring := dispatch.NewEventRing(10)
		p := NewPipeline(
			quickRetrier(&stubSignatures{info: &solanarpc.SignatureInfo{Signature: "sig1"}}, 3),
			&stubFacts{facts: swapFacts("sig1")},
			classifier.New(nil, thresholds),
			dispatch.New(notifier, nil, 0.001, ring),
		)

		pressured, err := p.Handle(ctx, wallet, models.ChangeRecord{Address: wallet.Address})
		require.NoError(t, err)
		assert.False(t, pressured)
		require.Len(t, notifier.sent, 1)
		assert.Contains(t, notifier.sent[0], "sold")
		assert.Len(t, ring.Recent(), 1)
	})

	t.Run("Signature Lag Exhaustion Is A Silent Skip", func(t *testing.T) {
		notifier := &recordingNotifier{}
		p := NewPipeline(
			quickRetrier(&stubSignatures{info: nil}, 2),
			&stubFacts{},
			classifier.New(nil, thresholds),
			dispatch.New(notifier, nil, 0.001, nil),
		)

		pressured, err := p.Handle(ctx, wallet, models.ChangeRecord{Address: wallet.Address})
		assert.NoError(t, err)
		assert.False(t, pressured)
		assert.Empty(t, notifier.sent)
	})

	t.Run("Unclassifiable Shape Is A Silent Skip", func(t *testing.T) {
		notifier := &recordingNotifier{}
		facts := &models.TransactionFacts{
			Signature:    "sig2",
			Owner:        wallet.Address,
			PreLamports:  1_000_000_000,
			PostLamports: 1_000_000_005,
		}
		p := NewPipeline(
			quickRetrier(&stubSignatures{info: &solanarpc.SignatureInfo{Signature: "sig2"}}, 3),
			&stubFacts{facts: facts},
			classifier.New(nil, thresholds),
			dispatch.New(notifier, nil, 0.001, nil),
		)

		_, err := p.Handle(ctx, wallet, models.ChangeRecord{Address: wallet.Address})
		assert.NoError(t, err)
		assert.Empty(t, notifier.sent)
	})

	t.Run("Facts Failure Propagates", func(t *testing.T) {
		p := NewPipeline(
			quickRetrier(&stubSignatures{info: &solanarpc.SignatureInfo{Signature: "sig3"}}, 3),
			&stubFacts{err: errors.New("node behind")},
			classifier.New(nil, thresholds),
			dispatch.New(nil, nil, 0.001, nil),
		)

		_, err := p.Handle(ctx, wallet, models.ChangeRecord{Address: wallet.Address})
		assert.ErrorContains(t, err, "node behind")
		assert.False(t, solanarpc.IsRateLimit(err))
	})

	t.Run("Rate Limit Pressure Survives Success", func(t *testing.T) {
		notifier := &recordingNotifier{}
		ledger := &stubSignatures{
			rateLimitFirst: 1,
			info:           &solanarpc.SignatureInfo{Signature: "sig4"},
		}
		p := NewPipeline(
			quickRetrier(ledger, 3),
			&stubFacts{facts: swapFacts("sig4")},
			classifier.New(nil, thresholds),
			dispatch.New(notifier, nil, 0.001, nil),
		)

		pressured, err := p.Handle(ctx, wallet, models.ChangeRecord{Address: wallet.Address})
		require.NoError(t, err, "a dispatched event is not a failure")
		assert.True(t, pressured)
		assert.Len(t, notifier.sent, 1, "the event was still dispatched")
	})
}
