package monitor

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/rank11/sol-wallet-monitor/internal/classifier"
	"github.com/rank11/sol-wallet-monitor/internal/dispatch"
	"github.com/rank11/sol-wallet-monitor/internal/models"
	"github.com/rank11/sol-wallet-monitor/internal/resolver"
)

// FactsFetcher is the slice of the ledger client the pipeline needs.
type FactsFetcher interface {
	FetchTransactionFacts(ctx context.Context, signature, owner string) (*models.TransactionFacts, error)
}

// Pipeline is the production Handler: resolve the causing signature,
// reduce the transaction to facts, classify, dispatch. Each stage runs
// strictly after the previous one for the same account; ordering across
// accounts is not guaranteed.
type Pipeline struct {
	retrier    *resolver.Retrier
	facts      FactsFetcher
	classifier *classifier.Classifier
	dispatcher *dispatch.Dispatcher
}

// NewPipeline wires the per-change processing stages.
func NewPipeline(retrier *resolver.Retrier, facts FactsFetcher, cls *classifier.Classifier, disp *dispatch.Dispatcher) *Pipeline {
	return &Pipeline{
		retrier:    retrier,
		facts:      facts,
		classifier: cls,
		dispatcher: disp,
	}
}

// Handle processes one change record end to end. Lag exhaustion and
// unclassifiable shapes are non-fatal skips. Rate-limit pressure seen
// along the way is reported through the bool so the runner can harden
// its backoff without miscounting a handled change as a failure.
func (p *Pipeline) Handle(ctx context.Context, wallet models.WatchedWallet, change models.ChangeRecord) (bool, error) {
	signature, rateLimited, err := p.retrier.Resolve(ctx, wallet.Address)
	if err != nil {
		if errors.Is(err, resolver.ErrNoSignature) {
			// Indexing never caught up; the balance cache has already
			// advanced, so this movement is simply not reported.
			log.WithFields(log.Fields{
				"address": wallet.Address,
				"delta":   change.DeltaSol(),
			}).Info("No signature resolved within retry budget, skipping event")
			return rateLimited, nil
		}
		return rateLimited, fmt.Errorf("resolve signature for %s: %w", wallet.Address, err)
	}

	facts, err := p.facts.FetchTransactionFacts(ctx, signature, wallet.Address)
	if err != nil {
		return rateLimited, fmt.Errorf("fetch facts for %s: %w", signature, err)
	}

	event, err := p.classifier.Classify(ctx, wallet, facts)
	if err != nil {
		if errors.Is(err, classifier.ErrUnclassifiable) {
			log.WithFields(log.Fields{
				"address":   wallet.Address,
				"signature": signature,
			}).Debug("Unclassifiable transaction shape, skipping")
			return rateLimited, nil
		}
		return rateLimited, fmt.Errorf("classify %s: %w", signature, err)
	}

	p.dispatcher.Dispatch(ctx, event)
	return rateLimited, nil
}
