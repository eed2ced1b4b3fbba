package market

import (
	"context"
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/rank11/sol-wallet-monitor/internal/models"
)

// ErrNotFound means neither market source knows the token; callers fall back
// to a shortened-mint display string.
var ErrNotFound = errors.New("token not found in any market source")

type marketEntry struct {
	data      *models.TokenMarketData
	fetchedAt time.Time
}

type riskEntry struct {
	report    *models.RiskReport
	fetchedAt time.Time
}

// Resolver merges Jupiter (primary: price) and DexScreener (secondary:
// symbol, name, liquidity, valuation) into TokenMarketData, and fetches
// RugCheck risk reports. Both market sources are queried concurrently and
// both outcomes are awaited, because they are complementary rather than
// redundant.
//
// All successful resolutions land in TTL caches owned by this resolver.
// Entries are replaced whole, never mutated, so concurrent classification
// tasks can read them safely; expiry is checked lazily on read.
type Resolver struct {
	jupiter  *JupiterClient
	dex      *DexScreenerClient
	rugcheck *RugCheckClient
	ttl      time.Duration

	mu           sync.RWMutex
	marketByMint map[string]marketEntry
	riskByMint   map[string]riskEntry
}

// NewResolver creates a Resolver over the three upstream clients.
func NewResolver(jupiter *JupiterClient, dex *DexScreenerClient, rugcheck *RugCheckClient, ttl time.Duration) *Resolver {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Resolver{
		jupiter:      jupiter,
		dex:          dex,
		rugcheck:     rugcheck,
		ttl:          ttl,
		marketByMint: make(map[string]marketEntry),
		riskByMint:   make(map[string]riskEntry),
	}
}

// Resolve returns market data for mint, from cache when fresh. A result
// counts as found if either source yielded at least a symbol or a price.
func (r *Resolver) Resolve(ctx context.Context, mint string) (*models.TokenMarketData, error) {
	r.mu.RLock()
	entry, ok := r.marketByMint[mint]
	r.mu.RUnlock()
	if ok && time.Since(entry.fetchedAt) < r.ttl {
		return entry.data, nil
	}

	data, err := r.fetchMerged(ctx, mint)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.marketByMint[mint] = marketEntry{data: data, fetchedAt: time.Now()}
	r.mu.Unlock()
	return data, nil
}

// fetchMerged queries both sources concurrently and merges their fields.
func (r *Resolver) fetchMerged(ctx context.Context, mint string) (*models.TokenMarketData, error) {
	var (
		wg       sync.WaitGroup
		price    string
		priceErr error
		pair     *DexScreenerPair
		pairErr  error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		price, priceErr = r.jupiter.Price(ctx, mint)
	}()
	go func() {
		defer wg.Done()
		pair, pairErr = r.dex.BestPair(ctx, mint)
	}()
	wg.Wait()

	if priceErr != nil {
		log.WithFields(log.Fields{"mint": mint, "error": priceErr.Error()}).Debug("Jupiter lookup failed")
	}
	if pairErr != nil {
		log.WithFields(log.Fields{"mint": mint, "error": pairErr.Error()}).Debug("DexScreener lookup failed")
	}

	data := &models.TokenMarketData{Mint: mint, PriceUSD: price}
	if pair != nil {
		data.Symbol = pair.BaseToken.Symbol
		data.Name = pair.BaseToken.Name
		data.LiquidityUSD = pair.Liquidity.USD
		data.FDV = pair.FDV
		if data.PriceUSD == "" {
			data.PriceUSD = pair.PriceUsd
		}
	}

	if data.Symbol == "" && data.PriceUSD == "" {
		return nil, ErrNotFound
	}
	return data, nil
}

// Risk returns the risk report for mint, from cache when fresh.
func (r *Resolver) Risk(ctx context.Context, mint string) (*models.RiskReport, error) {
	r.mu.RLock()
	entry, ok := r.riskByMint[mint]
	r.mu.RUnlock()
	if ok && time.Since(entry.fetchedAt) < r.ttl {
		return entry.report, nil
	}

	report, err := r.rugcheck.Report(ctx, mint)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.riskByMint[mint] = riskEntry{report: report, fetchedAt: time.Now()}
	r.mu.Unlock()
	return report, nil
}

// Sweep drops expired cache entries. Reads never return stale data anyway;
// this just keeps the maps from accumulating dead mints.
func (r *Resolver) Sweep() {
	now := time.Now()
	r.mu.Lock()
	defer r.mu.Unlock()
	for mint, entry := range r.marketByMint {
		if now.Sub(entry.fetchedAt) >= r.ttl {
			delete(r.marketByMint, mint)
		}
	}
	for mint, entry := range r.riskByMint {
		if now.Sub(entry.fetchedAt) >= r.ttl {
			delete(r.riskByMint, mint)
		}
	}
}
