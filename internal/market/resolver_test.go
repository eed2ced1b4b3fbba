package market

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rank11/sol-wallet-monitor/internal/models"
)

const resolverTestMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"

func jupiterStub(t *testing.T, price string, calls *int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(calls, 1)
		if price == "" {
			fmt.Fprint(w, `{"data":{}}`)
			return
		}
		fmt.Fprintf(w, `{"data":{%q:{"id":%q,"type":"derivedPrice","price":%q}}}`,
			resolverTestMint, resolverTestMint, price)
	}))
}

func dexStub(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, body)
	}))
}

func TestResolver(t *testing.T) {
	ctx := context.Background()

	dexBody := fmt.Sprintf(`{"pairs":[
		{"chainId":"solana","dexId":"raydium","baseToken":{"address":%q,"name":"USD Coin","symbol":"USDC"},"priceUsd":"0.9998","liquidity":{"usd":5000000},"fdv":31000000000},
		{"chainId":"solana","dexId":"orca","baseToken":{"address":%q,"name":"USD Coin","symbol":"USDC"},"priceUsd":"1.0001","liquidity":{"usd":9000000},"fdv":31000000000},
		{"chainId":"solana","dexId":"orca","baseToken":{"address":"OtherMint","name":"Other","symbol":"OTH"},"priceUsd":"3","liquidity":{"usd":99000000},"fdv":1}
	]}`, resolverTestMint, resolverTestMint)

	t.Run("Merges Jupiter Price With DexScreener Metadata", func(t *testing.T) {
		var jupCalls int64
		jup := jupiterStub(t, "1.0002", &jupCalls)
		defer jup.Close()
		dex := dexStub(t, dexBody)
		defer dex.Close()

		r := NewResolver(
			NewJupiterClient(jup.URL, time.Second),
			NewDexScreenerClient(dex.URL, time.Second),
			nil,
			time.Minute,
		)

		data, err := r.Resolve(ctx, resolverTestMint)
		require.NoError(t, err)
		assert.Equal(t, "1.0002", data.PriceUSD, "Jupiter price is primary")
		assert.Equal(t, "USDC", data.Symbol)
		assert.Equal(t, "USD Coin", data.Name)
		assert.Equal(t, float64(9_000_000), data.LiquidityUSD, "deepest pair wins")
		assert.Equal(t, float64(31_000_000_000), data.FDV)
	})

	t.Run("DexScreener Price Fills In When Jupiter Is Empty", func(t *testing.T) {
		var jupCalls int64
		jup := jupiterStub(t, "", &jupCalls)
		defer jup.Close()
		dex := dexStub(t, dexBody)
		defer dex.Close()

		r := NewResolver(
			NewJupiterClient(jup.URL, time.Second),
			NewDexScreenerClient(dex.URL, time.Second),
			nil,
			time.Minute,
		)

		data, err := r.Resolve(ctx, resolverTestMint)
		require.NoError(t, err)
		assert.Equal(t, "1.0001", data.PriceUSD)
	})

	t.Run("Fresh Cache Entry Skips Upstream", func(t *testing.T) {
		var jupCalls int64
		jup := jupiterStub(t, "1.0002", &jupCalls)
		defer jup.Close()
		dex := dexStub(t, dexBody)
		defer dex.Close()

		r := NewResolver(
			NewJupiterClient(jup.URL, time.Second),
			NewDexScreenerClient(dex.URL, time.Second),
			nil,
			time.Minute,
		)

		first, err := r.Resolve(ctx, resolverTestMint)
		require.NoError(t, err)
		second, err := r.Resolve(ctx, resolverTestMint)
		require.NoError(t, err)
		assert.Same(t, first, second)
		assert.Equal(t, int64(1), atomic.LoadInt64(&jupCalls))
	})

	t.Run("Unknown Token Is ErrNotFound", func(t *testing.T) {
		var jupCalls int64
		jup := jupiterStub(t, "", &jupCalls)
		defer jup.Close()
		dex := dexStub(t, `{"pairs":[]}`)
		defer dex.Close()

		r := NewResolver(
			NewJupiterClient(jup.URL, time.Second),
			NewDexScreenerClient(dex.URL, time.Second),
			nil,
			time.Minute,
		)

		_, err := r.Resolve(ctx, "UnknownMint11111111111111111111111111111111")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Risk Report Is Cached", func(t *testing.T) {
		var rugCalls int64
		rug := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt64(&rugCalls, 1)
			fmt.Fprint(w, `{"score":1234,"score_normalised":72,"risks":[{"name":"New token","level":"warn","score":100}]}`)
		}))
		defer rug.Close()

		r := NewResolver(nil, nil, NewRugCheckClient(rug.URL, time.Second), time.Minute)

		report, err := r.Risk(ctx, resolverTestMint)
		require.NoError(t, err)
		assert.Equal(t, float64(72), report.Score)
		assert.Equal(t, models.RiskHigh, report.Tier)
		assert.True(t, report.IsNewToken)

		_, err = r.Risk(ctx, resolverTestMint)
		require.NoError(t, err)
		assert.Equal(t, int64(1), atomic.LoadInt64(&rugCalls))
	})

	t.Run("Sweep Drops Expired Entries", func(t *testing.T) {
		var jupCalls int64
		jup := jupiterStub(t, "1.0002", &jupCalls)
		defer jup.Close()
		dex := dexStub(t, dexBody)
		defer dex.Close()

		r := NewResolver(
			NewJupiterClient(jup.URL, time.Second),
			NewDexScreenerClient(dex.URL, time.Second),
			nil,
			time.Nanosecond,
		)

		_, err := r.Resolve(ctx, resolverTestMint)
		require.NoError(t, err)
		time.Sleep(time.Millisecond)
		r.Sweep()

		r.mu.RLock()
		assert.Empty(t, r.marketByMint)
		r.mu.RUnlock()
	})
}
