package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// DexScreenerToken represents a token leg of a DexScreener pair.
type DexScreenerToken struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

// DexScreenerPair represents one trading pair from DexScreener.
type DexScreenerPair struct {
	ChainID   string           `json:"chainId"`
	DexID     string           `json:"dexId"`
	BaseToken DexScreenerToken `json:"baseToken"`
	PriceUsd  string           `json:"priceUsd"`
	Liquidity struct {
		USD float64 `json:"usd"`
	} `json:"liquidity"`
	FDV           float64 `json:"fdv"`
	PairCreatedAt int64   `json:"pairCreatedAt"`
}

// dexScreenerResponse represents the token-pairs envelope.
type dexScreenerResponse struct {
	Pairs []DexScreenerPair `json:"pairs"`
}

// DexScreenerClient queries DexScreener. It is the broader secondary market
// source and supplies symbol, name, liquidity and valuation.
type DexScreenerClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewDexScreenerClient creates a DexScreener client against baseURL.
func NewDexScreenerClient(baseURL string, timeout time.Duration) *DexScreenerClient {
	return &DexScreenerClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// BestPair returns the pair with the deepest liquidity whose base token is
// mint, or nil when DexScreener has no pairs for it.
func (c *DexScreenerClient) BestPair(ctx context.Context, mint string) (*DexScreenerPair, error) {
	u := fmt.Sprintf("%s/latest/dex/tokens/%s", c.baseURL, mint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dexscreener request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dexscreener request failed with status: %d", resp.StatusCode)
	}

	var tokenResp dexScreenerResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return nil, fmt.Errorf("decode dexscreener response: %w", err)
	}

	var best *DexScreenerPair
	for i := range tokenResp.Pairs {
		pair := &tokenResp.Pairs[i]
		if pair.BaseToken.Address != mint {
			continue
		}
		if best == nil || pair.Liquidity.USD > best.Liquidity.USD {
			best = pair
		}
	}
	return best, nil
}
