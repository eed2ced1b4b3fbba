package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// JupiterPrice represents one entry of the Jupiter price API response.
type JupiterPrice struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Price string `json:"price"`
}

// jupiterPriceResponse represents the Jupiter price API envelope.
type jupiterPriceResponse struct {
	Data map[string]*JupiterPrice `json:"data"`
}

// JupiterClient queries the Jupiter lite price API. It is the low-latency
// primary market source and only supplies a unit price.
type JupiterClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewJupiterClient creates a Jupiter client against baseURL.
func NewJupiterClient(baseURL string, timeout time.Duration) *JupiterClient {
	return &JupiterClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Price returns the USD unit price of mint as a decimal string, or "" when
// Jupiter does not know the token.
func (c *JupiterClient) Price(ctx context.Context, mint string) (string, error) {
	u := fmt.Sprintf("%s/price/v2?ids=%s", c.baseURL, url.QueryEscape(mint))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("jupiter price request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("jupiter price request failed with status: %d", resp.StatusCode)
	}

	var priceResp jupiterPriceResponse
	if err := json.NewDecoder(resp.Body).Decode(&priceResp); err != nil {
		return "", fmt.Errorf("decode jupiter response: %w", err)
	}

	entry := priceResp.Data[mint]
	if entry == nil {
		return "", nil
	}
	return entry.Price, nil
}
