package models

// TokenMarketData represents merged market data for one mint. Price is kept
// as a decimal string to preserve precision for very small unit prices.
// Entries are replaced in the cache, never mutated in place, so concurrent
// readers are safe.
type TokenMarketData struct {
	Mint         string  `json:"mint"`
	Symbol       string  `json:"symbol"`
	Name         string  `json:"name"`
	PriceUSD     string  `json:"price_usd"`
	LiquidityUSD float64 `json:"liquidity_usd"`
	FDV          float64 `json:"fdv"`
}

// RiskTier buckets a numeric risk score.
type RiskTier string

const (
	RiskLow     RiskTier = "low"
	RiskMedium  RiskTier = "medium"
	RiskHigh    RiskTier = "high"
	RiskUnknown RiskTier = "unknown"
)

// RiskReport represents the risk assessment for one mint.
type RiskReport struct {
	Mint       string   `json:"mint"`
	Score      float64  `json:"score"`
	Tier       RiskTier `json:"tier"`
	IsNewToken bool     `json:"is_new_token"`
}
