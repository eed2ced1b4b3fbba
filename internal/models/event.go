package models

import "time"

// EventKind classifies a trade event.
type EventKind string

const (
	EventSwap     EventKind = "swap"
	EventTransfer EventKind = "transfer"
	EventWrap     EventKind = "wrap"
)

// TradeEvent represents one classified balance movement. Lifecycle is
// create-once, dispatch-once, discard; the status API keeps a short-lived
// in-memory ring of recent events for inspection only.
type TradeEvent struct {
	Kind      EventKind     `json:"kind"`
	Wallet    WatchedWallet `json:"wallet"`
	Signature string        `json:"signature"`
	Time      time.Time     `json:"time"`

	// Swap fields.
	TokenMint  string  `json:"token_mint,omitempty"`
	TokenDelta float64 `json:"token_delta,omitempty"`
	IsBuy      bool    `json:"is_buy,omitempty"`

	// NativeDelta is the SOL movement: the raw native delta for swaps, the
	// native+wrapped sum for transfers, the native leg for wraps.
	NativeDelta float64 `json:"native_delta"`

	// Transfer fields. TokenDenominated marks non-trade token distributions
	// (airdrops) that must not be notified as value transfers.
	IsIncoming       bool `json:"is_incoming,omitempty"`
	TokenDenominated bool `json:"token_denominated,omitempty"`

	// Wrap fields.
	WrappedDelta float64 `json:"wrapped_delta,omitempty"`
	IsWrapping   bool    `json:"is_wrapping,omitempty"`

	// Enrichment, both optional; a swap with neither set is still valid and
	// is dispatched with placeholder display values.
	Market *TokenMarketData `json:"market,omitempty"`
	Risk   *RiskReport      `json:"risk,omitempty"`
}
