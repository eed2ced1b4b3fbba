package models

// WatchedWallet represents one tracked wallet address with its display identity.
// The set of watched wallets is immutable once loaded; hot reloads swap the
// whole slice, never individual entries.
type WatchedWallet struct {
	Address string `json:"address" yaml:"address"`
	Name    string `json:"name" yaml:"name"`
	Emoji   string `json:"emoji" yaml:"emoji"`
}

// DisplayName returns the emoji-prefixed wallet name for notifications.
func (w WatchedWallet) DisplayName() string {
	if w.Emoji == "" {
		return w.Name
	}
	return w.Emoji + " " + w.Name
}

// ShortAddress returns a shortened address for display (first 4 + last 4).
func (w WatchedWallet) ShortAddress() string {
	return ShortAddress(w.Address)
}

// ShortAddress shortens a base58 address or mint for display.
func ShortAddress(addr string) string {
	if len(addr) <= 12 {
		return addr
	}
	return addr[:4] + ".." + addr[len(addr)-4:]
}
