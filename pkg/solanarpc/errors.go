package solanarpc

import (
	"errors"
	"strings"

	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
)

// ErrRateLimited marks an error chain as carrying upstream rate-limit
// pressure. Wrap it to propagate the signal across component boundaries.
var ErrRateLimited = errors.New("upstream rate limited")

// IsRateLimit reports whether err looks like an upstream rate-limit signal
// (HTTP 429 or an equivalent JSON-RPC error). Rate limits are handled by
// backoff, never surfaced as user-visible failures.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}

	var rpcErr *jsonrpc.RPCError
	if errors.As(err, &rpcErr) {
		if rpcErr.Code == 429 || rpcErr.Code == -32429 {
			return true
		}
		if containsRateLimitHint(rpcErr.Message) {
			return true
		}
	}

	var httpErr *jsonrpc.HTTPError
	if errors.As(err, &httpErr) && httpErr.Code == 429 {
		return true
	}

	return containsRateLimitHint(err.Error())
}

func containsRateLimitHint(s string) bool {
	s = strings.ToLower(s)
	return strings.Contains(s, "429") ||
		strings.Contains(s, "too many requests") ||
		strings.Contains(s, "rate limit")
}
