package solanarpc

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"github.com/stretchr/testify/assert"
)

func TestIsRateLimit(t *testing.T) {
	t.Run("Nil Is Not A Rate Limit", func(t *testing.T) {
		assert.False(t, IsRateLimit(nil))
	})

	t.Run("Sentinel Survives Wrapping", func(t *testing.T) {
		err := fmt.Errorf("signature resolution: %w", ErrRateLimited)
		assert.True(t, IsRateLimit(err))
	})

	t.Run("RPC Error Code 429", func(t *testing.T) {
		assert.True(t, IsRateLimit(&jsonrpc.RPCError{Code: 429, Message: "slow down"}))
		assert.True(t, IsRateLimit(&jsonrpc.RPCError{Code: -32429, Message: "slow down"}))
	})

	t.Run("RPC Error Message Hint", func(t *testing.T) {
		assert.True(t, IsRateLimit(&jsonrpc.RPCError{Code: -32000, Message: "Too Many Requests for this endpoint"}))
	})

	t.Run("String Hints", func(t *testing.T) {
		assert.True(t, IsRateLimit(errors.New("got HTTP status 429")))
		assert.True(t, IsRateLimit(errors.New("provider rate limit reached")))
	})

	t.Run("Ordinary Errors Pass Through", func(t *testing.T) {
		assert.False(t, IsRateLimit(errors.New("connection refused")))
		assert.False(t, IsRateLimit(&jsonrpc.RPCError{Code: -32602, Message: "invalid params"}))
	})
}
