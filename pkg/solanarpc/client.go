package solanarpc

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"golang.org/x/time/rate"
)

// MaxAccountsPerBatch is the getMultipleAccounts request ceiling imposed by
// the RPC API.
const MaxAccountsPerBatch = 100

// SignatureInfo represents one entry from getSignaturesForAddress.
type SignatureInfo struct {
	Signature string
	Slot      uint64
	BlockTime int64
	Failed    bool
}

// Client wraps the Solana JSON-RPC client with a shared rate limiter and a
// fixed per-call timeout. All monitor components go through it; nothing else
// talks to the RPC endpoint directly.
type Client struct {
	rpc     *rpc.Client
	limiter *rate.Limiter
	timeout time.Duration
}

// NewClient creates a Client for the given endpoint. rps bounds outbound
// request rate; timeout applies to every call.
func NewClient(endpoint string, rps float64, timeout time.Duration) *Client {
	if rps <= 0 {
		rps = 8
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		rpc:     rpc.New(endpoint),
		limiter: rate.NewLimiter(rate.Limit(rps), int(rps)+1),
		timeout: timeout,
	}
}

func (c *Client) callCtx(ctx context.Context) (context.Context, context.CancelFunc, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, nil, err
	}
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	return callCtx, cancel, nil
}

// GetBalances fetches SOL balances for up to MaxAccountsPerBatch addresses in
// one getMultipleAccounts call. Unknown accounts (nil account info) report a
// zero balance.
func (c *Client) GetBalances(ctx context.Context, addrs []string) (map[string]uint64, error) {
	if len(addrs) == 0 {
		return map[string]uint64{}, nil
	}
	if len(addrs) > MaxAccountsPerBatch {
		return nil, fmt.Errorf("batch of %d exceeds max %d accounts per request", len(addrs), MaxAccountsPerBatch)
	}

	pubkeys := make([]solana.PublicKey, 0, len(addrs))
	for _, addr := range addrs {
		pk, err := solana.PublicKeyFromBase58(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid address %s: %w", addr, err)
		}
		pubkeys = append(pubkeys, pk)
	}

	callCtx, cancel, err := c.callCtx(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	result, err := c.rpc.GetMultipleAccounts(callCtx, pubkeys...)
	if err != nil {
		return nil, fmt.Errorf("getMultipleAccounts: %w", err)
	}
	if result == nil {
		return nil, fmt.Errorf("getMultipleAccounts returned nil result")
	}

	balances := make(map[string]uint64, len(addrs))
	for i, info := range result.Value {
		if i >= len(addrs) {
			break
		}
		if info == nil {
			balances[addrs[i]] = 0
			continue
		}
		balances[addrs[i]] = info.Lamports
	}
	return balances, nil
}

// LatestSignature returns the most recent signature for the address, or nil
// when the transaction index has nothing yet.
func (c *Client) LatestSignature(ctx context.Context, addr string) (*SignatureInfo, error) {
	pk, err := solana.PublicKeyFromBase58(addr)
	if err != nil {
		return nil, fmt.Errorf("invalid address %s: %w", addr, err)
	}

	callCtx, cancel, err := c.callCtx(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	limit := 1
	sigs, err := c.rpc.GetSignaturesForAddressWithOpts(callCtx, pk, &rpc.GetSignaturesForAddressOpts{
		Limit:      &limit,
		Commitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return nil, fmt.Errorf("getSignaturesForAddress: %w", err)
	}
	if len(sigs) == 0 || sigs[0] == nil {
		return nil, nil
	}

	info := &SignatureInfo{
		Signature: sigs[0].Signature.String(),
		Slot:      sigs[0].Slot,
		Failed:    sigs[0].Err != nil,
	}
	if sigs[0].BlockTime != nil {
		info.BlockTime = int64(*sigs[0].BlockTime)
	}
	return info, nil
}

// GetTransaction fetches the full transaction for a signature.
func (c *Client) GetTransaction(ctx context.Context, signature string) (*rpc.GetTransactionResult, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return nil, fmt.Errorf("invalid signature %s: %w", signature, err)
	}

	callCtx, cancel, err := c.callCtx(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	maxVer := rpc.MaxSupportedTransactionVersion1
	result, err := c.rpc.GetTransaction(callCtx, sig, &rpc.GetTransactionOpts{
		Encoding:                       solana.EncodingBase64,
		Commitment:                     rpc.CommitmentConfirmed,
		MaxSupportedTransactionVersion: &maxVer,
	})
	if err != nil {
		return nil, fmt.Errorf("getTransaction: %w", err)
	}
	if result == nil || result.Transaction == nil {
		return nil, fmt.Errorf("transaction %s not found", signature)
	}
	return result, nil
}
