package solanarpc

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/rank11/sol-wallet-monitor/internal/models"
)

// FetchTransactionFacts fetches the transaction for signature and reduces it
// to the facts relevant to owner: the owner's SOL pre/post balance, its
// per-mint token balance moves, and whether a known swap program ran.
func (c *Client) FetchTransactionFacts(ctx context.Context, signature, owner string) (*models.TransactionFacts, error) {
	result, err := c.GetTransaction(ctx, signature)
	if err != nil {
		return nil, err
	}

	tx, err := result.Transaction.GetTransaction()
	if err != nil {
		return nil, fmt.Errorf("decode transaction %s: %w", signature, err)
	}

	ownerPK, err := solana.PublicKeyFromBase58(owner)
	if err != nil {
		return nil, fmt.Errorf("invalid owner %s: %w", owner, err)
	}

	// Full account key list: static keys plus loaded addresses for
	// versioned transactions. The meta balance arrays index into it.
	accountKeys := make([]solana.PublicKey, 0, len(tx.Message.AccountKeys)+8)
	accountKeys = append(accountKeys, tx.Message.AccountKeys...)
	if result.Meta != nil {
		accountKeys = append(accountKeys, result.Meta.LoadedAddresses.Writable...)
		accountKeys = append(accountKeys, result.Meta.LoadedAddresses.ReadOnly...)
	}

	facts := reduceFacts(result.Meta, accountKeys, ownerPK, signature)
	if facts == nil {
		return nil, fmt.Errorf("transaction %s has no meta", signature)
	}
	facts.Slot = result.Slot
	if result.BlockTime != nil {
		facts.BlockTime = int64(*result.BlockTime)
	}
	return facts, nil
}

// reduceFacts turns raw transaction meta into owner-scoped facts. Token
// balances are restricted to entries whose Owner matches; everything else in
// the transaction is someone else's business.
func reduceFacts(meta *rpc.TransactionMeta, accountKeys []solana.PublicKey, owner solana.PublicKey, signature string) *models.TransactionFacts {
	if meta == nil {
		return nil
	}

	facts := &models.TransactionFacts{
		Signature:   signature,
		Owner:       owner.String(),
		TokenMoves:  make(map[string]models.TokenAmounts),
		SwapProgram: detectSwapProgram(meta.LogMessages),
	}

	for i, key := range accountKeys {
		if !key.Equals(owner) {
			continue
		}
		if i < len(meta.PreBalances) {
			facts.PreLamports = meta.PreBalances[i]
		}
		if i < len(meta.PostBalances) {
			facts.PostLamports = meta.PostBalances[i]
		}
		break
	}

	for _, bal := range meta.PreTokenBalances {
		if bal.Owner == nil || !bal.Owner.Equals(owner) {
			continue
		}
		move := facts.TokenMoves[bal.Mint.String()]
		move.Pre += uiAmount(bal.UiTokenAmount)
		facts.TokenMoves[bal.Mint.String()] = move
	}
	for _, bal := range meta.PostTokenBalances {
		if bal.Owner == nil || !bal.Owner.Equals(owner) {
			continue
		}
		move := facts.TokenMoves[bal.Mint.String()]
		move.Post += uiAmount(bal.UiTokenAmount)
		facts.TokenMoves[bal.Mint.String()] = move
	}

	return facts
}

func uiAmount(amount *rpc.UiTokenAmount) float64 {
	if amount == nil || amount.UiAmount == nil {
		return 0
	}
	return *amount.UiAmount
}
