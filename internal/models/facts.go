package models

// WrappedSolMint is the mint address of wrapped SOL.
const WrappedSolMint = "So11111111111111111111111111111111111111112"

// TokenAmounts holds the pre and post token quantity (UI amount) for one mint
// owned by the watched wallet in a single transaction.
type TokenAmounts struct {
	Pre  float64 `json:"pre"`
	Post float64 `json:"post"`
}

// Delta returns post minus pre.
func (t TokenAmounts) Delta() float64 {
	return t.Post - t.Pre
}

// TransactionFacts represents the decoded shape of one transaction as seen by
// one wallet: its SOL pre/post balance, its per-mint token balance moves, and
// whether a known swap program executed. Derived once per resolved signature
// and immutable afterwards.
type TransactionFacts struct {
	Signature    string                  `json:"signature"`
	Owner        string                  `json:"owner"`
	Slot         uint64                  `json:"slot"`
	BlockTime    int64                   `json:"block_time"`
	PreLamports  uint64                  `json:"pre_lamports"`
	PostLamports uint64                  `json:"post_lamports"`
	TokenMoves   map[string]TokenAmounts `json:"token_moves"`
	SwapProgram  string                  `json:"swap_program,omitempty"`
}

// NativeDiffSol returns the wallet's SOL balance delta (fees included).
func (f *TransactionFacts) NativeDiffSol() float64 {
	return (float64(f.PostLamports) - float64(f.PreLamports)) / LamportsPerSol
}

// WrappedDiff returns the wallet's wrapped-SOL quantity delta.
func (f *TransactionFacts) WrappedDiff() float64 {
	return f.TokenMoves[WrappedSolMint].Delta()
}

// SwapProgramSeen reports whether a recognized swap program appeared in the
// transaction's invocation trace.
func (f *TransactionFacts) SwapProgramSeen() bool {
	return f.SwapProgram != ""
}
