package models

// LamportsPerSol is the number of lamports in one SOL.
const LamportsPerSol = 1_000_000_000

// ChangeRecord represents a detected balance movement for one wallet within
// a single polling cycle. It is produced and consumed in the same cycle and
// never persisted.
type ChangeRecord struct {
	Address     string `json:"address"`
	OldLamports uint64 `json:"old_lamports"`
	NewLamports uint64 `json:"new_lamports"`
}

// DeltaLamports returns the signed balance change in lamports.
func (c ChangeRecord) DeltaLamports() int64 {
	return int64(c.NewLamports) - int64(c.OldLamports)
}

// DeltaSol returns the signed balance change in SOL.
func (c ChangeRecord) DeltaSol() float64 {
	return float64(c.DeltaLamports()) / LamportsPerSol
}
