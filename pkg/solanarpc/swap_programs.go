package solanarpc

import "strings"

// Known swap/AMM program IDs. The classifier also has a large-movement
// fallback for programs missing from this list.
var swapPrograms = map[string]string{
	"JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4":  "Jupiter",
	"675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8": "Raydium AMM",
	"CPMMoo8L3F4NbTegBCKVNunggL7H1ZpdTHKxQB5qKP1C": "Raydium CPMM",
	"LanMV9sAd7wArD4vJFi2qDdfnVhFxYSUg6eADduJ3uj":  "Raydium Launchpad",
	"6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P":  "pump.fun",
	"pAMMBay6oceH9fJKBRHGP5D4bD4sWpmSwMn52FMfXEA":  "PumpSwap",
	"dbcij3LWUppWqq96dh6gJWwBifmcGfLSB5D4DuSMaqN":  "Meteora DBC",
	"cpamdpZCGKUy5JxQXB4dcpGPiikHawvSWAd6mEn1sGG":  "Meteora DAMM",
	"whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc":  "Orca Whirlpool",
}

// detectSwapProgram scans transaction log messages for an invocation of a
// recognized swap program and returns its display name, or "".
func detectSwapProgram(logMessages []string) string {
	for _, line := range logMessages {
		if !strings.HasPrefix(line, "Program ") {
			continue
		}
		for id, name := range swapPrograms {
			if strings.Contains(line, id) {
				return name
			}
		}
	}
	return ""
}
