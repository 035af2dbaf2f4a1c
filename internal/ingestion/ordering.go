package ingestion

import (
	"errors"
	"sort"

	"solana-wallet-pnl/internal/domain"
)

// ErrInvalidOrdering is returned when signatures are not properly ordered.
var ErrInvalidOrdering = errors.New("signatures are not in chronological order")

// SortSignatures orders signatures by (block_time ASC, slot ASC, signature ASC).
// Signatures without a block time sort first.
func SortSignatures(sigs []domain.RawSignature) {
	sort.SliceStable(sigs, func(i, j int) bool {
		return compareSignatures(sigs[i], sigs[j]) < 0
	})
}

// ValidateSignatureOrdering checks that sigs are strictly chronological.
// Returns ErrInvalidOrdering if not.
func ValidateSignatureOrdering(sigs []domain.RawSignature) error {
	for i := 1; i < len(sigs); i++ {
		if compareSignatures(sigs[i-1], sigs[i]) >= 0 {
			return ErrInvalidOrdering
		}
	}
	return nil
}

// DedupSignatures drops repeated signatures, keeping the first occurrence.
// Pages can overlap when the ledger advances between requests.
func DedupSignatures(sigs []domain.RawSignature) []domain.RawSignature {
	seen := make(map[string]struct{}, len(sigs))
	out := sigs[:0]
	for _, s := range sigs {
		if _, ok := seen[s.Signature]; ok {
			continue
		}
		seen[s.Signature] = struct{}{}
		out = append(out, s)
	}
	return out
}

// compareSignatures returns:
//   - negative if a < b
//   - zero if a == b
//   - positive if a > b
//
// Order: (block_time ASC, slot ASC, signature ASC)
func compareSignatures(a, b domain.RawSignature) int {
	at, bt := blockTime(a), blockTime(b)
	if at != bt {
		if at < bt {
			return -1
		}
		return 1
	}
	if a.Slot != b.Slot {
		if a.Slot < b.Slot {
			return -1
		}
		return 1
	}
	if a.Signature != b.Signature {
		if a.Signature < b.Signature {
			return -1
		}
		return 1
	}
	return 0
}

func blockTime(s domain.RawSignature) int64 {
	if s.BlockTime == nil {
		return 0
	}
	return *s.BlockTime
}
