package targets

import (
	"github.com/colorfulnotion/securethebag/common"
	"github.com/colorfulnotion/securethebag/types"
	"github.com/holiman/uint256"
)

// Digest commits to the ordered target list. Two lists with the same digest
// build the same tree.
func Digest(targets []types.Target) common.Hash {
	parts := make([][]byte, 0, 2*len(targets))
	for _, t := range targets {
		parts = append(parts, t.PuzzleHash.Bytes(), common.Uint64ToBytes(t.Amount))
	}
	return common.Sha256(parts...)
}

// Total sums the target amounts without overflow.
func Total(targets []types.Target) *uint256.Int {
	total := new(uint256.Int)
	for _, t := range targets {
		total.Add(total, uint256.NewInt(t.Amount))
	}
	return total
}
