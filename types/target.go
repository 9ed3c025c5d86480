package types

import (
	"fmt"

	"github.com/colorfulnotion/securethebag/common"
)

// Target is one recipient of the bag: the inner puzzle hash that receives
// the coin and the amount it receives.
type Target struct {
	PuzzleHash common.Hash `json:"puzzle_hash"`
	Amount     uint64      `json:"amount"`
}

func (t Target) String() string {
	return fmt.Sprintf("%s:%d", t.PuzzleHash.Hex(), t.Amount)
}
