package puzzles

import (
	"github.com/colorfulnotion/securethebag/clvm"
	"github.com/colorfulnotion/securethebag/common"
	"github.com/colorfulnotion/securethebag/types"
)

// Condition opcodes used by the batch puzzle.
const (
	CreateCoin             = 51
	CreateCoinAnnouncement = 60
)

// Every batch spend announces "$" so a fee spend can assert it.
var emptyAnnouncement = clvm.HashList(clvm.HashInt(CreateCoinAnnouncement), clvm.HashAtom([]byte("$")))

// CreateCoinConditionHash hashes (51 ph amount (ph)); the memo hints the
// recipient.
func CreateCoinConditionHash(puzzleHash common.Hash, amount uint64) common.Hash {
	ph := clvm.HashAtom(puzzleHash.Bytes())
	return clvm.HashList(clvm.HashInt(CreateCoin), ph, clvm.HashInt(amount), clvm.HashList(ph))
}

// BatchPuzzleHash returns the tree hash of
//
//	(q . ((60 "$") (51 ph_1 amt_1 (ph_1)) ... (51 ph_n amt_n (ph_n))))
//
// the puzzle of a branch coin that creates children in order.
func BatchPuzzleHash(children []types.Target) common.Hash {
	conditions := make([]common.Hash, 0, len(children)+1)
	conditions = append(conditions, emptyAnnouncement)
	for _, c := range children {
		conditions = append(conditions, CreateCoinConditionHash(c.PuzzleHash, c.Amount))
	}
	return clvm.HashQuoted(clvm.HashList(conditions...))
}
