package types

import (
	"github.com/colorfulnotion/securethebag/clvm"
	"github.com/colorfulnotion/securethebag/common"
)

// Coin is identified by sha256(parent_coin_info || puzzle_hash || amount),
// the amount encoded as a CLVM integer.
type Coin struct {
	ParentCoinInfo common.Hash `json:"parent_coin_info"`
	PuzzleHash     common.Hash `json:"puzzle_hash"`
	Amount         uint64      `json:"amount"`
}

// ID returns the coin's name.
func (c Coin) ID() common.Hash {
	return CoinID(c.ParentCoinInfo, c.PuzzleHash, c.Amount)
}

func CoinID(parent, puzzleHash common.Hash, amount uint64) common.Hash {
	return common.Sha256(parent.Bytes(), puzzleHash.Bytes(), clvm.IntToBytes(amount))
}

// CoinRecord is the full node's view of a coin.
type CoinRecord struct {
	Coin                Coin   `json:"coin"`
	ConfirmedBlockIndex uint32 `json:"confirmed_block_index"`
	SpentBlockIndex     uint32 `json:"spent_block_index"`
	Spent               bool   `json:"spent"`
	Coinbase            bool   `json:"coinbase"`
	Timestamp           uint64 `json:"timestamp"`
}

// IsSpent reports whether the coin has been consumed. A zero spent block
// index means unspent.
func (r *CoinRecord) IsSpent() bool {
	return r.SpentBlockIndex != 0 || r.Spent
}
