package types

import (
	"encoding/json"
	"testing"

	"github.com/colorfulnotion/securethebag/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fill(b byte) common.Hash {
	var h common.Hash
	for i := range h {
		h[i] = b
	}
	return h
}

func TestCoinID(t *testing.T) {
	c := Coin{ParentCoinInfo: fill(0x11), PuzzleHash: fill(0xaa), Amount: 100}
	assert.Equal(t, "0x54c16651cda407b3b633d152fbe4e3175fb033b03b6838c7ab8ca4384077cf36", c.ID().Hex())
	assert.Equal(t, c.ID(), CoinID(fill(0x11), fill(0xaa), 100))
	assert.NotEqual(t, c.ID(), CoinID(fill(0x11), fill(0xaa), 101))
}

func TestCoinRecordJSON(t *testing.T) {
	raw := `{
		"coin": {
			"parent_coin_info": "0x1111111111111111111111111111111111111111111111111111111111111111",
			"puzzle_hash": "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
			"amount": 100
		},
		"confirmed_block_index": 10,
		"spent_block_index": 0,
		"spent": false,
		"coinbase": false,
		"timestamp": 1700000000
	}`
	var rec CoinRecord
	require.NoError(t, json.Unmarshal([]byte(raw), &rec))
	assert.Equal(t, fill(0xaa), rec.Coin.PuzzleHash)
	assert.False(t, rec.IsSpent())

	rec.SpentBlockIndex = 12
	assert.True(t, rec.IsSpent())
}
