package puzzles

import (
	"sync"
	"testing"

	"github.com/colorfulnotion/securethebag/common"
	"github.com/colorfulnotion/securethebag/types"
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

func TestCATWrap(t *testing.T) {
	w := NewCATWrapper(fill(0x22))
	assert.Equal(t,
		"0x4c587db7c87d562e28f2e9467137dc45272e51e91ca1679b74fe56f3180d7895",
		w.Wrap(fill(0xaa)).Hex())
	assert.Equal(t, w.Wrap(fill(0xaa)), Wrap(fill(0x22), fill(0xaa)))
	assert.NotEqual(t, w.Wrap(fill(0xaa)), NewCATWrapper(fill(0x23)).Wrap(fill(0xaa)))
}

func TestNewWrapper(t *testing.T) {
	assert.Equal(t, fill(0xaa), NewWrapper(common.Hash{}).Wrap(fill(0xaa)))
	_, isCAT := NewWrapper(fill(0x22)).(*CATWrapper)
	assert.True(t, isCAT)
}

func TestCachedWrapper(t *testing.T) {
	base := NewCATWrapper(fill(0x22))
	cached, err := NewCachedWrapper(base, 16)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(b byte) {
			defer wg.Done()
			assert.Equal(t, base.Wrap(fill(b)), cached.Wrap(fill(b)))
		}(byte(i))
	}
	wg.Wait()
	assert.Equal(t, 8, cached.Len())

	_, err = NewCachedWrapper(base, 0)
	assert.Error(t, err)
}

func TestBatchPuzzleHash(t *testing.T) {
	a := types.Target{PuzzleHash: fill(0xaa), Amount: 100}
	b := types.Target{PuzzleHash: fill(0xbb), Amount: 50}

	assert.Equal(t,
		"0x7a7fc1ba7e37d115362ebb1c3b52c4e5ff5bd4ff1e24e47c9332eefe2665a563",
		BatchPuzzleHash([]types.Target{a}).Hex())
	assert.Equal(t,
		"0xd227a4e3416f62bb5dc43cf01365bc6cae6d6dbfa4697d8c7d1458602a6cdd04",
		BatchPuzzleHash([]types.Target{a, b}).Hex())
	// order is part of the commitment
	assert.NotEqual(t, BatchPuzzleHash([]types.Target{a, b}), BatchPuzzleHash([]types.Target{b, a}))
}
