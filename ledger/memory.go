package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/colorfulnotion/securethebag/common"
	"github.com/colorfulnotion/securethebag/types"
)

// Memory is an in-memory coin set, used for dry runs and tests.
type Memory struct {
	mu     sync.RWMutex
	coins  map[common.Hash]types.CoinRecord
	height uint32
}

func NewMemory() *Memory {
	return &Memory{coins: make(map[common.Hash]types.CoinRecord), height: 1}
}

// Add records coin as created in a new block and returns its id.
func (m *Memory) Add(coin types.Coin) common.Hash {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.height++
	id := coin.ID()
	m.coins[id] = types.CoinRecord{Coin: coin, ConfirmedBlockIndex: m.height}
	return id
}

// Spend marks a known coin as spent in a new block.
func (m *Memory) Spend(coinID common.Hash) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.coins[coinID]
	if !ok {
		return fmt.Errorf("spend %s: coin not found", coinID)
	}
	if rec.IsSpent() {
		return fmt.Errorf("spend %s: already spent at height %d", coinID, rec.SpentBlockIndex)
	}
	m.height++
	rec.SpentBlockIndex = m.height
	rec.Spent = true
	m.coins[coinID] = rec
	return nil
}

// Remove forgets a coin, as a reorg would.
func (m *Memory) Remove(coinID common.Hash) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.coins, coinID)
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.coins)
}

func (m *Memory) CoinRecordByName(ctx context.Context, coinID common.Hash) (*types.CoinRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.coins[coinID]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}
