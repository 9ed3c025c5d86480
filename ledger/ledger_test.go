package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/colorfulnotion/securethebag/bagerrors"
	"github.com/colorfulnotion/securethebag/common"
	"github.com/colorfulnotion/securethebag/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCoin = types.Coin{
	ParentCoinInfo: common.HexToHash("0x1111111111111111111111111111111111111111111111111111111111111111"),
	PuzzleHash:     common.HexToHash("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"),
	Amount:         100,
}

// fakeNode answers get_coin_record_by_name from a map the way a full node
// does.
func fakeNode(t *testing.T, records map[common.Hash]types.CoinRecord) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/get_coin_record_by_name" || r.Method != http.MethodPost {
			http.Error(w, "bad endpoint", http.StatusNotFound)
			return
		}
		var req struct {
			Name string `json:"name"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		id, err := common.ParseHash(req.Name)
		if err != nil {
			json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "error": "invalid name"})
			return
		}
		rec, ok := records[id]
		if !ok {
			json.NewEncoder(w).Encode(map[string]interface{}{
				"success": false,
				"error":   fmt.Sprintf("Coin record %s not found", req.Name),
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "coin_record": rec})
	}))
}

func TestFullNodeCoinRecord(t *testing.T) {
	id := testCoin.ID()
	srv := fakeNode(t, map[common.Hash]types.CoinRecord{
		id: {Coin: testCoin, ConfirmedBlockIndex: 10, SpentBlockIndex: 12, Spent: true},
	})
	defer srv.Close()

	node := NewFullNode(srv.URL+"/", WithHTTPClient(srv.Client()))
	rec, err := node.CoinRecordByName(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, testCoin, rec.Coin)
	assert.True(t, rec.IsSpent())
	assert.Equal(t, uint32(12), rec.SpentBlockIndex)

	rec, err = node.CoinRecordByName(context.Background(), common.Sha256([]byte("missing")))
	require.NoError(t, err)
	assert.Nil(t, rec)

	stats := node.GetStats()
	assert.Equal(t, int64(2), stats["total_calls"])
	assert.Equal(t, int64(1), stats["successful_calls"])
	assert.Equal(t, int64(1), stats["not_found_calls"])
	assert.Equal(t, int64(0), stats["error_calls"])
}

func TestFullNodeFailures(t *testing.T) {
	id := testCoin.ID()

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer down.Close()
	_, err := NewFullNode(down.URL).CoinRecordByName(context.Background(), id)
	assert.True(t, errors.Is(err, bagerrors.ErrLedgerUnavailable))
	assert.True(t, bagerrors.IsTransient(err))

	nodeErr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success": false, "error": "node is syncing"}`)
	}))
	defer nodeErr.Close()
	_, err = NewFullNode(nodeErr.URL).CoinRecordByName(context.Background(), id)
	assert.True(t, errors.Is(err, bagerrors.ErrLedgerUnavailable))

	// A record for some other coin is not trusted.
	wrong := fakeNode(t, map[common.Hash]types.CoinRecord{id: {Coin: types.Coin{Amount: 1}}})
	defer wrong.Close()
	_, err = NewFullNode(wrong.URL).CoinRecordByName(context.Background(), id)
	assert.True(t, errors.Is(err, bagerrors.ErrLedgerUnavailable))

	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer slow.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = NewFullNode(slow.URL).CoinRecordByName(ctx, id)
	assert.True(t, errors.Is(err, bagerrors.ErrLedgerUnavailable))
}

func TestMemory(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	id := testCoin.ID()

	rec, err := m.CoinRecordByName(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, rec)

	assert.Equal(t, id, m.Add(testCoin))
	rec, err = m.CoinRecordByName(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.False(t, rec.IsSpent())

	require.NoError(t, m.Spend(id))
	assert.Error(t, m.Spend(id))
	assert.Error(t, m.Spend(common.Sha256([]byte("unknown"))))
	rec, err = m.CoinRecordByName(ctx, id)
	require.NoError(t, err)
	assert.True(t, rec.IsSpent())
	assert.Greater(t, rec.SpentBlockIndex, rec.ConfirmedBlockIndex)

	m.Remove(id)
	assert.Equal(t, 0, m.Len())

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = m.CoinRecordByName(cancelled, id)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryConcurrent(t *testing.T) {
	m := NewMemory()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c := testCoin
			c.Amount = uint64(i + 1)
			id := m.Add(c)
			_, err := m.CoinRecordByName(context.Background(), id)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 16, m.Len())
}
