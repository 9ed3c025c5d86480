package ledger

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/colorfulnotion/securethebag/bagerrors"
	"github.com/colorfulnotion/securethebag/common"
	"github.com/colorfulnotion/securethebag/log"
	"github.com/colorfulnotion/securethebag/types"
)

const getCoinRecordByName = "get_coin_record_by_name"

// FullNode queries a full node's RPC interface.
type FullNode struct {
	baseURL    string
	httpClient *http.Client

	// Statistics (protected by mutex)
	statsMu         sync.RWMutex
	totalCalls      int64
	successfulCalls int64
	notFoundCalls   int64
	errorCalls      int64
}

type FullNodeOption func(*FullNode)

// WithHTTPClient replaces the default client, e.g. to use mutual TLS.
func WithHTTPClient(c *http.Client) FullNodeOption {
	return func(n *FullNode) { n.httpClient = c }
}

// WithTLSConfig uses a default client with the given TLS configuration.
func WithTLSConfig(cfg *tls.Config) FullNodeOption {
	return func(n *FullNode) {
		n.httpClient = &http.Client{
			Timeout:   30 * time.Second,
			Transport: &http.Transport{TLSClientConfig: cfg},
		}
	}
}

// NewFullNode creates a client for the node at baseURL, e.g.
// https://localhost:8555.
func NewFullNode(baseURL string, opts ...FullNodeOption) *FullNode {
	n := &FullNode{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

type coinRecordRequest struct {
	Name string `json:"name"`
}

type coinRecordResponse struct {
	CoinRecord *types.CoinRecord `json:"coin_record"`
	Success    bool              `json:"success"`
	Error      string            `json:"error,omitempty"`
}

// CoinRecordByName implements Oracle. Any failure other than the node
// reporting the coin as unknown is ErrLedgerUnavailable.
func (n *FullNode) CoinRecordByName(ctx context.Context, coinID common.Hash) (*types.CoinRecord, error) {
	var resp coinRecordResponse
	if err := n.call(ctx, getCoinRecordByName, coinRecordRequest{Name: coinID.Hex()}, &resp); err != nil {
		n.count(&n.errorCalls)
		return nil, fmt.Errorf("%w: coin %s: %v", bagerrors.ErrLedgerUnavailable, coinID, err)
	}
	if !resp.Success {
		if strings.Contains(strings.ToLower(resp.Error), "not found") {
			n.count(&n.notFoundCalls)
			log.Trace(log.LedgerMonitoring, "coin not found", "coin", coinID)
			return nil, nil
		}
		n.count(&n.errorCalls)
		return nil, fmt.Errorf("%w: coin %s: node error: %s", bagerrors.ErrLedgerUnavailable, coinID, resp.Error)
	}
	if resp.CoinRecord == nil {
		n.count(&n.errorCalls)
		return nil, fmt.Errorf("%w: coin %s: response has no coin_record", bagerrors.ErrLedgerUnavailable, coinID)
	}
	if got := resp.CoinRecord.Coin.ID(); got != coinID {
		n.count(&n.errorCalls)
		return nil, fmt.Errorf("%w: asked for coin %s, node answered %s", bagerrors.ErrLedgerUnavailable, coinID, got)
	}
	n.count(&n.successfulCalls)
	return resp.CoinRecord, nil
}

// call POSTs params to the named endpoint and decodes the JSON body into out.
func (n *FullNode) call(ctx context.Context, endpoint string, params interface{}, out interface{}) error {
	n.count(&n.totalCalls)

	requestBody, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+"/"+endpoint, bytes.NewReader(requestBody))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	httpResp, err := n.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer httpResp.Body.Close()

	responseBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP error %d: %s", httpResp.StatusCode, string(responseBody))
	}
	if err := json.Unmarshal(responseBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	log.Debug(log.LedgerMonitoring, "RPC call completed",
		"endpoint", endpoint,
		"duration", time.Since(start))
	return nil
}

func (n *FullNode) count(counter *int64) {
	n.statsMu.Lock()
	*counter++
	n.statsMu.Unlock()
}

// GetStats returns RPC client statistics.
func (n *FullNode) GetStats() map[string]interface{} {
	n.statsMu.RLock()
	totalCalls := n.totalCalls
	successfulCalls := n.successfulCalls
	notFoundCalls := n.notFoundCalls
	errorCalls := n.errorCalls
	n.statsMu.RUnlock()

	successRate := float64(0)
	if totalCalls > 0 {
		successRate = float64(successfulCalls+notFoundCalls) / float64(totalCalls) * 100
	}

	return map[string]interface{}{
		"total_calls":      totalCalls,
		"successful_calls": successfulCalls,
		"not_found_calls":  notFoundCalls,
		"error_calls":      errorCalls,
		"success_rate":     successRate,
		"base_url":         n.baseURL,
	}
}
