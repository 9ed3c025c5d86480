// Package ledger answers coin record queries for the resolver, either from a
// full node over its RPC interface or from an in-memory coin set.
package ledger

import (
	"context"

	"github.com/colorfulnotion/securethebag/common"
	"github.com/colorfulnotion/securethebag/types"
)

// Oracle looks up a coin by id. A nil record with a nil error means the
// ledger has never seen the coin. Implementations must be safe for
// concurrent use and must not cache answers between calls.
type Oracle interface {
	CoinRecordByName(ctx context.Context, coinID common.Hash) (*types.CoinRecord, error)
}
