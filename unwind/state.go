package unwind

import (
	"encoding/json"
	"fmt"

	"github.com/colorfulnotion/securethebag/bagerrors"
	"github.com/colorfulnotion/securethebag/common"
)

// State is where a walk stands. Every state but StateWalking is terminal.
type State int

const (
	StateWalking State = iota
	StateFoundUnspentAnchor
	StateFoundSpentConflict
	StateReachedGenesis
	StateUnknownNode
	StateTreeInconsistent
)

func (s State) String() string {
	switch s {
	case StateWalking:
		return "Walking"
	case StateFoundUnspentAnchor:
		return "FoundUnspentAnchor"
	case StateFoundSpentConflict:
		return "FoundSpentConflict"
	case StateReachedGenesis:
		return "ReachedGenesis"
	case StateUnknownNode:
		return "UnknownNode"
	case StateTreeInconsistent:
		return "TreeInconsistent"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// SpendPlan lists the coins to spend, root side first. Spending each coin
// in order creates the next one; the last spend creates the target's coin.
type SpendPlan []common.Hash

// Result is the outcome of one walk.
type Result struct {
	Target    common.Hash `json:"target"`
	State     State       `json:"state"`
	Plan      SpendPlan   `json:"plan"`
	Anchor    common.Hash `json:"anchor"`     // unspent coin the plan starts from
	SpentCoin common.Hash `json:"spent_coin"` // set on StateFoundSpentConflict
	Hops      int         `json:"hops"`       // ledger queries made
}

// Warning returns ErrRaceCondition when the walk ran into a spent coin.
func (r *Result) Warning() error {
	if r.State != StateFoundSpentConflict {
		return nil
	}
	return fmt.Errorf("%w: coin %s", bagerrors.ErrRaceCondition, r.SpentCoin)
}

func (r *Result) String() string {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Sprintf("Error marshaling JSON: %v", err)
	}
	return string(b)
}
