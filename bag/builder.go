// Package bag builds the secure-the-bag commitment tree: targets are
// batched width at a time into branch puzzles, branches are batched again
// until a single root remains, and the genesis coin creates the root.
package bag

import (
	"fmt"

	"github.com/colorfulnotion/securethebag/bagerrors"
	"github.com/colorfulnotion/securethebag/common"
	"github.com/colorfulnotion/securethebag/log"
	"github.com/colorfulnotion/securethebag/puzzles"
	"github.com/colorfulnotion/securethebag/targets"
	"github.com/colorfulnotion/securethebag/types"
)

// DefaultWidth is the batch width used by the bag tooling.
const DefaultWidth = 100

// Tree is the result of building a bag.
type Tree struct {
	Root       common.Hash // root inner puzzle hash, the commitment
	RootOuter  common.Hash
	RootAmount uint64
	RootCoinID common.Hash // coin created by spending genesis
	Lookup     *ParentLookup
}

// node is the builder's working representation; only the lookup survives.
type node struct {
	types.Target
	first, last int // children in the level below
}

// Build returns the root commitment and parent lookup for targets.
func Build(ts []types.Target, width int, wrapper puzzles.Wrapper, genesis common.Hash) (common.Hash, *ParentLookup, error) {
	tree, err := NewTree(ts, width, wrapper, genesis)
	if err != nil {
		return common.Hash{}, nil, err
	}
	return tree.Root, tree.Lookup, nil
}

// NewTree builds the commitment tree. The result depends only on the
// arguments, including target order.
func NewTree(ts []types.Target, width int, wrapper puzzles.Wrapper, genesis common.Hash) (*Tree, error) {
	if width < 2 {
		return nil, fmt.Errorf("%w: got %d", bagerrors.ErrInvalidWidth, width)
	}
	if err := Validate(ts); err != nil {
		return nil, err
	}

	level := make([]node, len(ts))
	for i, t := range ts {
		level[i] = node{Target: t}
	}
	levels := [][]node{level}
	for len(level) > 1 {
		next := make([]node, 0, batchCount(len(level), width))
		for start := 0; start < len(level); start += width {
			end := start + min(width, len(level)-start)
			batch := make([]types.Target, 0, end-start)
			var amount uint64
			for _, child := range level[start:end] {
				batch = append(batch, child.Target)
				amount += child.Amount
			}
			next = append(next, node{
				Target: types.Target{PuzzleHash: puzzles.BatchPuzzleHash(batch), Amount: amount},
				first:  start,
				last:   end,
			})
		}
		log.Debug(log.BagMonitoring, "batched level", "level", len(levels), "children", len(level), "batches", len(next))
		levels = append(levels, next)
		level = next
	}

	depth := len(levels)
	root := levels[depth-1][0]
	rootOuter := wrapper.Wrap(root.PuzzleHash)
	rootCoin := types.CoinID(genesis, rootOuter, root.Amount)

	entries := make(map[common.Hash]ParentEntry, NodeCount(len(ts), width))
	entries[rootOuter] = ParentEntry{
		PuzzleHash:   root.PuzzleHash,
		Amount:       root.Amount,
		ParentCoinID: genesis,
		Depth:        1,
	}

	// Coin ids are only known top-down: a coin's id needs its parent's.
	coinIDs := []common.Hash{rootCoin}
	for lvl := depth - 1; lvl > 0; lvl-- {
		children := levels[lvl-1]
		childIDs := make([]common.Hash, len(children))
		for pi, parent := range levels[lvl] {
			for ci := parent.first; ci < parent.last; ci++ {
				child := children[ci]
				outer := wrapper.Wrap(child.PuzzleHash)
				if _, dup := entries[outer]; dup {
					return nil, fmt.Errorf("%w: puzzle hash %s occurs twice in the tree", bagerrors.ErrMalformedTargets, child.PuzzleHash)
				}
				entries[outer] = ParentEntry{
					PuzzleHash:       child.PuzzleHash,
					Amount:           child.Amount,
					ParentCoinID:     coinIDs[pi],
					ParentPuzzleHash: parent.PuzzleHash,
					Depth:            depth - lvl + 1,
				}
				childIDs[ci] = types.CoinID(coinIDs[pi], outer, child.Amount)
			}
		}
		coinIDs = childIDs
	}

	log.Debug(log.BagMonitoring, "built commitment tree", "targets", len(ts), "width", width, "depth", depth,
		"root", root.PuzzleHash, "rootCoin", rootCoin)

	return &Tree{
		Root:       root.PuzzleHash,
		RootOuter:  rootOuter,
		RootAmount: root.Amount,
		RootCoinID: rootCoin,
		Lookup: &ParentLookup{
			meta: LookupMeta{
				Genesis:     genesis,
				Root:        root.PuzzleHash,
				Width:       width,
				TargetCount: len(ts),
			},
			entries: entries,
		},
	}, nil
}

// TreeFromLookup recovers the root summary of a lookup, e.g. one loaded
// from storage. wrapper must be the one the lookup was built with.
func TreeFromLookup(l *ParentLookup, wrapper puzzles.Wrapper) (*Tree, error) {
	outer := wrapper.Wrap(l.Root())
	e, ok := l.Get(outer)
	if !ok || e.ParentCoinID != l.Genesis() {
		return nil, fmt.Errorf("%w: root %s is not created by genesis under this wrapper", bagerrors.ErrTreeInconsistency, l.Root())
	}
	return &Tree{
		Root:       l.Root(),
		RootOuter:  outer,
		RootAmount: e.Amount,
		RootCoinID: Entry{OuterPuzzleHash: outer, ParentEntry: e}.CoinID(),
		Lookup:     l,
	}, nil
}

// Validate rejects target lists that cannot be committed to unambiguously:
// empty lists, zero amounts, a recipient listed twice (the lookup is keyed
// by puzzle hash) and totals that do not fit in a coin amount.
func Validate(ts []types.Target) error {
	if len(ts) == 0 {
		return fmt.Errorf("%w: no targets", bagerrors.ErrMalformedTargets)
	}
	seen := make(map[common.Hash]int, len(ts))
	for i, t := range ts {
		if t.Amount == 0 {
			return fmt.Errorf("%w: target %d (%s) has zero amount", bagerrors.ErrMalformedTargets, i, t.PuzzleHash)
		}
		if j, dup := seen[t.PuzzleHash]; dup {
			return fmt.Errorf("%w: targets %d and %d share puzzle hash %s", bagerrors.ErrMalformedTargets, j, i, t.PuzzleHash)
		}
		seen[t.PuzzleHash] = i
	}
	if total := targets.Total(ts); !total.IsUint64() {
		return fmt.Errorf("%w: total amount %s overflows a coin amount", bagerrors.ErrMalformedTargets, total.Dec())
	}
	return nil
}
