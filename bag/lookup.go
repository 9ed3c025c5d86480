package bag

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/colorfulnotion/securethebag/bagerrors"
	"github.com/colorfulnotion/securethebag/common"
	"github.com/colorfulnotion/securethebag/puzzles"
	"github.com/colorfulnotion/securethebag/types"
)

// ParentEntry describes a node and the coin that creates it.
type ParentEntry struct {
	PuzzleHash       common.Hash `json:"puzzle_hash"`
	Amount           uint64      `json:"amount"`
	ParentCoinID     common.Hash `json:"parent_coin_id"`
	ParentPuzzleHash common.Hash `json:"parent_puzzle_hash"` // zero when the parent is the genesis coin
	Depth            int         `json:"depth"`              // hops to the genesis coin
}

// Entry is a ParentEntry with its key, the node's outer puzzle hash.
type Entry struct {
	OuterPuzzleHash common.Hash `json:"outer_puzzle_hash"`
	ParentEntry
}

// CoinID is the id of the node's own coin.
func (e Entry) CoinID() common.Hash {
	return types.CoinID(e.ParentCoinID, e.OuterPuzzleHash, e.Amount)
}

// LookupMeta is the shape of the tree a lookup was built for.
type LookupMeta struct {
	Genesis     common.Hash `json:"genesis"`
	Root        common.Hash `json:"root"`
	Width       int         `json:"width"`
	TargetCount int         `json:"target_count"`
}

// ParentLookup maps a node's outer puzzle hash to its parent coin. It is
// immutable once built and safe for concurrent readers.
type ParentLookup struct {
	meta    LookupMeta
	entries map[common.Hash]ParentEntry
}

// NewLookup reassembles a lookup, e.g. one loaded from storage, and checks
// that every entry chains back to the genesis coin.
func NewLookup(meta LookupMeta, entries []Entry) (*ParentLookup, error) {
	if meta.Width < 2 {
		return nil, fmt.Errorf("%w: width %d", bagerrors.ErrInvalidWidth, meta.Width)
	}
	if want := NodeCount(meta.TargetCount, meta.Width); len(entries) != want {
		return nil, fmt.Errorf("%w: %d entries for %d targets at width %d, want %d",
			bagerrors.ErrTreeInconsistency, len(entries), meta.TargetCount, meta.Width, want)
	}
	l := &ParentLookup{meta: meta, entries: make(map[common.Hash]ParentEntry, len(entries))}
	for _, e := range entries {
		if _, dup := l.entries[e.OuterPuzzleHash]; dup {
			return nil, fmt.Errorf("%w: duplicate entry %s", bagerrors.ErrTreeInconsistency, e.OuterPuzzleHash)
		}
		l.entries[e.OuterPuzzleHash] = e.ParentEntry
	}
	if err := l.Verify(); err != nil {
		return nil, err
	}
	return l, nil
}

// Get returns the entry for an outer puzzle hash.
func (l *ParentLookup) Get(outer common.Hash) (ParentEntry, bool) {
	e, ok := l.entries[outer]
	return e, ok
}

func (l *ParentLookup) Len() int { return len(l.entries) }
func (l *ParentLookup) Genesis() common.Hash { return l.meta.Genesis }
func (l *ParentLookup) Root() common.Hash { return l.meta.Root }
func (l *ParentLookup) Width() int { return l.meta.Width }
func (l *ParentLookup) TargetCount() int { return l.meta.TargetCount }
func (l *ParentLookup) Meta() LookupMeta { return l.meta }

// Depth is the maximum number of parent hops from any node to genesis.
func (l *ParentLookup) Depth() int {
	return TreeDepth(l.meta.TargetCount, l.meta.Width)
}

// Entries returns every entry ordered by depth, then outer puzzle hash.
func (l *ParentLookup) Entries() []Entry {
	out := make([]Entry, 0, len(l.entries))
	for k, e := range l.entries {
		out = append(out, Entry{OuterPuzzleHash: k, ParentEntry: e})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Depth != out[j].Depth {
			return out[i].Depth < out[j].Depth
		}
		return bytes.Compare(out[i].OuterPuzzleHash[:], out[j].OuterPuzzleHash[:]) < 0
	})
	return out
}

// Equal reports whether two lookups describe the same tree.
func (l *ParentLookup) Equal(o *ParentLookup) bool {
	if l.meta != o.meta || len(l.entries) != len(o.entries) {
		return false
	}
	for k, e := range l.entries {
		if oe, ok := o.entries[k]; !ok || oe != e {
			return false
		}
	}
	return true
}

// ChildrenOf returns the entries created by spending the given coin, in
// Entries order.
func (l *ParentLookup) ChildrenOf(coinID common.Hash) []Entry {
	var out []Entry
	for _, e := range l.Entries() {
		if e.ParentCoinID == coinID {
			out = append(out, e)
		}
	}
	return out
}

// Ancestors walks the lookup alone, without a ledger, from an inner puzzle
// hash up to genesis. It returns the parent coin ids in discovery order,
// the last one being the genesis coin.
func (l *ParentLookup) Ancestors(wrapper puzzles.Wrapper, inner common.Hash) ([]common.Hash, error) {
	current := inner
	path := make([]common.Hash, 0, l.Depth())
	for hop := 0; hop < l.Depth(); hop++ {
		e, ok := l.entries[wrapper.Wrap(current)]
		if !ok {
			if hop == 0 {
				return nil, fmt.Errorf("%w: %s", bagerrors.ErrUnknownNode, inner)
			}
			return nil, fmt.Errorf("%w: no entry for %s at hop %d", bagerrors.ErrTreeInconsistency, current, hop)
		}
		path = append(path, e.ParentCoinID)
		if e.ParentCoinID == l.meta.Genesis {
			return path, nil
		}
		current = e.ParentPuzzleHash
	}
	return nil, fmt.Errorf("%w: %s does not reach genesis within %d hops", bagerrors.ErrTreeInconsistency, inner, l.Depth())
}

// Verify checks, without a wrapper, that every entry's parent is either the
// genesis coin or another entry's coin with the recorded puzzle hash, and
// that depths are consistent.
func (l *ParentLookup) Verify() error {
	byCoin := make(map[common.Hash]Entry, len(l.entries))
	for k, e := range l.entries {
		byCoin[types.CoinID(e.ParentCoinID, k, e.Amount)] = Entry{OuterPuzzleHash: k, ParentEntry: e}
	}
	roots := 0
	for k, e := range l.entries {
		if e.ParentCoinID == l.meta.Genesis {
			roots++
			if e.Depth != 1 || e.PuzzleHash != l.meta.Root {
				return fmt.Errorf("%w: genesis child %s is not the root", bagerrors.ErrTreeInconsistency, k)
			}
			continue
		}
		parent, ok := byCoin[e.ParentCoinID]
		if !ok {
			return fmt.Errorf("%w: parent coin %s of %s is not in the tree", bagerrors.ErrTreeInconsistency, e.ParentCoinID, k)
		}
		if parent.PuzzleHash != e.ParentPuzzleHash || parent.Depth+1 != e.Depth {
			return fmt.Errorf("%w: entry %s disagrees with its parent", bagerrors.ErrTreeInconsistency, k)
		}
		if e.Depth > l.Depth() {
			return fmt.Errorf("%w: entry %s deeper than %d", bagerrors.ErrTreeInconsistency, k, l.Depth())
		}
	}
	if roots != 1 {
		return fmt.Errorf("%w: %d children of genesis", bagerrors.ErrTreeInconsistency, roots)
	}
	return nil
}
