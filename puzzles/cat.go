package puzzles

import (
	"fmt"

	"github.com/colorfulnotion/securethebag/clvm"
	"github.com/colorfulnotion/securethebag/common"
	lru "github.com/hashicorp/golang-lru/v2"
)

// CATModHash is the tree hash of the CAT v2 outer puzzle.
var CATModHash = common.HexToHash("0x37bef360ee858133b69d595a906dc45d01af50379dad515eb9518abb7c1d2a7a")

var catModHashAtom = clvm.HashAtom(CATModHash.Bytes())

// Wrapper maps an inner puzzle hash to the outer puzzle hash the coin is
// actually created with. Builder and resolver must share one Wrapper.
type Wrapper interface {
	Wrap(inner common.Hash) common.Hash
}

// CATWrapper wraps inner puzzles in the CAT v2 layer of one asset.
type CATWrapper struct {
	assetID     common.Hash
	assetIDAtom common.Hash
}

func NewCATWrapper(assetID common.Hash) *CATWrapper {
	return &CATWrapper{
		assetID:     assetID,
		assetIDAtom: clvm.HashAtom(assetID.Bytes()),
	}
}

func (w *CATWrapper) AssetID() common.Hash {
	return w.assetID
}

// Wrap returns the tree hash of CAT_MOD curried with
// (CAT_MOD_HASH, asset id, inner puzzle).
func (w *CATWrapper) Wrap(inner common.Hash) common.Hash {
	return clvm.CurryTreeHash(CATModHash, catModHashAtom, w.assetIDAtom, inner)
}

func (w *CATWrapper) String() string {
	return fmt.Sprintf("cat(%s)", w.assetID.String_short())
}

// Wrap is CATWrapper.Wrap for a one-off asset id.
func Wrap(assetID, inner common.Hash) common.Hash {
	return NewCATWrapper(assetID).Wrap(inner)
}

// PlainWrapper is used for a bag of the native currency: coins carry the
// inner puzzle hash directly.
type PlainWrapper struct{}

func (PlainWrapper) Wrap(inner common.Hash) common.Hash { return inner }

func (PlainWrapper) String() string { return "plain" }

// NewWrapper returns a CAT wrapper for assetID, or a PlainWrapper when
// assetID is the zero hash.
func NewWrapper(assetID common.Hash) Wrapper {
	if assetID.IsZero() {
		return PlainWrapper{}
	}
	return NewCATWrapper(assetID)
}

// CachedWrapper memoizes another Wrapper. Safe for concurrent use.
type CachedWrapper struct {
	inner Wrapper
	cache *lru.Cache[common.Hash, common.Hash]
}

func NewCachedWrapper(inner Wrapper, size int) (*CachedWrapper, error) {
	cache, err := lru.New[common.Hash, common.Hash](size)
	if err != nil {
		return nil, err
	}
	return &CachedWrapper{inner: inner, cache: cache}, nil
}

func (w *CachedWrapper) Wrap(inner common.Hash) common.Hash {
	if outer, ok := w.cache.Get(inner); ok {
		return outer
	}
	outer := w.inner.Wrap(inner)
	w.cache.Add(inner, outer)
	return outer
}

func (w *CachedWrapper) Len() int {
	return w.cache.Len()
}
