package bag

import (
	"fmt"

	"github.com/colorfulnotion/securethebag/common"
	"github.com/xlab/treeprint"
)

// Render draws the tree from the genesis coin down. At most maxChildren
// children are printed under each node; 0 prints all of them.
func Render(l *ParentLookup, maxChildren int) string {
	return l.ToTree(maxChildren).String()
}

// ToTree builds the treeprint representation used by Render.
func (l *ParentLookup) ToTree(maxChildren int) treeprint.Tree {
	children := make(map[common.Hash][]Entry)
	for _, e := range l.Entries() {
		children[e.ParentCoinID] = append(children[e.ParentCoinID], e)
	}

	tree := treeprint.New()
	tree.SetValue(fmt.Sprintf("genesis %s (width %d, %d targets, depth %d)",
		l.meta.Genesis.String_short(), l.meta.Width, l.meta.TargetCount, l.Depth()))

	var add func(t treeprint.Tree, parentCoin common.Hash)
	add = func(t treeprint.Tree, parentCoin common.Hash) {
		kids := children[parentCoin]
		for i, e := range kids {
			if maxChildren > 0 && i == maxChildren {
				t.AddNode(fmt.Sprintf("... %d more", len(kids)-i))
				break
			}
			coin := e.CoinID()
			label := fmt.Sprintf("%s amount=%d coin=%s", e.PuzzleHash.String_short(), e.Amount, coin.String_short())
			if _, branch := children[coin]; branch {
				add(t.AddBranch(label), coin)
			} else {
				t.AddNode(label)
			}
		}
	}
	add(tree, l.meta.Genesis)
	return tree
}
