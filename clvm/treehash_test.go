package clvm

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/colorfulnotion/securethebag/common"
	"github.com/stretchr/testify/assert"
)

func TestOperatorHashes(t *testing.T) {
	assert.Equal(t, "0x4bf5122f344554c53bde2ebb8cd2b7e3d1600ad631c385a5d7cce23c7785459a", NilTreeHash.Hex())
	assert.Equal(t, "0x9dcf97a184f32623d11a73124ceb99a5709b083721e878a16d78f596718ba7b2", quoteTreeHash.Hex())
	assert.Equal(t, "0xa12871fee210fb8619291eaea194581cbd2531e4b23759d225f6806923f63222", applyTreeHash.Hex())
	assert.Equal(t, "0xa8d5dd63fba471ebcb1f3e8f7c1e1879b7152a6e7298a91ce119a63400ade7c5", consTreeHash.Hex())
}

func TestIntToBytes(t *testing.T) {
	cases := []struct {
		v    uint64
		want string
	}{
		{0, ""},
		{1, "01"},
		{50, "32"},
		{127, "7f"},
		{128, "0080"},
		{150, "0096"},
		{255, "00ff"},
		{256, "0100"},
		{0xffffffffffffffff, "00ffffffffffffffff"},
	}
	for _, c := range cases {
		got := IntToBytes(c.v)
		want, _ := hex.DecodeString(c.want)
		if !bytes.Equal(got, want) {
			t.Errorf("IntToBytes(%d) = %x, want %s", c.v, got, c.want)
		}
	}
}

func TestHashList(t *testing.T) {
	assert.Equal(t, NilTreeHash, HashList())
	assert.Equal(t,
		"0x0ad20a16addf9476f886e7f97f8449b69489921748e652043b0b12a9fdf5f86a",
		HashList(HashInt(51), HashAtom([]byte("$"))).Hex())
	assert.Equal(t,
		"0xba4484b961b7a2369d948d06c55b64bdbfaffb326bc13b490ab1215dd33d8d46",
		HashQuoted(NilTreeHash).Hex())
}

func TestCurryTreeHash(t *testing.T) {
	var mod common.Hash
	for i := range mod {
		mod[i] = 0x33
	}
	assert.Equal(t,
		"0xe36c66079e13556a932cb689f4a54f8ad5fa439f38699fbcf1c58c45ef4ea619",
		CurryTreeHash(mod).Hex())
	assert.Equal(t,
		"0xcb2d11ccbe7dc97af32bc0e50afe538ecdadd2e1b1657e0b1ace2f58790e56de",
		CurryTreeHash(mod, HashAtom([]byte{0x07})).Hex())
}
