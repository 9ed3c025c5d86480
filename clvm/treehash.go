// Package clvm computes CLVM tree hashes without materializing programs.
//
// An atom hashes as sha256(0x01 || atom) and a cons pair as
// sha256(0x02 || left || right). Everything here works on already-hashed
// subtrees so a curried puzzle's hash can be derived from its arguments'
// hashes alone.
package clvm

import (
	"github.com/colorfulnotion/securethebag/common"
)

const (
	atomPrefix byte = 0x01
	pairPrefix byte = 0x02
)

var (
	// NilTreeHash is the hash of the empty atom, ().
	NilTreeHash = HashAtom(nil)
	// OneTreeHash is the hash of the atom 1, which doubles as the q operator.
	OneTreeHash = HashAtom([]byte{0x01})

	quoteTreeHash = OneTreeHash
	applyTreeHash = HashAtom([]byte{0x02})
	consTreeHash  = HashAtom([]byte{0x04})
)

// HashAtom hashes a raw atom.
func HashAtom(atom []byte) common.Hash {
	return common.Sha256([]byte{atomPrefix}, atom)
}

// HashPair hashes a cons of two hashed subtrees.
func HashPair(left, right common.Hash) common.Hash {
	return common.Sha256([]byte{pairPrefix}, left.Bytes(), right.Bytes())
}

// HashInt hashes an integer atom.
func HashInt(v uint64) common.Hash {
	return HashAtom(IntToBytes(v))
}

// HashList hashes a proper list of hashed elements.
func HashList(items ...common.Hash) common.Hash {
	h := NilTreeHash
	for i := len(items) - 1; i >= 0; i-- {
		h = HashPair(items[i], h)
	}
	return h
}

// HashQuoted hashes (q . body).
func HashQuoted(body common.Hash) common.Hash {
	return HashPair(quoteTreeHash, body)
}

// IntToBytes encodes v as CLVM does: minimal big-endian two's complement,
// zero being the empty atom.
func IntToBytes(v uint64) []byte {
	if v == 0 {
		return []byte{}
	}
	buf := common.Uint64ToBytes(v)
	i := 0
	for i < len(buf)-1 && buf[i] == 0 {
		i++
	}
	out := buf[i:]
	if out[0]&0x80 != 0 {
		out = append([]byte{0x00}, out...)
	}
	return out
}

// CurryTreeHash returns the tree hash of mod curried with args, given the
// mod's hash and each argument's tree hash:
//
//	(a (q . mod) (c (q . a1) (c (q . a2) ... 1)))
func CurryTreeHash(modHash common.Hash, args ...common.Hash) common.Hash {
	quotedMod := HashQuoted(modHash)
	return HashPair(applyTreeHash, HashPair(quotedMod, HashPair(curriedValues(args), NilTreeHash)))
}

func curriedValues(args []common.Hash) common.Hash {
	h := OneTreeHash
	for i := len(args) - 1; i >= 0; i-- {
		h = HashPair(consTreeHash, HashPair(HashQuoted(args[i]), HashPair(h, NilTreeHash)))
	}
	return h
}
