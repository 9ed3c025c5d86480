package storage

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/colorfulnotion/securethebag/bag"
	"github.com/colorfulnotion/securethebag/common"
	"github.com/colorfulnotion/securethebag/log"
	"github.com/syndtr/goleveldb/leveldb"
)

const (
	metaPrefix  byte = 'm'
	entryPrefix byte = 'e'

	metaSize  = 2*common.HashLength + 8 + 4
	entrySize = 3*common.HashLength + 8 + 4
)

// LookupStore persists parent lookups so a large bag is only built once.
// A lookup is stored as one meta record and one record per entry, all
// under a key derived from everything the tree depends on.
type LookupStore struct {
	db *PersistenceStore
}

func NewLookupStore(db *PersistenceStore) *LookupStore {
	return &LookupStore{db: db}
}

// LookupKey identifies a tree: same genesis, asset, targets and width give
// the same lookup.
func LookupKey(genesis, assetID, targetsDigest common.Hash, width int) common.Hash {
	return common.Sha256([]byte("securethebag/lookup"), genesis.Bytes(), assetID.Bytes(), targetsDigest.Bytes(),
		common.Uint64ToBytes(uint64(width)))
}

func metaKey(key common.Hash) []byte {
	return append([]byte{metaPrefix}, key.Bytes()...)
}

func entriesPrefix(key common.Hash) []byte {
	return append([]byte{entryPrefix}, key.Bytes()...)
}

// Save writes the lookup under key, replacing any previous one.
func (s *LookupStore) Save(key common.Hash, l *bag.ParentLookup) error {
	if uint64(l.TargetCount()) > math.MaxUint32 {
		return fmt.Errorf("save lookup %s: %d targets do not fit a meta record", key, l.TargetCount())
	}
	if _, err := s.db.DeletePrefix(entriesPrefix(key)); err != nil {
		return err
	}
	batch := new(leveldb.Batch)
	prefix := entriesPrefix(key)
	for _, e := range l.Entries() {
		batch.Put(append(append([]byte(nil), prefix...), e.OuterPuzzleHash.Bytes()...), encodeEntry(e.ParentEntry))
	}
	// Meta goes last so a partially written lookup is never loaded.
	batch.Put(metaKey(key), encodeMeta(l.Meta()))
	if err := s.db.Write(batch); err != nil {
		return fmt.Errorf("save lookup %s: %w", key, err)
	}
	log.Debug(log.StorageMonitoring, "saved lookup", "key", key, "entries", l.Len())
	return nil
}

// Load returns the lookup stored under key, rebuilt and verified. found is
// false when nothing is stored.
func (s *LookupStore) Load(key common.Hash) (l *bag.ParentLookup, found bool, err error) {
	raw, ok, err := s.db.Get(metaKey(key))
	if err != nil || !ok {
		return nil, false, err
	}
	meta, err := decodeMeta(raw)
	if err != nil {
		return nil, false, fmt.Errorf("lookup %s: %w", key, err)
	}

	entries := make([]bag.Entry, 0, bag.NodeCount(meta.TargetCount, meta.Width))
	prefix := entriesPrefix(key)
	err = s.db.ForEachWithPrefix(prefix, func(k, v []byte) error {
		pe, err := decodeEntry(v)
		if err != nil {
			return err
		}
		entries = append(entries, bag.Entry{OuterPuzzleHash: common.BytesToHash(k[len(prefix):]), ParentEntry: pe})
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("lookup %s: %w", key, err)
	}

	l, err = bag.NewLookup(meta, entries)
	if err != nil {
		return nil, false, fmt.Errorf("lookup %s: %w", key, err)
	}
	log.Debug(log.StorageMonitoring, "loaded lookup", "key", key, "entries", l.Len())
	return l, true, nil
}

// Delete removes the lookup stored under key.
func (s *LookupStore) Delete(key common.Hash) error {
	if err := s.db.Delete(metaKey(key)); err != nil {
		return err
	}
	_, err := s.db.DeletePrefix(entriesPrefix(key))
	return err
}

func encodeMeta(m bag.LookupMeta) []byte {
	out := make([]byte, 0, metaSize)
	out = append(out, m.Genesis.Bytes()...)
	out = append(out, m.Root.Bytes()...)
	out = binary.BigEndian.AppendUint64(out, uint64(m.Width))
	out = binary.BigEndian.AppendUint32(out, uint32(m.TargetCount))
	return out
}

func decodeMeta(b []byte) (bag.LookupMeta, error) {
	if len(b) != metaSize {
		return bag.LookupMeta{}, fmt.Errorf("meta record is %d bytes, want %d", len(b), metaSize)
	}
	return bag.LookupMeta{
		Genesis:     common.BytesToHash(b[0:32]),
		Root:        common.BytesToHash(b[32:64]),
		Width:       int(binary.BigEndian.Uint64(b[64:72])),
		TargetCount: int(binary.BigEndian.Uint32(b[72:76])),
	}, nil
}

func encodeEntry(e bag.ParentEntry) []byte {
	out := make([]byte, 0, entrySize)
	out = append(out, e.PuzzleHash.Bytes()...)
	out = binary.BigEndian.AppendUint64(out, e.Amount)
	out = append(out, e.ParentCoinID.Bytes()...)
	out = append(out, e.ParentPuzzleHash.Bytes()...)
	// depth is at most log2(targets)+1
	out = binary.BigEndian.AppendUint32(out, uint32(e.Depth))
	return out
}

func decodeEntry(b []byte) (bag.ParentEntry, error) {
	if len(b) != entrySize {
		return bag.ParentEntry{}, fmt.Errorf("entry record is %d bytes, want %d", len(b), entrySize)
	}
	return bag.ParentEntry{
		PuzzleHash:       common.BytesToHash(b[0:32]),
		Amount:           binary.BigEndian.Uint64(b[32:40]),
		ParentCoinID:     common.BytesToHash(b[40:72]),
		ParentPuzzleHash: common.BytesToHash(b[72:104]),
		Depth:            int(binary.BigEndian.Uint32(b[104:108])),
	}, nil
}
