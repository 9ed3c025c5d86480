package storage

import (
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	leveldbstorage "github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// PersistenceStore wraps LevelDB for raw key-value persistence.
// Thread-safe: LevelDB handles its own synchronization.
type PersistenceStore struct {
	db   *leveldb.DB
	path string
}

// NewPersistenceStore opens or creates a LevelDB database at the given path.
// If path is empty, uses in-memory storage.
func NewPersistenceStore(path string) (*PersistenceStore, error) {
	var db *leveldb.DB
	var err error

	if path == "" {
		db, err = leveldb.Open(leveldbstorage.NewMemStorage(), nil)
	} else {
		db, err = leveldb.OpenFile(path, &opt.Options{ErrorIfMissing: false})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %s: %w", path, err)
	}
	return &PersistenceStore{db: db, path: path}, nil
}

// NewMemoryPersistenceStore creates an in-memory PersistenceStore for testing.
func NewMemoryPersistenceStore() (*PersistenceStore, error) {
	return NewPersistenceStore("")
}

// Get retrieves a value by key. Returns (nil, false, nil) if not found.
func (ps *PersistenceStore) Get(key []byte) ([]byte, bool, error) {
	data, err := ps.db.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("Get %x: %w", key, err)
	}
	return data, true, nil
}

func (ps *PersistenceStore) Delete(key []byte) error {
	return ps.db.Delete(key, nil)
}

// ForEachWithPrefix calls fn for every key with the given prefix, in key
// order, stopping at the first error. Key and value are only valid for the
// duration of the call.
func (ps *PersistenceStore) ForEachWithPrefix(prefix []byte, fn func(key, value []byte) error) error {
	iter := ps.db.NewIterator(util.BytesPrefix(prefix), nil)
	defer iter.Release()
	for iter.Next() {
		if err := fn(iter.Key(), iter.Value()); err != nil {
			return err
		}
	}
	if err := iter.Error(); err != nil {
		return fmt.Errorf("ForEachWithPrefix %x: %w", prefix, err)
	}
	return nil
}

// DeletePrefix removes every key with the given prefix in one batch and
// returns how many were removed.
func (ps *PersistenceStore) DeletePrefix(prefix []byte) (int, error) {
	batch := new(leveldb.Batch)
	err := ps.ForEachWithPrefix(prefix, func(key, _ []byte) error {
		batch.Delete(append([]byte(nil), key...))
		return nil
	})
	if err != nil {
		return 0, err
	}
	return batch.Len(), ps.Write(batch)
}

// Write applies a batch atomically.
func (ps *PersistenceStore) Write(batch *leveldb.Batch) error {
	return ps.db.Write(batch, &opt.WriteOptions{Sync: ps.path != ""})
}

func (ps *PersistenceStore) Close() error {
	return ps.db.Close()
}
