package secstore

import (
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

// LevelDBStore implements Store on top of LevelDB. Writes are issued with
// fsync so that a record reported as written survives a process crash;
// the safety rules depend on that guarantee.
type LevelDBStore struct {
	db *leveldb.DB
}

// NewLevelDBStore opens (or creates) a LevelDB database at path.
func NewLevelDBStore(path string) (*LevelDBStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open leveldb %q: %w", path, err)
	}
	return &LevelDBStore{db: db}, nil
}

func (s *LevelDBStore) Get(key string) ([]byte, error) {
	value, err := s.db.Get([]byte(key), nil)
	if err == leveldb.ErrNotFound {
		return nil, missing(key)
	}
	return value, err
}

func (s *LevelDBStore) Set(key string, value []byte) error {
	return s.db.Put([]byte(key), value, &opt.WriteOptions{Sync: true})
}

func (s *LevelDBStore) Close() error {
	return s.db.Close()
}
