package secstore

import (
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func testBackends(t *testing.T) map[string]Store {
	dir, err := ioutil.TempDir("", "secstore")
	require.NoError(t, err)
	t.Cleanup(func() {
		os.RemoveAll(dir)
	})

	ldb, err := NewLevelDBStore(filepath.Join(dir, "secure"))
	require.NoError(t, err)
	t.Cleanup(func() {
		ldb.Close()
	})

	return map[string]Store{
		"memory":  NewMemStore(),
		"leveldb": ldb,
	}
}

func TestStoreRoundTrip(t *testing.T) {
	for name, store := range testBackends(t) {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)

			_, err := store.Get("safety/data")
			require.True(errors.Is(err, ErrMissingData))

			require.NoError(store.Set("safety/data", []byte{1, 2, 3}))
			got, err := store.Get("safety/data")
			require.NoError(err)
			require.Equal([]byte{1, 2, 3}, got)

			// overwrite wins
			require.NoError(store.Set("safety/data", []byte{4}))
			got, err = store.Get("safety/data")
			require.NoError(err)
			require.Equal([]byte{4}, got)
		})
	}
}

func TestMemStoreSnapshotRestore(t *testing.T) {
	require := require.New(t)
	store := NewMemStore()

	require.NoError(store.Set("a", []byte{1}))
	snap := store.Snapshot()
	require.NoError(store.Set("a", []byte{2}))
	require.NoError(store.Set("b", []byte{3}))

	store.Restore(snap)
	got, err := store.Get("a")
	require.NoError(err)
	require.Equal([]byte{1}, got)
	_, err = store.Get("b")
	require.True(errors.Is(err, ErrMissingData))
}

func TestLevelDBReopen(t *testing.T) {
	require := require.New(t)
	dir, err := ioutil.TempDir("", "secstore")
	require.NoError(err)
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "secure")
	store, err := NewLevelDBStore(path)
	require.NoError(err)
	require.NoError(store.Set("safety/waypoint", []byte("anchor")))
	require.NoError(store.Close())

	// records survive a close/open cycle
	store, err = NewLevelDBStore(path)
	require.NoError(err)
	defer store.Close()
	got, err := store.Get("safety/waypoint")
	require.NoError(err)
	require.Equal([]byte("anchor"), got)
}
