// Package secstore provides the secure key/value storage backing the
// safety-rules engine: named records (voting state, waypoint, identity) and
// consensus secret keys live here. Two backends are provided: an in-memory
// store for tests and a LevelDB store for durable deployments.
package secstore

import (
	"errors"
	"fmt"
)

// ErrMissingData is returned when a requested record does not exist.
var ErrMissingData = errors.New("secure storage: missing data")

// Store is the minimal capability the safety core consumes. Implementations
// must be linearizable: the engine relies on read-modify-write of single
// records being atomic with respect to other processes sharing the backend.
type Store interface {
	// Get returns the value of a named record, or an error wrapping
	// ErrMissingData when it was never written.
	Get(key string) ([]byte, error)
	// Set durably writes a named record before returning.
	Set(key string, value []byte) error
	Close() error
}

// missing formats a uniform missing-data error for the given key.
func missing(key string) error {
	return fmt.Errorf("%w: %q", ErrMissingData, key)
}
