// Package inter defines the core consensus data structures shared between the
// safety-rules engine and its callers: block metadata, quorum certificates,
// votes, timeouts, ledger info and the persistent voting state.
//
// All signable structures expose a deterministic digest built with
// lachesis-base hashing over big-endian field encodings. Persistent records
// are RLP-encoded.
package inter

import (
	"github.com/Fantom-foundation/lachesis-base/common/bigendian"
)

// Epoch identifies a validator-set era. All quorum certificates and
// signatures are scoped to an epoch.
type Epoch uint64

// Round is a monotonically increasing counter within an epoch identifying
// a consensus slot.
type Round uint64

// Signature is a raw Ed25519 signature.
type Signature []byte

// Bytes returns the big-endian encoding of the epoch.
func (e Epoch) Bytes() []byte {
	return bigendian.Uint64ToBytes(uint64(e))
}

// Bytes returns the big-endian encoding of the round.
func (r Round) Bytes() []byte {
	return bigendian.Uint64ToBytes(uint64(r))
}
