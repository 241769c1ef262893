// Package validatorpk carries validator consensus public keys as a typed
// wrapper around the raw curve bytes, so the rest of the engine never has to
// care which signature scheme a key belongs to. The serialized shape is a
// one-byte scheme tag followed by the key material, and keys render as 0x
// hex strings in logs, JSON and operator tooling.
package validatorpk

import (
	"bytes"
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Types defines the supported public key type constants.
var Types = struct {
	Ed25519 uint8
}{
	// Ed25519 is the identifier for the consensus signing curve.
	// 0xe0 is an arbitrary byte value chosen to identify this type.
	Ed25519: 0xe0,
}

// PubKey is a scheme-tagged validator public key.
type PubKey struct {
	// Type identifies the cryptographic scheme (e.g., Ed25519).
	Type uint8
	// Raw contains the key material itself.
	Raw []byte
}

// FromEd25519 wraps a raw Ed25519 public key into a typed PubKey. The key
// bytes are copied, so later mutation of the argument cannot leak in.
func FromEd25519(raw ed25519.PublicKey) PubKey {
	cp := make([]byte, len(raw))
	copy(cp, raw)
	return PubKey{Type: Types.Ed25519, Raw: cp}
}

// Empty reports whether the key is the zero value.
func (pk PubKey) Empty() bool {
	return pk.Type == 0 && len(pk.Raw) == 0
}

// Ok validates the key type and the raw key length for that type.
func (pk PubKey) Ok() bool {
	return pk.Type == Types.Ed25519 && len(pk.Raw) == ed25519.PublicKeySize
}

// Equal reports whether two public keys are byte-identical.
func (pk PubKey) Equal(other PubKey) bool {
	return pk.Type == other.Type && bytes.Equal(pk.Raw, other.Raw)
}

// Verify checks an Ed25519 signature over a message digest against this key.
// Returns false for malformed keys rather than panicking.
func (pk PubKey) Verify(digest []byte, sig []byte) bool {
	if !pk.Ok() || len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pk.Raw), digest, sig)
}

// Bytes returns the wire form of the key: the scheme tag followed by the
// key material.
func (pk PubKey) Bytes() []byte {
	out := make([]byte, 0, 1+len(pk.Raw))
	out = append(out, pk.Type)
	return append(out, pk.Raw...)
}

// Copy returns a PubKey sharing no memory with the receiver.
func (pk PubKey) Copy() PubKey {
	cp := make([]byte, len(pk.Raw))
	copy(cp, pk.Raw)
	return PubKey{Type: pk.Type, Raw: cp}
}

// String renders the wire form as a 0x hex string.
func (pk PubKey) String() string {
	return hexutil.Encode(pk.Bytes())
}

// FromBytes parses the wire form produced by Bytes.
func FromBytes(b []byte) (PubKey, error) {
	if len(b) < 1 {
		return PubKey{}, fmt.Errorf("pubkey bytes are too short: %d", len(b))
	}
	raw := make([]byte, len(b)-1)
	copy(raw, b[1:])
	return PubKey{Type: b[0], Raw: raw}, nil
}

// FromString parses a hex rendering of the wire form. The 0x prefix is
// optional so keys can be pasted from either config files or logs.
func FromString(str string) (PubKey, error) {
	str = strings.TrimPrefix(str, "0x")
	b, err := hex.DecodeString(str)
	if err != nil {
		return PubKey{}, fmt.Errorf("malformed pubkey hex: %v", err)
	}
	return FromBytes(b)
}

// MarshalText renders the key as its hex string, so JSON encoding yields a
// quoted 0x string instead of a byte array.
func (pk *PubKey) MarshalText() ([]byte, error) {
	return []byte(pk.String()), nil
}

// UnmarshalText parses the hex string form written by MarshalText.
func (pk *PubKey) UnmarshalText(input []byte) error {
	parsed, err := FromString(string(input))
	if err != nil {
		return err
	}
	*pk = parsed
	return nil
}
