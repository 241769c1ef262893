package safetyrules

import (
	"crypto/ed25519"
	"fmt"

	"github.com/Fantom-foundation/lachesis-base/common/bigendian"
	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/sirupsen/logrus"

	"github.com/rony4d/go-safetyrules/inter"
	"github.com/rony4d/go-safetyrules/inter/validatorpk"
	"github.com/rony4d/go-safetyrules/secstore"
)

// Record names inside the secure store.
const (
	authorKey          = "safety/author"
	safetyDataKey      = "safety/data"
	waypointKey        = "safety/waypoint"
	executionPubKeyKey = "safety/execution_pubkey"
	consensusKeyPrefix = "safety/consensus_key/"
)

// PersistentSafetyStorage is the engine's handle to the secure store. It
// owns the encoding of every persistent record and, in handle mode, signing
// with keys that never leave the store.
type PersistentSafetyStorage struct {
	store secstore.Store
	log   logrus.FieldLogger
}

// NewStorage wraps an already-initialized secure store.
func NewStorage(store secstore.Store, log logrus.FieldLogger) *PersistentSafetyStorage {
	return &PersistentSafetyStorage{store: store, log: log}
}

// InitializeStorage writes the genesis layout of the store: the validator's
// author identity, its consensus key (retrievable by public key), the
// initial voting state for epoch 1 and the waypoint trust anchor. Used by
// operator tooling and tests; a production store is provisioned once.
func InitializeStorage(
	store secstore.Store,
	log logrus.FieldLogger,
	author idx.ValidatorID,
	consensusKey ed25519.PrivateKey,
	waypoint inter.Waypoint,
) (*PersistentSafetyStorage, error) {
	s := NewStorage(store, log)
	if err := s.SetAuthor(author); err != nil {
		return nil, err
	}
	if err := s.SetConsensusKey(consensusKey); err != nil {
		return nil, err
	}
	if err := s.SetSafetyData(inter.NewSafetyData(1)); err != nil {
		return nil, err
	}
	if err := s.SetWaypoint(waypoint); err != nil {
		return nil, err
	}
	return s, nil
}

// Author returns the validator identity this store belongs to.
func (s *PersistentSafetyStorage) Author() (idx.ValidatorID, error) {
	raw, err := s.store.Get(authorKey)
	if err != nil {
		return 0, err
	}
	if len(raw) != 4 {
		return 0, fmt.Errorf("%w: malformed author record", ErrInternal)
	}
	return idx.ValidatorID(bigendian.BytesToUint32(raw)), nil
}

// SetAuthor writes the validator identity.
func (s *PersistentSafetyStorage) SetAuthor(author idx.ValidatorID) error {
	return s.store.Set(authorKey, bigendian.Uint32ToBytes(uint32(author)))
}

// SafetyData reads the persistent voting state.
func (s *PersistentSafetyStorage) SafetyData() (inter.SafetyData, error) {
	raw, err := s.store.Get(safetyDataKey)
	if err != nil {
		return inter.SafetyData{}, err
	}
	var data inter.SafetyData
	if err := rlp.DecodeBytes(raw, &data); err != nil {
		return inter.SafetyData{}, fmt.Errorf("%w: decoding safety data: %v", ErrInternal, err)
	}
	return data, nil
}

// SetSafetyData durably writes the voting state. The write completes before
// the call returns; signing flows rely on that ordering.
func (s *PersistentSafetyStorage) SetSafetyData(data inter.SafetyData) error {
	raw, err := rlp.EncodeToBytes(&data)
	if err != nil {
		return fmt.Errorf("%w: encoding safety data: %v", ErrInternal, err)
	}
	if err := s.store.Set(safetyDataKey, raw); err != nil {
		return err
	}
	updateStateGauge("epoch", uint64(data.Epoch))
	updateStateGauge("last_voted_round", uint64(data.LastVotedRound))
	updateStateGauge("preferred_round", uint64(data.PreferredRound))
	updateStateGauge("one_chain_round", uint64(data.OneChainRound))
	return nil
}

// Waypoint reads the trust anchor.
func (s *PersistentSafetyStorage) Waypoint() (inter.Waypoint, error) {
	raw, err := s.store.Get(waypointKey)
	if err != nil {
		return inter.Waypoint{}, err
	}
	var wp inter.Waypoint
	if err := rlp.DecodeBytes(raw, &wp); err != nil {
		return inter.Waypoint{}, fmt.Errorf("%w: decoding waypoint: %v", ErrInternal, err)
	}
	return wp, nil
}

// SetWaypoint replaces the trust anchor.
func (s *PersistentSafetyStorage) SetWaypoint(wp inter.Waypoint) error {
	raw, err := rlp.EncodeToBytes(&wp)
	if err != nil {
		return fmt.Errorf("%w: encoding waypoint: %v", ErrInternal, err)
	}
	if err := s.store.Set(waypointKey, raw); err != nil {
		return err
	}
	newSchema(s.log, LogWaypoint, EventUpdate).waypoint(wp).info("waypoint updated")
	return nil
}

// ExecutionPublicKey reads the key the execution layer endorses vote
// proposals with.
func (s *PersistentSafetyStorage) ExecutionPublicKey() (validatorpk.PubKey, error) {
	raw, err := s.store.Get(executionPubKeyKey)
	if err != nil {
		return validatorpk.PubKey{}, err
	}
	return validatorpk.FromBytes(raw)
}

// SetExecutionPublicKey writes the execution layer's public key.
func (s *PersistentSafetyStorage) SetExecutionPublicKey(pk validatorpk.PubKey) error {
	return s.store.Set(executionPubKeyKey, pk.Bytes())
}

// SetConsensusKey stores a consensus private key, indexed by its public key
// so rotations can keep several versions side by side.
func (s *PersistentSafetyStorage) SetConsensusKey(key ed25519.PrivateKey) error {
	pub := validatorpk.FromEd25519(key.Public().(ed25519.PublicKey))
	return s.store.Set(consensusKeyPrefix+common.Bytes2Hex(pub.Bytes()), key)
}

// ConsensusKeyForVersion exports the private key matching the given public
// key. Fails with the store's missing-data error when that key version was
// never provisioned.
func (s *PersistentSafetyStorage) ConsensusKeyForVersion(pub validatorpk.PubKey) (ed25519.PrivateKey, error) {
	raw, err := s.store.Get(consensusKeyPrefix + common.Bytes2Hex(pub.Bytes()))
	if err != nil {
		return nil, err
	}
	if len(raw) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("%w: malformed consensus key record", ErrInternal)
	}
	return ed25519.PrivateKey(raw), nil
}

// Sign performs a handle-mode signature: the key named by pub is looked up
// inside the store and used there, without being handed to the caller.
func (s *PersistentSafetyStorage) Sign(pub validatorpk.PubKey, digest []byte) (inter.Signature, error) {
	key, err := s.ConsensusKeyForVersion(pub)
	if err != nil {
		return nil, err
	}
	return ed25519.Sign(key, digest), nil
}
