package inter

import (
	"errors"
	"fmt"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/Fantom-foundation/lachesis-base/inter/pos"

	"github.com/rony4d/go-safetyrules/inter/validatorpk"
)

var (
	// ErrUnknownValidator is returned when a signature is attributed to an
	// author outside the current validator set.
	ErrUnknownValidator = errors.New("author is not in the validator set")
	// ErrInvalidSignature is returned when a signature does not verify
	// against the author's registered public key.
	ErrInvalidSignature = errors.New("signature verification failed")
	// ErrInsufficientPower is returned when the accumulated weight of the
	// signers does not reach the quorum threshold.
	ErrInsufficientPower = errors.New("accumulated voting power is below quorum")
	// ErrDuplicateSigner is returned when the same author signs twice in
	// one aggregate.
	ErrDuplicateSigner = errors.New("duplicated signer")
)

// ValidatorInfo binds a validator ID to its consensus public key and its
// voting weight for one epoch.
type ValidatorInfo struct {
	ID     idx.ValidatorID
	PubKey validatorpk.PubKey
	Weight pos.Weight
}

// ValidatorVerifier holds the public-key map and voting weights of one
// epoch's validator set, and checks signatures and quorum power against it.
//
// Only Members is serialized; the weighted set is rebuilt lazily.
type ValidatorVerifier struct {
	Members []ValidatorInfo

	validators *pos.Validators
}

// NewValidatorVerifier constructs a verifier from the given member list.
func NewValidatorVerifier(members ...ValidatorInfo) *ValidatorVerifier {
	return &ValidatorVerifier{Members: members}
}

// Validators returns the weighted validator set, building it on first use.
func (vv *ValidatorVerifier) Validators() *pos.Validators {
	if vv.validators == nil {
		builder := pos.NewBuilder()
		for _, m := range vv.Members {
			builder.Set(m.ID, m.Weight)
		}
		vv.validators = builder.Build()
	}
	return vv.validators
}

// GetPublicKey returns the registered consensus key of the given author.
func (vv *ValidatorVerifier) GetPublicKey(id idx.ValidatorID) (validatorpk.PubKey, bool) {
	for _, m := range vv.Members {
		if m.ID == id {
			return m.PubKey, true
		}
	}
	return validatorpk.PubKey{}, false
}

// VerifySignature checks that sig is a valid signature by the given author
// over the digest.
func (vv *ValidatorVerifier) VerifySignature(id idx.ValidatorID, digest []byte, sig Signature) error {
	pk, ok := vv.GetPublicKey(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownValidator, id)
	}
	if !pk.Verify(digest, sig) {
		return fmt.Errorf("%w: author %d", ErrInvalidSignature, id)
	}
	return nil
}

// CheckVotingPower verifies that the given authors are all distinct set
// members and that their accumulated weight reaches the quorum threshold.
func (vv *ValidatorVerifier) CheckVotingPower(ids []idx.ValidatorID) error {
	validators := vv.Validators()
	seen := make(map[idx.ValidatorID]bool, len(ids))
	power := pos.Weight(0)
	for _, id := range ids {
		if seen[id] {
			return fmt.Errorf("%w: %d", ErrDuplicateSigner, id)
		}
		seen[id] = true
		if !validators.Exists(id) {
			return fmt.Errorf("%w: %d", ErrUnknownValidator, id)
		}
		power += validators.Get(id)
	}
	if power < validators.Quorum() {
		return fmt.Errorf("%w: %d of %d", ErrInsufficientPower, power, validators.Quorum())
	}
	return nil
}

// EpochState is the in-memory snapshot of the active epoch: its number and
// the verifier over its validator set. It is installed by Initialize and
// rebuilt from epoch-change proofs, never persisted on its own.
type EpochState struct {
	Epoch    Epoch
	Verifier *ValidatorVerifier `rlp:"nil"`
}

// Copy creates a deep copy of the epoch state.
func (es *EpochState) Copy() *EpochState {
	if es == nil {
		return nil
	}
	cp := &EpochState{Epoch: es.Epoch}
	if es.Verifier != nil {
		members := make([]ValidatorInfo, len(es.Verifier.Members))
		for i, m := range es.Verifier.Members {
			members[i] = ValidatorInfo{ID: m.ID, PubKey: m.PubKey.Copy(), Weight: m.Weight}
		}
		cp.Verifier = NewValidatorVerifier(members...)
	}
	return cp
}
