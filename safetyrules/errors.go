// Package safetyrules implements the trusted voting authority of a
// HotStuff-family BFT validator: the component that decides whether to sign
// votes, proposals, timeouts and commit votes, and that monotonically
// advances the validator's persistent voting state.
//
// A single incorrect signature is an unrecoverable safety violation, so all
// signing flows in this package are gated by the two voting rules and every
// state mutation is persisted before the signature is handed back.
package safetyrules

import (
	"errors"
	"fmt"

	"github.com/rony4d/go-safetyrules/inter"
)

// Error kinds returned by the engine. Callers match them with errors.Is;
// the wrapped message carries the offending values.
var (
	// ErrNotInitialized means the operation requires Initialize first.
	ErrNotInitialized = errors.New("not initialized")
	// ErrIncorrectEpoch means the message belongs to another epoch and
	// should be dropped.
	ErrIncorrectEpoch = errors.New("incorrect epoch")
	// ErrIncorrectRound means round arithmetic overflowed.
	ErrIncorrectRound = errors.New("round overflow")
	// ErrIncorrectLastVotedRound is a first-voting-rule violation.
	ErrIncorrectLastVotedRound = errors.New("incorrect last voted round")
	// ErrIncorrectPreferredRound is a second-voting-rule violation.
	ErrIncorrectPreferredRound = errors.New("incorrect preferred round")
	// ErrNotSafeToTimeout means neither the timeout's own certificate nor
	// the supplied timeout certificate justifies the timeout round.
	ErrNotSafeToTimeout = errors.New("not safe to timeout")

	ErrInvalidProposal             = errors.New("invalid proposal")
	ErrInvalidQuorumCertificate    = errors.New("invalid quorum certificate")
	ErrInvalidAccumulatorExtension = errors.New("invalid accumulator extension")
	ErrInvalidLedgerInfo           = errors.New("invalid ledger info")
	ErrInvalidOrderedLedgerInfo    = errors.New("invalid ordered ledger info")
	ErrInconsistentExecutionResult = errors.New("inconsistent execution result")
	ErrInvalidEpochChangeProof     = errors.New("invalid epoch change proof")

	// ErrVoteProposalSignatureNotFound means a required execution
	// signature was missing from the proposal.
	ErrVoteProposalSignatureNotFound = errors.New("vote proposal signature not found")

	// ErrValidatorNotInSet and ErrValidatorKeyNotFound are initialization
	// outcomes; the caller may retry after a key rotation lands.
	ErrValidatorNotInSet    = errors.New("validator is not in the validator set")
	ErrValidatorKeyNotFound = errors.New("validator consensus key not found")

	// ErrInternal is the uncategorized failure kind.
	ErrInternal = errors.New("internal error")
)

func errNotInitialized(component string) error {
	return fmt.Errorf("%w: %s", ErrNotInitialized, component)
}

func errIncorrectEpoch(got, expected inter.Epoch) error {
	return fmt.Errorf("%w: message epoch %d, storage epoch %d", ErrIncorrectEpoch, got, expected)
}

func errIncorrectLastVotedRound(round, lastVoted inter.Round) error {
	return fmt.Errorf("%w: round %d, last voted round %d", ErrIncorrectLastVotedRound, round, lastVoted)
}

func errIncorrectPreferredRound(round, preferred inter.Round) error {
	return fmt.Errorf("%w: qc round %d, preferred round %d", ErrIncorrectPreferredRound, round, preferred)
}
