package safetyrules

import (
	"errors"
	"fmt"
	"math"

	"github.com/Fantom-foundation/lachesis-base/hash"
	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/sirupsen/logrus"

	"github.com/rony4d/go-safetyrules/inter"
	"github.com/rony4d/go-safetyrules/inter/validatorpk"
	"github.com/rony4d/go-safetyrules/secstore"
)

// Config selects the construction-time behavior of the engine.
type Config struct {
	// VerifyVoteProposalSignature requires proposals to carry a valid
	// execution-layer signature.
	VerifyVoteProposalSignature bool
	// ExportConsensusKey selects the exporting signer flavor: private key
	// material is fetched from storage into process memory. When false,
	// signing is delegated to the store (handle mode).
	ExportConsensusKey bool
	// DecoupledExecution orders blocks without execution results; votes
	// carry ordering-only data and no accumulator check runs.
	DecoupledExecution bool
}

// SafetyRules is the stateful voting authority. It exclusively owns its
// storage handle; public operations must be serialized by the host, since
// the monotonic-round invariant requires read-modify-write of SafetyData to
// be atomic.
type SafetyRules struct {
	storage            *PersistentSafetyStorage
	executionPublicKey *validatorpk.PubKey
	exportConsensusKey bool
	decoupledExecution bool

	validatorSigner *ValidatorSigner
	epochState      *inter.EpochState

	log logrus.FieldLogger
}

// New constructs the engine over an initialized storage. The execution
// public key is loaded eagerly iff proposal-signature verification is on
// and execution is not decoupled; a missing key is fatal to construction.
func New(storage *PersistentSafetyStorage, cfg Config, log logrus.FieldLogger) (*SafetyRules, error) {
	s := &SafetyRules{
		storage:            storage,
		exportConsensusKey: cfg.ExportConsensusKey,
		decoupledExecution: cfg.DecoupledExecution,
		log:                log,
	}
	if cfg.VerifyVoteProposalSignature && !cfg.DecoupledExecution {
		key, err := storage.ExecutionPublicKey()
		if err != nil {
			return nil, fmt.Errorf("unable to retrieve execution public key: %w", err)
		}
		s.executionPublicKey = &key
	}
	return s, nil
}

// NewFromStore is a convenience constructor over a raw secure store.
func NewFromStore(store secstore.Store, cfg Config, log logrus.FieldLogger) (*SafetyRules, error) {
	return New(NewStorage(store, log), cfg, log)
}

// nextRound is the only round increment in the engine; a wrap-around would
// silently break monotonicity, so overflow is an error.
func nextRound(round inter.Round) (inter.Round, error) {
	if round == math.MaxUint64 {
		return 0, fmt.Errorf("%w: round %d", ErrIncorrectRound, round)
	}
	return round + 1, nil
}

func (s *SafetyRules) signer() (*ValidatorSigner, error) {
	if s.validatorSigner == nil {
		return nil, errNotInitialized("validator_signer")
	}
	return s.validatorSigner, nil
}

func (s *SafetyRules) currentEpochState() (*inter.EpochState, error) {
	if s.epochState == nil {
		return nil, errNotInitialized("epoch_state")
	}
	return s.epochState, nil
}

func (s *SafetyRules) sign(digest hash.Hash) (inter.Signature, error) {
	signer, err := s.signer()
	if err != nil {
		return nil, err
	}
	return signer.Sign(digest)
}

// observeQC widens the 1-chain and 2-chain watermarks from a verified QC.
// Returns whether anything changed.
func (s *SafetyRules) observeQC(qc *inter.QuorumCert, data *inter.SafetyData) bool {
	updated := false
	oneChain := qc.CertifiedBlock().Round
	twoChain := qc.ParentBlock().Round
	if oneChain > data.OneChainRound {
		data.OneChainRound = oneChain
		newSchema(s.log, LogOneChainRound, EventUpdate).oneChainRound(data.OneChainRound).info("one-chain round advanced")
		updated = true
	}
	if twoChain > data.PreferredRound {
		data.PreferredRound = twoChain
		newSchema(s.log, LogPreferredRound, EventUpdate).preferredRound(data.PreferredRound).info("preferred round advanced")
		updated = true
	}
	return updated
}

// verifyEpoch checks the message is from the epoch the storage is in.
func (s *SafetyRules) verifyEpoch(epoch inter.Epoch, data *inter.SafetyData) error {
	if epoch != data.Epoch {
		return errIncorrectEpoch(epoch, data.Epoch)
	}
	return nil
}

// verifyQC checks a quorum certificate against the current epoch verifier.
func (s *SafetyRules) verifyQC(qc *inter.QuorumCert) error {
	epochState, err := s.currentEpochState()
	if err != nil {
		return err
	}
	if err := qc.Verify(epochState.Verifier); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidQuorumCertificate, err)
	}
	return nil
}

// verifyAndUpdatePreferredRound is the second voting rule: the QC justifying
// a vote must certify a round at or above the preferred round. On success
// the QC is observed into the watermarks.
func (s *SafetyRules) verifyAndUpdatePreferredRound(qc *inter.QuorumCert, data *inter.SafetyData) error {
	oneChainRound := qc.CertifiedBlock().Round
	if oneChainRound < data.PreferredRound {
		return errIncorrectPreferredRound(oneChainRound, data.PreferredRound)
	}
	s.observeQC(qc, data)
	return nil
}

// verifyAndUpdateLastVoteRound is the first voting rule: any round leading
// to a signature must be strictly above the last voted round.
func (s *SafetyRules) verifyAndUpdateLastVoteRound(round inter.Round, data *inter.SafetyData) error {
	if round <= data.LastVotedRound {
		return errIncorrectLastVotedRound(round, data.LastVotedRound)
	}
	data.LastVotedRound = round
	newSchema(s.log, LogLastVotedRound, EventUpdate).lastVotedRound(data.LastVotedRound).info("last voted round advanced")
	return nil
}

// verifyAuthor requires the proposal author to be this signer.
func (s *SafetyRules) verifyAuthor(author idx.ValidatorID) error {
	signer, err := s.signer()
	if err != nil {
		return err
	}
	if signer.Author() != author {
		return fmt.Errorf("%w: proposal author %d is not the validator signer %d",
			ErrInvalidProposal, author, signer.Author())
	}
	return nil
}

// extensionCheck verifies the accumulator extension links the parent's
// executed state to the claimed new root and returns vote data embedding it.
func (s *SafetyRules) extensionCheck(proposal *inter.VoteProposal) (inter.VoteData, error) {
	parentStateID := proposal.Block.QuorumCert().CertifiedBlock().ExecutedStateID
	newRoot, err := proposal.Proof.Verify(parentStateID)
	if err != nil {
		return inter.VoteData{}, fmt.Errorf("%w: %v", ErrInvalidAccumulatorExtension, err)
	}
	return proposal.VoteDataWithExtensionProof(newRoot), nil
}

// verifyProposal runs the validity checks shared by voting flows: execution
// endorsement, epoch, QC, proposer signature and well-formedness. It returns
// the vote data to vote with.
func (s *SafetyRules) verifyProposal(maybeSigned *inter.MaybeSignedVoteProposal) (inter.VoteData, error) {
	proposal := &maybeSigned.VoteProposal

	if s.executionPublicKey != nil {
		if len(maybeSigned.Signature) == 0 {
			return inter.VoteData{}, ErrVoteProposalSignatureNotFound
		}
		if !s.executionPublicKey.Verify(proposal.Hash().Bytes(), maybeSigned.Signature) {
			return inter.VoteData{}, fmt.Errorf("%w: execution signature rejected", ErrInternal)
		}
	}

	proposedBlock := proposal.Block
	data, err := s.storage.SafetyData()
	if err != nil {
		return inter.VoteData{}, err
	}
	if err := s.verifyEpoch(proposedBlock.Epoch(), &data); err != nil {
		return inter.VoteData{}, err
	}
	if err := s.verifyQC(proposedBlock.QuorumCert()); err != nil {
		return inter.VoteData{}, err
	}
	epochState, err := s.currentEpochState()
	if err != nil {
		return inter.VoteData{}, err
	}
	if err := proposedBlock.ValidateSignature(epochState.Verifier); err != nil {
		return inter.VoteData{}, fmt.Errorf("%w: %v", ErrInvalidProposal, err)
	}
	if err := proposedBlock.VerifyWellFormed(); err != nil {
		return inter.VoteData{}, fmt.Errorf("%w: %v", ErrInvalidProposal, err)
	}

	if s.decoupledExecution {
		return proposal.VoteDataOrderingOnly(), nil
	}
	return s.extensionCheck(proposal)
}

// constructLedgerInfo produces a LedgerInfo that either commits a block by
// the 3-chain rule or carries the empty commit info. B0 is committed iff
// there are certified blocks B1, B2 with round(B0)+1 == round(B1) and
// round(B1)+1 == round(B2), where B2 is the proposed block.
func (s *SafetyRules) constructLedgerInfo(proposedBlock *inter.Block, consensusDataHash hash.Hash) (inter.LedgerInfo, error) {
	block2 := proposedBlock.Round()
	block1 := proposedBlock.QuorumCert().CertifiedBlock().Round
	block0 := proposedBlock.QuorumCert().ParentBlock().Round

	next0, err := nextRound(block0)
	if err != nil {
		return inter.LedgerInfo{}, err
	}
	next1, err := nextRound(block1)
	if err != nil {
		return inter.LedgerInfo{}, err
	}
	commit := next0 == block1 && next1 == block2

	commitInfo := inter.EmptyBlockInfo()
	if commit {
		commitInfo = proposedBlock.QuorumCert().ParentBlock()
	}
	return inter.LedgerInfo{CommitInfo: commitInfo, ConsensusDataHash: consensusDataHash}, nil
}

// Guarded implementations of the public interface; the exported wrappers in
// interface.go add logging and metrics around them.

func (s *SafetyRules) guardedConsensusState() (*ConsensusState, error) {
	waypoint, err := s.storage.Waypoint()
	if err != nil {
		return nil, err
	}
	data, err := s.storage.SafetyData()
	if err != nil {
		return nil, err
	}
	author, err := s.storage.Author()
	if err != nil {
		return nil, err
	}
	newSchema(s.log, LogState, EventUpdate).
		author(author).
		epoch(data.Epoch).
		lastVotedRound(data.LastVotedRound).
		preferredRound(data.PreferredRound).
		oneChainRound(data.OneChainRound).
		waypoint(waypoint).
		info("consensus state queried")

	_, signerErr := s.signer()
	return NewConsensusState(data, waypoint, signerErr == nil), nil
}

func (s *SafetyRules) guardedInitialize(proof *inter.EpochChangeProof) error {
	waypoint, err := s.storage.Waypoint()
	if err != nil {
		return err
	}
	lastLI, err := proof.Verify(waypoint)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEpochChangeProof, err)
	}
	ledgerInfo := lastLI.LedgerInfo
	nextEpochState := ledgerInfo.CommitInfo.NextEpochState
	if nextEpochState == nil {
		return ErrInvalidLedgerInfo
	}
	epochState := nextEpochState.Copy()

	// Move the waypoint forward; it may still be older than the stored
	// epoch if the proof is lagging.
	newWaypoint, err := inter.WaypointFromLedgerInfo(ledgerInfo)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}
	if newWaypoint.Version > waypoint.Version {
		if err := s.storage.SetWaypoint(newWaypoint); err != nil {
			return err
		}
	}

	data, err := s.storage.SafetyData()
	if err != nil {
		return err
	}
	switch {
	case data.Epoch > epochState.Epoch:
		return fmt.Errorf("%w: provided epoch %d is older than current %d, likely the waypoint is too old",
			ErrNotInitialized, epochState.Epoch, data.Epoch)
	case data.Epoch < epochState.Epoch:
		// start the new epoch with reset counters and no cached vote
		if err := s.storage.SetSafetyData(inter.NewSafetyData(epochState.Epoch)); err != nil {
			return err
		}
		newSchema(s.log, LogEpoch, EventUpdate).epoch(epochState.Epoch).info("epoch started")
	}
	s.epochState = epochState

	if err := s.reconcileKey(epochState); err != nil {
		newSchema(s.log, LogKeyReconciliation, EventError).err(err).info("key reconciliation failed")
		s.validatorSigner = nil
		return err
	}
	return nil
}

// reconcileKey binds the signing identity to the new epoch's validator set:
// it looks up the author's expected key and installs a matching signer,
// rotating the key from storage when the set expects a newer one.
func (s *SafetyRules) reconcileKey(epochState *inter.EpochState) error {
	author, err := s.storage.Author()
	if err != nil {
		return err
	}
	expectedKey, inSet := epochState.Verifier.GetPublicKey(author)
	if !inSet {
		return fmt.Errorf("%w: author %d", ErrValidatorNotInSet, author)
	}
	if s.validatorSigner != nil && s.validatorSigner.PublicKey().Equal(expectedKey) {
		newSchema(s.log, LogKeyReconciliation, EventSuccess).author(author).debug("in set")
		return nil
	}
	if s.exportConsensusKey {
		// Export the consensus key directly from storage.
		consensusKey, err := s.storage.ConsensusKeyForVersion(expectedKey)
		if errors.Is(err, secstore.ErrMissingData) {
			return fmt.Errorf("%w: %v", ErrValidatorKeyNotFound, err)
		} else if err != nil {
			return err
		}
		s.validatorSigner = NewSigner(author, consensusKey)
		return nil
	}
	// Handle mode: prove the expected key is actually held in storage by
	// signing a trial message.
	s.validatorSigner = NewHandleSigner(author, expectedKey, s.storage)
	if _, err := s.sign(inter.NewTimeout(0, 0).Hash()); err != nil {
		return fmt.Errorf("%w: %v", ErrValidatorKeyNotFound, err)
	}
	return nil
}

func (s *SafetyRules) guardedConstructAndSignVote(maybeSigned *inter.MaybeSignedVoteProposal) (*inter.Vote, error) {
	// exit early if we cannot sign
	if _, err := s.signer(); err != nil {
		return nil, err
	}

	voteData, err := s.verifyProposal(maybeSigned)
	if err != nil {
		return nil, err
	}
	data, err := s.storage.SafetyData()
	if err != nil {
		return nil, err
	}

	proposedBlock := maybeSigned.Block()
	// if already voted on this round, send back the previous vote;
	// this check must run after the epoch is verified since only the
	// round is compared here
	if data.LastVote != nil && data.LastVote.VoteData.Proposed.Round == proposedBlock.Round() {
		return data.LastVote, nil
	}

	// the two voting rules
	if err := s.verifyAndUpdatePreferredRound(proposedBlock.QuorumCert(), &data); err != nil {
		return nil, err
	}
	if err := s.verifyAndUpdateLastVoteRound(proposedBlock.Round(), &data); err != nil {
		return nil, err
	}

	// construct and sign the vote
	signer, err := s.signer()
	if err != nil {
		return nil, err
	}
	ledgerInfo, err := s.constructLedgerInfo(proposedBlock, voteData.Hash())
	if err != nil {
		return nil, err
	}
	signature, err := s.sign(ledgerInfo.Hash())
	if err != nil {
		return nil, err
	}
	vote := inter.NewVote(voteData, signer.Author(), ledgerInfo, signature)

	data.LastVote = vote
	// persisting must precede returning the vote: a crash after the vote
	// escaped but before the write would allow a second vote in the round
	// after restart
	if err := s.storage.SetSafetyData(data); err != nil {
		return nil, err
	}
	return vote, nil
}

func (s *SafetyRules) guardedSignProposal(blockData *inter.BlockData) (inter.Signature, error) {
	if _, err := s.signer(); err != nil {
		return nil, err
	}
	if err := s.verifyAuthor(blockData.Author); err != nil {
		return nil, err
	}

	data, err := s.storage.SafetyData()
	if err != nil {
		return nil, err
	}
	if err := s.verifyEpoch(blockData.Epoch, &data); err != nil {
		return nil, err
	}
	if blockData.Round <= data.LastVotedRound {
		return nil, fmt.Errorf("%w: proposed round %d is not higher than last voted round %d",
			ErrInvalidProposal, blockData.Round, data.LastVotedRound)
	}
	if err := s.verifyQC(&blockData.QuorumCert); err != nil {
		return nil, err
	}
	if err := s.verifyAndUpdatePreferredRound(&blockData.QuorumCert, &data); err != nil {
		return nil, err
	}
	// The preferred-round bump is deliberately not persisted here, to keep
	// proposing off the storage write path. If the process crashes before
	// the next vote the in-memory bump is lost, which is safe: the rule is
	// re-applied from the QC of whichever vote comes next.

	return s.sign(blockData.Hash())
}

func (s *SafetyRules) guardedSignTimeout(timeout inter.Timeout) (inter.Signature, error) {
	if _, err := s.signer(); err != nil {
		return nil, err
	}

	data, err := s.storage.SafetyData()
	if err != nil {
		return nil, err
	}
	if err := s.verifyEpoch(timeout.Epoch, &data); err != nil {
		return nil, err
	}
	if timeout.Round <= data.PreferredRound {
		return nil, errIncorrectPreferredRound(timeout.Round, data.PreferredRound)
	}
	// a timeout alongside a vote for the same round is fine; a timeout
	// below the last voted round is not
	if timeout.Round < data.LastVotedRound {
		return nil, errIncorrectLastVotedRound(timeout.Round, data.LastVotedRound)
	}
	if timeout.Round > data.LastVotedRound {
		if err := s.verifyAndUpdateLastVoteRound(timeout.Round, &data); err != nil {
			return nil, err
		}
		if err := s.storage.SetSafetyData(data); err != nil {
			return nil, err
		}
	}

	return s.sign(timeout.Hash())
}

func (s *SafetyRules) guardedSignCommitVote(ledgerInfo inter.LedgerInfoWithSignatures, newLedgerInfo inter.LedgerInfo) (inter.Signature, error) {
	if _, err := s.signer(); err != nil {
		return nil, err
	}

	oldLedgerInfo := ledgerInfo.LedgerInfo
	if !oldLedgerInfo.CommitInfo.IsOrderedOnly() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidOrderedLedgerInfo, oldLedgerInfo.String())
	}
	if !oldLedgerInfo.CommitInfo.MatchOrderedOnly(newLedgerInfo.CommitInfo) {
		return nil, fmt.Errorf("%w: ordered %s, executed %s",
			ErrInconsistentExecutionResult, oldLedgerInfo.CommitInfo.String(), newLedgerInfo.CommitInfo.String())
	}

	// the ordered ledger info must carry at least 2f+1 distinct signatures
	epochState, err := s.currentEpochState()
	if err != nil {
		return nil, err
	}
	if err := ledgerInfo.VerifySignatures(epochState.Verifier); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuorumCertificate, err)
	}

	// TODO: add guarding rules in unhappy path
	// TODO: add extension check

	return s.sign(newLedgerInfo.Hash())
}
