package safetyrules

import (
	"github.com/rony4d/go-safetyrules/inter"
)

// Interface is the polymorphic operation set of the voting authority, as
// consumed by the consensus driver or exposed by a remoting shim.
type Interface interface {
	// ConsensusState returns a read-only snapshot of the voting state.
	ConsensusState() (*ConsensusState, error)
	// Initialize verifies an epoch-change proof against the waypoint and
	// binds the signing identity to the resulting epoch's validator set.
	Initialize(proof *inter.EpochChangeProof) error
	// ConstructAndSignVote runs the voting rules against a proposal and
	// produces a signed vote (3-chain commit rule).
	ConstructAndSignVote(proposal *inter.MaybeSignedVoteProposal) (*inter.Vote, error)
	// SignProposal signs this validator's own block proposal.
	SignProposal(blockData *inter.BlockData) (inter.Signature, error)
	// SignTimeout signs a classic timeout ballot.
	SignTimeout(timeout inter.Timeout) (inter.Signature, error)
	// SignTimeoutWithQC signs a 2-chain timeout, optionally justified by a
	// timeout certificate.
	SignTimeoutWithQC(timeout *inter.TwoChainTimeout, tc *inter.TwoChainTimeoutCertificate) (inter.Signature, error)
	// ConstructAndSignVoteTwoChain is the 2-chain variant of vote
	// construction, optionally justified by a timeout certificate.
	ConstructAndSignVoteTwoChain(proposal *inter.MaybeSignedVoteProposal, tc *inter.TwoChainTimeoutCertificate) (*inter.Vote, error)
	// SignCommitVote signs an executed ledger info matching an ordered one
	// that already gathered quorum signatures.
	SignCommitVote(ledgerInfo inter.LedgerInfoWithSignatures, newLedgerInfo inter.LedgerInfo) (inter.Signature, error)
}

var _ Interface = (*SafetyRules)(nil)

// startOp opens the request/success/error envelope every public operation
// runs in: a request log line and counter now, a latency sample and the
// outcome line and counter when the returned closure is called. The
// envelope never alters results or errors.
func (s *SafetyRules) startOp(entry LogEntry, decorate func(*schema) *schema) func(error) {
	stop := opTimer(entry)
	decorate(newSchema(s.log, entry, EventRequest)).debug("request")
	incQuery(entry, "request")
	return func(err error) {
		stop()
		if err != nil {
			decorate(newSchema(s.log, entry, EventError)).err(err).error("error")
			incQuery(entry, "error")
			return
		}
		decorate(newSchema(s.log, entry, EventSuccess)).info("success")
		incQuery(entry, "success")
	}
}

func noDecoration(sc *schema) *schema { return sc }

func withRound(round inter.Round) func(*schema) *schema {
	return func(sc *schema) *schema { return sc.round(round) }
}

// ConsensusState implements Interface.
func (s *SafetyRules) ConsensusState() (*ConsensusState, error) {
	finish := s.startOp(LogConsensusState, noDecoration)
	state, err := s.guardedConsensusState()
	finish(err)
	return state, err
}

// Initialize implements Interface.
func (s *SafetyRules) Initialize(proof *inter.EpochChangeProof) error {
	finish := s.startOp(LogInitialize, noDecoration)
	err := s.guardedInitialize(proof)
	finish(err)
	return err
}

// ConstructAndSignVote implements Interface.
func (s *SafetyRules) ConstructAndSignVote(proposal *inter.MaybeSignedVoteProposal) (*inter.Vote, error) {
	finish := s.startOp(LogConstructAndSignVote, withRound(proposal.Block().Round()))
	vote, err := s.guardedConstructAndSignVote(proposal)
	finish(err)
	return vote, err
}

// SignProposal implements Interface.
func (s *SafetyRules) SignProposal(blockData *inter.BlockData) (inter.Signature, error) {
	finish := s.startOp(LogSignProposal, withRound(blockData.Round))
	sig, err := s.guardedSignProposal(blockData)
	finish(err)
	return sig, err
}

// SignTimeout implements Interface.
func (s *SafetyRules) SignTimeout(timeout inter.Timeout) (inter.Signature, error) {
	finish := s.startOp(LogSignTimeout, withRound(timeout.Round))
	sig, err := s.guardedSignTimeout(timeout)
	finish(err)
	return sig, err
}

// SignTimeoutWithQC implements Interface.
func (s *SafetyRules) SignTimeoutWithQC(timeout *inter.TwoChainTimeout, tc *inter.TwoChainTimeoutCertificate) (inter.Signature, error) {
	finish := s.startOp(LogSignTimeoutWithQC, withRound(timeout.Round))
	sig, err := s.guardedSignTimeoutWithQC(timeout, tc)
	finish(err)
	return sig, err
}

// ConstructAndSignVoteTwoChain implements Interface.
func (s *SafetyRules) ConstructAndSignVoteTwoChain(proposal *inter.MaybeSignedVoteProposal, tc *inter.TwoChainTimeoutCertificate) (*inter.Vote, error) {
	finish := s.startOp(LogConstructAndSignVoteTwoChain, withRound(proposal.Block().Round()))
	vote, err := s.guardedConstructAndSignVoteTwoChain(proposal, tc)
	finish(err)
	return vote, err
}

// SignCommitVote implements Interface.
func (s *SafetyRules) SignCommitVote(ledgerInfo inter.LedgerInfoWithSignatures, newLedgerInfo inter.LedgerInfo) (inter.Signature, error) {
	finish := s.startOp(LogSignCommitVote, noDecoration)
	sig, err := s.guardedSignCommitVote(ledgerInfo, newLedgerInfo)
	finish(err)
	return sig, err
}
