package safetyrules

import (
	"fmt"

	"github.com/Fantom-foundation/lachesis-base/hash"

	"github.com/rony4d/go-safetyrules/inter"
)

// 2-chain HotStuff refinement: commit latency drops from three consecutive
// rounds to two, and a timeout certificate can justify voting across a round
// gap. The structural checks (epoch, QC signatures, author, accumulator
// extension) are shared with the classic flows.

// constructLedgerInfoTwoChain applies the collapsed commit rule: a QC
// certifying B1 with parent B0 commits B0 when round(B1) == round(B0)+1.
func (s *SafetyRules) constructLedgerInfoTwoChain(proposedBlock *inter.Block, consensusDataHash hash.Hash) (inter.LedgerInfo, error) {
	block1 := proposedBlock.QuorumCert().CertifiedBlock().Round
	block0 := proposedBlock.QuorumCert().ParentBlock().Round

	next0, err := nextRound(block0)
	if err != nil {
		return inter.LedgerInfo{}, err
	}
	commitInfo := inter.EmptyBlockInfo()
	if next0 == block1 {
		commitInfo = proposedBlock.QuorumCert().ParentBlock()
	}
	return inter.LedgerInfo{CommitInfo: commitInfo, ConsensusDataHash: consensusDataHash}, nil
}

// verifyTimeoutCert validates an optional timeout certificate against the
// epoch verifier and the storage epoch.
func (s *SafetyRules) verifyTimeoutCert(tc *inter.TwoChainTimeoutCertificate, data *inter.SafetyData) error {
	if tc == nil {
		return nil
	}
	if err := s.verifyEpoch(tc.Timeout.Epoch, data); err != nil {
		return err
	}
	epochState, err := s.currentEpochState()
	if err != nil {
		return err
	}
	if err := tc.Verify(epochState.Verifier); err != nil {
		return fmt.Errorf("%w: timeout certificate: %v", ErrInvalidQuorumCertificate, err)
	}
	return nil
}

// safeToVoteTwoChain decides whether the proposal round is justified: by
// the QC certifying the previous round, or by a timeout certificate for the
// previous round whose signers did not certify anything above the
// proposal's QC.
func safeToVoteTwoChain(round, qcRound inter.Round, tc *inter.TwoChainTimeoutCertificate) error {
	nextQC, err := nextRound(qcRound)
	if err != nil {
		return err
	}
	if nextQC == round {
		return nil
	}
	if tc == nil {
		return fmt.Errorf("%w: round %d is not contiguous to qc round %d and no timeout certificate was supplied",
			ErrInvalidProposal, round, qcRound)
	}
	nextTC, err := nextRound(tc.Round())
	if err != nil {
		return err
	}
	if nextTC != round {
		return fmt.Errorf("%w: timeout certificate round %d does not justify round %d",
			ErrInvalidProposal, tc.Round(), round)
	}
	if qcRound < tc.HighestHqcRound() {
		return fmt.Errorf("%w: proposal qc round %d is below the certificate's highest qc round %d",
			ErrInvalidProposal, qcRound, tc.HighestHqcRound())
	}
	return nil
}

// safeToTimeout decides whether signing a 2-chain timeout is allowed: the
// timeout round must directly follow either the signer's own highest QC or
// the supplied timeout certificate.
func safeToTimeout(timeout *inter.TwoChainTimeout, tc *inter.TwoChainTimeoutCertificate) error {
	nextQC, err := nextRound(timeout.HqcRound())
	if err != nil {
		return err
	}
	if nextQC == timeout.Round {
		return nil
	}
	if tc != nil {
		nextTC, err := nextRound(tc.Round())
		if err != nil {
			return err
		}
		if nextTC == timeout.Round {
			return nil
		}
	}
	return fmt.Errorf("%w: round %d follows neither the hqc round %d nor a timeout certificate",
		ErrNotSafeToTimeout, timeout.Round, timeout.HqcRound())
}

func (s *SafetyRules) guardedConstructAndSignVoteTwoChain(
	maybeSigned *inter.MaybeSignedVoteProposal,
	tc *inter.TwoChainTimeoutCertificate,
) (*inter.Vote, error) {
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
	if err := s.verifyTimeoutCert(tc, &data); err != nil {
		return nil, err
	}

	proposedBlock := maybeSigned.Block()
	if data.LastVote != nil && data.LastVote.VoteData.Proposed.Round == proposedBlock.Round() {
		return data.LastVote, nil
	}

	if err := safeToVoteTwoChain(proposedBlock.Round(), proposedBlock.QuorumCert().CertifiedBlock().Round, tc); err != nil {
		return nil, err
	}
	if err := s.verifyAndUpdatePreferredRound(proposedBlock.QuorumCert(), &data); err != nil {
		return nil, err
	}
	if err := s.verifyAndUpdateLastVoteRound(proposedBlock.Round(), &data); err != nil {
		return nil, err
	}

	signer, err := s.signer()
	if err != nil {
		return nil, err
	}
	ledgerInfo, err := s.constructLedgerInfoTwoChain(proposedBlock, voteData.Hash())
	if err != nil {
		return nil, err
	}
	signature, err := s.sign(ledgerInfo.Hash())
	if err != nil {
		return nil, err
	}
	vote := inter.NewVote(voteData, signer.Author(), ledgerInfo, signature)

	data.LastVote = vote
	if err := s.storage.SetSafetyData(data); err != nil {
		return nil, err
	}
	return vote, nil
}

func (s *SafetyRules) guardedSignTimeoutWithQC(
	timeout *inter.TwoChainTimeout,
	tc *inter.TwoChainTimeoutCertificate,
) (inter.Signature, error) {
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
	epochState, err := s.currentEpochState()
	if err != nil {
		return nil, err
	}
	if err := timeout.Verify(epochState.Verifier); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuorumCertificate, err)
	}
	if err := s.verifyTimeoutCert(tc, &data); err != nil {
		return nil, err
	}
	if err := safeToTimeout(timeout, tc); err != nil {
		return nil, err
	}
	if timeout.Round < data.LastVotedRound {
		return nil, errIncorrectLastVotedRound(timeout.Round, data.LastVotedRound)
	}

	updated := s.observeQC(&timeout.QuorumCert, &data)
	if timeout.Round > data.LastVotedRound {
		if err := s.verifyAndUpdateLastVoteRound(timeout.Round, &data); err != nil {
			return nil, err
		}
		updated = true
	}
	if updated {
		if err := s.storage.SetSafetyData(data); err != nil {
			return nil, err
		}
	}

	return s.sign(timeout.SigningDigest())
}
