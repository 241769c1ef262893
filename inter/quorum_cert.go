package inter

import (
	"fmt"
)

// QuorumCert proves that a quorum of validators voted for one block. The
// aggregated signatures cover a ledger info whose consensus data hash
// commits to the vote data, which in turn names the certified block and its
// parent.
type QuorumCert struct {
	VoteData         VoteData
	SignedLedgerInfo LedgerInfoWithSignatures
}

// NewQuorumCert assembles a certificate from vote data and the aggregate.
func NewQuorumCert(voteData VoteData, signedLedgerInfo LedgerInfoWithSignatures) QuorumCert {
	return QuorumCert{VoteData: voteData, SignedLedgerInfo: signedLedgerInfo}
}

// CertifiedBlock returns the info of the block this certificate certifies.
func (qc *QuorumCert) CertifiedBlock() BlockInfo {
	return qc.VoteData.Proposed
}

// ParentBlock returns the info of the certified block's parent.
func (qc *QuorumCert) ParentBlock() BlockInfo {
	return qc.VoteData.Parent
}

// Verify checks the certificate's internal consistency and that its
// aggregated signatures reach quorum power in the given validator set.
func (qc *QuorumCert) Verify(verifier *ValidatorVerifier) error {
	if qc.SignedLedgerInfo.LedgerInfo.ConsensusDataHash != qc.VoteData.Hash() {
		return fmt.Errorf("quorum cert: vote data hash mismatch")
	}
	if qc.CertifiedBlock().Epoch != qc.ParentBlock().Epoch {
		return fmt.Errorf("quorum cert: certified and parent blocks are from different epochs")
	}
	if qc.CertifiedBlock().Round <= qc.ParentBlock().Round && qc.CertifiedBlock().Round != 0 {
		return fmt.Errorf("quorum cert: certified round %d not after parent round %d",
			qc.CertifiedBlock().Round, qc.ParentBlock().Round)
	}
	return qc.SignedLedgerInfo.VerifySignatures(verifier)
}

func (qc *QuorumCert) String() string {
	return fmt.Sprintf("QuorumCert{certified: %s, parent: %s}",
		qc.CertifiedBlock().String(), qc.ParentBlock().String())
}
