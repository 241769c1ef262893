package inter

import (
	"errors"
	"fmt"

	"github.com/Fantom-foundation/lachesis-base/hash"
	"github.com/Fantom-foundation/lachesis-base/inter/idx"
)

// Timeout is the classic (3-chain) timeout ballot: a bare (epoch, round)
// pair. Signing it signals giving up on the round.
type Timeout struct {
	Epoch Epoch
	Round Round
}

// NewTimeout constructs a timeout for the given slot.
func NewTimeout(epoch Epoch, round Round) Timeout {
	return Timeout{Epoch: epoch, Round: round}
}

// Hash returns the signing digest of the timeout.
func (t Timeout) Hash() hash.Hash {
	return hash.Of(
		[]byte("timeout"),
		t.Epoch.Bytes(),
		t.Round.Bytes(),
	)
}

// TwoChainTimeout is the 2-chain variant of a timeout: it additionally
// carries the signer's highest quorum certificate, so the certificate
// aggregated from timeouts proves which round the network has certified.
type TwoChainTimeout struct {
	Epoch      Epoch
	Round      Round
	QuorumCert QuorumCert
}

// NewTwoChainTimeout constructs a 2-chain timeout justified by qc.
func NewTwoChainTimeout(epoch Epoch, round Round, qc QuorumCert) TwoChainTimeout {
	return TwoChainTimeout{Epoch: epoch, Round: round, QuorumCert: qc}
}

// HqcRound returns the round of the highest quorum cert carried by the
// timeout.
func (t *TwoChainTimeout) HqcRound() Round {
	return t.QuorumCert.CertifiedBlock().Round
}

// SigningDigest is the message a validator signs for a 2-chain timeout. The
// embedded hqc round is part of the signed payload, so a certificate can
// prove the highest certified round among its signers.
func (t *TwoChainTimeout) SigningDigest() hash.Hash {
	return twoChainTimeoutDigest(t.Epoch, t.Round, t.HqcRound())
}

// Verify checks the timeout's structure and its embedded certificate.
func (t *TwoChainTimeout) Verify(verifier *ValidatorVerifier) error {
	if t.HqcRound() >= t.Round {
		return fmt.Errorf("timeout round %d should be larger than the hqc round %d", t.Round, t.HqcRound())
	}
	if t.Epoch != t.QuorumCert.CertifiedBlock().Epoch {
		return fmt.Errorf("timeout epoch %d differs from qc epoch %d", t.Epoch, t.QuorumCert.CertifiedBlock().Epoch)
	}
	return t.QuorumCert.Verify(verifier)
}

func (t *TwoChainTimeout) String() string {
	return fmt.Sprintf("TwoChainTimeout{epoch: %d, round: %d, hqc_round: %d}", t.Epoch, t.Round, t.HqcRound())
}

func twoChainTimeoutDigest(epoch Epoch, round, hqcRound Round) hash.Hash {
	return hash.Of(
		[]byte("2chain-timeout"),
		epoch.Bytes(),
		round.Bytes(),
		hqcRound.Bytes(),
	)
}

// TimeoutSignature is one validator's contribution to a 2-chain timeout
// certificate: its signature and the hqc round it attested to.
type TimeoutSignature struct {
	Author   idx.ValidatorID
	HqcRound Round
	Sig      Signature
}

// TwoChainTimeoutCertificate aggregates a quorum of 2-chain timeouts for one
// round. Timeout holds the highest-hqc timeout among the signers.
type TwoChainTimeoutCertificate struct {
	Timeout    TwoChainTimeout
	Signatures []TimeoutSignature
}

// Round returns the round the certificate timed out.
func (tc *TwoChainTimeoutCertificate) Round() Round {
	return tc.Timeout.Round
}

// HighestHqcRound returns the highest certified round attested by any
// signer of the certificate.
func (tc *TwoChainTimeoutCertificate) HighestHqcRound() Round {
	return tc.Timeout.HqcRound()
}

// Verify checks the aggregated signatures (each over its signer's own hqc
// round), the quorum power of the signers, and that the embedded timeout
// matches the highest attested hqc round.
func (tc *TwoChainTimeoutCertificate) Verify(verifier *ValidatorVerifier) error {
	if len(tc.Signatures) == 0 {
		return errors.New("timeout certificate carries no signatures")
	}
	highest := Round(0)
	authors := make([]idx.ValidatorID, 0, len(tc.Signatures))
	for _, ts := range tc.Signatures {
		digest := twoChainTimeoutDigest(tc.Timeout.Epoch, tc.Timeout.Round, ts.HqcRound)
		if err := verifier.VerifySignature(ts.Author, digest.Bytes(), ts.Sig); err != nil {
			return err
		}
		if ts.HqcRound > highest {
			highest = ts.HqcRound
		}
		authors = append(authors, ts.Author)
	}
	if highest != tc.HighestHqcRound() {
		return fmt.Errorf("certificate hqc round %d does not match the highest attested %d",
			tc.HighestHqcRound(), highest)
	}
	return verifier.CheckVotingPower(authors)
}
