package safetyrules

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rony4d/go-safetyrules/inter"
)

// makeTimeoutCert aggregates a whole-set timeout certificate for `round`
// whose signers all attest the given hqc round.
func (e *env) makeTimeoutCert(epoch inter.Epoch, round, hqcRound inter.Round) *inter.TwoChainTimeoutCertificate {
	qc := e.chainQC(epoch, hqcRound, hqcRound-1)
	timeout := inter.NewTwoChainTimeout(epoch, round, qc)
	tc := &inter.TwoChainTimeoutCertificate{Timeout: timeout}
	for id, key := range e.keys {
		digest := inter.NewTwoChainTimeout(epoch, round, qc).SigningDigest()
		tc.Signatures = append(tc.Signatures, inter.TimeoutSignature{
			Author:   id,
			HqcRound: hqcRound,
			Sig:      ed25519.Sign(key, digest.Bytes()),
		})
	}
	return tc
}

func TestTwoChainVoteContiguous(t *testing.T) {
	require := require.New(t)
	e := newEnv(t, Config{})
	e.initialize()

	// QC(4) directly certifies the previous round: no certificate needed
	vote, err := e.engine.ConstructAndSignVoteTwoChain(e.proposalAt(1, 5, 4, 3), nil)
	require.NoError(err)
	require.Equal(inter.Round(5), vote.VoteData.Proposed.Round)

	data := e.safetyData()
	require.Equal(inter.Round(5), data.LastVotedRound)
	require.Equal(inter.Round(4), data.OneChainRound)
}

func TestTwoChainCommitRule(t *testing.T) {
	require := require.New(t)
	e := newEnv(t, Config{})
	e.initialize()

	// contiguous certified/parent rounds commit the parent already
	vote, err := e.engine.ConstructAndSignVoteTwoChain(e.proposalAt(1, 10, 9, 8), nil)
	require.NoError(err)
	require.False(vote.LedgerInfo.CommitInfo.Empty())
	require.Equal(inter.Round(8), vote.LedgerInfo.CommitInfo.Round)

	// a gap between parent and certified block yields no commit
	vote, err = e.engine.ConstructAndSignVoteTwoChain(e.proposalAt(1, 11, 10, 8), nil)
	require.NoError(err)
	require.True(vote.LedgerInfo.CommitInfo.Empty())
}

func TestTwoChainVoteAcrossGapNeedsCertificate(t *testing.T) {
	require := require.New(t)
	e := newEnv(t, Config{})
	e.initialize()

	// round 7 justified by QC(4) only: rejected
	_, err := e.engine.ConstructAndSignVoteTwoChain(e.proposalAt(1, 7, 4, 3), nil)
	require.ErrorIs(err, ErrInvalidProposal)

	// a timeout certificate for round 6 bridges the gap
	tc := e.makeTimeoutCert(1, 6, 4)
	vote, err := e.engine.ConstructAndSignVoteTwoChain(e.proposalAt(1, 7, 4, 3), tc)
	require.NoError(err)
	require.Equal(inter.Round(7), vote.VoteData.Proposed.Round)
}

func TestTwoChainVoteCertificateRoundMismatch(t *testing.T) {
	require := require.New(t)
	e := newEnv(t, Config{})
	e.initialize()

	// the certificate must be for exactly the previous round
	tc := e.makeTimeoutCert(1, 5, 4)
	_, err := e.engine.ConstructAndSignVoteTwoChain(e.proposalAt(1, 7, 4, 3), tc)
	require.ErrorIs(err, ErrInvalidProposal)
}

func TestTwoChainVoteQCBehindCertificate(t *testing.T) {
	require := require.New(t)
	e := newEnv(t, Config{})
	e.initialize()

	// the certificate's signers certified round 6, but the proposal's QC
	// is only at round 4: voting would adopt a worse chain
	tc := e.makeTimeoutCert(1, 7, 6)
	_, err := e.engine.ConstructAndSignVoteTwoChain(e.proposalAt(1, 8, 4, 3), tc)
	require.ErrorIs(err, ErrInvalidProposal)
}

func TestTwoChainVoteReplay(t *testing.T) {
	require := require.New(t)
	e := newEnv(t, Config{})
	e.initialize()

	proposal := e.proposalAt(1, 5, 4, 3)
	first, err := e.engine.ConstructAndSignVoteTwoChain(proposal, nil)
	require.NoError(err)

	second, err := e.engine.ConstructAndSignVoteTwoChain(proposal, nil)
	require.NoError(err)
	require.Equal(first.Hash(), second.Hash())
}

func TestSignTimeoutWithQC(t *testing.T) {
	require := require.New(t)
	e := newEnv(t, Config{})
	e.initialize()

	// timeout for round 5 justified by its own QC(4)
	timeout := inter.NewTwoChainTimeout(1, 5, e.chainQC(1, 4, 3))
	sig, err := e.engine.SignTimeoutWithQC(&timeout, nil)
	require.NoError(err)

	pk, ok := e.verifier().GetPublicKey(testAuthor)
	require.True(ok)
	require.True(pk.Verify(timeout.SigningDigest().Bytes(), sig))

	data := e.safetyData()
	require.Equal(inter.Round(5), data.LastVotedRound)
	require.Equal(inter.Round(4), data.OneChainRound)
	require.Equal(inter.Round(3), data.PreferredRound)
}

func TestSignTimeoutWithQCAcrossGap(t *testing.T) {
	require := require.New(t)
	e := newEnv(t, Config{})
	e.initialize()

	// round 7 follows neither QC(4) nor any certificate
	timeout := inter.NewTwoChainTimeout(1, 7, e.chainQC(1, 4, 3))
	_, err := e.engine.SignTimeoutWithQC(&timeout, nil)
	require.ErrorIs(err, ErrNotSafeToTimeout)

	// with a certificate for round 6 the gap is justified
	tc := e.makeTimeoutCert(1, 6, 4)
	_, err = e.engine.SignTimeoutWithQC(&timeout, tc)
	require.NoError(err)
	require.Equal(inter.Round(7), e.safetyData().LastVotedRound)
}

func TestSignTimeoutWithQCBelowVotedRound(t *testing.T) {
	require := require.New(t)
	e := newEnv(t, Config{})
	e.initialize()

	_, err := e.engine.ConstructAndSignVoteTwoChain(e.proposalAt(1, 6, 5, 4), nil)
	require.NoError(err)

	// a timeout below the voted round is rejected
	timeout := inter.NewTwoChainTimeout(1, 5, e.chainQC(1, 4, 3))
	_, err = e.engine.SignTimeoutWithQC(&timeout, nil)
	require.ErrorIs(err, ErrIncorrectLastVotedRound)

	// at the voted round it is acceptable
	timeout = inter.NewTwoChainTimeout(1, 6, e.chainQC(1, 5, 4))
	_, err = e.engine.SignTimeoutWithQC(&timeout, nil)
	require.NoError(err)
}

func TestSignTimeoutWithQCMalformed(t *testing.T) {
	require := require.New(t)
	e := newEnv(t, Config{})
	e.initialize()

	// hqc round >= timeout round is structurally invalid
	timeout := inter.NewTwoChainTimeout(1, 4, e.chainQC(1, 4, 3))
	_, err := e.engine.SignTimeoutWithQC(&timeout, nil)
	require.ErrorIs(err, ErrInvalidQuorumCertificate)

	// wrong epoch is dropped before anything else
	timeout = inter.NewTwoChainTimeout(2, 5, e.chainQC(2, 4, 3))
	_, err = e.engine.SignTimeoutWithQC(&timeout, nil)
	require.ErrorIs(err, ErrIncorrectEpoch)
}

func TestTwoChainTimeoutCertificateVerify(t *testing.T) {
	require := require.New(t)
	e := newEnv(t, Config{})

	tc := e.makeTimeoutCert(1, 6, 4)
	require.NoError(tc.Verify(e.verifier()))

	// dropping signatures breaks quorum
	short := *tc
	short.Signatures = tc.Signatures[:1]
	require.Error(short.Verify(e.verifier()))

	// a signer attesting a different hqc round than signed is caught
	tampered := *tc
	tampered.Signatures = append([]inter.TimeoutSignature{}, tc.Signatures...)
	tampered.Signatures[0].HqcRound = 5
	require.Error(tampered.Verify(e.verifier()))
}

// a gap vote justified by a timeout certificate raises the watermarks from
// the proposal's QC
func TestTwoChainWatermarksFromVote(t *testing.T) {
	require := require.New(t)
	e := newEnv(t, Config{})
	e.initialize()

	tc := e.makeTimeoutCert(1, 9, 8)
	_, err := e.engine.ConstructAndSignVoteTwoChain(e.proposalAt(1, 10, 8, 7), tc)
	require.NoError(err)

	data := e.safetyData()
	require.Equal(inter.Round(10), data.LastVotedRound)
	require.Equal(inter.Round(8), data.OneChainRound)
	require.Equal(inter.Round(7), data.PreferredRound)
}
