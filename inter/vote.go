package inter

import (
	"fmt"

	"github.com/Fantom-foundation/lachesis-base/common/bigendian"
	"github.com/Fantom-foundation/lachesis-base/hash"
	"github.com/Fantom-foundation/lachesis-base/inter/idx"
)

// VoteData commits to the proposed block and the block its quorum
// certificate certifies (the proposal's parent).
type VoteData struct {
	// Proposed is the block the vote is cast on.
	Proposed BlockInfo
	// Parent is the block certified by the proposal's quorum certificate.
	Parent BlockInfo
}

// NewVoteData assembles vote data from the proposed block and its parent.
func NewVoteData(proposed, parent BlockInfo) VoteData {
	return VoteData{Proposed: proposed, Parent: parent}
}

// Hash returns the deterministic digest of the vote data. It is embedded in
// the signed ledger info as the consensus data hash.
func (vd VoteData) Hash() hash.Hash {
	return hash.Of(
		[]byte("vote-data"),
		vd.Proposed.Hash().Bytes(),
		vd.Parent.Hash().Bytes(),
	)
}

func (vd VoteData) String() string {
	return fmt.Sprintf("VoteData{proposed: %s, parent: %s}", vd.Proposed.String(), vd.Parent.String())
}

// Vote is a signed ballot for a proposed block. The signature covers the
// ledger info, which embeds the vote-data digest.
type Vote struct {
	VoteData   VoteData
	Author     idx.ValidatorID
	LedgerInfo LedgerInfo
	Signature  Signature
}

// NewVote assembles a vote from its parts and a ready signature.
func NewVote(voteData VoteData, author idx.ValidatorID, ledgerInfo LedgerInfo, signature Signature) *Vote {
	return &Vote{
		VoteData:   voteData,
		Author:     author,
		LedgerInfo: ledgerInfo,
		Signature:  signature,
	}
}

// Verify checks the vote's internal consistency and its signature against
// the epoch verifier.
func (v *Vote) Verify(verifier *ValidatorVerifier) error {
	if v.LedgerInfo.ConsensusDataHash != v.VoteData.Hash() {
		return fmt.Errorf("vote data hash mismatch")
	}
	return verifier.VerifySignature(v.Author, v.LedgerInfo.Hash().Bytes(), v.Signature)
}

// Hash returns a digest of the complete vote, signature included. Used to
// compare replayed votes for byte-identity.
func (v *Vote) Hash() hash.Hash {
	return hash.Of(
		[]byte("vote"),
		v.VoteData.Hash().Bytes(),
		bigendian.Uint32ToBytes(uint32(v.Author)),
		v.LedgerInfo.Hash().Bytes(),
		v.Signature,
	)
}

func (v *Vote) String() string {
	return fmt.Sprintf("Vote{author: %d, round: %d, epoch: %d}",
		v.Author, v.VoteData.Proposed.Round, v.VoteData.Proposed.Epoch)
}
