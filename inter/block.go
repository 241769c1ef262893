package inter

import (
	"errors"
	"fmt"

	"github.com/Fantom-foundation/lachesis-base/common/bigendian"
	"github.com/Fantom-foundation/lachesis-base/hash"
	"github.com/Fantom-foundation/lachesis-base/inter/idx"
)

var (
	// ErrBlockIDMismatch is returned when a block's ID is not the digest of
	// its block data.
	ErrBlockIDMismatch = errors.New("block id does not match block data")
	// ErrMalformedBlock is returned by well-formedness checks.
	ErrMalformedBlock = errors.New("malformed block")
)

// BlockData is the unsigned content of a block proposal: its slot, its
// author, a commitment to the payload, and the quorum certificate that
// justifies extending the chain at this point.
type BlockData struct {
	Epoch  Epoch
	Round  Round
	Author idx.ValidatorID
	// Timestamp is the proposer timestamp, unix nanoseconds.
	Timestamp uint64
	// PayloadHash commits to the proposed transactions; the safety core
	// never inspects the payload itself.
	PayloadHash hash.Hash
	// QuorumCert certifies the parent this proposal extends.
	QuorumCert QuorumCert
}

// Hash returns the block ID: the digest of the block data. It is also the
// message a proposer signs.
func (bd *BlockData) Hash() hash.Hash {
	return hash.Of(
		[]byte("block-data"),
		bd.Epoch.Bytes(),
		bd.Round.Bytes(),
		bigendian.Uint32ToBytes(uint32(bd.Author)),
		bigendian.Uint64ToBytes(bd.Timestamp),
		bd.PayloadHash.Bytes(),
		bd.QuorumCert.VoteData.Hash().Bytes(),
	)
}

// Block is a proposal as received from the network: block data plus the
// proposer's signature over the block ID.
type Block struct {
	ID        hash.Hash
	BlockData BlockData
	Signature Signature
}

// NewBlock seals block data into a block with the given proposer signature.
func NewBlock(data BlockData, signature Signature) *Block {
	return &Block{
		ID:        data.Hash(),
		BlockData: data,
		Signature: signature,
	}
}

// Epoch returns the epoch the block was proposed in.
func (b *Block) Epoch() Epoch { return b.BlockData.Epoch }

// Round returns the consensus slot of the block.
func (b *Block) Round() Round { return b.BlockData.Round }

// Author returns the proposer of the block.
func (b *Block) Author() idx.ValidatorID { return b.BlockData.Author }

// QuorumCert returns the certificate justifying the block's parent.
func (b *Block) QuorumCert() *QuorumCert { return &b.BlockData.QuorumCert }

// GenBlockInfo produces the BlockInfo commitment for this block with the
// given execution result.
func (b *Block) GenBlockInfo(executedStateID hash.Hash, version uint64, nextEpochState *EpochState) BlockInfo {
	return BlockInfo{
		Epoch:           b.Epoch(),
		Round:           b.Round(),
		ID:              b.ID,
		ExecutedStateID: executedStateID,
		Version:         version,
		Timestamp:       b.BlockData.Timestamp,
		NextEpochState:  nextEpochState,
	}
}

// ValidateSignature checks the proposer's signature over the block ID
// against the epoch verifier.
func (b *Block) ValidateSignature(verifier *ValidatorVerifier) error {
	return verifier.VerifySignature(b.Author(), b.ID.Bytes(), b.Signature)
}

// VerifyWellFormed runs the structural checks that do not need a verifier:
// the ID matches the data, the round is above the certified parent's round,
// and the epochs are consistent.
func (b *Block) VerifyWellFormed() error {
	if b.ID != b.BlockData.Hash() {
		return ErrBlockIDMismatch
	}
	parent := b.QuorumCert().CertifiedBlock()
	if b.Round() <= parent.Round {
		return fmt.Errorf("%w: round %d not after certified round %d", ErrMalformedBlock, b.Round(), parent.Round)
	}
	if b.Epoch() != parent.Epoch {
		return fmt.Errorf("%w: block epoch %d differs from certified epoch %d", ErrMalformedBlock, b.Epoch(), parent.Epoch)
	}
	return nil
}
