package inter

import (
	"errors"
	"fmt"

	"github.com/Fantom-foundation/lachesis-base/hash"
)

// ErrAccumulatorBaseMismatch is returned when an extension proof does not
// start from the expected accumulator root.
var ErrAccumulatorBaseMismatch = errors.New("accumulator extension does not start from the expected root")

// AccumulatorExtensionProof proves that executing a block extends a known
// state accumulator to a claimed new root. The proof pins the base root it
// extends and lists the appended leaves; the new root is the left fold of
// the leaves onto the base.
type AccumulatorExtensionProof struct {
	BaseRoot  hash.Hash
	NewLeaves []hash.Hash
}

// NumLeaves returns how many leaves the extension appends.
func (p *AccumulatorExtensionProof) NumLeaves() uint64 {
	return uint64(len(p.NewLeaves))
}

// Verify checks that the proof extends baseline and returns the resulting
// accumulator root.
func (p *AccumulatorExtensionProof) Verify(baseline hash.Hash) (hash.Hash, error) {
	if p.BaseRoot != baseline {
		return hash.Hash{}, fmt.Errorf("%w: proof base %s, expected %s",
			ErrAccumulatorBaseMismatch, p.BaseRoot.String(), baseline.String())
	}
	root := p.BaseRoot
	for _, leaf := range p.NewLeaves {
		root = hash.Of(root.Bytes(), leaf.Bytes())
	}
	return root, nil
}

// VoteProposal is a block together with the accumulator extension obtained
// by executing it against the parent's state.
type VoteProposal struct {
	Block *Block
	Proof AccumulatorExtensionProof
}

// Hash returns the digest an execution layer signs to endorse the proposal.
func (vp *VoteProposal) Hash() hash.Hash {
	fields := make([][]byte, 0, 3+len(vp.Proof.NewLeaves))
	fields = append(fields,
		[]byte("vote-proposal"),
		vp.Block.ID.Bytes(),
		vp.Proof.BaseRoot.Bytes(),
	)
	for _, leaf := range vp.Proof.NewLeaves {
		fields = append(fields, leaf.Bytes())
	}
	return hash.Of(fields...)
}

// VoteDataOrderingOnly produces vote data without an execution result, used
// in decoupled-execution mode: the proposed block info carries the
// ordered-only placeholder root.
func (vp *VoteProposal) VoteDataOrderingOnly() VoteData {
	parent := vp.Block.QuorumCert().CertifiedBlock()
	return NewVoteData(
		vp.Block.GenBlockInfo(OrderedOnlyStateID, parent.Version, nil),
		parent,
	)
}

// VoteDataWithExtensionProof produces vote data embedding the verified new
// accumulator root; the version advances by the number of appended leaves.
func (vp *VoteProposal) VoteDataWithExtensionProof(newRoot hash.Hash) VoteData {
	parent := vp.Block.QuorumCert().CertifiedBlock()
	return NewVoteData(
		vp.Block.GenBlockInfo(newRoot, parent.Version+vp.Proof.NumLeaves(), nil),
		parent,
	)
}

// MaybeSignedVoteProposal is a vote proposal optionally endorsed by the
// execution layer. An empty signature means no endorsement was attached.
type MaybeSignedVoteProposal struct {
	VoteProposal VoteProposal
	// Signature is the execution layer's signature over VoteProposal.Hash(),
	// empty when absent.
	Signature Signature
}

// Block returns the proposed block.
func (m *MaybeSignedVoteProposal) Block() *Block {
	return m.VoteProposal.Block
}
