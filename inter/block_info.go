package inter

import (
	"fmt"

	"github.com/Fantom-foundation/lachesis-base/common/bigendian"
	"github.com/Fantom-foundation/lachesis-base/hash"
	"github.com/Fantom-foundation/lachesis-base/inter/idx"
)

// OrderedOnlyStateID is the placeholder accumulator root carried by block
// info produced in decoupled-execution mode, where consensus orders blocks
// without waiting for the execution result.
var OrderedOnlyStateID = hash.Of([]byte("safetyrules: ordered-only state id placeholder"))

// BlockInfo is the compact commitment to a block carried inside vote data,
// quorum certificates and ledger info.
type BlockInfo struct {
	Epoch Epoch
	Round Round
	// ID is the unique identifier of the block (digest of its BlockData).
	ID hash.Hash
	// ExecutedStateID is the state-accumulator root after executing the
	// block, or OrderedOnlyStateID in decoupled-execution mode.
	ExecutedStateID hash.Hash
	// Version is the ledger version (leaf count) at this block.
	Version uint64
	// Timestamp is the proposer timestamp, unix nanoseconds.
	Timestamp uint64
	// NextEpochState is set iff this block ends its epoch; it then carries
	// the validator set of the next epoch.
	NextEpochState *EpochState `rlp:"nil"`
}

// EmptyBlockInfo returns the no-commit placeholder used in ledger info when
// no block is committed by a vote.
func EmptyBlockInfo() BlockInfo {
	return BlockInfo{}
}

// Empty reports whether this is the no-commit placeholder.
func (bi BlockInfo) Empty() bool {
	return bi == BlockInfo{}
}

// IsOrderedOnly reports whether this block info carries no execution result.
func (bi BlockInfo) IsOrderedOnly() bool {
	return bi.ExecutedStateID == OrderedOnlyStateID
}

// MatchOrderedOnly reports whether executed is the same block info as the
// ordered-only bi, ignoring the execution-layer fields (ExecutedStateID,
// Version and NextEpochState) that ordering-only consensus does not know yet.
func (bi BlockInfo) MatchOrderedOnly(executed BlockInfo) bool {
	return bi.Epoch == executed.Epoch &&
		bi.Round == executed.Round &&
		bi.ID == executed.ID &&
		bi.Timestamp == executed.Timestamp
}

// Hash returns the deterministic digest of the block info.
func (bi BlockInfo) Hash() hash.Hash {
	var nextEpoch []byte
	if bi.NextEpochState != nil {
		nextEpoch = epochStateDigest(bi.NextEpochState).Bytes()
	}
	return hash.Of(
		[]byte("block-info"),
		bi.Epoch.Bytes(),
		bi.Round.Bytes(),
		bi.ID.Bytes(),
		bi.ExecutedStateID.Bytes(),
		bigendian.Uint64ToBytes(bi.Version),
		bigendian.Uint64ToBytes(bi.Timestamp),
		nextEpoch,
	)
}

func (bi BlockInfo) String() string {
	return fmt.Sprintf("BlockInfo{epoch: %d, round: %d, id: %s, version: %d}",
		bi.Epoch, bi.Round, bi.ID.String(), bi.Version)
}

// epochStateDigest folds the epoch number and every set member into one hash.
func epochStateDigest(es *EpochState) hash.Hash {
	fields := make([][]byte, 0, 2+3*len(es.Verifier.Members))
	fields = append(fields, []byte("epoch-state"), es.Epoch.Bytes())
	for _, m := range es.Verifier.Members {
		fields = append(fields,
			bigendian.Uint32ToBytes(uint32(m.ID)),
			m.PubKey.Bytes(),
			bigendian.Uint32ToBytes(uint32(m.Weight)),
		)
	}
	return hash.Of(fields...)
}

// LedgerInfo is the structure a vote signs: the commit decision induced by
// the proposal (or the empty placeholder) plus a commitment to the vote data.
type LedgerInfo struct {
	CommitInfo BlockInfo
	// ConsensusDataHash is the digest of the VoteData this ledger info was
	// derived from.
	ConsensusDataHash hash.Hash
}

// Hash returns the signing digest of the ledger info.
func (li LedgerInfo) Hash() hash.Hash {
	return hash.Of(
		[]byte("ledger-info"),
		li.CommitInfo.Hash().Bytes(),
		li.ConsensusDataHash.Bytes(),
	)
}

func (li LedgerInfo) String() string {
	return fmt.Sprintf("LedgerInfo{commit: %s, consensus_data: %s}",
		li.CommitInfo.String(), li.ConsensusDataHash.String())
}

// AccountSignature is one validator's signature inside an aggregate.
type AccountSignature struct {
	Author idx.ValidatorID
	Sig    Signature
}

// LedgerInfoWithSignatures is a ledger info together with the aggregated
// validator signatures over it.
type LedgerInfoWithSignatures struct {
	LedgerInfo LedgerInfo
	Signatures []AccountSignature
}

// AddSignature appends an author's signature, replacing any previous one by
// the same author.
func (lis *LedgerInfoWithSignatures) AddSignature(author idx.ValidatorID, sig Signature) {
	for i := range lis.Signatures {
		if lis.Signatures[i].Author == author {
			lis.Signatures[i].Sig = sig
			return
		}
	}
	lis.Signatures = append(lis.Signatures, AccountSignature{Author: author, Sig: sig})
}

// VerifySignatures checks every signature against the verifier and requires
// the signers to reach quorum voting power.
func (lis *LedgerInfoWithSignatures) VerifySignatures(verifier *ValidatorVerifier) error {
	digest := lis.LedgerInfo.Hash()
	authors := make([]idx.ValidatorID, 0, len(lis.Signatures))
	for _, as := range lis.Signatures {
		if err := verifier.VerifySignature(as.Author, digest.Bytes(), as.Sig); err != nil {
			return err
		}
		authors = append(authors, as.Author)
	}
	return verifier.CheckVotingPower(authors)
}
