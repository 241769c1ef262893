package safetyrules

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/Fantom-foundation/lachesis-base/hash"
	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/Fantom-foundation/lachesis-base/inter/pos"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/rony4d/go-safetyrules/inter"
	"github.com/rony4d/go-safetyrules/inter/validatorpk"
	"github.com/rony4d/go-safetyrules/secstore"
)

// testAuthor is the validator the engine under test signs for.
const testAuthor = idx.ValidatorID(1)

// env is the shared test harness: a three-validator epoch, an in-memory
// secure store provisioned for testAuthor, and an engine over it.
type env struct {
	t       *testing.T
	keys    map[idx.ValidatorID]ed25519.PrivateKey
	members []inter.ValidatorInfo

	store   *secstore.MemStore
	storage *PersistentSafetyStorage
	engine  *SafetyRules

	genesisLI inter.LedgerInfo
	waypoint  inter.Waypoint
}

func testLog() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

// newEnv provisions storage and builds an engine with the given config.
// The engine is not initialized yet; most tests call initialize().
func newEnv(t *testing.T, cfg Config) *env {
	e := &env{
		t:    t,
		keys: map[idx.ValidatorID]ed25519.PrivateKey{},
	}
	for id := idx.ValidatorID(1); id <= 3; id++ {
		pub, priv, err := ed25519.GenerateKey(rand.Reader)
		require.NoError(t, err)
		e.keys[id] = priv
		e.members = append(e.members, inter.ValidatorInfo{
			ID:     id,
			PubKey: validatorpk.FromEd25519(pub),
			Weight: pos.Weight(1),
		})
	}

	// genesis: an epoch-boundary ledger info handing over to epoch 1
	e.genesisLI = inter.LedgerInfo{
		CommitInfo: inter.BlockInfo{
			Epoch:          0,
			Round:          0,
			ID:             hash.Of([]byte("genesis")),
			Version:        0,
			NextEpochState: e.epochState(1),
		},
		ConsensusDataHash: hash.Of([]byte("genesis vote data")),
	}
	var err error
	e.waypoint, err = inter.WaypointFromLedgerInfo(e.genesisLI)
	require.NoError(t, err)

	e.store = secstore.NewMemStore()
	e.storage, err = InitializeStorage(e.store, testLog(), testAuthor, e.keys[testAuthor], e.waypoint)
	require.NoError(t, err)

	e.engine, err = New(e.storage, cfg, testLog())
	require.NoError(t, err)
	return e
}

func (e *env) verifier() *inter.ValidatorVerifier {
	return inter.NewValidatorVerifier(e.members...)
}

func (e *env) epochState(epoch inter.Epoch) *inter.EpochState {
	return &inter.EpochState{Epoch: epoch, Verifier: e.verifier()}
}

// genesisProof returns the epoch-change proof installing epoch 1.
func (e *env) genesisProof() *inter.EpochChangeProof {
	return &inter.EpochChangeProof{
		LedgerInfoWithSigs: []*inter.LedgerInfoWithSignatures{
			{LedgerInfo: e.genesisLI},
		},
	}
}

// epochProof extends the genesis proof with a boundary handing over to the
// given epoch, signed by the whole epoch-1 set.
func (e *env) epochProof(epoch inter.Epoch, version uint64) *inter.EpochChangeProof {
	boundary := inter.LedgerInfo{
		CommitInfo: inter.BlockInfo{
			Epoch:          epoch - 1,
			Round:          100,
			ID:             hash.Of([]byte("boundary"), epoch.Bytes()),
			Version:        version,
			NextEpochState: e.epochState(epoch),
		},
		ConsensusDataHash: hash.Of([]byte("boundary vote data")),
	}
	signed := e.signLedgerInfo(boundary)
	proof := e.genesisProof()
	proof.LedgerInfoWithSigs = append(proof.LedgerInfoWithSigs, &signed)
	return proof
}

func (e *env) initialize() {
	require.NoError(e.t, e.engine.Initialize(e.genesisProof()))
}

// signLedgerInfo gathers signatures of the whole set over a ledger info.
func (e *env) signLedgerInfo(li inter.LedgerInfo) inter.LedgerInfoWithSignatures {
	signed := inter.LedgerInfoWithSignatures{LedgerInfo: li}
	for id, key := range e.keys {
		signed.AddSignature(id, ed25519.Sign(key, li.Hash().Bytes()))
	}
	return signed
}

// stateID returns a deterministic per-round executed-state root.
func stateID(round inter.Round) hash.Hash {
	return hash.Of([]byte("state"), round.Bytes())
}

// blockInfo builds the commitment of an already-certified block.
func (e *env) blockInfo(epoch inter.Epoch, round inter.Round) inter.BlockInfo {
	return inter.BlockInfo{
		Epoch:           epoch,
		Round:           round,
		ID:              hash.Of([]byte("block"), epoch.Bytes(), round.Bytes()),
		ExecutedStateID: stateID(round),
		Version:         uint64(round),
	}
}

// makeQC certifies `certified` on top of `parent` with the whole set.
func (e *env) makeQC(certified, parent inter.BlockInfo) inter.QuorumCert {
	voteData := inter.NewVoteData(certified, parent)
	li := inter.LedgerInfo{
		CommitInfo:        inter.EmptyBlockInfo(),
		ConsensusDataHash: voteData.Hash(),
	}
	return inter.NewQuorumCert(voteData, e.signLedgerInfo(li))
}

// chainQC builds a QC certifying round `certified` whose parent is round
// `parent`, both in the given epoch.
func (e *env) chainQC(epoch inter.Epoch, certified, parent inter.Round) inter.QuorumCert {
	return e.makeQC(e.blockInfo(epoch, certified), e.blockInfo(epoch, parent))
}

// makeBlock seals a proposal at `round` by `author` on top of qc.
func (e *env) makeBlock(epoch inter.Epoch, round inter.Round, author idx.ValidatorID, qc inter.QuorumCert) *inter.Block {
	data := inter.BlockData{
		Epoch:       epoch,
		Round:       round,
		Author:      author,
		Timestamp:   1000000000 + uint64(round),
		PayloadHash: hash.Of([]byte("payload"), round.Bytes()),
		QuorumCert:  qc,
	}
	return inter.NewBlock(data, ed25519.Sign(e.keys[author], data.Hash().Bytes()))
}

// makeProposal wraps a block into an unsigned vote proposal whose extension
// proof extends the certified parent's executed state by one leaf.
func (e *env) makeProposal(block *inter.Block) *inter.MaybeSignedVoteProposal {
	return &inter.MaybeSignedVoteProposal{
		VoteProposal: inter.VoteProposal{
			Block: block,
			Proof: inter.AccumulatorExtensionProof{
				BaseRoot:  block.QuorumCert().CertifiedBlock().ExecutedStateID,
				NewLeaves: []hash.Hash{hash.Of([]byte("leaf"), block.Round().Bytes())},
			},
		},
	}
}

// proposalAt is the common case: a proposal at `round` certified by a QC
// over (certified, parent), proposed by validator 2.
func (e *env) proposalAt(epoch inter.Epoch, round, certified, parent inter.Round) *inter.MaybeSignedVoteProposal {
	qc := e.chainQC(epoch, certified, parent)
	return e.makeProposal(e.makeBlock(epoch, round, idx.ValidatorID(2), qc))
}

// safetyData reads the persisted voting state directly from storage.
func (e *env) safetyData() inter.SafetyData {
	data, err := e.storage.SafetyData()
	require.NoError(e.t, err)
	return data
}
