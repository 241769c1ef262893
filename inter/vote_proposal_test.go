package inter

import (
	"testing"

	"github.com/Fantom-foundation/lachesis-base/hash"
	"github.com/stretchr/testify/require"
)

func TestAccumulatorExtensionVerify(t *testing.T) {
	require := require.New(t)

	base := hash.Of([]byte("base root"))
	leaves := []hash.Hash{
		hash.Of([]byte("leaf 1")),
		hash.Of([]byte("leaf 2")),
	}
	proof := AccumulatorExtensionProof{BaseRoot: base, NewLeaves: leaves}

	root, err := proof.Verify(base)
	require.NoError(err)

	// the fold is deterministic and order-sensitive
	expected := hash.Of(hash.Of(base.Bytes(), leaves[0].Bytes()).Bytes(), leaves[1].Bytes())
	require.Equal(expected, root)

	swapped := AccumulatorExtensionProof{BaseRoot: base, NewLeaves: []hash.Hash{leaves[1], leaves[0]}}
	swappedRoot, err := swapped.Verify(base)
	require.NoError(err)
	require.NotEqual(root, swappedRoot)

	// a proof anchored elsewhere does not verify
	_, err = proof.Verify(hash.Of([]byte("other root")))
	require.ErrorIs(err, ErrAccumulatorBaseMismatch)
}

func TestAccumulatorExtensionEmpty(t *testing.T) {
	require := require.New(t)

	base := hash.Of([]byte("base root"))
	proof := AccumulatorExtensionProof{BaseRoot: base}
	root, err := proof.Verify(base)
	require.NoError(err)
	require.Equal(base, root)
	require.Equal(uint64(0), proof.NumLeaves())
}
