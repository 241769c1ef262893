package integration

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetPresetByName(t *testing.T) {
	require := require.New(t)

	for _, name := range []string{"default", "onchain", "exported", "decoupled"} {
		preset, err := GetPresetByName(name)
		require.NoError(err)
		require.Equal(name, preset.Name)
	}

	_, err := GetPresetByName("bogus")
	require.Error(err)
}

func TestPresetShapes(t *testing.T) {
	require := require.New(t)

	def := DefaultPreset()
	require.True(def.VerifyVoteProposalSignature)
	require.False(def.ExportConsensusKey)
	require.False(def.DecoupledExecution)

	require.False(OnchainPreset().VerifyVoteProposalSignature)
	require.True(ExportedPreset().ExportConsensusKey)

	dec := DecoupledPreset()
	require.True(dec.DecoupledExecution)
	require.False(dec.VerifyVoteProposalSignature, "the execution key is never loaded in decoupled mode")
}
