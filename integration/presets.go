// Package integration provides configuration presets for assembling the
// safety-rules engine. Presets bundle the engine knobs (signer mode,
// execution coupling, proposal-signature verification) into named profiles
// so operators can pick a deployment shape without tweaking individual
// flags.
package integration

import (
	"fmt"

	"github.com/rony4d/go-safetyrules/safetyrules"
)

// PresetConfig captures the tunable parameters that vary across profiles.
type PresetConfig struct {
	Name string // human-readable identifier (e.g., "onchain", "exported")
	safetyrules.Config
}

// DefaultPreset keeps the consensus key inside the secure store and checks
// execution endorsements on proposals: the safest shape, suitable for
// production validators.
func DefaultPreset() PresetConfig {
	return PresetConfig{
		Name: "default",
		Config: safetyrules.Config{
			VerifyVoteProposalSignature: true,
			ExportConsensusKey:          false,
			DecoupledExecution:          false,
		},
	}
}

// OnchainPreset is the handle-signer profile with proposal-signature
// verification off, for drivers that validate execution separately.
func OnchainPreset() PresetConfig {
	cfg := DefaultPreset()
	cfg.Name = "onchain"
	cfg.VerifyVoteProposalSignature = false
	return cfg
}

// ExportedPreset pulls the consensus key into process memory. Signing skips
// a storage round-trip per operation at the cost of key exposure to the
// host process.
func ExportedPreset() PresetConfig {
	cfg := DefaultPreset()
	cfg.Name = "exported"
	cfg.ExportConsensusKey = true
	return cfg
}

// DecoupledPreset orders blocks without execution results; votes are
// ordering-only and the accumulator extension check is skipped.
func DecoupledPreset() PresetConfig {
	cfg := DefaultPreset()
	cfg.Name = "decoupled"
	cfg.DecoupledExecution = true
	// the execution public key is never loaded in this mode
	cfg.VerifyVoteProposalSignature = false
	return cfg
}

// GetPresetByName looks up a preset by its string identifier, enabling CLI
// flags like --preset=onchain.
func GetPresetByName(name string) (PresetConfig, error) {
	switch name {
	case "default":
		return DefaultPreset(), nil
	case "onchain":
		return OnchainPreset(), nil
	case "exported":
		return ExportedPreset(), nil
	case "decoupled":
		return DecoupledPreset(), nil
	default:
		return PresetConfig{}, fmt.Errorf("unknown preset: %q (valid: default, onchain, exported, decoupled)", name)
	}
}
