package safetyrules

import (
	"fmt"

	"github.com/rony4d/go-safetyrules/inter"
)

// ConsensusState is the read-only snapshot returned to the consensus driver:
// the persisted voting state, the trust anchor, and whether this validator
// currently holds a usable signing identity for the epoch.
type ConsensusState struct {
	SafetyData     inter.SafetyData
	Waypoint       inter.Waypoint
	InValidatorSet bool
}

// NewConsensusState assembles a snapshot.
func NewConsensusState(data inter.SafetyData, waypoint inter.Waypoint, inSet bool) *ConsensusState {
	return &ConsensusState{
		SafetyData:     data,
		Waypoint:       waypoint,
		InValidatorSet: inSet,
	}
}

// Epoch returns the snapshot's epoch.
func (cs *ConsensusState) Epoch() inter.Epoch {
	return cs.SafetyData.Epoch
}

// LastVotedRound returns the highest round voted in.
func (cs *ConsensusState) LastVotedRound() inter.Round {
	return cs.SafetyData.LastVotedRound
}

// PreferredRound returns the highest 2-chain round observed.
func (cs *ConsensusState) PreferredRound() inter.Round {
	return cs.SafetyData.PreferredRound
}

func (cs *ConsensusState) String() string {
	return fmt.Sprintf("ConsensusState{%s, waypoint: %s, in_validator_set: %v}",
		cs.SafetyData.String(), cs.Waypoint.String(), cs.InValidatorSet)
}
