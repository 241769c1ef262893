package inter

import (
	"fmt"
)

// SafetyData is the persistent voting state of a validator within one epoch.
// It is the record whose monotonicity preserves consensus safety: it must be
// read-modify-written atomically, and persisted before any produced
// signature leaves the engine.
type SafetyData struct {
	Epoch Epoch
	// LastVotedRound is the highest round this validator ever voted in,
	// by vote or by timeout.
	LastVotedRound Round
	// PreferredRound is the highest 2-chain round observed.
	PreferredRound Round
	// OneChainRound is the highest certified-block round observed.
	OneChainRound Round
	// LastVote retains the most recent vote for idempotent replay. Stored
	// together with the counters; splitting them would open a window where
	// a replayed round returns a stale vote.
	LastVote *Vote `rlp:"nil"`
}

// NewSafetyData returns the reset voting state for the start of an epoch.
func NewSafetyData(epoch Epoch) SafetyData {
	return SafetyData{Epoch: epoch}
}

func (sd SafetyData) String() string {
	return fmt.Sprintf("SafetyData{epoch: %d, last_voted_round: %d, preferred_round: %d, one_chain_round: %d}",
		sd.Epoch, sd.LastVotedRound, sd.PreferredRound, sd.OneChainRound)
}
