package inter

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyProof is returned for an epoch-change proof with no ledger info.
	ErrEmptyProof = errors.New("epoch change proof is empty")
	// ErrProofStale is returned when the whole proof predates the waypoint.
	ErrProofStale = errors.New("epoch change proof is older than the waypoint")
)

// EpochChangeProof carries a chain of epoch-boundary ledger infos. Each one
// carries the validator set of the following epoch, so a verifier trusted at
// the head of the chain transitively validates every later boundary.
type EpochChangeProof struct {
	LedgerInfoWithSigs []*LedgerInfoWithSignatures
	// More signals the proof was truncated and the target epoch has not
	// been reached yet.
	More bool
}

// Verify validates the proof against the waypoint trust anchor and returns
// the terminal ledger info.
//
// Ledger infos older than the waypoint are skipped. The first non-stale
// ledger info must be exactly the state the waypoint commits to; every
// subsequent one is checked against the verifier installed by its
// predecessor's next-epoch-state.
func (p *EpochChangeProof) Verify(waypoint Waypoint) (*LedgerInfoWithSignatures, error) {
	if len(p.LedgerInfoWithSigs) == 0 {
		return nil, ErrEmptyProof
	}

	var verifier *ValidatorVerifier
	var last *LedgerInfoWithSignatures
	for _, lis := range p.LedgerInfoWithSigs {
		if lis.LedgerInfo.CommitInfo.Version < waypoint.Version {
			// a stale prefix is allowed, the anchor decides where trust starts
			continue
		}
		if verifier == nil {
			if !waypoint.Matches(lis.LedgerInfo) {
				return nil, fmt.Errorf("ledger info at version %d does not match the waypoint %s",
					lis.LedgerInfo.CommitInfo.Version, waypoint.String())
			}
		} else {
			if err := lis.VerifySignatures(verifier); err != nil {
				return nil, err
			}
		}
		next := lis.LedgerInfo.CommitInfo.NextEpochState
		if next == nil {
			return nil, fmt.Errorf("ledger info at version %d is not an epoch boundary",
				lis.LedgerInfo.CommitInfo.Version)
		}
		verifier = next.Verifier
		last = lis
	}
	if last == nil {
		return nil, ErrProofStale
	}
	return last, nil
}
