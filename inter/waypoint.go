package inter

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Fantom-foundation/lachesis-base/hash"
)

// Waypoint is a succinct, verifier-free commitment to a ledger state at an
// epoch boundary. A node configured with a waypoint can validate an
// epoch-change proof without trusting any validator set, so it serves as
// the trust anchor for initialization. Waypoints are monotonic by version.
type Waypoint struct {
	// Version is the ledger version the waypoint points at.
	Version uint64
	// Value commits to the ledger info at that version.
	Value hash.Hash
}

// WaypointFromLedgerInfo derives the waypoint committing to the given
// epoch-boundary ledger info.
func WaypointFromLedgerInfo(li LedgerInfo) (Waypoint, error) {
	if li.CommitInfo.NextEpochState == nil {
		return Waypoint{}, errors.New("ledger info is not at an epoch boundary")
	}
	return Waypoint{
		Version: li.CommitInfo.Version,
		Value:   li.Hash(),
	}, nil
}

// Matches reports whether the given ledger info is exactly the state this
// waypoint commits to.
func (w Waypoint) Matches(li LedgerInfo) bool {
	return w.Version == li.CommitInfo.Version && w.Value == li.Hash()
}

// String formats the waypoint as "<version>:<hex>", the form operators put
// into configuration.
func (w Waypoint) String() string {
	return fmt.Sprintf("%d:%s", w.Version, w.Value.Hex())
}

// WaypointFromString parses the "<version>:<hex>" form.
func WaypointFromString(str string) (Waypoint, error) {
	parts := strings.SplitN(str, ":", 2)
	if len(parts) != 2 {
		return Waypoint{}, fmt.Errorf("malformed waypoint %q", str)
	}
	version, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return Waypoint{}, fmt.Errorf("malformed waypoint version %q: %v", parts[0], err)
	}
	return Waypoint{
		Version: version,
		Value:   hash.HexToHash(parts[1]),
	}, nil
}
