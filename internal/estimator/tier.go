package estimator

import (
	"fmt"
	"strings"
)

// Tier identifies which branch of the fallback chain produced an emissions result.
type Tier int

// Fallback tiers in order of preference.
const (
	TierRemote Tier = iota
	TierLocal
	TierMock
)

// String returns the lowercase tier name.
func (t Tier) String() string {
	switch t {
	case TierRemote:
		return "remote"
	case TierLocal:
		return "local"
	case TierMock:
		return "mock"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Tier) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "remote":
		*t = TierRemote
	case "local":
		*t = TierLocal
	case "mock":
		*t = TierMock
	default:
		return fmt.Errorf("unknown tier %q", string(b))
	}
	return nil
}

// Estimate is an emissions result tagged with the tier that produced it.
type Estimate struct {
	Result EmissionsResult `json:"result"`
	Tier   Tier            `json:"tier"`
}

// SelectTier decides which tier handles a request. Each precondition is
// checked up front: a remote result wins, then a non-empty history, then mock.
func SelectTier(hasRemote bool, historyLen int) Tier {
	switch {
	case hasRemote:
		return TierRemote
	case historyLen > 0:
		return TierLocal
	default:
		return TierMock
	}
}
