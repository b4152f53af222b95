package room

import (
	"time"

	"headsup-server/pkg/protocol"
)

// Timing holds every delay used by the controllers
type Timing struct {
	// NextHandDelay is the pause between the end of a hand and the next deal
	NextHandDelay time.Duration

	// AllInNextHandDelay replaces NextHandDelay after an all-in runout
	AllInNextHandDelay time.Duration

	// SubscribeDelay is how long a joiner waits after subscribing before it asks for a snapshot
	SubscribeDelay time.Duration

	// Resend paces FULL_STATE rebroadcasts, ACTION resends, and snapshot requests
	Resend protocol.ResendPolicy

	// SnapshotRetry caps how long a joiner keeps asking for a snapshot
	SnapshotRetry time.Duration
}

// DefaultTiming returns the default timing
func DefaultTiming() Timing {
	return Timing{
		NextHandDelay:      time.Second * 3,
		AllInNextHandDelay: time.Second * 6,
		SubscribeDelay:     time.Millisecond * 500,
		Resend:             protocol.DefaultResendPolicy(),
		SnapshotRetry:      time.Second * 30,
	}
}

func (t Timing) nextHandDelay(runOut bool) time.Duration {
	if runOut {
		return t.AllInNextHandDelay
	}

	return t.NextHandDelay
}
