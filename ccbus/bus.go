// Package ccbus broadcasts parameter changes so every subsystem that shows or
// forwards parameter values (UI, MIDI feedback) sees the same state.
package ccbus

// Origin identifies who produced a change.
type Origin string

const (
	OriginScheduler Origin = "scheduler"
	OriginUI        Origin = "ui"
	OriginMIDI      Origin = "midi"
)

// Change is a single control value update.
type Change struct {
	ControlID string
	Value     float64
	Origin    Origin
}

// subscriberBuffer is large enough to absorb a full stop-cleanup burst.
const subscriberBuffer = 128

// Bus fans control changes out to every subscriber.
type Bus = Hub[Change]

func New() *Bus {
	return NewHub[Change](subscriberBuffer)
}
