package sequencer

import (
	"math"

	"github.com/google/uuid"
)

// State is a published snapshot of the scheduler. Snapshots are immutable:
// every update replaces the whole value.
type State struct {
	Playing       bool      `json:"playing"`
	Cycle         int64     `json:"cycle"`
	CyclePosition float64   `json:"cyclePosition"` // always in [0,1)
	BPM           float64   `json:"bpm"`
	CPS           float64   `json:"cps"`
	Session       uuid.UUID `json:"session"` // new for every Play
}

// Position returns cycle + position as one number
func (s State) Position() float64 {
	return float64(s.Cycle) + s.CyclePosition
}

// withPosition splits an absolute cycle count into Cycle and CyclePosition
func (s State) withPosition(cycle float64) State {
	whole := math.Floor(cycle)
	frac := cycle - whole
	if frac >= 1 || frac < 0 {
		frac = 0
	}
	s.Cycle = int64(whole)
	s.CyclePosition = frac
	return s
}

// timeline maps seconds since playback start onto cycles. A tempo change
// re-anchors it at a window boundary so both sides agree on that point.
type timeline struct {
	anchorSec   float64
	anchorCycle float64
	cps         float64
}

func (t timeline) cycleAt(sec float64) float64 {
	return t.anchorCycle + (sec-t.anchorSec)*t.cps
}

func (t timeline) secondsAt(cycle float64) float64 {
	return t.anchorSec + (cycle-t.anchorCycle)/t.cps
}

func (t timeline) rebase(sec, cps float64) timeline {
	return timeline{anchorSec: sec, anchorCycle: t.cycleAt(sec), cps: cps}
}
