package sequencer

import (
	"fmt"
	"math"
	"sort"

	"go-pattern/debug"
	"go-pattern/pattern"
)

// automationTailPad is how long a path holds its last value after the final point
const automationTailPad = 0.1

// Path is a piecewise-linear automation curve for one engine parameter.
// Times are seconds relative to the moment the path is sent.
type Path struct {
	Name   string
	Times  []float64
	Values []float64
}

func (p *Path) add(t, v float64) {
	p.Times = append(p.Times, t)
	p.Values = append(p.Values, v)
}

// Tail is where the path holds its final value
func (p Path) Tail() float64 {
	if len(p.Times) == 0 {
		return 0
	}
	return p.Times[len(p.Times)-1] + automationTailPad
}

func gateParam(slot int) string { return fmt.Sprintf("voice_gate_%d", slot) }
func freqParam(slot int) string { return fmt.Sprintf("voice_freq_%d", slot) }

// window is one scheduling step: a span of seconds since playback start and
// the cycle arc it covers.
type window struct {
	startSec      float64
	endSec        float64
	arc           pattern.Arc
	playbackStart float64 // engine time at which playback started
	tl            timeline
}

// buildAutomation turns the onset haps of a window into gate and frequency
// paths, one pair per slot that has events. now is the engine time at which
// the paths will be sent. Paths come back ordered by slot, gate before freq.
func buildAutomation(haps []pattern.Hap, w window, now float64, kit DrumKit) []Path {
	var groups [NumSlots][]pattern.Hap
	for _, h := range haps {
		slot, ok := ResolveSlot(h.Event)
		if !ok {
			continue
		}
		groups[slot] = append(groups[slot], h)
	}

	// The engine stamps paths relative to now, not to the window start
	offset := math.Max(0, w.playbackStart+w.startSec-now)

	var paths []Path
	for slot, group := range groups {
		if len(group) == 0 {
			continue
		}
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Arc.Start < group[j].Arc.Start
		})

		gate := Path{Name: gateParam(slot)}
		freq := Path{Name: freqParam(slot)}
		if offset > 0 {
			// Keep the voice silent until its cue. Frequency is never
			// pre-set: a jump to 0 Hz is audible.
			gate.add(offset, 0)
		}
		for _, pl := range slotPulses(group, w, offset, kit) {
			gate.add(pl.start, 1)
			gate.add(pl.end, 0)
			// Held step, not a ramp toward the next note
			if pl.hasFreq {
				freq.add(pl.start, pl.freq)
				freq.add(pl.end, pl.freq)
			}
		}
		paths = append(paths, gate)
		if len(freq.Times) > 0 {
			paths = append(paths, freq)
		}
	}
	return paths
}

type pulse struct {
	start, end float64
	freq       float64
	hasFreq    bool
}

// slotPulses converts the onset-sorted haps of one slot into pulses whose
// times never decrease. A pulse still sounding when the next one starts is
// cut off there; one starting at the same instant is replaced.
func slotPulses(group []pattern.Hap, w window, offset float64, kit DrumKit) []pulse {
	pulses := make([]pulse, 0, len(group))
	for _, h := range group {
		pl := pulse{
			start: w.tl.secondsAt(h.Arc.Start) - w.startSec + offset,
			end:   w.tl.secondsAt(h.Arc.End) - w.startSec + offset,
		}
		pl.freq, pl.hasFreq = eventFrequency(h.Event, kit)
		if n := len(pulses); n > 0 && pl.start < pulses[n-1].end {
			if pl.start <= pulses[n-1].start {
				pulses = pulses[:n-1]
			} else {
				pulses[n-1].end = pl.start
			}
		}
		pulses = append(pulses, pl)
	}
	return pulses
}

// sendAutomation hands each non-empty path to the engine
func sendAutomation(e Engine, paths []Path) {
	for _, p := range paths {
		if len(p.Times) == 0 {
			continue
		}
		e.SetParameterAutomation(p.Name, p.Times, p.Values, len(p.Times), p.Tail(), InterpLinear)
		debug.Log("automation", "%s points=%d tail=%.3f", p.Name, len(p.Times), p.Tail())
	}
}
