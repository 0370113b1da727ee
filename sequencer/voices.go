package sequencer

import (
	"math"
	"strings"

	"go-pattern/pattern"
)

// drumSlots routes well-known sample names to percussion slots
var drumSlots = map[string]int{
	"bd":    8,
	"kick":  8,
	"sn":    9,
	"sd":    9,
	"snare": 9,
	"hh":    10,
	"hat":   10,
	"oh":    10,
	"cp":    11,
	"clap":  11,
}

// ResolveSlot maps a timed event (gate, note, sample) onto an engine voice
// slot. ok is false for other event kinds and for anything that would land
// outside the slot range; such events are dropped.
func ResolveSlot(e pattern.Event) (slot int, ok bool) {
	switch ev := e.(type) {
	case pattern.Gate:
		slot = ev.Voice
	case pattern.Note:
		if ev.Channel < 0 {
			return -1, false
		}
		slot = FirstDrumSlot + ev.Channel%NumDrumSlots
	case pattern.Sample:
		slot = drumSlot(ev.Name, ev.N)
	default:
		return -1, false
	}
	if slot < 0 || slot >= NumSlots {
		return -1, false
	}
	return slot, true
}

func drumSlot(name string, n int) int {
	if slot, ok := drumSlots[strings.ToLower(name)]; ok {
		return slot
	}
	return FirstDrumSlot + ((n%NumDrumSlots)+NumDrumSlots)%NumDrumSlots
}

// MIDIToFreq converts a (possibly fractional) MIDI note number to Hz
func MIDIToFreq(note float64) float64 {
	return 440 * math.Pow(2, (note-69)/12)
}

// eventFrequency is the pitch held on a slot's frequency path while the event
// sounds. Gates have no pitch of their own.
func eventFrequency(e pattern.Event, kit DrumKit) (float64, bool) {
	switch ev := e.(type) {
	case pattern.Note:
		return MIDIToFreq(ev.Note), true
	case pattern.Sample:
		return kit.Frequency(ev.Name), true
	}
	return 0, false
}
