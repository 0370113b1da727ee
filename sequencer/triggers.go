package sequencer

import (
	"sync"
	"time"

	"go-pattern/ccbus"
	"go-pattern/pattern"
)

// Highlight durations
const (
	defaultHighlightMS = 250
	minSustainMS       = 500
	maxSustainMS       = 5000
)

// Trigger tells the editor to highlight the code that produced an event.
// Voice is the slot for gate/note/sample events, the voice (or quad) for
// per-voice parameters, and -1 for global parameters.
type Trigger struct {
	Voice      int                `json:"voice"`
	Locations  []pattern.Location `json:"locations"`
	DurationMS int                `json:"durationMs"`
}

// triggerEmitter fires triggers at their onset time. Delivery is best-effort:
// a slow or absent listener only loses highlights.
type triggerEmitter struct {
	out *ccbus.Hub[Trigger]

	mu      sync.Mutex
	pending map[int]*time.Timer
	nextID  int
}

func newTriggerEmitter(out *ccbus.Hub[Trigger]) *triggerEmitter {
	return &triggerEmitter{out: out, pending: make(map[int]*time.Timer)}
}

// emit schedules one trigger per hap; already-due ones go out immediately
func (te *triggerEmitter) emit(haps []pattern.Hap, w window, now float64) {
	for _, h := range haps {
		t := Trigger{
			Voice:      triggerVoice(h.Event),
			Locations:  h.Event.Locations(),
			DurationMS: highlightMS(h.Event, w.tl.cps),
		}
		fireAt := w.playbackStart + w.tl.secondsAt(h.Arc.Start)
		if delay := fireAt - now; delay > 0 {
			te.after(secondsToDuration(delay), t)
		} else {
			te.out.Publish(t)
		}
	}
}

func (te *triggerEmitter) after(d time.Duration, t Trigger) {
	te.mu.Lock()
	defer te.mu.Unlock()
	id := te.nextID
	te.nextID++
	te.pending[id] = time.AfterFunc(d, func() {
		te.mu.Lock()
		_, live := te.pending[id]
		delete(te.pending, id)
		te.mu.Unlock()
		if live {
			te.out.Publish(t)
		}
	})
}

// cancel drops every trigger that has not fired yet
func (te *triggerEmitter) cancel() {
	te.mu.Lock()
	defer te.mu.Unlock()
	for id, timer := range te.pending {
		timer.Stop()
		delete(te.pending, id)
	}
}

func (te *triggerEmitter) pendingCount() int {
	te.mu.Lock()
	defer te.mu.Unlock()
	return len(te.pending)
}

// highlightMS keeps sustained parameters lit for a whole cycle so they do
// not flicker; everything else flashes briefly.
func highlightMS(e pattern.Event, cps float64) int {
	switch e.(type) {
	case pattern.Hold, pattern.QuadHold:
		if cps <= 0 {
			return maxSustainMS
		}
		ms := int(1000 / cps)
		return min(max(ms, minSustainMS), maxSustainMS)
	}
	return defaultHighlightMS
}

func triggerVoice(e pattern.Event) int {
	if slot, ok := ResolveSlot(e); ok {
		return slot
	}
	switch ev := e.(type) {
	case pattern.Tune:
		return ev.Voice
	case pattern.Hold:
		return ev.Voice
	case pattern.QuadHold:
		return ev.Quad
	case pattern.EnvSpeed:
		return ev.Voice
	case pattern.Pan:
		return ev.Voice
	case pattern.FMSource:
		return ev.Voice
	case pattern.Sharpness:
		return ev.Voice
	}
	return -1
}

func secondsToDuration(sec float64) time.Duration {
	return time.Duration(sec * float64(time.Second))
}
