package midi

import (
	"context"
	"strings"
	"sync"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"go-pattern/ccbus"
	"go-pattern/debug"
)

// Feedback mirrors control changes onto a MIDI output as CC messages, so a
// controller with motorized faders or LED rings follows the pattern.
type Feedback struct {
	channel uint8
	ccs     CCMap
	open    func(drivers.Out) (func(gomidi.Message) error, error)

	mu   sync.Mutex
	send func(gomidi.Message) error
	last map[uint8]uint8
}

// NewFeedback creates a feedback sender. send may be nil until a port connects.
func NewFeedback(send func(gomidi.Message) error, channel uint8, ccs CCMap) *Feedback {
	if ccs == nil {
		ccs = DefaultCCMap()
	}
	return &Feedback{
		channel: channel & 0x0F,
		ccs:     ccs,
		open:    gomidi.SendTo,
		send:    send,
		last:    make(map[uint8]uint8),
	}
}

// OpenFeedback connects feedback to the first output port matching portName
func OpenFeedback(portName string, channel uint8) (*Feedback, error) {
	out, err := FindOutPort(portName)
	if err != nil {
		return nil, err
	}
	send, err := gomidi.SendTo(out)
	if err != nil {
		return nil, err
	}
	return NewFeedback(send, channel, nil), nil
}

// SetSender swaps the output (nil disconnects) and forgets what was sent
func (f *Feedback) SetSender(send func(gomidi.Message) error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.send = send
	f.last = make(map[uint8]uint8)
}

// Apply sends one change. It reports whether a message went out: unmapped
// controls, changes that came from MIDI and repeated values are skipped.
func (f *Feedback) Apply(c ccbus.Change) bool {
	if c.Origin == ccbus.OriginMIDI {
		return false
	}
	cc, ok := f.ccs[c.ControlID]
	if !ok {
		return false
	}
	value := ScaleCC(c.ControlID, c.Value)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.send == nil {
		return false
	}
	if prev, seen := f.last[cc]; seen && prev == value {
		return false
	}
	if err := f.send(gomidi.ControlChange(f.channel, cc, value)); err != nil {
		debug.LogEvery(50, "midi", "cc %d send failed: %v", cc, err)
		return false
	}
	f.last[cc] = value
	return true
}

// Reset zeroes every mapped controller
func (f *Feedback) Reset() {
	for id := range f.ccs {
		f.Apply(ccbus.Change{ControlID: id, Value: resetValue(id), Origin: ccbus.OriginScheduler})
	}
}

// resetValue is the control value that scales to CC 0
func resetValue(controlID string) float64 {
	for prefix, r := range ranges {
		if strings.HasPrefix(controlID, prefix) {
			return r.lo
		}
	}
	return 0
}

// Run applies changes until ctx is done or the channel closes. On ctx done it
// flushes what is already queued, then resets every controller.
func (f *Feedback) Run(ctx context.Context, changes <-chan ccbus.Change) error {
	for {
		select {
		case <-ctx.Done():
			f.drain(changes)
			f.Reset()
			debug.Log("midi", "feedback reset on shutdown")
			return nil
		case c, ok := <-changes:
			if !ok {
				return nil
			}
			f.Apply(c)
		}
	}
}

func (f *Feedback) drain(changes <-chan ccbus.Change) {
	for {
		select {
		case c, ok := <-changes:
			if !ok {
				return
			}
			f.Apply(c)
		default:
			return
		}
	}
}

// Follow reopens the output whenever the monitor reports the port coming back
func (f *Feedback) Follow(ctx context.Context, events <-chan PortEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			switch ev.Type {
			case PortConnected:
				send, err := f.open(ev.Port)
				if err != nil {
					debug.Warn("midi", "open %s: %v", ev.Name, err)
					continue
				}
				f.SetSender(send)
				f.Reset()
			case PortDisconnected:
				f.SetSender(nil)
			}
		}
	}
}
