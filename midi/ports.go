package midi

import (
	"context"
	"errors"
	"strings"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"go-pattern/debug"
)

var (
	ErrPortNotFound = errors.New("midi output port not found")
	ErrScanTimeout  = errors.New("midi port scan timed out")
)

// scanTimeout bounds a port listing; CoreMIDI can hang
const scanTimeout = 3 * time.Second

// scanOutPorts lists output ports, giving up after timeout
func scanOutPorts(list func() []drivers.Out, timeout time.Duration) ([]drivers.Out, error) {
	ch := make(chan []drivers.Out, 1)
	go func() {
		ch <- list()
	}()

	select {
	case outs := <-ch:
		return outs, nil
	case <-time.After(timeout):
		// User needs to run: sudo killall coreaudiod midiserver
		return nil, ErrScanTimeout
	}
}

// OutPortNames lists the names of the available MIDI output ports
func OutPortNames() ([]string, error) {
	outs, err := scanOutPorts(getOutPorts, scanTimeout)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(outs))
	for i, out := range outs {
		names[i] = out.String()
	}
	return names, nil
}

// FindOutPort returns the first output port whose name contains name (case-insensitive)
func FindOutPort(name string) (drivers.Out, error) {
	outs, err := scanOutPorts(getOutPorts, scanTimeout)
	if err != nil {
		return nil, err
	}
	if out := matchPort(outs, name); out != nil {
		return out, nil
	}
	return nil, ErrPortNotFound
}

func matchPort(outs []drivers.Out, name string) drivers.Out {
	want := strings.ToLower(name)
	if want == "" {
		return nil
	}
	for _, out := range outs {
		if strings.Contains(strings.ToLower(out.String()), want) {
			return out
		}
	}
	return nil
}

// PortEvent is emitted when the watched output port appears or disappears
type PortEvent struct {
	Type PortEventType
	Port drivers.Out
	Name string
}

type PortEventType int

const (
	PortConnected PortEventType = iota
	PortDisconnected
)

// PortMonitor handles hot-plug detection of one MIDI output port
type PortMonitor struct {
	name     string
	list     func() []drivers.Out
	pollRate time.Duration
	timeout  time.Duration
	events   chan PortEvent
	current  string // name of the connected port, "" if none
}

// NewPortMonitor watches for an output port whose name contains name
func NewPortMonitor(name string) *PortMonitor {
	return &PortMonitor{
		name:     name,
		list:     getOutPorts,
		pollRate: time.Second,
		timeout:  scanTimeout,
		events:   make(chan PortEvent, 16),
	}
}

// Events returns a channel of connect/disconnect events
func (pm *PortMonitor) Events() <-chan PortEvent {
	return pm.events
}

// Run starts the polling loop (blocking - run in goroutine)
func (pm *PortMonitor) Run(ctx context.Context) {
	ticker := time.NewTicker(pm.pollRate)
	defer ticker.Stop()
	defer close(pm.events)

	// Initial scan
	pm.scan(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pm.scan(ctx)
		}
	}
}

func (pm *PortMonitor) scan(ctx context.Context) {
	outs, err := scanOutPorts(pm.list, pm.timeout)
	if err != nil {
		// Skip this scan
		debug.Log("midi", "scan: %v", err)
		return
	}

	out := matchPort(outs, pm.name)
	var ev PortEvent
	switch {
	case out != nil && out.String() != pm.current:
		pm.current = out.String()
		ev = PortEvent{Type: PortConnected, Port: out, Name: pm.current}
	case out == nil && pm.current != "":
		ev = PortEvent{Type: PortDisconnected, Name: pm.current}
		pm.current = ""
	default:
		return
	}

	debug.Log("midi", "port %s connected=%v", ev.Name, ev.Type == PortConnected)
	select {
	case pm.events <- ev:
	case <-ctx.Done():
	}
}

// getOutPorts adapts gomidi.GetOutPorts to the plain slice type used here.
func getOutPorts() []drivers.Out { return gomidi.GetOutPorts() }
