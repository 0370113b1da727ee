package midi

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"go-pattern/ccbus"
)

type cc struct {
	channel, controller, value uint8
}

type capture struct {
	mu  sync.Mutex
	ccs []cc
	err error
}

func (c *capture) send(msg gomidi.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	var got cc
	if msg.GetControlChange(&got.channel, &got.controller, &got.value) {
		c.ccs = append(c.ccs, got)
	}
	return nil
}

func (c *capture) sent() []cc {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]cc(nil), c.ccs...)
}

type fakeOut struct {
	name string
	open bool
}

func (f *fakeOut) Open() error             { f.open = true; return nil }
func (f *fakeOut) Close() error            { f.open = false; return nil }
func (f *fakeOut) IsOpen() bool            { return f.open }
func (f *fakeOut) Number() int             { return 0 }
func (f *fakeOut) String() string          { return f.name }
func (f *fakeOut) Underlying() interface{} { return nil }
func (f *fakeOut) Send([]byte) error       { return nil }

func TestApplySendsMappedControls(t *testing.T) {
	c := &capture{}
	f := NewFeedback(c.send, 2, nil)

	assert.True(t, f.Apply(ccbus.Change{ControlID: "drive", Value: 1, Origin: ccbus.OriginScheduler}))
	assert.True(t, f.Apply(ccbus.Change{ControlID: "voice_gate_11", Value: 1, Origin: ccbus.OriginUI}))
	assert.True(t, f.Apply(ccbus.Change{ControlID: "voice_pan_0", Value: 0, Origin: ccbus.OriginScheduler}))

	assert.Equal(t, []cc{{2, 12, 127}, {2, 113, 127}, {2, 70, 64}}, c.sent())
}

func TestApplySkips(t *testing.T) {
	c := &capture{}
	f := NewFeedback(c.send, 0, nil)

	assert.False(t, f.Apply(ccbus.Change{ControlID: "drive", Value: 1, Origin: ccbus.OriginMIDI}))
	assert.False(t, f.Apply(ccbus.Change{ControlID: "control_cutoff", Value: 1}))

	assert.True(t, f.Apply(ccbus.Change{ControlID: "vibrato", Value: 0.5}))
	assert.False(t, f.Apply(ccbus.Change{ControlID: "vibrato", Value: 0.5}))
	assert.Len(t, c.sent(), 1)

	c.err = errors.New("unplugged")
	assert.False(t, f.Apply(ccbus.Change{ControlID: "vibrato", Value: 0.1}))

	f.SetSender(nil)
	assert.False(t, f.Apply(ccbus.Change{ControlID: "vibrato", Value: 0.9}))
}

func TestScaleCC(t *testing.T) {
	assert.Equal(t, uint8(0), ScaleCC("drive", 0))
	assert.Equal(t, uint8(127), ScaleCC("drive", 1))
	assert.Equal(t, uint8(127), ScaleCC("drive", 4))
	assert.Equal(t, uint8(0), ScaleCC("drive", -1))
	assert.Equal(t, uint8(0), ScaleCC("voice_pan_3", -1))
	assert.Equal(t, uint8(127), ScaleCC("voice_pan_3", 1))
	assert.Equal(t, uint8(64), ScaleCC("delay_time_0", 1))
}

func TestDefaultCCMapIsUnique(t *testing.T) {
	seen := map[uint8]string{}
	for id, n := range DefaultCCMap() {
		prev, dup := seen[n]
		assert.False(t, dup, "%s and %s share CC %d", id, prev, n)
		seen[n] = id
		assert.Less(t, n, uint8(128))
	}
	assert.Contains(t, DefaultCCMap(), "voice_gate_0")
	assert.Contains(t, DefaultCCMap(), "quad_hold_1")
}

func TestRunAppliesUntilClosed(t *testing.T) {
	c := &capture{}
	f := NewFeedback(c.send, 0, nil)
	bus := ccbus.New()
	changes, cancel := bus.Subscribe()

	done := make(chan error, 1)
	go func() { done <- f.Run(context.Background(), changes) }()

	bus.Publish(ccbus.Change{ControlID: "drive", Value: 0.5})
	bus.Publish(ccbus.Change{ControlID: "delay_mix_1", Value: 1})
	require.Eventually(t, func() bool { return len(c.sent()) == 2 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}
}

func TestFollowReconnects(t *testing.T) {
	c := &capture{}
	f := NewFeedback(nil, 0, CCMap{"drive": 12, "voice_pan_0": 70})
	f.open = func(drivers.Out) (func(gomidi.Message) error, error) { return c.send, nil }

	events := make(chan PortEvent, 4)
	events <- PortEvent{Type: PortConnected, Port: &fakeOut{name: "Faderfox"}, Name: "Faderfox"}
	events <- PortEvent{Type: PortDisconnected, Name: "Faderfox"}
	close(events)

	f.Follow(context.Background(), events)

	// Connecting resets every mapped control to its lowest value
	assert.ElementsMatch(t, []cc{{0, 12, 0}, {0, 70, 0}}, c.sent())
	assert.False(t, f.Apply(ccbus.Change{ControlID: "drive", Value: 1}))
}

func TestMatchPort(t *testing.T) {
	outs := []drivers.Out{&fakeOut{name: "IAC Driver Bus 1"}, &fakeOut{name: "Faderfox EC4"}}

	assert.Equal(t, "Faderfox EC4", matchPort(outs, "faderfox").String())
	assert.Nil(t, matchPort(outs, "launchpad"))
	assert.Nil(t, matchPort(outs, ""))
}

func TestScanTimeout(t *testing.T) {
	block := make(chan struct{})
	defer close(block)

	_, err := scanOutPorts(func() []drivers.Out { <-block; return nil }, 20*time.Millisecond)
	assert.ErrorIs(t, err, ErrScanTimeout)
}

func TestMonitorEmitsTransitions(t *testing.T) {
	var mu sync.Mutex
	ports := []drivers.Out{&fakeOut{name: "Faderfox EC4"}}
	pm := NewPortMonitor("faderfox")
	pm.pollRate = 10 * time.Millisecond
	pm.list = func() []drivers.Out {
		mu.Lock()
		defer mu.Unlock()
		return ports
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go pm.Run(ctx)

	ev := <-pm.Events()
	assert.Equal(t, PortConnected, ev.Type)
	assert.Equal(t, "Faderfox EC4", ev.Name)

	mu.Lock()
	ports = nil
	mu.Unlock()

	select {
	case ev = <-pm.Events():
		assert.Equal(t, PortDisconnected, ev.Type)
	case <-time.After(time.Second):
		t.Fatal("no disconnect event")
	}

	cancel()
	assert.Eventually(t, func() bool {
		_, open := <-pm.Events()
		return !open
	}, time.Second, 5*time.Millisecond)
}

func TestRunResetsControllersOnShutdown(t *testing.T) {
	c := &capture{}
	f := NewFeedback(c.send, 0, CCMap{"drive": 12, "voice_pan_0": 70})
	bus := ccbus.New()
	changes, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.Run(ctx, changes) }()

	bus.Publish(ccbus.Change{ControlID: "drive", Value: 1})
	bus.Publish(ccbus.Change{ControlID: "voice_pan_0", Value: 1})
	require.Eventually(t, func() bool { return len(c.sent()) == 2 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}
	assert.ElementsMatch(t, []cc{{0, 12, 0}, {0, 70, 0}}, c.sent()[2:])
}
