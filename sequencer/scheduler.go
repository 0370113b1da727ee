package sequencer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"go-pattern/ccbus"
	"go-pattern/debug"
	"go-pattern/pattern"
)

// Defaults
const (
	DefaultWindow        = 250 * time.Millisecond
	DefaultLookahead     = 100 * time.Millisecond
	DefaultBPM           = 120.0
	DefaultBeatsPerCycle = 4.0
	MinBPM               = 20.0
	MaxBPM               = 300.0

	clockJumpWindows = 2
)

var (
	ErrDisposed   = errors.New("scheduler disposed")
	ErrQueryPanic = errors.New("pattern query panicked")
)

// Option configures a Scheduler
type Option func(*options)

type options struct {
	window        time.Duration
	lookahead     time.Duration
	bpm           float64
	beatsPerCycle float64
	kit           DrumKit
	sleep         func(ctx context.Context, d time.Duration) error
	onWindow      func(pattern.Arc)
}

func defaultOptions() options {
	return options{
		window:        DefaultWindow,
		lookahead:     DefaultLookahead,
		bpm:           DefaultBPM,
		beatsPerCycle: DefaultBeatsPerCycle,
		kit:           GetKit(DefaultKit),
		sleep:         sleepContext,
	}
}

// WithWindow sets how much time each scheduling step covers
func WithWindow(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.window = d
		}
	}
}

// WithLookahead sets how early a window is dispatched before it starts
func WithLookahead(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.lookahead = d
		}
	}
}

// WithBPM sets the initial tempo
func WithBPM(bpm float64) Option {
	return func(o *options) {
		o.bpm = clampBPM(bpm)
	}
}

// WithBeatsPerCycle sets how many beats make one cycle (4 by default)
func WithBeatsPerCycle(n float64) Option {
	return func(o *options) {
		if n > 0 {
			o.beatsPerCycle = n
		}
	}
}

// WithKit selects the drum kit used to pitch percussion slots
func WithKit(kit DrumKit) Option {
	return func(o *options) {
		o.kit = kit
	}
}

type patternRef struct {
	p pattern.Pattern
}

// Scheduler turns a cyclic pattern into engine automation in fixed windows,
// a little ahead of the audio clock.
type Scheduler struct {
	engine Engine
	bus    *ccbus.Bus
	opts   options

	active atomic.Pointer[patternRef]
	state  atomic.Pointer[State]
	bpm    atomic.Uint64 // float64 bits

	states   *ccbus.Hub[State]
	triggers *ccbus.Hub[Trigger]
	emitter  *triggerEmitter

	mu       sync.Mutex // serializes Play/Stop/Dispose
	cancel   context.CancelFunc
	done     chan struct{}
	disposed bool
}

// New creates a stopped scheduler. Parameter changes are mirrored on bus.
func New(engine Engine, bus *ccbus.Bus, opts ...Option) *Scheduler {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if bus == nil {
		bus = ccbus.New()
	}
	s := &Scheduler{
		engine:   engine,
		bus:      bus,
		opts:     o,
		states:   ccbus.NewHub[State](16),
		triggers: ccbus.NewHub[Trigger](256),
	}
	s.emitter = newTriggerEmitter(s.triggers)
	s.bpm.Store(math.Float64bits(o.bpm))
	s.state.Store(&State{BPM: o.bpm, CPS: s.cpsFor(o.bpm)})
	return s
}

// Bus returns the control-change bus the scheduler publishes on
func (s *Scheduler) Bus() *ccbus.Bus {
	return s.bus
}

// SetPattern swaps the active pattern. The loop picks it up at the next
// window; a window in flight finishes with the pattern it started with.
// A nil pattern silences scheduling without stopping the clock.
func (s *Scheduler) SetPattern(p pattern.Pattern) {
	if p == nil {
		s.active.Store(nil)
		return
	}
	s.active.Store(&patternRef{p: p})
}

// Pattern returns the active pattern (nil if none)
func (s *Scheduler) Pattern() pattern.Pattern {
	if ref := s.active.Load(); ref != nil {
		return ref.p
	}
	return nil
}

// State returns the latest published snapshot
func (s *Scheduler) State() State {
	return *s.state.Load()
}

// WatchState returns a channel of state snapshots and a cancel function.
// Slow readers miss snapshots rather than stalling the loop.
func (s *Scheduler) WatchState() (<-chan State, func()) {
	return s.states.Subscribe()
}

// WatchTriggers returns a channel of highlight triggers and a cancel function
func (s *Scheduler) WatchTriggers() (<-chan Trigger, func()) {
	return s.triggers.Subscribe()
}

// BPM returns the current tempo
func (s *Scheduler) BPM() float64 {
	return math.Float64frombits(s.bpm.Load())
}

// SetBPM sets the tempo. Windows already dispatched keep their timing; the
// loop re-anchors the cycle timeline at the next window boundary.
func (s *Scheduler) SetBPM(bpm float64) {
	bpm = clampBPM(bpm)
	s.bpm.Store(math.Float64bits(bpm))
	cps := s.cpsFor(bpm)
	s.update(func(st State) State {
		st.BPM = bpm
		st.CPS = cps
		return st
	})
	debug.Log("tempo", "bpm=%.2f cps=%.4f", bpm, cps)
}

func (s *Scheduler) cpsFor(bpm float64) float64 {
	return bpm / 60 / s.opts.beatsPerCycle
}

func clampBPM(bpm float64) float64 {
	if math.IsNaN(bpm) || bpm < MinBPM {
		return MinBPM
	}
	if bpm > MaxBPM {
		return MaxBPM
	}
	return bpm
}

// update atomically replaces the published state and broadcasts it
func (s *Scheduler) update(fn func(State) State) State {
	for {
		old := s.state.Load()
		next := fn(*old)
		if s.state.CompareAndSwap(old, &next) {
			s.states.Publish(next)
			return next
		}
	}
}

// Play starts the scheduling loop. It is a no-op while already playing.
func (s *Scheduler) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		return ErrDisposed
	}
	if s.done != nil {
		return nil
	}

	bpm := s.BPM()
	st := s.update(func(State) State {
		return State{Playing: true, BPM: bpm, CPS: s.cpsFor(bpm), Session: uuid.New()}
	})

	if r, ok := s.engine.(Resumer); ok {
		r.Resume()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.run(ctx, s.done, st)

	debug.Log("transport", "play session=%s bpm=%.2f", st.Session, bpm)
	return nil
}

// Stop halts the loop and silences the engine. It always runs the full
// voice and effect reset, even when already stopped.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.halt()
}

// Dispose stops playback and closes every watch channel. Play fails afterwards.
func (s *Scheduler) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}
	s.halt()
	s.disposed = true
	s.states.Close()
	s.triggers.Close()
	debug.Log("transport", "disposed")
}

// halt must be called with s.mu held
func (s *Scheduler) halt() {
	if s.cancel != nil {
		s.cancel()
		<-s.done // loop exits between windows
		s.cancel = nil
		s.done = nil
	}
	s.emitter.cancel()
	s.silence()
	s.update(func(st State) State {
		st.Playing = false
		return st
	})
	debug.Log("transport", "stop")
}

// silence clears every automation path and zeroes gates, holds and effects so
// nothing is left sounding after a stop.
func (s *Scheduler) silence() {
	for slot := 0; slot < NumSlots; slot++ {
		s.engine.ClearParameterAutomation(gateParam(slot))
		s.engine.ClearParameterAutomation(freqParam(slot))
		s.engine.SetVoiceGate(slot, 0)
		s.mirror(gateParam(slot), 0)
	}
	for v := 0; v < NumVoices; v++ {
		s.engine.SetVoiceHold(v, 0)
		s.mirror(indexedID("voice_hold", v), 0)
	}
	for q := 0; q < NumQuads; q++ {
		s.engine.SetQuadHold(q, 0)
		s.mirror(indexedID("quad_hold", q), 0)
	}
	s.engine.SetDrive(0)
	s.mirror("drive", 0)
	s.engine.SetDistortionMix(0)
	s.mirror("distortion_mix", 0)
	s.engine.SetVibrato(0)
	s.mirror("vibrato", 0)
	for l := 0; l < NumDelayLines; l++ {
		s.engine.SetDelayFeedback(l, 0)
		s.mirror(indexedID("delay_feedback", l), 0)
		s.engine.SetDelayMix(l, 0)
		s.mirror(indexedID("delay_mix", l), 0)
	}
}

// run is the scheduling loop. Its only suspension point is the wait for the
// audio clock to come within lookahead of the next window.
func (s *Scheduler) run(ctx context.Context, done chan struct{}, st State) {
	defer close(done)

	windowLen := s.opts.window.Seconds()
	lookahead := s.opts.lookahead.Seconds()

	playbackStart := s.engine.CurrentTime()
	nextSchedule := playbackStart
	windowStart := 0.0
	bpm := st.BPM
	tl := timeline{cps: st.CPS}
	published := 0.0

	// Beyond this the engine clock is taken to have jumped, usually on a
	// /clock resync, rather than drifted.
	maxJump := clockJumpWindows * windowLen
	reanchor := func(drift float64) {
		debug.Warn("loop", "clock moved back %.3fs, re-anchoring", -drift)
		playbackStart += drift
		nextSchedule += drift
	}

	for {
		drift := s.engine.CurrentTime() + lookahead - nextSchedule
		if drift < -(windowLen + maxJump) {
			reanchor(drift)
			drift = 0
		}
		if drift < 0 {
			if err := s.opts.sleep(ctx, secondsToDuration(-drift)); err != nil {
				return
			}
			drift = s.engine.CurrentTime() + lookahead - nextSchedule
			if drift < -maxJump {
				reanchor(drift)
				drift = 0
			}
		}
		if ctx.Err() != nil {
			return
		}
		// Windows the clock already passed are dropped, not replayed late
		if late := drift - lookahead; late > maxJump {
			n := math.Ceil(late / windowLen)
			debug.Warn("loop", "clock jumped %.3fs ahead, skipping %.0f windows", late, n)
			nextSchedule += n * windowLen
			windowStart += n * windowLen
		}
		nextSchedule += windowLen

		if b := s.BPM(); b != bpm {
			bpm = b
			tl = tl.rebase(windowStart, s.cpsFor(b))
		}

		windowEnd := windowStart + windowLen
		w := window{
			startSec:      windowStart,
			endSec:        windowEnd,
			arc:           pattern.Arc{Start: tl.cycleAt(windowStart), End: tl.cycleAt(windowEnd)},
			playbackStart: playbackStart,
			tl:            tl,
		}

		// Published position follows the audio clock and never runs backwards
		elapsed := s.engine.CurrentTime() - playbackStart
		if c := tl.cycleAt(elapsed); c > published {
			published = c
		}
		pos := published
		s.update(func(st State) State {
			return st.withPosition(pos)
		})

		if ref := s.active.Load(); ref != nil {
			s.dispatchWindow(ref.p, w)
		}
		if s.opts.onWindow != nil {
			s.opts.onWindow(w.arc)
		}

		windowStart = windowEnd
	}
}

// dispatchWindow queries one window and sends its onsets to the engine and
// the trigger emitter. A failing query only costs this window.
func (s *Scheduler) dispatchWindow(p pattern.Pattern, w window) {
	haps, err := query(p, w.arc)
	if err != nil {
		debug.Warn("query", "window %s skipped: %v", w.arc, err)
		return
	}
	onsets := pattern.Onsets(haps, w.arc)
	if len(onsets) == 0 {
		return
	}

	now := s.engine.CurrentTime()
	sendAutomation(s.engine, buildAutomation(onsets, w, now, s.opts.kit))
	s.applyUntimed(onsets)
	s.emitter.emit(onsets, w, now)

	debug.LogEvery(16, "loop", "window %s onsets=%d", w.arc, len(onsets))
}

func query(p pattern.Pattern, arc pattern.Arc) (haps []pattern.Hap, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrQueryPanic, r)
		}
	}()
	return p.Query(arc)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
