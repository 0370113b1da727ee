package sequencer

import (
	"errors"
	"fmt"
	"sort"

	"go-pattern/ccbus"
	"go-pattern/debug"
	"go-pattern/pattern"
)

var (
	// ErrTimedEvent is returned for gate, note and sample events, which only
	// make sense on the automation timeline.
	ErrTimedEvent = errors.New("timed event cannot be dispatched immediately")
	ErrNilEvent   = errors.New("nil event")
)

// DispatchImmediate applies a single control event to the engine right now
// and mirrors it on the control-change bus. No automation is involved.
func (s *Scheduler) DispatchImmediate(e pattern.Event) error {
	if e == nil {
		return ErrNilEvent
	}
	if !s.apply(e) {
		return fmt.Errorf("%w: %T", ErrTimedEvent, e)
	}
	return nil
}

// applyUntimed runs every non-timed event of a window through the dispatch
// table in onset order.
func (s *Scheduler) applyUntimed(haps []pattern.Hap) {
	var untimed []pattern.Hap
	for _, h := range haps {
		if isTimedKind(h.Event) {
			continue
		}
		untimed = append(untimed, h)
	}
	sort.SliceStable(untimed, func(i, j int) bool {
		return untimed[i].Arc.Start < untimed[j].Arc.Start
	})
	for _, h := range untimed {
		s.apply(h.Event)
	}
}

func isTimedKind(e pattern.Event) bool {
	switch e.(type) {
	case pattern.Gate, pattern.Note, pattern.Sample:
		return true
	}
	return false
}

// apply is the dispatch table shared by DispatchImmediate and the windowed
// path. It reports false for timed kinds, which it does not handle.
func (s *Scheduler) apply(e pattern.Event) bool {
	switch ev := e.(type) {
	case pattern.Gate, pattern.Note, pattern.Sample:
		return false
	case pattern.Tune:
		s.engine.SetVoiceTune(ev.Voice, ev.Semitones)
		s.mirror(indexedID("voice_tune", ev.Voice), ev.Semitones)
	case pattern.Hold:
		s.engine.SetVoiceHold(ev.Voice, ev.Level)
		s.mirror(indexedID("voice_hold", ev.Voice), ev.Level)
	case pattern.QuadHold:
		s.engine.SetQuadHold(ev.Quad, ev.Level)
		s.mirror(indexedID("quad_hold", ev.Quad), ev.Level)
	case pattern.EnvSpeed:
		s.engine.SetVoiceEnvSpeed(ev.Voice, ev.Speed)
		s.mirror(indexedID("voice_env", ev.Voice), ev.Speed)
	case pattern.DelayTime:
		s.engine.SetDelayTime(ev.Line, ev.Time)
		s.mirror(indexedID("delay_time", ev.Line), ev.Time)
	case pattern.DelayFeedback:
		s.engine.SetDelayFeedback(ev.Line, ev.Amount)
		s.mirror(indexedID("delay_feedback", ev.Line), ev.Amount)
	case pattern.DelayMix:
		s.engine.SetDelayMix(ev.Line, ev.Amount)
		s.mirror(indexedID("delay_mix", ev.Line), ev.Amount)
	case pattern.LFOFreq:
		s.engine.SetLFOFrequency(ev.LFO, ev.Hz)
		s.mirror(indexedID("lfo_freq", ev.LFO), ev.Hz)
	case pattern.Drive:
		s.engine.SetDrive(ev.Amount)
		s.mirror("drive", ev.Amount)
	case pattern.DistortionMix:
		s.engine.SetDistortionMix(ev.Amount)
		s.mirror("distortion_mix", ev.Amount)
	case pattern.Vibrato:
		s.engine.SetVibrato(ev.Amount)
		s.mirror("vibrato", ev.Amount)
	case pattern.Pan:
		s.engine.SetVoicePan(ev.Voice, ev.Pan)
		s.mirror(indexedID("voice_pan", ev.Voice), ev.Pan)
	case pattern.FMSource:
		s.engine.SetVoiceFMSource(ev.Voice, ev.From)
		s.mirror(indexedID("voice_fm", ev.Voice), float64(ev.From))
	case pattern.Sharpness:
		s.engine.SetVoiceSharpness(ev.Voice, ev.Amount)
		s.mirror(indexedID("voice_sharpness", ev.Voice), ev.Amount)
	case pattern.Control:
		s.engine.SetControl(ev.Name, ev.Value)
		s.mirror("control_"+ev.Name, ev.Value)
	default:
		debug.Warn("dispatch", "unhandled event type %T", e)
		return false
	}
	return true
}

// mirror publishes a parameter change so UI and MIDI feedback stay in step
func (s *Scheduler) mirror(controlID string, value float64) {
	s.bus.Publish(ccbus.Change{ControlID: controlID, Value: value, Origin: ccbus.OriginScheduler})
}

func indexedID(prefix string, i int) string {
	return fmt.Sprintf("%s_%d", prefix, i)
}
