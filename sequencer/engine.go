package sequencer

// Slot layout of the engine: 8 melodic/gate voices followed by 4 percussion slots.
const (
	NumVoices     = 8
	NumDrumSlots  = 4
	NumSlots      = NumVoices + NumDrumSlots
	FirstDrumSlot = NumVoices
	NumQuads      = NumVoices / 4
	NumDelayLines = 2
)

// Interpolation modes for SetParameterAutomation.
const (
	InterpStep   = 0
	InterpLinear = 1
)

// Engine is the synthesis engine the scheduler drives. Implementations must be
// safe for use from the scheduling goroutine and the caller of DispatchImmediate.
type Engine interface {
	// CurrentTime is the engine's monotonic audio clock in seconds.
	CurrentTime() float64

	// Automation paths are timestamped relative to the moment of the call.
	// The first count points of times/values are used; tailTime is where the
	// path holds its last value.
	SetParameterAutomation(name string, times, values []float64, count int, tailTime float64, mode int)
	ClearParameterAutomation(name string)

	// Immediate setters
	SetVoiceGate(voice int, value float64)
	SetVoiceHold(voice int, level float64)
	SetQuadHold(quad int, level float64)
	SetVoiceTune(voice int, semitones float64)
	SetVoiceEnvSpeed(voice int, speed float64)
	SetVoicePan(voice int, pan float64)
	SetVoiceFMSource(voice int, from int)
	SetVoiceSharpness(voice int, amount float64)
	SetDelayTime(line int, t float64)
	SetDelayFeedback(line int, amount float64)
	SetDelayMix(line int, amount float64)
	SetLFOFrequency(lfo int, hz float64)
	SetDrive(amount float64)
	SetDistortionMix(amount float64)
	SetVibrato(amount float64)
	SetControl(name string, value float64)
}

// Resumer is implemented by engines whose output can be paused (muted audio
// context, suspended server). Play asks them to resume.
type Resumer interface {
	Resume()
}
