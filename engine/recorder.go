package engine

import (
	"fmt"
	"sync"
	"time"

	"go-pattern/debug"
)

// Automation is one recorded SetParameterAutomation call
type Automation struct {
	Name   string
	Times  []float64
	Values []float64
	Count  int
	Tail   float64
	Mode   int
}

// Recorder is an engine that keeps every call in memory instead of making
// sound. It backs --dry-run and the scheduler tests.
type Recorder struct {
	clock func() float64

	mu          sync.Mutex
	automations []Automation
	cleared     []string
	params      map[string]float64
	calls       map[string]int
	resumes     int
}

// NewRecorder creates a recorder whose audio clock is clock
func NewRecorder(clock func() float64) *Recorder {
	return &Recorder{
		clock:  clock,
		params: make(map[string]float64),
		calls:  make(map[string]int),
	}
}

func (r *Recorder) CurrentTime() float64 {
	return r.clock()
}

func (r *Recorder) Resume() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resumes++
}

func (r *Recorder) SetParameterAutomation(name string, times, values []float64, count int, tailTime float64, mode int) {
	a := Automation{
		Name:   name,
		Times:  append([]float64(nil), times[:count]...),
		Values: append([]float64(nil), values[:count]...),
		Count:  count,
		Tail:   tailTime,
		Mode:   mode,
	}
	r.mu.Lock()
	r.automations = append(r.automations, a)
	r.calls["SetParameterAutomation"]++
	r.mu.Unlock()
	debug.Log("engine", "automation %s %v -> %v", name, a.Times, a.Values)
}

func (r *Recorder) ClearParameterAutomation(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cleared = append(r.cleared, name)
	r.calls["ClearParameterAutomation"]++
}

func (r *Recorder) set(method, key string, value float64) {
	r.mu.Lock()
	r.params[key] = value
	r.calls[method]++
	r.mu.Unlock()
	debug.Log("engine", "%s %s=%.3f", method, key, value)
}

func indexed(prefix string, i int) string {
	return fmt.Sprintf("%s_%d", prefix, i)
}

func (r *Recorder) SetVoiceGate(voice int, value float64) {
	r.set("SetVoiceGate", indexed("voice_gate", voice), value)
}

func (r *Recorder) SetVoiceHold(voice int, level float64) {
	r.set("SetVoiceHold", indexed("voice_hold", voice), level)
}

func (r *Recorder) SetQuadHold(quad int, level float64) {
	r.set("SetQuadHold", indexed("quad_hold", quad), level)
}

func (r *Recorder) SetVoiceTune(voice int, semitones float64) {
	r.set("SetVoiceTune", indexed("voice_tune", voice), semitones)
}

func (r *Recorder) SetVoiceEnvSpeed(voice int, speed float64) {
	r.set("SetVoiceEnvSpeed", indexed("voice_env", voice), speed)
}

func (r *Recorder) SetVoicePan(voice int, pan float64) {
	r.set("SetVoicePan", indexed("voice_pan", voice), pan)
}

func (r *Recorder) SetVoiceFMSource(voice int, from int) {
	r.set("SetVoiceFMSource", indexed("voice_fm", voice), float64(from))
}

func (r *Recorder) SetVoiceSharpness(voice int, amount float64) {
	r.set("SetVoiceSharpness", indexed("voice_sharpness", voice), amount)
}

func (r *Recorder) SetDelayTime(line int, t float64) {
	r.set("SetDelayTime", indexed("delay_time", line), t)
}

func (r *Recorder) SetDelayFeedback(line int, amount float64) {
	r.set("SetDelayFeedback", indexed("delay_feedback", line), amount)
}

func (r *Recorder) SetDelayMix(line int, amount float64) {
	r.set("SetDelayMix", indexed("delay_mix", line), amount)
}

func (r *Recorder) SetLFOFrequency(lfo int, hz float64) {
	r.set("SetLFOFrequency", indexed("lfo_freq", lfo), hz)
}

func (r *Recorder) SetDrive(amount float64) {
	r.set("SetDrive", "drive", amount)
}

func (r *Recorder) SetDistortionMix(amount float64) {
	r.set("SetDistortionMix", "distortion_mix", amount)
}

func (r *Recorder) SetVibrato(amount float64) {
	r.set("SetVibrato", "vibrato", amount)
}

func (r *Recorder) SetControl(name string, value float64) {
	r.set("SetControl", "control_"+name, value)
}

// Automations returns a copy of every recorded automation call
func (r *Recorder) Automations() []Automation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Automation(nil), r.automations...)
}

// Cleared returns the names passed to ClearParameterAutomation, in order
func (r *Recorder) Cleared() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.cleared...)
}

// Param returns the last value set for a parameter key such as "drive" or "voice_gate_3"
func (r *Recorder) Param(key string) (float64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.params[key]
	return v, ok
}

// Calls returns how many times a method was called
func (r *Recorder) Calls(method string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[method]
}

// Resumes returns how many times Resume was called
func (r *Recorder) Resumes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resumes
}

// Reset forgets everything recorded so far
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.automations = nil
	r.cleared = nil
	r.params = make(map[string]float64)
	r.calls = make(map[string]int)
	r.resumes = 0
}

// ManualClock is an audio clock that only moves when told to
type ManualClock struct {
	mu  sync.Mutex
	now float64
}

func (c *ManualClock) Now() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *ManualClock) Set(t float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *ManualClock) Advance(d float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += d
}

// WallClock returns a clock counting seconds from the moment it is created
func WallClock() func() float64 {
	start := time.Now()
	return func() float64 {
		return time.Since(start).Seconds()
	}
}
