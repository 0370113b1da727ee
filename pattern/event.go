package pattern

// Location is a span of the authored pattern text (byte offsets, End exclusive).
// Only used to correlate triggers with editor highlights.
type Location struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Event is one musical occurrence. The variant set is closed: only types in
// this package implement it, so dispatch sites can switch exhaustively.
type Event interface {
	Locations() []Location
	withLocations(locs []Location) Event
}

// Source holds the provenance shared by every event variant.
type Source struct {
	Locs []Location `json:"locations,omitempty"`
}

// Locations returns the source spans. Callers must not modify the slice.
func (s Source) Locations() []Location { return s.Locs }

// WithLocation returns a copy of e with loc appended to its locations.
func WithLocation(e Event, loc Location) Event {
	old := e.Locations()
	locs := make([]Location, len(old), len(old)+1)
	copy(locs, old)
	return e.withLocations(append(locs, loc))
}

// ShiftLocations returns a copy of e with every location moved by offset.
// Used when pattern sources are spliced together.
func ShiftLocations(e Event, offset int) Event {
	old := e.Locations()
	if len(old) == 0 {
		return e.withLocations(nil)
	}
	locs := make([]Location, len(old))
	for i, l := range old {
		locs[i] = Location{Start: l.Start + offset, End: l.End + offset}
	}
	return e.withLocations(locs)
}

// Gate pulses a voice slot directly.
type Gate struct {
	Source
	Voice int
}

// Note is a melodic note on a channel. Note is a MIDI note number and may be fractional.
type Note struct {
	Source
	Channel int
	Note    float64
}

// Sample triggers a drum sample by name; N selects a variant.
type Sample struct {
	Source
	Name string
	N    int
}

// Tune detunes a voice in semitones.
type Tune struct {
	Source
	Voice     int
	Semitones float64
}

// Hold sets a voice's sustain level (0-1).
type Hold struct {
	Source
	Voice int
	Level float64
}

// QuadHold sets the sustain level (0-1) for a group of four voices.
type QuadHold struct {
	Source
	Quad  int
	Level float64
}

// EnvSpeed sets a voice's envelope speed (0-1).
type EnvSpeed struct {
	Source
	Voice int
	Speed float64
}

// DelayTime sets a delay line's time (0-1).
type DelayTime struct {
	Source
	Line int
	Time float64
}

// DelayFeedback sets a delay line's feedback (0-1).
type DelayFeedback struct {
	Source
	Line   int
	Amount float64
}

// DelayMix sets a delay line's wet mix (0-1).
type DelayMix struct {
	Source
	Line   int
	Amount float64
}

// LFOFreq sets an LFO's rate in Hz.
type LFOFreq struct {
	Source
	LFO int
	Hz  float64
}

// Drive sets the global distortion drive (0-1).
type Drive struct {
	Source
	Amount float64
}

// DistortionMix sets the global distortion wet mix (0-1).
type DistortionMix struct {
	Source
	Amount float64
}

// Vibrato sets the global vibrato depth (0-1).
type Vibrato struct {
	Source
	Amount float64
}

// Pan places a voice in the stereo field (-1 left, 1 right).
type Pan struct {
	Source
	Voice int
	Pan   float64
}

// FMSource selects which voice (From) frequency-modulates Voice.
type FMSource struct {
	Source
	Voice int
	From  int
}

// Sharpness sets a voice's waveform sharpness (0-1).
type Sharpness struct {
	Source
	Voice  int
	Amount float64
}

// Control is a generic named parameter.
type Control struct {
	Source
	Name  string
	Value float64
}

func (e Gate) withLocations(l []Location) Event          { e.Locs = l; return e }
func (e Note) withLocations(l []Location) Event          { e.Locs = l; return e }
func (e Sample) withLocations(l []Location) Event        { e.Locs = l; return e }
func (e Tune) withLocations(l []Location) Event          { e.Locs = l; return e }
func (e Hold) withLocations(l []Location) Event          { e.Locs = l; return e }
func (e QuadHold) withLocations(l []Location) Event      { e.Locs = l; return e }
func (e EnvSpeed) withLocations(l []Location) Event      { e.Locs = l; return e }
func (e DelayTime) withLocations(l []Location) Event     { e.Locs = l; return e }
func (e DelayFeedback) withLocations(l []Location) Event { e.Locs = l; return e }
func (e DelayMix) withLocations(l []Location) Event      { e.Locs = l; return e }
func (e LFOFreq) withLocations(l []Location) Event       { e.Locs = l; return e }
func (e Drive) withLocations(l []Location) Event         { e.Locs = l; return e }
func (e DistortionMix) withLocations(l []Location) Event { e.Locs = l; return e }
func (e Vibrato) withLocations(l []Location) Event       { e.Locs = l; return e }
func (e Pan) withLocations(l []Location) Event           { e.Locs = l; return e }
func (e FMSource) withLocations(l []Location) Event      { e.Locs = l; return e }
func (e Sharpness) withLocations(l []Location) Event     { e.Locs = l; return e }
func (e Control) withLocations(l []Location) Event       { e.Locs = l; return e }
