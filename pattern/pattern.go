package pattern

import "fmt"

// Arc is a half-open span [Start, End) measured in cycles.
type Arc struct {
	Start float64
	End   float64
}

// Contains reports whether t lies inside the arc.
func (a Arc) Contains(t float64) bool {
	return t >= a.Start && t < a.End
}

// Intersects reports whether the two arcs overlap.
func (a Arc) Intersects(b Arc) bool {
	return a.Start < b.End && b.Start < a.End
}

func (a Arc) String() string {
	return fmt.Sprintf("[%.4f, %.4f)", a.Start, a.End)
}

// Hap is an event placed on the cycle timeline.
type Hap struct {
	Event Event
	Arc   Arc
}

// HasOnsetIn reports whether the hap starts inside window. Continuations of
// events that began in an earlier window do not have an onset.
func (h Hap) HasOnsetIn(window Arc) bool {
	return window.Contains(h.Arc.Start)
}

// Pattern is anything that can be asked which events intersect an arc.
// Query must not retain or mutate the returned slice after returning.
type Pattern interface {
	Query(arc Arc) ([]Hap, error)
}

// Func adapts a plain function to Pattern.
type Func func(arc Arc) ([]Hap, error)

func (f Func) Query(arc Arc) ([]Hap, error) {
	return f(arc)
}

// Onsets filters haps down to those starting inside window, preserving order.
func Onsets(haps []Hap, window Arc) []Hap {
	out := haps[:0:0]
	for _, h := range haps {
		if h.HasOnsetIn(window) {
			out = append(out, h)
		}
	}
	return out
}
