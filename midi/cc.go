package midi

import (
	"fmt"
	"math"
	"strings"
)

// CCMap assigns a MIDI controller number to each control ID
type CCMap map[string]uint8

// DefaultCCMap lays the engine's controls out on a generic controller
func DefaultCCMap() CCMap {
	m := CCMap{
		"vibrato":        1,
		"drive":          12,
		"distortion_mix": 13,
	}
	for i := 0; i < 12; i++ {
		m[fmt.Sprintf("voice_gate_%d", i)] = uint8(102 + i)
	}
	for v := 0; v < 8; v++ {
		m[fmt.Sprintf("voice_hold_%d", v)] = uint8(20 + v)
		m[fmt.Sprintf("voice_pan_%d", v)] = uint8(70 + v)
	}
	for q := 0; q < 2; q++ {
		m[fmt.Sprintf("quad_hold_%d", q)] = uint8(28 + q)
	}
	for l := 0; l < 2; l++ {
		m[fmt.Sprintf("delay_feedback_%d", l)] = uint8(14 + l)
		m[fmt.Sprintf("delay_mix_%d", l)] = uint8(16 + l)
		m[fmt.Sprintf("delay_time_%d", l)] = uint8(18 + l)
	}
	return m
}

// ccRange is the value span a control is scaled from; most are 0-1
type ccRange struct {
	lo, hi float64
}

var ranges = map[string]ccRange{
	"voice_pan_":  {-1, 1},
	"delay_time_": {0, 2},
	"voice_tune_": {-24, 24},
	"lfo_freq_":   {0, 20},
}

// ScaleCC maps a control value onto 0-127
func ScaleCC(controlID string, value float64) uint8 {
	r := ccRange{0, 1}
	for prefix, pr := range ranges {
		if strings.HasPrefix(controlID, prefix) {
			r = pr
			break
		}
	}
	if math.IsNaN(value) {
		return 0
	}
	norm := (value - r.lo) / (r.hi - r.lo)
	norm = min(max(norm, 0), 1)
	return uint8(math.Round(norm * 127))
}
