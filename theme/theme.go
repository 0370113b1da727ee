package theme

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	Palette *Palette
	Symbols Symbols
}

type Symbols struct {
	// Voice lights
	Lit     rune // ● flashing on a trigger
	Sustain rune // ◉ held parameter
	Unlit   rune // ○ idle

	// Transport
	Playing rune // ▶
	Stopped rune // ■
}

func New(palette *Palette) *Theme {
	if palette == nil || len(palette.Colors) == 0 {
		palette = Builtin()
	}
	return &Theme{
		Palette: palette,
		Symbols: Symbols{
			Lit:     '●',
			Sustain: '◉',
			Unlit:   '○',

			Playing: '▶',
			Stopped: '■',
		},
	}
}

// Color roles mapped to palette positions (0-1)
const (
	RoleBG      = 0.0 // deep purple
	RoleMuted   = 0.2 // purple-magenta
	RoleFG      = 0.4 // pink-purple (readable)
	RoleAccent  = 0.5 // vivid magenta
	RoleActive  = 0.7 // soft red
	RoleWarning = 0.8 // orange
	RoleSuccess = 1.0 // bright yellow
)

// Style helpers

func (t *Theme) BG() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleBG))
}

func (t *Theme) FG() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleFG))
}

func (t *Theme) Accent() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleAccent))
}

func (t *Theme) Muted() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleMuted))
}

func (t *Theme) Active() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleActive))
}

func (t *Theme) Warning() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleWarning))
}

func (t *Theme) Success() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleSuccess))
}

// Color returns lipgloss color for any normalized value 0-1
func (t *Theme) Color(norm float64) lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(norm))
}

// VoiceRGB spreads the voices over the bright half of the palette; level
// fades a light from full (1) to off (0)
func (t *Theme) VoiceRGB(voice, voices int, level float64) RGB {
	norm := 0.5
	if voices > 1 {
		norm = 0.45 + 0.55*float64(voice)/float64(voices-1)
	}
	return Dim(t.Palette.Lookup(norm), 1-level)
}

func rgbToLipgloss(c RGB) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2]))
}
