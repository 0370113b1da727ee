package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// RenderLight renders a single colored light
func RenderLight(color [3]uint8, symbol rune) string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(rgbToHex(color)))
	return style.Render(string(symbol))
}

// Light is one voice light: its color and glyph
type Light struct {
	Color  [3]uint8
	Symbol rune
	Label  string
}

// RenderLightRow renders lights side by side with their labels underneath
func RenderLightRow(lights []Light) string {
	var top, bottom strings.Builder
	for i, l := range lights {
		if i > 0 {
			top.WriteString(" ")
			bottom.WriteString(" ")
		}
		width := max(lipgloss.Width(l.Label), 1)
		top.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, RenderLight(l.Color, l.Symbol)))
		bottom.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, l.Label))
	}
	return top.String() + "\n" + bottom.String()
}

// RenderMeter renders a horizontal position bar, e.g. for the cycle position
func RenderMeter(width int, pos float64, fill, empty rune) string {
	if width <= 0 {
		return ""
	}
	pos = min(max(pos, 0), 1)
	n := int(pos * float64(width))
	return strings.Repeat(string(fill), n) + strings.Repeat(string(empty), width-n)
}

// RenderKeyHelp formats key bindings in a friendly way
func RenderKeyHelp(sections []KeySection) string {
	var lines []string
	for _, sec := range sections {
		if sec.Title != "" {
			lines = append(lines, sec.Title)
		}
		for _, k := range sec.Keys {
			lines = append(lines, fmt.Sprintf("  %-12s %s", k.Key, k.Desc))
		}
	}
	return strings.Join(lines, "\n")
}

// KeySection groups related key bindings
type KeySection struct {
	Title string
	Keys  []KeyBinding
}

// KeyBinding is a single key and its description
type KeyBinding struct {
	Key  string
	Desc string
}

func rgbToHex(c [3]uint8) string {
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}
