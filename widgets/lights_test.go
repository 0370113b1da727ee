package widgets

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderLightRow(t *testing.T) {
	out := RenderLightRow([]Light{
		{Color: [3]uint8{255, 0, 0}, Symbol: '●', Label: "v0"},
		{Color: [3]uint8{0, 0, 0}, Symbol: '○', Label: "bd"},
	})
	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "●")
	assert.Contains(t, lines[0], "○")
	assert.Contains(t, lines[1], "v0 bd")
}

func TestRenderMeter(t *testing.T) {
	assert.Equal(t, "##--", RenderMeter(4, 0.5, '#', '-'))
	assert.Equal(t, "----", RenderMeter(4, -1, '#', '-'))
	assert.Equal(t, "####", RenderMeter(4, 3, '#', '-'))
	assert.Equal(t, "", RenderMeter(0, 0.5, '#', '-'))
}

func TestRenderKeyHelp(t *testing.T) {
	out := RenderKeyHelp([]KeySection{{
		Title: "Transport",
		Keys:  []KeyBinding{{Key: "p", Desc: "play/stop"}},
	}})
	assert.Equal(t, "Transport\n  p            play/stop", out)
}
