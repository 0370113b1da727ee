package theme

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const gpl = `GIMP Palette
Name: Test
Columns: 2
#
  0   0   0	Black
255 255 255	White
300   0   0	Out of range
`

func TestLoadGPL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.gpl")
	require.NoError(t, os.WriteFile(path, []byte(gpl), 0644))

	p, err := LoadGPL(path)
	require.NoError(t, err)
	assert.Equal(t, "Test", p.Name)
	assert.Equal(t, []RGB{{0, 0, 0}, {255, 255, 255}}, p.Colors)

	mid := p.Lookup(0.5)
	assert.InDelta(t, float64(mid[0]), float64(mid[1]), 1)
	assert.Greater(t, mid[0], uint8(60))
	assert.Less(t, mid[0], uint8(200))
}

func TestLoadOrBuiltin(t *testing.T) {
	p, err := LoadOrBuiltin("")
	require.NoError(t, err)
	assert.Equal(t, "Dusk", p.Name)

	p, err = LoadOrBuiltin(filepath.Join(t.TempDir(), "missing.gpl"))
	assert.Error(t, err)
	assert.Equal(t, "Dusk", p.Name)
}

func TestLookupEnds(t *testing.T) {
	p := Builtin()
	require.Len(t, p.Colors, len(builtinStops))
	assert.Equal(t, p.Colors[0], p.Lookup(-1))
	assert.Equal(t, p.Colors[len(p.Colors)-1], p.Lookup(2))
	assert.Equal(t, p.Colors[2], p.Index(2))
	assert.Equal(t, p.Colors[0], p.Index(-5))
}

func TestDim(t *testing.T) {
	c := RGB{200, 100, 50}
	assert.Equal(t, c, Dim(c, 0))
	assert.Equal(t, RGB{0, 0, 0}, Dim(c, 1))
}

func TestVoiceRGBFades(t *testing.T) {
	th := New(nil)
	full := th.VoiceRGB(3, 12, 1)
	off := th.VoiceRGB(3, 12, 0)
	assert.Equal(t, RGB{0, 0, 0}, off)
	assert.NotEqual(t, full, off)
}
