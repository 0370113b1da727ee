package pattern

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepsQuery(t *testing.T) {
	p := &Steps{Tracks: [][]Event{
		{Sample{Name: "bd"}, nil, Sample{Name: "sn"}, nil},
		{Gate{Voice: 2}, Gate{Voice: 2}},
	}}

	haps, err := p.Query(Arc{Start: 0, End: 0.5})
	require.NoError(t, err)
	require.Len(t, haps, 2)
	assert.Equal(t, Arc{Start: 0, End: 0.25}, haps[0].Arc)
	assert.Equal(t, Arc{Start: 0, End: 0.5}, haps[1].Arc)

	// Crosses a cycle boundary
	haps, err = p.Query(Arc{Start: 0.75, End: 1.25})
	require.NoError(t, err)
	onsets := Onsets(haps, Arc{Start: 0.75, End: 1.25})
	require.Len(t, onsets, 2)
	assert.Equal(t, Sample{Name: "bd"}, onsets[0].Event)
	assert.Equal(t, Arc{Start: 1, End: 1.25}, onsets[0].Arc)
	assert.Equal(t, Arc{Start: 1, End: 1.5}, onsets[1].Arc)

	haps, err = p.Query(Arc{Start: 1, End: 1})
	assert.NoError(t, err)
	assert.Empty(t, haps)

	_, err = (&Steps{}).Query(Arc{End: 1})
	assert.ErrorIs(t, err, ErrEmptyPattern)
}

func TestParse(t *testing.T) {
	src := []byte(`tracks:
  - kind: sample
    steps: [bd, ~, "sn:1", .]
  - kind: note
    channel: 2
    steps: [60, 62.5]
  - kind: control
    name: cutoff
    steps: [0.25]
  - kind: quadhold
    voice: 1
    steps: [1]
`)
	p, err := Parse(src)
	require.NoError(t, err)
	require.Len(t, p.Tracks, 4)

	drums := p.Tracks[0]
	require.Len(t, drums, 4)
	assert.Nil(t, drums[1])
	assert.Nil(t, drums[3])

	bd := drums[0].(Sample)
	assert.Equal(t, "bd", bd.Name)
	require.Len(t, bd.Locations(), 1)
	loc := bd.Locations()[0]
	assert.Equal(t, "bd", string(src[loc.Start:loc.End]))

	sn := drums[2].(Sample)
	assert.Equal(t, "sn", sn.Name)
	assert.Equal(t, 1, sn.N)

	assert.Equal(t, 2, p.Tracks[1][0].(Note).Channel)
	assert.Equal(t, 62.5, p.Tracks[1][1].(Note).Note)
	loc = p.Tracks[1][1].Locations()[0]
	assert.Equal(t, "62.5", string(src[loc.Start:loc.End]))

	ctl := p.Tracks[2][0].(Control)
	assert.Equal(t, "cutoff", ctl.Name)
	assert.Equal(t, 0.25, ctl.Value)
	assert.Equal(t, 1, p.Tracks[3][0].(QuadHold).Quad)
}

func TestParseLocationsAreByteOffsets(t *testing.T) {
	src := []byte(`tracks:
  - {kind: control, name: "grün", steps: [0.5]}
  - kind: sample
    steps: [é, bd, "sn\x3a2", 'it''s']
`)
	p, err := Parse(src)
	require.NoError(t, err)
	require.Len(t, p.Tracks, 2)

	span := func(e Event) string {
		t.Helper()
		require.Len(t, e.Locations(), 1)
		loc := e.Locations()[0]
		return string(src[loc.Start:loc.End])
	}
	assert.Equal(t, "0.5", span(p.Tracks[0][0]))

	drums := p.Tracks[1]
	require.Len(t, drums, 4)
	assert.Equal(t, "é", span(drums[0]))
	assert.Equal(t, "bd", span(drums[1]))
	assert.Equal(t, `"sn\x3a2"`, span(drums[2]))
	sn := drums[2].(Sample)
	assert.Equal(t, "sn", sn.Name)
	assert.Equal(t, 2, sn.N)
	assert.Equal(t, `'it''s'`, span(drums[3]))
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"empty", "tracks: []"},
		{"no steps", "tracks:\n  - kind: sample\n"},
		{"unknown kind", "tracks:\n  - kind: banjo\n    steps: [1]\n"},
		{"bad number", "tracks:\n  - kind: note\n    steps: [high]\n"},
		{"bad sample index", "tracks:\n  - steps: [bd:x]\n"},
		{"unnamed control", "tracks:\n  - kind: control\n    steps: [1]\n"},
		{"not yaml", "tracks: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src))
			assert.Error(t, err)
		})
	}

	_, err := Parse([]byte("tracks:\n  - kind: banjo\n    steps: [1]\n"))
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "beat.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tracks:\n  - steps: [bd, sn]\n"), 0644))

	p, err := Load(path)
	require.NoError(t, err)
	require.Len(t, p.Tracks, 1)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
