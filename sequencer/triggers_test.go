package sequencer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-pattern/ccbus"
	"go-pattern/pattern"
)

func TestHighlightMS(t *testing.T) {
	assert.Equal(t, 2000, highlightMS(pattern.Hold{Voice: 1, Level: 1}, 0.5))
	assert.Equal(t, 5000, highlightMS(pattern.QuadHold{Quad: 0, Level: 1}, 0.1))
	assert.Equal(t, 500, highlightMS(pattern.Hold{}, 4))
	assert.Equal(t, 5000, highlightMS(pattern.Hold{}, 0))
	assert.Equal(t, 250, highlightMS(pattern.Drive{Amount: 1}, 0.5))
	assert.Equal(t, 250, highlightMS(pattern.Gate{}, 0.5))
}

func TestTriggerVoice(t *testing.T) {
	assert.Equal(t, 9, triggerVoice(pattern.Sample{Name: "sn"}))
	assert.Equal(t, 4, triggerVoice(pattern.Tune{Voice: 4}))
	assert.Equal(t, 1, triggerVoice(pattern.QuadHold{Quad: 1}))
	assert.Equal(t, -1, triggerVoice(pattern.Drive{}))
	assert.Equal(t, -1, triggerVoice(pattern.Control{Name: "x"}))
}

func TestEmitterFiresDueAndLater(t *testing.T) {
	out := ccbus.NewHub[Trigger](8)
	triggers, cancel := out.Subscribe()
	defer cancel()
	te := newTriggerEmitter(out)

	loc := pattern.Location{Start: 1, End: 3}
	w := window{tl: timeline{cps: 1}}
	haps := []pattern.Hap{
		{Event: pattern.WithLocation(pattern.Gate{Voice: 2}, loc), Arc: pattern.Arc{Start: 0, End: 0.1}},
		{Event: pattern.Gate{Voice: 5}, Arc: pattern.Arc{Start: 0.05, End: 0.1}},
	}
	te.emit(haps, w, 0)

	require.Len(t, triggers, 1)
	first := <-triggers
	assert.Equal(t, 2, first.Voice)
	assert.Equal(t, []pattern.Location{loc}, first.Locations)
	assert.Equal(t, 1, te.pendingCount())

	select {
	case second := <-triggers:
		assert.Equal(t, 5, second.Voice)
	case <-time.After(time.Second):
		t.Fatal("delayed trigger never fired")
	}
	assert.Eventually(t, func() bool { return te.pendingCount() == 0 }, time.Second, 5*time.Millisecond)
}

func TestEmitterCancel(t *testing.T) {
	out := ccbus.NewHub[Trigger](8)
	triggers, cancel := out.Subscribe()
	defer cancel()
	te := newTriggerEmitter(out)

	te.emit([]pattern.Hap{{Event: pattern.Gate{}, Arc: pattern.Arc{Start: 1, End: 2}}}, window{tl: timeline{cps: 1}}, 0)
	assert.Equal(t, 1, te.pendingCount())

	te.cancel()
	assert.Equal(t, 0, te.pendingCount())
	assert.Never(t, func() bool { return len(triggers) > 0 }, 100*time.Millisecond, 10*time.Millisecond)
}
