package ccbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishFansOut(t *testing.T) {
	b := New()
	a, cancelA := b.Subscribe()
	c, cancelC := b.Subscribe()
	defer cancelA()
	defer cancelC()

	b.Publish(Change{ControlID: "drive", Value: 0.5, Origin: OriginScheduler})

	for _, ch := range []<-chan Change{a, c} {
		got := <-ch
		assert.Equal(t, Change{ControlID: "drive", Value: 0.5, Origin: OriginScheduler}, got)
	}
}

func TestPublishDropsWhenFull(t *testing.T) {
	b := New()
	ch, cancel := b.Subscribe()
	defer cancel()

	for i := 0; i < subscriberBuffer+10; i++ {
		b.Publish(Change{ControlID: "x", Value: float64(i)})
	}
	assert.Len(t, ch, subscriberBuffer)
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := New()
	ch, cancel := b.Subscribe()
	cancel()
	_, ok := <-ch
	assert.False(t, ok)

	// Publishing to no subscribers is fine
	b.Publish(Change{ControlID: "x"})
}

func TestCloseBus(t *testing.T) {
	b := New()
	ch, _ := b.Subscribe()
	b.Close()
	_, ok := <-ch
	require.False(t, ok)

	late, _ := b.Subscribe()
	_, ok = <-late
	assert.False(t, ok)
	b.Close()
}
