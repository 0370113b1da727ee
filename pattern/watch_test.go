package pattern

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "live.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tracks:\n  - steps: [bd]\n"), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loaded := make(chan *Steps, 8)
	errc := make(chan error, 1)
	go func() {
		errc <- Watch(ctx, path, func(p *Steps) { loaded <- p })
	}()

	// Give the watcher time to register, then rewrite until it notices
	var got *Steps
	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("tracks:\n  - steps: [bd, sn, hh]\n"), 0644)
		select {
		case got = <-loaded:
			return true
		case <-time.After(100 * time.Millisecond):
			return false
		}
	}, 3*time.Second, 10*time.Millisecond)
	require.Len(t, got.Tracks, 1)
	assert.Len(t, got.Tracks[0], 3)

	// Let reloads from the retry loop settle
	time.Sleep(4 * reloadDebounce)
	for len(loaded) > 0 {
		<-loaded
	}

	// Broken edits are skipped
	require.NoError(t, os.WriteFile(path, []byte("tracks: [\n"), 0644))
	assert.Never(t, func() bool { return len(loaded) > 0 }, 300*time.Millisecond, 20*time.Millisecond)

	// Other files in the directory are ignored
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("tracks:\n  - steps: [bd]\n"), 0644))
	assert.Never(t, func() bool { return len(loaded) > 0 }, 300*time.Millisecond, 20*time.Millisecond)

	cancel()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestWatchMissingDir(t *testing.T) {
	err := Watch(context.Background(), filepath.Join(t.TempDir(), "nope", "live.yaml"), func(*Steps) {})
	assert.Error(t, err)
}
