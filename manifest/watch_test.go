package manifest

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchReloadsOnWrite(t *testing.T) {
	path := writeManifest(t, "units.yaml", "units: []\n")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan *Manifest, 8)
	errs := make(chan error, 1)
	go func() {
		errs <- Watch(ctx, path, func(m *Manifest, err error) {
			if err != nil {
				return
			}
			select {
			case changes <- m:
			default:
			}
		})
	}()

	// Give the watcher time to register before writing.
	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte(yamlManifest), 0o600)
		select {
		case m := <-changes:
			return len(m.Units) == 4
		case <-time.After(50 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-errs:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}
