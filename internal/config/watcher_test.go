package config_test

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hvngan/echoscribe/internal/config"
)

const watcherBaseYAML = `
server:
  log_level: info
data:
  backend: file
  dir: data
practice:
  completion_threshold: 95
`

const watcherEditedYAML = `
server:
  log_level: debug
data:
  backend: file
  dir: data
practice:
  completion_threshold: 90
`

// writeConfigFile creates (or rewrites) a config file under a temp dir and
// returns its path.
func writeConfigFile(t *testing.T, path, content string) string {
	t.Helper()
	if path == "" {
		path = filepath.Join(t.TempDir(), "config.yaml")
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %q: %v", path, err)
	}
	return path
}

func startWatcher(t *testing.T, path string, onChange func(old, new *config.Config)) *config.Watcher {
	t.Helper()
	w, err := config.NewWatcher(path, onChange, config.WithInterval(50*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	t.Cleanup(w.Stop)
	return w
}

func TestWatcher_InitialLoad(t *testing.T) {
	t.Parallel()
	path := writeConfigFile(t, "", watcherBaseYAML)

	w := startWatcher(t, path, nil)

	cfg := w.Current()
	if cfg == nil {
		t.Fatal("Current returned nil after initial load")
	}
	if cfg.Server.LogLevel != config.LogInfo {
		t.Errorf("log_level = %q, want %q", cfg.Server.LogLevel, config.LogInfo)
	}
	if cfg.Practice.CompletionThreshold != 95 {
		t.Errorf("completion_threshold = %v, want 95", cfg.Practice.CompletionThreshold)
	}
}

func TestWatcher_InitialLoadFails(t *testing.T) {
	t.Parallel()
	if _, err := config.NewWatcher(filepath.Join(t.TempDir(), "absent.yaml"), nil); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestWatcher_CallbackOnEdit(t *testing.T) {
	t.Parallel()
	path := writeConfigFile(t, "", watcherBaseYAML)

	type change struct{ old, new *config.Config }
	var mu sync.Mutex
	var got *change
	fired := make(chan struct{}, 1)

	w := startWatcher(t, path, func(old, new *config.Config) {
		mu.Lock()
		got = &change{old: old, new: new}
		mu.Unlock()
		select {
		case fired <- struct{}{}:
		default:
		}
	})

	time.Sleep(100 * time.Millisecond)
	writeConfigFile(t, path, watcherEditedYAML)

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("callback was not invoked within timeout")
	}

	mu.Lock()
	defer mu.Unlock()
	if got.old.Practice.CompletionThreshold != 95 || got.new.Practice.CompletionThreshold != 90 {
		t.Errorf("thresholds = %v -> %v, want 95 -> 90",
			got.old.Practice.CompletionThreshold, got.new.Practice.CompletionThreshold)
	}
	if lvl := w.Current().Server.LogLevel; lvl != config.LogDebug {
		t.Errorf("Current log_level = %q, want %q", lvl, config.LogDebug)
	}
}

func TestWatcher_RejectsInvalidEdit(t *testing.T) {
	t.Parallel()
	path := writeConfigFile(t, "", watcherBaseYAML)

	var calls atomic.Int32
	w := startWatcher(t, path, func(_, _ *config.Config) { calls.Add(1) })

	time.Sleep(100 * time.Millisecond)
	writeConfigFile(t, path, "server:\n  log_level: shouting\n")
	time.Sleep(300 * time.Millisecond)

	if n := calls.Load(); n != 0 {
		t.Errorf("callback fired %d times for invalid config, want 0", n)
	}
	if lvl := w.Current().Server.LogLevel; lvl != config.LogInfo {
		t.Errorf("Current log_level = %q, want the pre-edit %q", lvl, config.LogInfo)
	}
}

func TestWatcher_TouchOnly(t *testing.T) {
	t.Parallel()
	path := writeConfigFile(t, "", watcherBaseYAML)

	var calls atomic.Int32
	startWatcher(t, path, func(_, _ *config.Config) { calls.Add(1) })

	time.Sleep(100 * time.Millisecond)
	later := time.Now().Add(time.Second)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatalf("touch: %v", err)
	}
	time.Sleep(300 * time.Millisecond)

	if n := calls.Load(); n != 0 {
		t.Errorf("callback fired %d times for mtime-only change, want 0", n)
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	t.Parallel()
	path := writeConfigFile(t, "", watcherBaseYAML)

	w := startWatcher(t, path, nil)
	w.Stop()
	w.Stop()
}
