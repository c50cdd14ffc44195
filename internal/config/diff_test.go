package config_test

import (
	"testing"

	"github.com/hvngan/echoscribe/internal/config"
)

func TestDiff_NoChanges(t *testing.T) {
	t.Parallel()
	a := &config.Config{
		Server:   config.ServerConfig{LogLevel: config.LogInfo},
		Practice: config.PracticeConfig{CompletionThreshold: 95},
	}
	b := &config.Config{
		Server:   config.ServerConfig{LogLevel: config.LogInfo},
		Practice: config.PracticeConfig{CompletionThreshold: 95},
	}

	d := config.Diff(a, b)
	if d.LogLevelChanged || d.PracticeChanged {
		t.Errorf("expected empty diff, got %+v", d)
	}
}

func TestDiff_LogLevel(t *testing.T) {
	t.Parallel()
	a := &config.Config{Server: config.ServerConfig{LogLevel: config.LogInfo}}
	b := &config.Config{Server: config.ServerConfig{LogLevel: config.LogDebug}}

	d := config.Diff(a, b)
	if !d.LogLevelChanged {
		t.Fatal("expected LogLevelChanged")
	}
	if d.NewLogLevel != config.LogDebug {
		t.Errorf("NewLogLevel = %q, want %q", d.NewLogLevel, config.LogDebug)
	}
	if d.PracticeChanged {
		t.Error("practice should be unchanged")
	}
}

func TestDiff_PracticeThresholds(t *testing.T) {
	t.Parallel()
	a := &config.Config{Practice: config.PracticeConfig{CompletionThreshold: 95, CorrectThreshold: 0.8}}
	b := &config.Config{Practice: config.PracticeConfig{CompletionThreshold: 90, CorrectThreshold: 0.8}}

	d := config.Diff(a, b)
	if !d.PracticeChanged {
		t.Fatal("expected PracticeChanged")
	}
	if d.NewPractice.CompletionThreshold != 90 {
		t.Errorf("NewPractice = %+v", d.NewPractice)
	}
}

func TestDiff_ListenAddrNotTracked(t *testing.T) {
	t.Parallel()
	// Address changes require a restart; the diff must not report them.
	a := &config.Config{Server: config.ServerConfig{ListenAddr: ":8080"}}
	b := &config.Config{Server: config.ServerConfig{ListenAddr: ":9090"}}

	d := config.Diff(a, b)
	if d.LogLevelChanged || d.PracticeChanged {
		t.Errorf("expected empty diff for address-only change, got %+v", d)
	}
}
