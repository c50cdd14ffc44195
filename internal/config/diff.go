package config

// ConfigDiff describes what changed between two configs.
// Only fields that can be safely hot-reloaded are tracked.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	PracticeChanged bool
	NewPractice     PracticeConfig
}

// Diff compares old and new configs and returns what changed.
// Only tracks changes that are safe to apply without restart; the
// server address and storage backend require one.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	if old.Practice != new.Practice {
		d.PracticeChanged = true
		d.NewPractice = new.Practice
	}

	return d
}
