package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config carries the panel's tunables. The stability window and lock
// expiry are empirically tuned to the rig's transition latency, not
// inherent to the algorithm, so they are configurable rather than
// constants.
type Config struct {
	MachineName      string
	InputName        string
	StabilityWindow  time.Duration
	LockExpiry       time.Duration
	RetryBase        time.Duration
	RetryMaxDelay    time.Duration
	RetryMaxAttempts int
	RecoveryCooldown time.Duration
	TickInterval     time.Duration
	PrefsPath        string
}

func DefaultConfig() Config {
	return Config{
		MachineName:      "EyesMachine",
		InputName:        "eyeState",
		StabilityWindow:  650 * time.Millisecond,
		LockExpiry:       8 * time.Second,
		RetryBase:        150 * time.Millisecond,
		RetryMaxDelay:    2 * time.Second,
		RetryMaxAttempts: 5,
		RecoveryCooldown: 10 * time.Second,
		TickInterval:     100 * time.Millisecond,
		PrefsPath:        defaultPrefsPath(),
	}
}

func defaultPrefsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "computer-eyes.db"
	}
	return filepath.Join(home, ".local", "state", "computer-eyes", "prefs.db")
}
