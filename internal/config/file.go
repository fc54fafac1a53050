package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

// fileConfig is the optional TOML overlay. Durations are expressed in
// milliseconds; absent fields keep their defaults.
type fileConfig struct {
	MachineName        *string `toml:"machine_name"`
	InputName          *string `toml:"input_name"`
	StabilityWindowMs  *int    `toml:"stability_window_ms"`
	LockExpiryMs       *int    `toml:"lock_expiry_ms"`
	RetryBaseMs        *int    `toml:"retry_base_ms"`
	RetryMaxDelayMs    *int    `toml:"retry_max_delay_ms"`
	RetryMaxAttempts   *int    `toml:"retry_max_attempts"`
	RecoveryCooldownMs *int    `toml:"recovery_cooldown_ms"`
	TickIntervalMs     *int    `toml:"tick_interval_ms"`
	PrefsPath          *string `toml:"prefs_path"`
}

// LoadFile reads a TOML overlay on top of DefaultConfig.
func LoadFile(path string) (Config, error) {
	cfg := DefaultConfig()
	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	if fc.MachineName != nil {
		cfg.MachineName = *fc.MachineName
	}
	if fc.InputName != nil {
		cfg.InputName = *fc.InputName
	}
	applyMs(&cfg.StabilityWindow, fc.StabilityWindowMs)
	applyMs(&cfg.LockExpiry, fc.LockExpiryMs)
	applyMs(&cfg.RetryBase, fc.RetryBaseMs)
	applyMs(&cfg.RetryMaxDelay, fc.RetryMaxDelayMs)
	applyMs(&cfg.RecoveryCooldown, fc.RecoveryCooldownMs)
	applyMs(&cfg.TickInterval, fc.TickIntervalMs)
	if fc.RetryMaxAttempts != nil && *fc.RetryMaxAttempts > 0 {
		cfg.RetryMaxAttempts = *fc.RetryMaxAttempts
	}
	if fc.PrefsPath != nil && *fc.PrefsPath != "" {
		cfg.PrefsPath = *fc.PrefsPath
	}
	return cfg, nil
}

func applyMs(dst *time.Duration, ms *int) {
	if ms != nil && *ms > 0 {
		*dst = time.Duration(*ms) * time.Millisecond
	}
}
