// Package prefs persists the user's panel preferences. Storage is
// best-effort: unavailable storage or invalid stored values silently
// fall back to defaults and never surface as page errors.
package prefs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("not found")

// Fixed storage keys.
const (
	KeyBackgroundMode  = "background.mode"
	KeyBackgroundColor = "background.color"
)

// BackgroundMode selects how the panel paints behind the eyes.
type BackgroundMode string

const (
	BackgroundAuto  BackgroundMode = "auto"
	BackgroundSolid BackgroundMode = "solid"
	BackgroundDark  BackgroundMode = "dark"
)

// Modes returns the cycle order used by the panel.
func Modes() []BackgroundMode {
	return []BackgroundMode{BackgroundAuto, BackgroundSolid, BackgroundDark}
}

// DefaultColor is used whenever no valid color preference exists.
const DefaultColor = "1b0f35"

// Stored colors are 6 hex digits, no leading '#'.
var colorPattern = regexp.MustCompile(`^[0-9a-fA-F]{6}$`)

type Store struct {
	db *sql.DB
}

func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create prefs dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS prefs (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate prefs: %w", err)
	}
	if err := os.Chmod(path, 0o600); err != nil && !errors.Is(err, os.ErrNotExist) {
		db.Close()
		return nil, fmt.Errorf("chmod prefs path: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM prefs WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get pref %s: %w", key, err)
	}
	return value, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO prefs (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("set pref %s: %w", key, err)
	}
	return nil
}

// Background returns the persisted background preference, validated on
// read. Invalid stored values, missing rows, and a nil store all yield
// the defaults.
func (s *Store) Background(ctx context.Context) (BackgroundMode, string) {
	mode, color := BackgroundAuto, DefaultColor
	if s == nil || s.db == nil {
		return mode, color
	}
	if v, err := s.Get(ctx, KeyBackgroundMode); err == nil {
		switch m := BackgroundMode(v); m {
		case BackgroundAuto, BackgroundSolid, BackgroundDark:
			mode = m
		}
	}
	if v, err := s.Get(ctx, KeyBackgroundColor); err == nil && colorPattern.MatchString(v) {
		color = v
	}
	return mode, color
}

// SetBackground validates and persists both background values. A nil
// store is a no-op; storage being unavailable is not an error the
// panel acts on.
func (s *Store) SetBackground(ctx context.Context, mode BackgroundMode, color string) error {
	switch mode {
	case BackgroundAuto, BackgroundSolid, BackgroundDark:
	default:
		return fmt.Errorf("set background: invalid mode %q", mode)
	}
	if !colorPattern.MatchString(color) {
		return fmt.Errorf("set background: invalid color %q", color)
	}
	if s == nil || s.db == nil {
		return nil
	}
	if err := s.Set(ctx, KeyBackgroundMode, string(mode)); err != nil {
		return err
	}
	return s.Set(ctx, KeyBackgroundColor, color)
}
