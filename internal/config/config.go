package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/thinkwright/seasonline/internal/timeline"
)

const maxRecentFiles = 8

type Config struct {
	Variant string `json:"variant"` // "base" or "milestone"
	// TimezoneOffsetMinutes fixes the display zone; null means the local zone.
	TimezoneOffsetMinutes *int     `json:"timezone_offset_minutes"`
	SnapMinutes           int      `json:"snap_minutes,omitempty"`
	MinDurationMinutes    int      `json:"min_duration_minutes,omitempty"`
	Zoom                  float64  `json:"zoom,omitempty"`
	TimeSync              bool     `json:"time_sync"`
	TimeSyncURL           string   `json:"time_sync_url,omitempty"`
	WatchFile             string   `json:"watch_file,omitempty"`
	RecentFiles           []string `json:"recent_files,omitempty"`
}

// AddRecentFile moves path to the front of the recent import/export list.
// Returns false if it was already first.
func (c *Config) AddRecentFile(path string) bool {
	clean := filepath.Clean(path)
	if len(c.RecentFiles) > 0 && filepath.Clean(c.RecentFiles[0]) == clean {
		return false
	}
	c.RemoveRecentFile(clean)
	c.RecentFiles = append([]string{clean}, c.RecentFiles...)
	if len(c.RecentFiles) > maxRecentFiles {
		c.RecentFiles = c.RecentFiles[:maxRecentFiles]
	}
	return true
}

// RemoveRecentFile drops path from the recent list. Returns false if not found.
func (c *Config) RemoveRecentFile(path string) bool {
	clean := filepath.Clean(path)
	for i, p := range c.RecentFiles {
		if filepath.Clean(p) == clean {
			c.RecentFiles = append(c.RecentFiles[:i], c.RecentFiles[i+1:]...)
			return true
		}
	}
	return false
}

// LastFile returns the most recently used document path, if any.
func (c Config) LastFile() string {
	if len(c.RecentFiles) == 0 {
		return ""
	}
	return c.RecentFiles[0]
}

// Params resolves the variant defaults and applies the overrides.
func (c Config) Params() timeline.Params {
	p := timeline.ParamsFor(timeline.ParseVariant(c.Variant))
	if c.SnapMinutes > 0 {
		p.GridMs = int64(c.SnapMinutes) * time.Minute.Milliseconds()
	}
	if c.MinDurationMinutes > 0 {
		p.MinDurationMs = int64(c.MinDurationMinutes) * time.Minute.Milliseconds()
	}
	if c.Zoom > 0 {
		p.Zoom = c.Zoom
	}
	return p
}

// Location is the zone timestamps are shown and exported in.
func (c Config) Location() *time.Location {
	return timeline.ZoneFor(c.TimezoneOffsetMinutes)
}

// SyncURL returns the clock sync endpoint, or "" when syncing is off.
func (c Config) SyncURL() string {
	if !c.TimeSync {
		return ""
	}
	if c.TimeSyncURL != "" {
		return c.TimeSyncURL
	}
	return timeline.DefaultTimeSyncURL
}

func DefaultConfig() Config {
	return Config{
		Variant:  string(timeline.VariantBase),
		TimeSync: true,
	}
}

func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "seasonline")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "seasonline")
}

func configPath() string {
	return filepath.Join(ConfigDir(), "config.json")
}

func Load() Config {
	cfg := DefaultConfig()
	data, err := os.ReadFile(configPath())
	if err != nil {
		return cfg
	}
	_ = json.Unmarshal(data, &cfg) // ignore errors; fall back to defaults
	return cfg
}

// SaveRecentFiles replaces the recent list in the saved config and leaves the
// other saved settings as they are, so per-run flag overrides never persist.
func SaveRecentFiles(recent []string) error {
	cfg := Load()
	cfg.RecentFiles = recent
	return Save(cfg)
}

func Save(cfg Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(configPath(), data, 0o644)
}
