package config

import (
	"fmt"
)

// HistoryConfig defines where solved runs are archived and how the archive
// is rotated.
type HistoryConfig struct {
	// Backend selects the store type: "none", "jsonl", "rotating", "sqlite"
	// or "redis".
	Backend string `json:"backend"`
	// Path is the file location of the store.
	Path string `json:"path"`
	// MaxSizeMB triggers rotation when the file exceeds this size in megabytes.
	MaxSizeMB int `json:"max_size_mb"`
	// MaxBackups limits the number of rotated files to keep.
	MaxBackups int `json:"max_backups"`
	// MaxAgeDays removes rotated files older than this number of days.
	MaxAgeDays int `json:"max_age_days"`
	// Redis is only read by the redis backend.
	Redis RedisConfig `json:"redis"`
}

// RedisConfig locates a shared archive.
type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	// Key names the sorted set holding the runs.
	Key string `json:"key"`
}

// SetDefaults applies sane defaults.
func (c *HistoryConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "none"
	}
	if c.Redis.Key == "" {
		c.Redis.Key = "stintplan:runs"
	}
	if c.Path == "" {
		switch c.Backend {
		case "sqlite":
			c.Path = "stintplan-history.db"
		case "jsonl", "rotating":
			c.Path = "stintplan-history.jsonl"
		}
	}
}

// Enabled reports whether runs are archived.
func (c HistoryConfig) Enabled() bool { return c.Backend != "none" }

// Validate checks mandatory fields.
func (c HistoryConfig) Validate() error {
	switch c.Backend {
	case "none":
		return nil
	case "redis":
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis.addr is required")
		}
		return nil
	case "jsonl", "rotating", "sqlite":
	default:
		return fmt.Errorf("unknown backend %s", c.Backend)
	}
	if c.Path == "" {
		return fmt.Errorf("path is required")
	}
	return nil
}
