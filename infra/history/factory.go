// Package history provides file, SQLite and Redis backed run archives.
package history

import (
	"fmt"

	"github.com/kilianp07/stintplan/config"
	corehistory "github.com/kilianp07/stintplan/core/history"
)

// NewStore builds the store selected by cfg. A disabled archive yields a
// NopStore.
func NewStore(cfg config.HistoryConfig) (corehistory.RunStore, error) {
	var (
		store corehistory.RunStore
		err   error
	)
	// Each constructor is checked before the assignment so a failed store
	// never becomes a non-nil interface holding a nil pointer.
	switch cfg.Backend {
	case "", "none":
		return corehistory.NopStore{}, nil
	case "jsonl":
		var s *JSONLStore
		if s, err = NewJSONLStore(cfg.Path); err == nil {
			store = s
		}
	case "rotating":
		var s *RotatingJSONLStore
		if s, err = NewRotatingJSONLStore(cfg.Path, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays); err == nil {
			store = s
		}
	case "sqlite":
		var s *SQLiteStore
		if s, err = NewSQLiteStore(cfg.Path); err == nil {
			store = s
		}
	case "redis":
		var s *RedisStore
		if s, err = NewRedisStore(cfg.Redis); err == nil {
			store = s
		}
	default:
		err = fmt.Errorf("unknown history backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	return store, nil
}
