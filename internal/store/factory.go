package store

import (
	"fmt"
	"path/filepath"
)

// Open creates the checkpoint store selected by config. Defaults to SQLite
// at "checkpoints.db" when neither driver nor path is set.
func Open(cfg Config) (CheckpointStore, error) {
	switch cfg.Driver {
	case "", "sqlite":
		path := cfg.Path
		if path == "" {
			path = "checkpoints.db"
		}
		return NewSQLiteStore(path)
	case "file":
		dir := cfg.Path
		if dir == "" {
			dir = filepath.Join(".", "threads")
		}
		return NewFileStore(dir)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
