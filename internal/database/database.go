package database

import (
	"path/filepath"
	"strings"

	"github.com/inovacc/datapull/internal/model"
)

// Store defines the database operations used by the app.
type Store interface {
	Ping() error
	Close() error
	GetConfig() (*model.Config, error)
	SaveConfig(cfg *model.Config) error
	SaveRun(run *model.TaskRun) error
	GetRun(id string) (*model.TaskRun, error)
	ListRuns(task string, limit int) ([]model.TaskRun, error)
}

// Open opens the store at path. Files ending in .sqlite, .sqlite3 or .db
// use the SQLite backend; anything else uses bbolt.
func Open(path string) (Store, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".sqlite", ".sqlite3", ".db":
		return NewSQLite(path)
	default:
		return NewBolt(path)
	}
}
