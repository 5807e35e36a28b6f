package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/inovacc/datapull/internal/model"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS config (
	id   INTEGER PRIMARY KEY CHECK (id = 1),
	data TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	task       TEXT NOT NULL,
	started_at TEXT NOT NULL,
	data       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS runs_started ON runs (started_at DESC);
`

// SQLite is a Store backed by a single SQLite file.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (creating if needed) a SQLite store at path.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}

	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("failed to initialise database %s: %w", path, err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Ping() error {
	return s.db.Ping()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) GetConfig() (*model.Config, error) {
	var data string

	err := s.db.QueryRow(`SELECT data FROM config WHERE id = 1`).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		cfg := model.DefaultConfig()
		return &cfg, nil
	}

	if err != nil {
		return nil, err
	}

	var c model.Config
	if err := json.Unmarshal([]byte(data), &c); err != nil {
		return nil, err
	}

	c = c.WithDefaults()

	return &c, nil
}

func (s *SQLite) SaveConfig(cfg *model.Config) error {
	if cfg == nil {
		return errors.New("config is required")
	}

	data, err := json.Marshal(cfg)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`INSERT INTO config (id, data) VALUES (1, ?)
		ON CONFLICT (id) DO UPDATE SET data = excluded.data`, string(data))

	return err
}

func (s *SQLite) SaveRun(run *model.TaskRun) error {
	if run == nil || run.ID == "" {
		return errors.New("run with an ID is required")
	}

	data, err := json.Marshal(run)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`INSERT INTO runs (id, task, started_at, data) VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET task = excluded.task, started_at = excluded.started_at, data = excluded.data`,
		run.ID, run.Task, string(runKey(run)), string(data))

	return err
}

func (s *SQLite) GetRun(id string) (*model.TaskRun, error) {
	var data string

	err := s.db.QueryRow(`SELECT data FROM runs WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}

	if err != nil {
		return nil, err
	}

	var r model.TaskRun
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		return nil, err
	}

	return &r, nil
}

// ListRuns returns runs newest first, optionally filtered by task name.
// A limit <= 0 returns every run.
func (s *SQLite) ListRuns(task string, limit int) ([]model.TaskRun, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.Query(`SELECT data FROM runs
		WHERE ? = '' OR task = ?
		ORDER BY started_at DESC
		LIMIT ?`, task, task, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.TaskRun

	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}

		var r model.TaskRun
		if err := json.Unmarshal([]byte(data), &r); err != nil {
			return nil, err
		}

		out = append(out, r)
	}

	return out, rows.Err()
}
