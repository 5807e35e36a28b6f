package database

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/inovacc/datapull/internal/model"
	"go.etcd.io/bbolt"
)

const (
	boltBucketConfig = "config" // key: "config" -> Config JSON
	boltBucketRuns   = "runs"   // key: start time + run ID -> TaskRun JSON
)

// runKeyLayout sorts lexically in chronological order.
const runKeyLayout = "20060102T150405.000000000"

// ErrRunNotFound is returned by GetRun for unknown IDs.
var ErrRunNotFound = errors.New("task run not found")

type Bolt struct {
	db *bbolt.DB
}

// NewBolt opens (creating if needed) a bbolt store at path.
func NewBolt(path string) (*Bolt, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}

	if err := db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(boltBucketConfig)); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(boltBucketRuns)); err != nil {
			return err
		}

		return nil
	}); err != nil {
		_ = db.Close()

		return nil, err
	}

	return &Bolt{db: db}, nil
}

func (b *Bolt) Ping() error {
	return b.db.View(func(tx *bbolt.Tx) error {
		return nil
	})
}

func (b *Bolt) Close() error {
	return b.db.Close()
}

func (b *Bolt) GetConfig() (*model.Config, error) {
	var cfg *model.Config

	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(boltBucketConfig))
		v := bucket.Get([]byte("config"))

		if v == nil {
			// Return default config if not found
			defaultCfg := model.DefaultConfig()
			cfg = &defaultCfg

			return nil
		}

		var c model.Config
		if err := json.Unmarshal(v, &c); err != nil {
			return err
		}

		c = c.WithDefaults()
		cfg = &c

		return nil
	})

	return cfg, err
}

func (b *Bolt) SaveConfig(cfg *model.Config) error {
	if cfg == nil {
		return errors.New("config is required")
	}

	data, err := json.Marshal(cfg)
	if err != nil {
		return err
	}

	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(boltBucketConfig))

		return bucket.Put([]byte("config"), data)
	})
}

func runKey(run *model.TaskRun) []byte {
	return []byte(run.StartedAt.UTC().Format(runKeyLayout) + "/" + run.ID)
}

func (b *Bolt) SaveRun(run *model.TaskRun) error {
	if run == nil || run.ID == "" {
		return errors.New("run with an ID is required")
	}

	data, err := json.Marshal(run)
	if err != nil {
		return err
	}

	return b.db.Update(func(tx *bbolt.Tx) error {
		runs := tx.Bucket([]byte(boltBucketRuns))

		return runs.Put(runKey(run), data)
	})
}

func (b *Bolt) GetRun(id string) (*model.TaskRun, error) {
	var found *model.TaskRun

	err := b.db.View(func(tx *bbolt.Tx) error {
		runs := tx.Bucket([]byte(boltBucketRuns))

		return runs.ForEach(func(k, v []byte) error {
			var r model.TaskRun

			if err := json.Unmarshal(v, &r); err != nil {
				return err
			}

			if r.ID == id {
				found = &r
			}

			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	if found == nil {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}

	return found, nil
}

// ListRuns returns runs newest first, optionally filtered by task name.
// A limit <= 0 returns every run.
func (b *Bolt) ListRuns(task string, limit int) ([]model.TaskRun, error) {
	var out []model.TaskRun

	err := b.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(boltBucketRuns)).Cursor()

		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var r model.TaskRun

			if err := json.Unmarshal(v, &r); err != nil {
				return err
			}

			if task != "" && r.Task != task {
				continue
			}

			out = append(out, r)

			if limit > 0 && len(out) >= limit {
				break
			}
		}

		return nil
	})

	return out, err
}
