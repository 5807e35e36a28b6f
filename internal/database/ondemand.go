package database

import "github.com/inovacc/datapull/internal/model"

// OnDemand is a Store that opens the database at Path for each call and
// closes it before returning, so a long-running command never holds the
// file lock between operations.
type OnDemand struct {
	Path string
}

// NewOnDemand returns a Store backed by the database at path.
func NewOnDemand(path string) *OnDemand {
	return &OnDemand{Path: path}
}

func (s *OnDemand) with(fn func(Store) error) error {
	store, err := Open(s.Path)
	if err != nil {
		return err
	}

	err = fn(store)

	if cerr := store.Close(); err == nil {
		err = cerr
	}

	return err
}

func (s *OnDemand) Ping() error {
	return s.with(func(st Store) error { return st.Ping() })
}

// Close is a no-op; nothing stays open between calls.
func (s *OnDemand) Close() error {
	return nil
}

func (s *OnDemand) GetConfig() (*model.Config, error) {
	var cfg *model.Config

	err := s.with(func(st Store) (err error) {
		cfg, err = st.GetConfig()
		return err
	})

	return cfg, err
}

func (s *OnDemand) SaveConfig(cfg *model.Config) error {
	return s.with(func(st Store) error { return st.SaveConfig(cfg) })
}

func (s *OnDemand) SaveRun(run *model.TaskRun) error {
	return s.with(func(st Store) error { return st.SaveRun(run) })
}

func (s *OnDemand) GetRun(id string) (*model.TaskRun, error) {
	var run *model.TaskRun

	err := s.with(func(st Store) (err error) {
		run, err = st.GetRun(id)
		return err
	})

	return run, err
}

func (s *OnDemand) ListRuns(task string, limit int) ([]model.TaskRun, error) {
	var runs []model.TaskRun

	err := s.with(func(st Store) (err error) {
		runs, err = st.ListRuns(task, limit)
		return err
	})

	return runs, err
}
