package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/inovacc/datapull/internal/model"
)

func TestOnDemand_DoesNotHoldLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "datapull.bolt")

	session := NewOnDemand(path)
	defer func() { _ = session.Close() }()

	cfg, err := session.GetConfig()
	if err != nil {
		t.Fatalf("GetConfig() error = %v", err)
	}

	cfg.DistDir = "out"
	if err := session.SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig() error = %v", err)
	}

	// Another command opens the store while the session is still in use.
	other, err := Open(path)
	if err != nil {
		t.Fatalf("Open() while a session is active error = %v", err)
	}

	got, err := other.GetConfig()
	if err != nil {
		t.Fatalf("GetConfig() error = %v", err)
	}

	if got.DistDir != "out" {
		t.Errorf("DistDir = %q, want %q", got.DistDir, "out")
	}

	if err := other.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	run := &model.TaskRun{ID: "r1", Task: "deploy", StartedAt: time.Now(), Status: model.RunStatusSucceeded}
	if err := session.SaveRun(run); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}

	runs, err := session.ListRuns("deploy", 0)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}

	if len(runs) != 1 || runs[0].ID != "r1" {
		t.Errorf("ListRuns() = %v, want [r1]", ids(runs))
	}

	if _, err := session.GetRun("r1"); err != nil {
		t.Errorf("GetRun() error = %v", err)
	}

	if err := session.Ping(); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}

func TestOnDemand_SQLite(t *testing.T) {
	session := NewOnDemand(filepath.Join(t.TempDir(), "datapull.sqlite"))

	if err := session.SaveRun(&model.TaskRun{ID: "x", Task: "t", StartedAt: time.Now()}); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}

	if _, err := session.GetRun("x"); err != nil {
		t.Errorf("GetRun() error = %v", err)
	}
}
