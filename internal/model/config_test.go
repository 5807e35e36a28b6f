package model

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.CacheDir != ".cache" {
		t.Errorf("CacheDir = %q, want %q", cfg.CacheDir, ".cache")
	}

	if cfg.Cacher != "sqlite" {
		t.Errorf("Cacher = %q, want %q", cfg.Cacher, "sqlite")
	}

	if cfg.Strategy != "check" {
		t.Errorf("Strategy = %q, want %q", cfg.Strategy, "check")
	}

	if cfg.Taskfile != "datapull.yaml" {
		t.Errorf("Taskfile = %q, want %q", cfg.Taskfile, "datapull.yaml")
	}

	if cfg.GitHubRepo != "" {
		t.Errorf("GitHubRepo = %q, want empty string", cfg.GitHubRepo)
	}
}

func TestConfig_GetSet(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Set("github_repo", "acme/widgets"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, err := cfg.Get("GITHUB_REPO")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	if got != "acme/widgets" {
		t.Errorf("Get() = %q, want %q", got, "acme/widgets")
	}

	if err := cfg.Set("editor", "vim"); err == nil {
		t.Error("Set() with unknown key should fail")
	} else if !strings.Contains(err.Error(), "cache_dir") {
		t.Errorf("error should list valid keys, got %v", err)
	}
}

func TestConfig_WithDefaults(t *testing.T) {
	cfg := Config{Cacher: "csv"}.WithDefaults()

	if cfg.Cacher != "csv" {
		t.Errorf("Cacher = %q, want %q", cfg.Cacher, "csv")
	}

	if cfg.DistDir != "dist" {
		t.Errorf("DistDir = %q, want %q", cfg.DistDir, "dist")
	}
}

func TestConfigKeys_Sorted(t *testing.T) {
	keys := ConfigKeys()
	for i := 1; i < len(keys); i++ {
		if keys[i-1] > keys[i] {
			t.Fatalf("keys not sorted: %v", keys)
		}
	}
}

func TestConfig_JSONRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GitHubRepo = "acme/widgets"

	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	if !strings.Contains(string(data), `"cache_dir":".cache"`) {
		t.Errorf("unexpected JSON: %s", data)
	}

	var decoded Config
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if decoded != cfg {
		t.Errorf("decoded = %+v, want %+v", decoded, cfg)
	}
}

func TestTaskRun_Duration(t *testing.T) {
	start := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

	run := TaskRun{StartedAt: start}
	if run.Duration() != 0 {
		t.Errorf("unfinished run Duration() = %v, want 0", run.Duration())
	}

	run.FinishedAt = start.Add(90 * time.Second)
	if run.Duration() != 90*time.Second {
		t.Errorf("Duration() = %v, want 90s", run.Duration())
	}
}
