package config

import (
	"os"
	"testing"
	"time"
)

// isolate points HOME and the working directory at temp dirs so Load only
// sees what the test writes.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
}

func writeConfig(t *testing.T, content string) {
	t.Helper()
	if err := os.WriteFile("config.toml", []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Listen != ":8735" {
		t.Errorf("Listen = %q, want default :8735", cfg.Listen)
	}
	if len(cfg.Channels) != 0 {
		t.Errorf("Channels = %v, want empty (both enabled)", cfg.Channels)
	}
	grace, err := cfg.GraceInterval()
	if err != nil {
		t.Fatalf("GraceInterval: %v", err)
	}
	if grace != 0 {
		t.Errorf("GraceInterval = %v, want 0 meaning use default", grace)
	}
}

func TestLoadFile(t *testing.T) {
	isolate(t)
	writeConfig(t, `
catalog = "/data/catalog.toml"
listen = ":9000"
channels = ["session"]
mpris = true

[history]
capacity = 5

[routing]
grace_interval = "3s"

[browse]
empty_history = "message"
empty_message = "Play something first"

[log]
level = "debug"
`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Catalog != "/data/catalog.toml" {
		t.Errorf("Catalog = %q", cfg.Catalog)
	}
	if cfg.Listen != ":9000" {
		t.Errorf("Listen = %q", cfg.Listen)
	}
	if len(cfg.Channels) != 1 || cfg.Channels[0] != "session" {
		t.Errorf("Channels = %v", cfg.Channels)
	}
	if !cfg.Mpris {
		t.Error("Mpris = false, want true")
	}
	if cfg.History.Capacity != 5 {
		t.Errorf("History.Capacity = %d", cfg.History.Capacity)
	}
	if grace, _ := cfg.GraceInterval(); grace != 3*time.Second {
		t.Errorf("GraceInterval = %v, want 3s", grace)
	}
	if cfg.Browse.EmptyHistory != "message" || cfg.Browse.EmptyMessage != "Play something first" {
		t.Errorf("Browse = %+v", cfg.Browse)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q", cfg.Log.Level)
	}
}

func TestLoadRejectsUnknownChannel(t *testing.T) {
	isolate(t)
	writeConfig(t, `channels = ["session", "dashboard"]`)

	if _, err := Load(); err == nil {
		t.Error("Load should reject an unknown channel name")
	}
}

func TestLoadRejectsUnknownEmptyHistoryPolicy(t *testing.T) {
	isolate(t)
	writeConfig(t, `
[browse]
empty_history = "hide"
`)

	if _, err := Load(); err == nil {
		t.Error("Load should reject an unknown empty_history policy")
	}
}

func TestLoadRejectsBadGraceInterval(t *testing.T) {
	isolate(t)
	writeConfig(t, `
[routing]
grace_interval = "soon"
`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := cfg.GraceInterval(); err == nil {
		t.Error("GraceInterval should reject an unparseable duration")
	}
}

func TestExpandPath(t *testing.T) {
	isolate(t)
	writeConfig(t, `catalog = "~/music/catalog.toml"`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	home, _ := os.UserHomeDir()
	if want := home + "/music/catalog.toml"; cfg.Catalog != want {
		t.Errorf("Catalog = %q, want %q", cfg.Catalog, want)
	}
}
