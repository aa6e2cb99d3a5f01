package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server != "127.0.0.1:6379" {
		t.Errorf("Server = %q, want %q", cfg.Server, "127.0.0.1:6379")
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", cfg.Timeout)
	}
	if cfg.Output != "table" {
		t.Errorf("Output = %q, want %q", cfg.Output, "table")
	}
	if !strings.HasSuffix(cfg.HistoryFile, filepath.Join(".minikv", "history")) {
		t.Errorf("HistoryFile = %q", cfg.HistoryFile)
	}
}

func TestDefaultConfigPath(t *testing.T) {
	path := DefaultConfigPath()
	want := filepath.Join(".minikv", "cli.yaml")
	if !strings.HasSuffix(path, want) {
		t.Errorf("DefaultConfigPath() = %q, should end with %q", path, want)
	}
}

func TestLoad_NonExistentFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server != Default().Server {
		t.Errorf("Server = %q, want default", cfg.Server)
	}
}

func TestLoad_Sources(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cli.yaml")
	content := "server: 10.0.0.1:6379\ntimeout: 2s\noutput: json\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	t.Run("file", func(t *testing.T) {
		cfg, err := Load(path, nil)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Server != "10.0.0.1:6379" || cfg.Timeout != 2*time.Second || cfg.Output != "json" {
			t.Errorf("cfg = %+v", cfg)
		}
	})

	t.Run("env over file", func(t *testing.T) {
		t.Setenv("MINIKV_CLI_SERVER", "10.0.0.2:6379")
		t.Setenv("MINIKV_CLI_HISTORY_FILE", "/tmp/h")
		cfg, err := Load(path, nil)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Server != "10.0.0.2:6379" {
			t.Errorf("Server = %q, want env value", cfg.Server)
		}
		if cfg.HistoryFile != "/tmp/h" {
			t.Errorf("HistoryFile = %q, want env value", cfg.HistoryFile)
		}
	})

	t.Run("flag over env", func(t *testing.T) {
		t.Setenv("MINIKV_CLI_SERVER", "10.0.0.2:6379")
		cfg, err := Load(path, map[string]any{"server": "10.0.0.3:6379"})
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Server != "10.0.0.3:6379" {
			t.Errorf("Server = %q, want flag value", cfg.Server)
		}
	})
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cli.yaml")

	want := &CLIConfig{
		Server:      "192.168.1.10:7000",
		Timeout:     1500 * time.Millisecond,
		Output:      "yaml",
		HistoryFile: "",
	}
	if err := Save(want, path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("file mode = %o, want 0600", perm)
	}

	got, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Server != want.Server || got.Timeout != want.Timeout || got.Output != want.Output {
		t.Errorf("round trip = %+v, want %+v", got, want)
	}
}
