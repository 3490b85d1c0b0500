package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("failed to write YAML: %v", err)
	}
	return path
}

func TestLoadConfig_ParsesEngineSettings(t *testing.T) {
	yaml := `
engine:
  command: "robocopy"
  threads: 16
  retries: 2
  retry_wait: 10s
backup:
  output_mode: "progress"
  verify: "always"
  compress_reports: true
  work_dir: "mirrorctl"
exclude_dirs:
  - "System Volume Information"
`
	var cfg Config
	if err := cfg.Load(writeConfig(t, yaml)); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Engine.Threads != 16 {
		t.Errorf("threads = %d, want 16", cfg.Engine.Threads)
	}
	if cfg.Engine.RetryWait != 10*time.Second {
		t.Errorf("retry_wait = %v, want 10s", cfg.Engine.RetryWait)
	}
	if cfg.Backup.OutputMode != ModeProgress {
		t.Errorf("output_mode = %q, want progress", cfg.Backup.OutputMode)
	}
	if !cfg.Backup.CompressReports {
		t.Error("compress_reports = false, want true")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	var cfg Config
	if err := cfg.Load(writeConfig(t, "backup:\n  verify: never\n")); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Engine.Command != "robocopy" {
		t.Errorf("command = %q, want robocopy", cfg.Engine.Command)
	}
	if cfg.Backup.OutputMode != ModeSilent {
		t.Errorf("output_mode = %q, want silent", cfg.Backup.OutputMode)
	}
	if len(cfg.ExcludeDirs) == 0 {
		t.Error("exclude_dirs default is empty")
	}
}

func TestLoadConfig_RejectsBadMode(t *testing.T) {
	var cfg Config
	err := cfg.Load(writeConfig(t, "backup:\n  output_mode: loud\n"))
	if !errors.Is(err, ErrValidateConfig) {
		t.Fatalf("Load = %v, want ErrValidateConfig", err)
	}
}

func TestLoadConfig_RejectsBadVerify(t *testing.T) {
	var cfg Config
	err := cfg.Load(writeConfig(t, "backup:\n  verify: maybe\n"))
	if !errors.Is(err, ErrValidateConfig) {
		t.Fatalf("Load = %v, want ErrValidateConfig", err)
	}
}
