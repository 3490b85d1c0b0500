package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// ErrLoadConfig indicates a failure to read or parse the YAML configuration.
var ErrLoadConfig = errors.New("config load failed")

// ErrValidateConfig indicates that the loaded configuration is invalid.
var ErrValidateConfig = errors.New("configuration validation failed")

// Output modes for the copy phase. Exactly one is active per run; progress
// and echo are distinct values of one enum, so they cannot be combined.
const (
	ModeSilent   = "silent"
	ModeEcho     = "echo"
	ModeProgress = "progress"
)

// Verify policies for the post-backup comparison pass.
const (
	VerifyAlways = "always"
	VerifyNever  = "never"
	VerifyAsk    = "ask"
)

// Config represents the top-level YAML configuration file.
type Config struct {
	Include []string     `mapstructure:"include" yaml:"include,omitempty"`
	Engine  EngineConfig `mapstructure:"engine"  yaml:"engine"`
	Backup  BackupConfig `mapstructure:"backup"  yaml:"backup"`

	// System-protected folder names excluded from the mirror by name.
	ExcludeDirs []string `mapstructure:"exclude_dirs" yaml:"exclude_dirs,omitempty"`
}

// EngineConfig holds the invocation knobs for the external mirroring engine.
type EngineConfig struct {
	Command   string        `mapstructure:"command"    yaml:"command"`
	Threads   int           `mapstructure:"threads"    yaml:"threads"`
	Retries   int           `mapstructure:"retries"    yaml:"retries"`
	RetryWait time.Duration `mapstructure:"retry_wait" yaml:"retry_wait"`
}

// BackupConfig contains global backup options.
type BackupConfig struct {
	OutputMode      string `mapstructure:"output_mode"      yaml:"output_mode"`
	Verify          string `mapstructure:"verify"           yaml:"verify"`
	CompressReports bool   `mapstructure:"compress_reports" yaml:"compress_reports"`
	WorkDir         string `mapstructure:"work_dir"         yaml:"work_dir"`
}

// Load reads the configuration from the given YAML file using Viper,
// merges any included files, and unmarshals into the Config struct.
func (c *Config) Load(path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	v.SetDefault("engine.command", "robocopy")
	v.SetDefault("engine.threads", 8)
	v.SetDefault("engine.retries", 3)
	v.SetDefault("engine.retry_wait", 5*time.Second)
	v.SetDefault("backup.output_mode", ModeSilent)
	v.SetDefault("backup.verify", VerifyAsk)
	v.SetDefault("backup.work_dir", "mirrorctl")
	v.SetDefault("exclude_dirs", []string{
		"System Volume Information",
		"$RECYCLE.BIN",
	})

	// Read base configuration
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("%w: read base config %s: %v", ErrLoadConfig, path, err)
	}

	// Merge include files (if any)
	for _, inc := range v.GetStringSlice("include") {
		data, err := os.ReadFile(inc)
		if err != nil {
			return fmt.Errorf("%w: read include %s: %v", ErrLoadConfig, inc, err)
		}
		if err := v.MergeConfig(bytes.NewReader(data)); err != nil {
			return fmt.Errorf("%w: merge include %s: %v", ErrLoadConfig, inc, err)
		}
	}

	// Unmarshal into the Config struct
	if err := v.UnmarshalExact(c); err != nil {
		return fmt.Errorf("%w: unmarshal config: %v", ErrLoadConfig, err)
	}

	return c.Validate()
}

// Validate checks enum fields and numeric ranges.
func (c *Config) Validate() error {
	switch c.Backup.OutputMode {
	case ModeSilent, ModeEcho, ModeProgress:
	default:
		return fmt.Errorf("%w: output_mode %q (want silent, echo or progress)",
			ErrValidateConfig, c.Backup.OutputMode)
	}
	switch c.Backup.Verify {
	case VerifyAlways, VerifyNever, VerifyAsk:
	default:
		return fmt.Errorf("%w: verify %q (want always, never or ask)",
			ErrValidateConfig, c.Backup.Verify)
	}
	if c.Engine.Command == "" {
		return fmt.Errorf("%w: engine.command is empty", ErrValidateConfig)
	}
	if c.Engine.Threads < 1 {
		return fmt.Errorf("%w: engine.threads %d (want >= 1)", ErrValidateConfig, c.Engine.Threads)
	}
	if c.Engine.Retries < 0 {
		return fmt.Errorf("%w: engine.retries %d (want >= 0)", ErrValidateConfig, c.Engine.Retries)
	}
	if c.Backup.WorkDir == "" {
		return fmt.Errorf("%w: backup.work_dir is empty", ErrValidateConfig)
	}
	return nil
}
