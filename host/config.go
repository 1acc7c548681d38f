package host

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
	"github.com/Masterminds/semver/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/flowgraph/component"
	"github.com/wippyai/flowgraph/engine"
	"github.com/wippyai/flowgraph/errors"
)

// Config is the host configuration, usually read from TOML:
//
//	api_constraint = "^0.1"
//	log_level = "debug"
//	parallel = 4
//	heap_base = 1024
//	schema = "accumulate.yaml"
type Config struct {
	// APIConstraint is the semver constraint component versions must meet.
	APIConstraint string `toml:"api_constraint"`
	LogLevel      string `toml:"log_level"`
	// Schema is a YAML slot schema the attached components must satisfy.
	// Relative paths are resolved against the config file.
	Schema string `toml:"schema"`
	// Parallel limits the instances RunAll processes at once.
	Parallel int `toml:"parallel"`
	// HeapBase is where host-managed slot storage starts in wasm guests
	// without an alloc export.
	HeapBase uint32 `toml:"heap_base"`
	// MemoryLimitPages caps wasm guest memory, 0 for the wazero default.
	MemoryLimitPages uint32 `toml:"memory_limit_pages"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		APIConstraint: component.DefaultConstraint,
		LogLevel:      "info",
		Parallel:      runtime.GOMAXPROCS(0),
		HeapBase:      engine.DefaultHeapBase,
	}
}

// ParseConfig decodes TOML over DefaultConfig. Unknown keys are errors.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return Config{}, errors.Wrap(errors.PhaseConfig, errors.KindInvalidData, err, "decode config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, errors.InvalidInput(errors.PhaseConfig, fmt.Sprintf("unknown config keys %v", undecoded))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads a TOML config file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.New(errors.PhaseConfig, errors.KindNotFound).
			Path(path).
			Cause(err).
			Detail("read config").
			Build()
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return Config{}, err
	}
	if cfg.Schema != "" && !filepath.IsAbs(cfg.Schema) {
		cfg.Schema = filepath.Join(filepath.Dir(path), cfg.Schema)
	}
	return cfg, nil
}

// Validate checks field ranges, the version constraint and the log level.
func (c Config) Validate() error {
	if c.Parallel < 1 {
		return errors.InvalidInput(errors.PhaseConfig, fmt.Sprintf("parallel must be at least 1, got %d", c.Parallel))
	}
	if c.HeapBase != 0 && c.HeapBase < 8 {
		return errors.InvalidInput(errors.PhaseConfig, fmt.Sprintf("heap_base %d overlaps the null page", c.HeapBase))
	}
	if _, err := semver.NewConstraint(c.APIConstraint); err != nil {
		return errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "api_constraint "+c.APIConstraint)
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "log_level "+c.LogLevel)
	}
	return nil
}

// NewLogger builds a console logger at the configured level.
func (c Config) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "log_level "+c.LogLevel)
	}
	zcfg := zap.NewDevelopmentConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.DisableStacktrace = true
	return zcfg.Build()
}
