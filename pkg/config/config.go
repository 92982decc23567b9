// Package config loads morphmesh settings from YAML.
package config

import (
	"bytes"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/chazu/morphmesh/pkg/bajaj"
	"github.com/chazu/morphmesh/pkg/engine"
	"github.com/chazu/morphmesh/pkg/tessellate"
)

// Config is the full settings document.
type Config struct {
	Reconstruction Reconstruction `yaml:"reconstruction"`
	Tessellate     Tessellate     `yaml:"tessellate"`
	Engine         Engine         `yaml:"engine"`
	Log            Log            `yaml:"log"`
}

// Reconstruction holds the per-pair kernel settings.
type Reconstruction struct {
	SmoothingSegments  int  `yaml:"smoothing_segments"` // 0 disables smoothing
	VerifyAugmentation bool `yaml:"verify_augmentation"`
	AllowFanFallback   bool `yaml:"allow_fan_fallback"`
}

// Tessellate holds the link scheduler settings.
type Tessellate struct {
	Workers int `yaml:"workers"`
}

// Engine holds the script evaluator settings.
type Engine struct {
	EvalTimeout time.Duration `yaml:"eval_timeout"`
}

// Log holds logger settings.
type Log struct {
	Level string `yaml:"level"`
}

// Default returns the built-in settings.
func Default() Config {
	ko := bajaj.DefaultOptions()
	return Config{
		Reconstruction: Reconstruction{
			SmoothingSegments:  ko.SmoothingSegments,
			VerifyAugmentation: ko.VerifyAugmentation,
			AllowFanFallback:   ko.AllowFanFallback,
		},
		Tessellate: Tessellate{Workers: tessellate.DefaultWorkers},
		Engine:     Engine{EvalTimeout: engine.EvalTimeout},
		Log:        Log{Level: "info"},
	}
}

// Load reads the file at path over the defaults and validates the result.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "config: reading file")
	}
	cfg, err := Parse(bytes.NewReader(data))
	if err != nil {
		return Config{}, errors.Wrapf(err, "config: %s", path)
	}
	return cfg, nil
}

// Parse decodes a YAML document over the defaults and validates the result.
// Keys the document leaves out keep their default values; unknown keys are
// rejected.
func Parse(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, errors.Wrap(err, "config: decoding yaml")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings no component can run with.
func (c Config) Validate() error {
	switch {
	case c.Reconstruction.SmoothingSegments < 0:
		return errors.Errorf("config: reconstruction.smoothing_segments is %d, must not be negative", c.Reconstruction.SmoothingSegments)
	case c.Tessellate.Workers < 1:
		return errors.Errorf("config: tessellate.workers is %d, must be positive", c.Tessellate.Workers)
	case c.Engine.EvalTimeout <= 0:
		return errors.Errorf("config: engine.eval_timeout is %s, must be positive", c.Engine.EvalTimeout)
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrap(err, "config: log.level")
	}
	return nil
}

// Level returns the configured log level. Validate has already checked it;
// an unparsable level falls back to info.
func (c Config) Level() zapcore.Level {
	l, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return l
}

// KernelOptions returns the reconstruction options with the given logger.
func (c Config) KernelOptions(log *zap.Logger) bajaj.Options {
	return bajaj.Options{
		Logger:             log,
		SmoothingSegments:  c.Reconstruction.SmoothingSegments,
		VerifyAugmentation: c.Reconstruction.VerifyAugmentation,
		AllowFanFallback:   c.Reconstruction.AllowFanFallback,
	}
}

// TessellateOptions returns the scheduler options with the given logger.
func (c Config) TessellateOptions(log *zap.Logger) tessellate.Options {
	return tessellate.Options{Workers: c.Tessellate.Workers, Logger: log}
}

// EngineOptions returns the evaluator options.
func (c Config) EngineOptions() []engine.Option {
	return []engine.Option{engine.WithTimeout(c.Engine.EvalTimeout)}
}
