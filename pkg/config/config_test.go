package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Tessellate.Workers != 4 || cfg.Engine.EvalTimeout != 5*time.Second {
		t.Errorf("Default = %+v", cfg)
	}
	if !cfg.Reconstruction.VerifyAugmentation || !cfg.Reconstruction.AllowFanFallback {
		t.Errorf("reconstruction defaults = %+v", cfg.Reconstruction)
	}
	if cfg.Level() != zapcore.InfoLevel {
		t.Errorf("Level = %s", cfg.Level())
	}
}

func TestParseOverlaysDefaults(t *testing.T) {
	cfg, err := Parse(strings.NewReader(`
reconstruction:
  smoothing_segments: 3
  allow_fan_fallback: false
engine:
  eval_timeout: 250ms
log:
  level: debug
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Reconstruction.SmoothingSegments != 3 || cfg.Reconstruction.AllowFanFallback {
		t.Errorf("reconstruction = %+v", cfg.Reconstruction)
	}
	if !cfg.Reconstruction.VerifyAugmentation {
		t.Error("verify_augmentation should keep its default")
	}
	if cfg.Tessellate.Workers != 4 {
		t.Errorf("workers = %d, want default 4", cfg.Tessellate.Workers)
	}
	if cfg.Engine.EvalTimeout != 250*time.Millisecond {
		t.Errorf("eval_timeout = %s", cfg.Engine.EvalTimeout)
	}
	if cfg.Level() != zapcore.DebugLevel {
		t.Errorf("Level = %s", cfg.Level())
	}
}

func TestParseEmptyDocument(t *testing.T) {
	cfg, err := Parse(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg != Default() {
		t.Errorf("empty document = %+v, want defaults", cfg)
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"unknown key", "tessellate:\n  threads: 2\n", "decoding yaml"},
		{"zero workers", "tessellate:\n  workers: 0\n", "tessellate.workers"},
		{"negative smoothing", "reconstruction:\n  smoothing_segments: -1\n", "smoothing_segments"},
		{"zero timeout", "engine:\n  eval_timeout: 0s\n", "eval_timeout"},
		{"bad level", "log:\n  level: loud\n", "log.level"},
		{"bad duration", "engine:\n  eval_timeout: soon\n", "decoding yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.doc))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "morphmesh.yaml")
	if err := os.WriteFile(path, []byte("tessellate:\n  workers: 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Tessellate.Workers != 2 {
		t.Errorf("workers = %d, want 2", cfg.Tessellate.Workers)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load should fail for a missing file")
	}
}

func TestComponentOptions(t *testing.T) {
	cfg := Default()
	cfg.Reconstruction.SmoothingSegments = 5
	cfg.Tessellate.Workers = 7
	log := zap.NewNop()

	ko := cfg.KernelOptions(log)
	if ko.SmoothingSegments != 5 || ko.Logger != log || !ko.AllowFanFallback {
		t.Errorf("KernelOptions = %+v", ko)
	}
	to := cfg.TessellateOptions(log)
	if to.Workers != 7 || to.Logger != log {
		t.Errorf("TessellateOptions = %+v", to)
	}
	if len(cfg.EngineOptions()) != 1 {
		t.Errorf("EngineOptions = %d options", len(cfg.EngineOptions()))
	}
}
