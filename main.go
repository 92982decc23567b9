// Command morphmesh evaluates a section script and reconstructs a closed
// surface for every stitch link in it, printing a JSON report.
//
// Usage:
//
//	morphmesh [-config file] [-dev] [-stl dir] script.mm
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/chazu/morphmesh/pkg/config"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run is main without the process exit, returning the exit code.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("morphmesh", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "YAML configuration file")
	dev := fs.Bool("dev", false, "human-readable development logging")
	stlDir := fs.String("stl", "", "write one STL file per link into this directory")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: morphmesh [-config file] [-dev] [-stl dir] script.mm")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
	}

	log := newLogger(stderr, cfg.Level(), *dev)
	defer func() { _ = log.Sync() }()

	source, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		log.Error("reading script", zap.Error(err))
		return 1
	}

	app := NewApp(cfg, log)
	report := app.Evaluate(context.Background(), string(source))
	if *stlDir != "" {
		if err := app.ExportSTL(*stlDir, report); err != nil {
			log.Error("exporting stl", zap.Error(err))
			return 1
		}
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		log.Error("writing report", zap.Error(err))
		return 1
	}
	if report.Failed() {
		return 1
	}
	return 0
}

// newLogger builds a JSON logger, or a console logger in development mode,
// writing to w at the given level.
func newLogger(w io.Writer, level zapcore.Level, dev bool) *zap.Logger {
	enc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	opts := []zap.Option{}
	if dev {
		enc = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		opts = append(opts, zap.Development(), zap.AddCaller())
	}
	core := zapcore.NewCore(enc, zapcore.Lock(zapcore.AddSync(w)), level)
	return zap.New(core, opts...)
}
