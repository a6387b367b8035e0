package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/subword/internal/logger"
)

var (
	configFile string
	logLevel   string
	logFormat  string
	debug      bool

	// cfg is loaded once in setup and consulted by each command for
	// defaults its own flags did not override.
	cfg Config
)

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "path to config.yaml (default: user config dir)",
			Destination: &configFile,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (auto, pretty, json, text)",
			Value:       "auto",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}

func modelFlag(dest *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "model",
		Aliases:     []string{"m"},
		Usage:       "model path prefix (reads <prefix>_merges.txt and <prefix>_vocab.json)",
		Destination: dest,
	}
}

func cacheSizeFlag(dest *int64) cli.Flag {
	return &cli.Int64Flag{
		Name:        "cache-size",
		Usage:       "number of segmented words to cache (0 disables)",
		Value:       4096,
		Destination: dest,
	}
}

// setup loads the config file and installs the logger into the context.
func setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	path := configFile
	if path == "" {
		path = configPath()
	}
	loaded, err := LoadConfig(path, configFile != "")
	if err != nil {
		return ctx, err
	}
	cfg = loaded
	applyLogConfig(cmd, cfg, &logLevel, &logFormat)

	level := logger.ParseLevel(logLevel)
	if debug {
		level = slog.LevelDebug
	}
	log, err := newLogger(logFormat, errWriter(cmd), level)
	if err != nil {
		return ctx, err
	}
	return logger.WithContext(ctx, log), nil
}

func newLogger(format string, w io.Writer, level slog.Level) (logger.Logger, error) {
	f := logger.Format(format)
	if format == "auto" {
		f = logger.FormatText
		if file, ok := w.(*os.File); ok && isTerminal(int(file.Fd())) {
			f = logger.FormatPretty
		}
	}
	return logger.NewFormat(f, w, level)
}

func outWriter(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

func errWriter(cmd *cli.Command) io.Writer {
	if w := cmd.Root().ErrWriter; w != nil {
		return w
	}
	return os.Stderr
}

func inReader(cmd *cli.Command) io.Reader {
	if r := cmd.Root().Reader; r != nil {
		return r
	}
	return os.Stdin
}

// requireModel resolves the model prefix from the flag or the config file.
func requireModel(cmd *cli.Command, prefix string) (string, error) {
	if prefix == "" && !cmd.IsSet("model") {
		prefix = cfg.Model
	}
	if prefix == "" {
		return "", fmt.Errorf("--model is required (or set model in %s)", configPath())
	}
	return prefix, nil
}
