package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/jwtly10/exdoc/internal/cli"
	"github.com/jwtly10/exdoc/internal/config"
	"github.com/jwtly10/exdoc/internal/notebook"
	"github.com/jwtly10/exdoc/internal/transformer"
)

// Global is shared state handed to every command
type Global struct {
	// Destination of command output, defaults to os.Stdout
	Stdout io.Writer
}

func (g *Global) stdout() io.Writer {
	if g == nil || g.Stdout == nil {
		return os.Stdout
	}
	return g.Stdout
}

// CLI definition & global flags
type CLI struct {
	Config string `short:"c" help:"Configuration file path" default:"exdoc.yaml" env:"EXDOC_CONFIG"`
	Debug  bool   `short:"v" help:"Enable debug logging"`

	Generate GenerateCmd `cmd:"" default:"1" help:"Generate documentation pages for every annotated source and notebook"`
	Render   RenderCmd   `cmd:"" help:"Render a single annotated source to stdout"`
	Notebook NotebookCmd `cmd:"" help:"Convert notebooks into documentation pages"`
	Watch    WatchCmd    `cmd:"" help:"Regenerate pages whenever an annotated source changes"`
	Version  VersionCmd  `cmd:"" help:"Show version and exit"`
}

// AfterApply runs after flag parsing and sets up logging once
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

// processorOptions maps the configuration onto the batch processor
func processorOptions(cfg *config.Config) cli.Options {
	opts := cli.Options{
		SourcesDir: cfg.Sources.Dir,
		Extensions: cfg.Sources.Extensions,
		Clean:      cfg.Output.Clean,
		Transform:  transformOptions(cfg),
		Notebook:   notebookOptions(cfg),
	}
	if cfg.Notebooks.Enabled {
		opts.NotebooksDir = cfg.Notebooks.Dir
	}
	return opts
}

func transformOptions(cfg *config.Config) transformer.TransformOptions {
	return transformer.TransformOptions{
		OutputDir: cfg.Output.Dir,
		Writer:    cfg.WriterOptions(),
		Markers:   cfg.ExdocMarkers(),
		NoBackup:  !cfg.Output.Backup,
	}
}

func notebookOptions(cfg *config.Config) notebook.Options {
	return notebook.Options{
		Command:   cfg.Notebooks.Command,
		Timeout:   cfg.Notebooks.Timeout,
		OutputDir: cfg.Output.Dir,
		ImagesDir: cfg.Output.ImagesDir,
	}
}
