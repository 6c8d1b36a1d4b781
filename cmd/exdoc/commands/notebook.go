package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jwtly10/exdoc/internal/config"
	"github.com/jwtly10/exdoc/internal/notebook"
)

// NotebookCmd implements the 'notebook' command
type NotebookCmd struct {
	Files  []string `arg:"" help:"Notebooks to convert"`
	Output string   `short:"o" help:"Override output.dir"`
}

func (n *NotebookCmd) Run(global *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if n.Output != "" {
		cfg.Output.Dir = n.Output
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	converter := notebook.NewConverter(notebookOptions(cfg))

	var errs []error
	for _, path := range n.Files {
		res, err := converter.Convert(ctx, path)
		if err != nil {
			slog.Warn("notebook conversion failed", "path", path, "error", err)
			errs = append(errs, err)
			continue
		}
		fmt.Fprintf(global.stdout(), "Converted %s to %s\n", path, res.OutPath)
	}
	return errors.Join(errs...)
}
