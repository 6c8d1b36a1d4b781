package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jwtly10/exdoc/internal/cli"
	"github.com/jwtly10/exdoc/internal/config"
	"github.com/jwtly10/exdoc/internal/watch"
)

// WatchCmd implements the 'watch' command
type WatchCmd struct {
	Debounce  time.Duration `help:"Quiet period before a changed file is regenerated" default:"300ms"`
	NoInitial bool          `name:"no-initial" help:"Do not run a full generate before watching"`
}

func (w *WatchCmd) Run(global *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	processor := cli.NewProcessor(processorOptions(cfg))

	if !w.NoInitial {
		report, err := processor.Generate(ctx)
		if report != nil {
			printReport(global, report)
		}
		if err != nil {
			// broken sources are reported again once they are edited
			slog.Warn("initial generation incomplete", "error", err)
		}
	}

	watcher, err := watch.NewWatcher(cfg.Sources.Dir, processor.IsSource, func(path string) error {
		return processor.ProcessFile(path).Error
	}, w.Debounce)
	if err != nil {
		return err
	}

	return watcher.Run(ctx)
}
