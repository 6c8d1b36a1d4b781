package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jwtly10/exdoc/internal/cli"
	"github.com/jwtly10/exdoc/internal/config"
)

// GenerateCmd implements the 'generate' command
type GenerateCmd struct {
	Output      string `short:"o" help:"Override output.dir"`
	Recursive   bool   `short:"r" help:"Also render sources in subdirectories of sources.dir"`
	NoClean     bool   `name:"no-clean" help:"Keep existing files in the output directory"`
	NoNotebooks bool   `name:"no-notebooks" help:"Skip notebook conversion"`
}

func (g *GenerateCmd) Run(global *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	g.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	opts := processorOptions(cfg)
	opts.Recursive = g.Recursive

	report, err := cli.NewProcessor(opts).Generate(ctx)
	if report != nil {
		printReport(global, report)
	}
	return err
}

// apply overrides configuration values with command line flags
func (g *GenerateCmd) apply(cfg *config.Config) {
	if g.Output != "" {
		cfg.Output.Dir = g.Output
	}
	if g.NoClean {
		cfg.Output.Clean = false
	}
	if g.NoNotebooks {
		cfg.Notebooks.Enabled = false
	}
}

func printReport(global *Global, report *cli.Report) {
	out := global.stdout()
	for _, r := range report.Docs {
		fmt.Fprintf(out, "Wrote %s to %s\n", r.Path, r.OutPath)
	}
	for _, r := range report.Notebooks {
		fmt.Fprintf(out, "Converted %s to %s\n", r.Path, r.OutPath)
	}
	for _, r := range report.Skipped {
		fmt.Fprintf(out, "Skipped notebook %s: %v\n", r.Path, r.Error)
	}
	for _, r := range report.Failed {
		fmt.Fprintf(out, "Failed %s: %v\n", r.Path, r.Error)
	}
}
