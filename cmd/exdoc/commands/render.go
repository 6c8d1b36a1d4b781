package commands

import (
	"fmt"
	"os"

	"github.com/jwtly10/exdoc"
	"github.com/jwtly10/exdoc/internal/config"
	"github.com/jwtly10/exdoc/internal/transformer"
)

// RenderCmd implements the 'render' command
type RenderCmd struct {
	File          string `arg:"" type:"existingfile" help:"Annotated source to render"`
	Language      string `help:"Override render.language"`
	IncludeHeader bool   `name:"include-header" help:"Render the line 1 header text first"`
}

func (r *RenderCmd) Run(global *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if r.Language != "" {
		cfg.Render.Language = r.Language
	}
	if r.IncludeHeader {
		cfg.Render.IncludeHeader = true
	}

	f, err := os.Open(r.File)
	if err != nil {
		return fmt.Errorf("error opening file: %w", err)
	}
	defer f.Close()

	t := transformer.NewTransformer(transformOptions(cfg))
	_, err = t.Render(transformer.AnnotatedSource{
		Content:  f,
		Metadata: exdoc.MetaData{Source: r.File},
	}, global.stdout())
	return err
}
