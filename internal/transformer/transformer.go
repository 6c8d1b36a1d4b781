package transformer

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jwtly10/exdoc"
)

type TransformOptions struct {
	// Directory the doc_<basename>.md files are written to
	OutputDir string
	// Rendering options for the writer instance
	Writer exdoc.WriterOptions
	// Markers of the annotated source convention
	Markers exdoc.Markers
	// If true, no backup of an existing generated file will be created
	NoBackup bool
}

func (t *TransformOptions) Pretty() string {
	return fmt.Sprintf("output=%s language=%s header=%s backup=%s",
		t.OutputDir,
		t.Writer.Language,
		boolToText(t.Writer.IncludeHeader),
		boolToText(!t.NoBackup))
}

func boolToText(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

type Transformer struct {
	parser *exdoc.Parser
	writer *exdoc.Writer
	backup *exdoc.BackupManager

	opts TransformOptions
}

// NewTransformer creates a new Transformer instance with the specified options [TransformOptions]
func NewTransformer(opts TransformOptions) *Transformer {
	if opts.Markers == (exdoc.Markers{}) {
		opts.Markers = exdoc.DefaultMarkers
	}
	return &Transformer{
		parser: exdoc.NewParserWithMarkers(opts.Markers),
		writer: exdoc.NewWriter(opts.Writer),
		backup: exdoc.NewBackupManager(),
		opts:   opts,
	}
}

type AnnotatedSource struct {
	Content  io.Reader
	Metadata exdoc.MetaData
}

// Render parses the source and writes the rendered document to out, without
// touching the output directory
func (t *Transformer) Render(input AnnotatedSource, out io.Writer) (*exdoc.Document, error) {
	doc, err := t.parser.ParseAnnotatedDoc(input.Content, input.Metadata)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	if err := t.writer.Write(doc, out); err != nil {
		return nil, fmt.Errorf("write error: %w", err)
	}

	return doc, nil
}

// Transform renders the source into <OutputDir>/doc_<basename>.md and returns
// the absolute path of the generated file
func (t *Transformer) Transform(input AnnotatedSource) (string, error) {
	slog.Debug("transforming document", "path", input.Metadata.Source)
	if input.Metadata.Source == "" {
		return "", fmt.Errorf("source metadata is required for transformation")
	}
	if t.opts.OutputDir == "" {
		return "", fmt.Errorf("output directory is required for transformation")
	}

	outPath, err := exdoc.ResolveOutputPath(input.Metadata.Source, t.opts.OutputDir)
	if err != nil {
		return "", fmt.Errorf("resolve output path error: %w", err)
	}
	absOutPath := exdoc.MustAbs(outPath)

	// parse before touching the output so a malformed file leaves no trace
	doc, err := t.parser.ParseAnnotatedDoc(input.Content, input.Metadata)
	if err != nil {
		return "", fmt.Errorf("parse error: %w", err)
	}

	if !t.opts.NoBackup {
		bkPath, err := t.backup.CreateBackupOf(absOutPath)
		if err != nil {
			return "", fmt.Errorf("backup error: %w", err)
		}
		if bkPath != "" {
			slog.Info("file already existed. Created backup", "backup", bkPath, "original", absOutPath)
		}
	}

	if err := os.MkdirAll(filepath.Dir(absOutPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	out, err := os.Create(absOutPath)
	if err != nil {
		return "", fmt.Errorf("failed to create output file: %w", err)
	}
	defer out.Close()

	if err := t.writer.Write(doc, out); err != nil {
		return "", fmt.Errorf("write error: %w", err)
	}

	return absOutPath, nil
}
