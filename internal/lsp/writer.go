package lsp

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jwtly10/exdoc"
)

// PreviewWriter renders open documents into the shadow workspace so editors
// can show the generated page next to the source
type PreviewWriter struct {
	writer *exdoc.Writer
	root   string
}

func NewPreviewWriter(opts exdoc.WriterOptions, root string) *PreviewWriter {
	return &PreviewWriter{
		writer: exdoc.NewWriter(opts),
		root:   root,
	}
}

// Render returns the generated markdown for doc
func (w *PreviewWriter) Render(doc *exdoc.Document) (string, error) {
	return w.writer.Render(doc)
}

// PreviewPath mirrors the source location under the shadow root
//
//	source  = /home/user/examples/ex1.F90
//	preview = /tmp/exdoc-workspace/home/user/examples/doc_ex1.md
func (w *PreviewWriter) PreviewPath(sourcePath string) (string, error) {
	return exdoc.ResolveOutputPath(sourcePath, filepath.Join(w.root, filepath.Dir(sourcePath)))
}

// WriteToPath renders doc into its preview file and returns the rendered text
// along with the file path
func (w *PreviewWriter) WriteToPath(doc *exdoc.Document) (string, string, error) {
	path, err := w.PreviewPath(doc.Metadata.Source)
	if err != nil {
		return "", "", err
	}

	rendered, err := w.Render(doc)
	if err != nil {
		return "", "", fmt.Errorf("render preview: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", "", fmt.Errorf("create preview directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(rendered), 0644); err != nil {
		return "", "", fmt.Errorf("write preview: %w", err)
	}

	slog.Debug("wrote preview", "source", doc.Metadata.Source, "preview", path, "lines", strings.Count(rendered, "\n"))
	return rendered, path, nil
}
