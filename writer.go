package exdoc

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

const (
	codeFence        = "~~~~~~~~~"
	DefaultLanguage  = "F90"
	fullSourceSuffix = "_full Complete Source"
)

type WriterOptions struct {
	// Language tag on opening code fences, eg ~~~~~~~~~{.F90}
	Language string
	// Render the line 1 header text before the first segment
	IncludeHeader bool
}

var DefaultWriterOptions = WriterOptions{
	Language: DefaultLanguage,
}

// Writer renders a parsed Document as doxygen flavoured markdown
type Writer struct {
	opts WriterOptions
}

func NewWriter(opts WriterOptions) *Writer {
	return &Writer{
		opts: opts,
	}
}

// Write renders doc to output.
//
// Doc segments are written as prose and code segments as fenced blocks,
// separated by a blank line. Adjacent segments are never merged. A non empty
// full source buffer is appended as its own section.
func (w *Writer) Write(doc *Document, output io.Writer) error {
	var b strings.Builder

	blocks := 0
	if w.opts.IncludeHeader && doc.Header != "" {
		b.WriteString(doc.Header)
		b.WriteString("\n")
		blocks++
	}

	for _, seg := range doc.Segments {
		if blocks > 0 {
			b.WriteString("\n")
		}
		switch seg.Kind {
		case DocSegment:
			w.writeLines(&b, seg.Lines)
		case CodeSegment:
			w.writeFenced(&b, seg.Lines)
		}
		blocks++
	}

	if doc.HasFullSource() {
		if blocks > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "\\section %s%s\n", doc.Prefix, fullSourceSuffix)
		w.writeFenced(&b, doc.FullSource)
	}

	slog.Debug("rendering document",
		"source", doc.Metadata.Source,
		"segments", len(doc.Segments),
		"full_source", doc.HasFullSource())

	if _, err := io.WriteString(output, b.String()); err != nil {
		return fmt.Errorf("writing document: %w", err)
	}
	return nil
}

// Render returns the rendered document as a string
func (w *Writer) Render(doc *Document) (string, error) {
	var b strings.Builder
	if err := w.Write(doc, &b); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (w *Writer) writeFenced(b *strings.Builder, lines []string) {
	b.WriteString(codeFence)
	if w.opts.Language != "" {
		fmt.Fprintf(b, "{.%s}", w.opts.Language)
	}
	b.WriteString("\n")
	w.writeLines(b, lines)
	b.WriteString(codeFence)
	b.WriteString("\n")
}

func (w *Writer) writeLines(b *strings.Builder, lines []string) {
	for _, line := range lines {
		b.WriteString(line)
		b.WriteString("\n")
	}
}
