package lsp

import (
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jwtly10/exdoc"
	"github.com/sourcegraph/go-lsp"
)

type DocumentServiceOptions struct {
	Markers exdoc.Markers
	Writer  exdoc.WriterOptions

	// Root directory for preview files
	ShadowRoot string
}

var DefaultDocumentServiceOptions = DocumentServiceOptions{
	Markers:    exdoc.DefaultMarkers,
	Writer:     exdoc.DefaultWriterOptions,
	ShadowRoot: filepath.Join(os.TempDir(), "exdoc-workspace"),
}

func (o DocumentServiceOptions) Validate() error {
	if o.ShadowRoot == "" {
		return fmt.Errorf("shadow root directory is required")
	}
	if o.Markers != (exdoc.Markers{}) && o.Markers.Doc == "" {
		return fmt.Errorf("doc marker is required")
	}

	return nil
}

// Preview is the response of the exdoc/preview request
type Preview struct {
	// URI of the rendered file in the shadow workspace
	URI lsp.DocumentURI `json:"uri"`
	// Generated markdown
	Markdown string `json:"markdown"`
	// Number of doc and code segments
	Segments int `json:"segments"`
}

// DocumentService keeps the text of open documents and derives diagnostics,
// outlines and previews from it
type DocumentService struct {
	mu   sync.RWMutex
	docs map[lsp.DocumentURI]string

	parser  *exdoc.Parser
	preview *PreviewWriter
	// The root directory for preview files eg /tmp/exdoc-workspace
	shadowRoot string
}

func NewDocumentService(opts DocumentServiceOptions) (*DocumentService, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid document service options: %w", err)
	}
	if opts.Markers == (exdoc.Markers{}) {
		opts.Markers = exdoc.DefaultMarkers
	}
	if opts.Writer.Language == "" {
		opts.Writer.Language = exdoc.DefaultLanguage
	}

	return &DocumentService{
		docs:       make(map[lsp.DocumentURI]string),
		parser:     exdoc.NewParserWithMarkers(opts.Markers),
		preview:    NewPreviewWriter(opts.Writer, opts.ShadowRoot),
		shadowRoot: opts.ShadowRoot,
	}, nil
}

// Set stores the full text of a document, replacing any previous version
func (s *DocumentService) Set(uri lsp.DocumentURI, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[uri] = text
}

// Close forgets a document
func (s *DocumentService) Close(uri lsp.DocumentURI) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, uri)
}

// Text returns the current text of an open document
func (s *DocumentService) Text(uri lsp.DocumentURI) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	text, ok := s.docs[uri]
	return text, ok
}

func (s *DocumentService) mustText(uri lsp.DocumentURI) (string, error) {
	text, ok := s.Text(uri)
	if !ok {
		return "", fmt.Errorf("document %s is not open", uri)
	}
	return text, nil
}

// Diagnostics returns the marker diagnostics of an open document
func (s *DocumentService) Diagnostics(uri lsp.DocumentURI) ([]lsp.Diagnostic, error) {
	text, err := s.mustText(uri)
	if err != nil {
		return nil, err
	}
	return Diagnose(s.parser, text), nil
}

// Symbols returns the section outline of an open document
func (s *DocumentService) Symbols(uri lsp.DocumentURI) ([]lsp.SymbolInformation, error) {
	text, err := s.mustText(uri)
	if err != nil {
		return nil, err
	}
	return Symbols(s.parser, uri, text), nil
}

// Preview renders an open document into the shadow workspace
func (s *DocumentService) Preview(uri lsp.DocumentURI) (*Preview, error) {
	text, err := s.mustText(uri)
	if err != nil {
		return nil, err
	}

	fsPath, err := s.URIToPath(uri)
	if err != nil {
		return nil, fmt.Errorf("invalid document URI: %w", err)
	}

	doc, err := s.parser.ParseAnnotatedDoc(strings.NewReader(text), exdoc.MetaData{Source: fsPath})
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	rendered, path, err := s.preview.WriteToPath(doc)
	if err != nil {
		return nil, err
	}

	slog.Debug("rendered preview", "original", uri, "preview", path)

	return &Preview{
		URI:      lsp.DocumentURI(s.PathToURI(path)),
		Markdown: rendered,
		Segments: len(doc.Segments),
	}, nil
}

// ShadowRoot returns the root directory for preview files
func (s *DocumentService) ShadowRoot() string {
	return s.shadowRoot
}

// URIToPath converts an LSP URI to a filesystem path
func (s *DocumentService) URIToPath(uri lsp.DocumentURI) (string, error) {
	u, err := url.Parse(string(uri))
	if err != nil {
		return "", err
	}
	if u.Scheme != "" && u.Scheme != "file" {
		return "", fmt.Errorf("unsupported URI scheme %q", u.Scheme)
	}
	return u.Path, nil
}

// PathToURI converts a filesystem path to an LSP URI
func (s *DocumentService) PathToURI(path string) string {
	return "file://" + filepath.ToSlash(path)
}

// CleanupShadowFiles removes all preview files
func (s *DocumentService) CleanupShadowFiles() error {
	if s.shadowRoot != DefaultDocumentServiceOptions.ShadowRoot {
		slog.Info("skipping shadow file cleanup due to user specified", "path", s.shadowRoot)
		return nil
	}

	return filepath.WalkDir(s.shadowRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			slog.Warn("error accessing path", "path", path, "error", err)
			return nil
		}

		if !d.IsDir() && strings.HasPrefix(d.Name(), "doc_") && strings.HasSuffix(d.Name(), ".md") {
			if err := os.Remove(path); err != nil {
				slog.Warn("failed to remove shadow file", "path", path, "error", err)
			} else {
				slog.Debug("removed shadow file", "path", path)
			}
		}
		return nil
	})
}
