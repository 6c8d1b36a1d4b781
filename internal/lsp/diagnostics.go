package lsp

import (
	"errors"
	"strings"
	"unicode/utf16"

	"github.com/jwtly10/exdoc"
	"github.com/sourcegraph/go-lsp"
)

const diagnosticSource = "exdoc"

// Diagnostic codes published to the client
const (
	CodeMalformedHeader = "malformed-header"
	CodeUnclosedCapture = "unclosed-capture"
	CodeStrayStop       = "stray-stop"
)

// splitLines splits editor text the same way the parser reads files
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// lineRange spans a whole line. LSP characters count UTF-16 code units.
func lineRange(line int, content string) lsp.Range {
	return lsp.Range{
		Start: lsp.Position{Line: line, Character: 0},
		End:   lsp.Position{Line: line, Character: len(utf16.Encode([]rune(content)))},
	}
}

// Diagnose reports problems with the annotation markers of an open document.
//
// A missing documentation prefix is an error since the file cannot be
// rendered at all. An unterminated capture still renders, the listing simply
// runs to the end of the file, so it is only a warning. A stop marker without
// a matching start has no effect and is reported as a hint.
func Diagnose(p *exdoc.Parser, text string) []lsp.Diagnostic {
	diagnostics := []lsp.Diagnostic{}
	lines := splitLines(text)

	header := ""
	if len(lines) > 0 {
		header = lines[0]
	}
	if _, _, err := p.ParseHeader(header); err != nil {
		diagnostics = append(diagnostics, lsp.Diagnostic{
			Range:    lineRange(0, header),
			Severity: lsp.Error,
			Code:     CodeMalformedHeader,
			Source:   diagnosticSource,
			Message:  headerMessage(err),
		})
	}

	var (
		state     exdoc.ParserState
		startLine = -1
	)
	markers := p.Markers()
	for i := 1; i < len(lines); i++ {
		line := markers.Classify(lines[i])
		switch line.Kind {
		case exdoc.CaptureStart:
			if !state.Capture {
				startLine = i
			}
		case exdoc.CaptureStop:
			if !state.Capture {
				diagnostics = append(diagnostics, lsp.Diagnostic{
					Range:    lineRange(i, lines[i]),
					Severity: lsp.Hint,
					Code:     CodeStrayStop,
					Source:   diagnosticSource,
					Message:  "stop marker without an active capture has no effect",
				})
			}
		}
		state = state.Next(line)
	}

	if state.Capture && startLine >= 0 {
		diagnostics = append(diagnostics, lsp.Diagnostic{
			Range:    lineRange(startLine, lines[startLine]),
			Severity: lsp.Warning,
			Code:     CodeUnclosedCapture,
			Source:   diagnosticSource,
			Message:  "capture is never stopped, the complete source listing runs to the end of the file",
		})
	}

	return diagnostics
}

func headerMessage(err error) string {
	if errors.Is(err, exdoc.ErrMalformedHeader) {
		return "line 1 must carry the documentation prefix, eg `!! Example {#doc_example}`"
	}
	return err.Error()
}

// Symbols lists the section headings of a document as outline entries
func Symbols(p *exdoc.Parser, uri lsp.DocumentURI, text string) []lsp.SymbolInformation {
	symbols := []lsp.SymbolInformation{}
	lines := splitLines(text)
	if len(lines) == 0 {
		return symbols
	}

	container := ""
	if prefix, _, err := p.ParseHeader(lines[0]); err == nil {
		container = prefix
	}

	markers := p.Markers()
	for i := 1; i < len(lines); i++ {
		line := markers.Classify(lines[i])
		if line.Kind != exdoc.DocLine {
			continue
		}
		title, ok := markers.SectionTitle(line.Content)
		if !ok {
			continue
		}
		symbols = append(symbols, lsp.SymbolInformation{
			Name:          title,
			Kind:          lsp.SKNamespace,
			Location:      lsp.Location{URI: uri, Range: lineRange(i, lines[i])},
			ContainerName: container,
		})
	}
	return symbols
}
