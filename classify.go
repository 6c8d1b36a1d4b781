package exdoc

import "strings"

// Markers are the literal tokens of the annotated source convention.
//
// The defaults must match existing annotated example files byte for byte.
type Markers struct {
	// Prefix of a documentation line
	Doc string
	// Line prefix turning full source capture on
	CaptureStart string
	// Line prefix turning full source capture off
	CaptureStop string
	// Token inside a documentation line that starts a new section
	Section string
	// Comment leader used to build section banners in the full source listing
	Comment string
}

var DefaultMarkers = Markers{
	Doc:          "!!",
	CaptureStart: "! START SOURCE",
	CaptureStop:  "! STOP SOURCE",
	Section:      `\subsection`,
	Comment:      "!",
}

type LineKind int

const (
	DocLine LineKind = iota
	CodeLine
	CaptureStart
	CaptureStop
)

func (k LineKind) String() string {
	switch k {
	case DocLine:
		return "doc"
	case CodeLine:
		return "code"
	case CaptureStart:
		return "capture-start"
	case CaptureStop:
		return "capture-stop"
	default:
		return "unknown"
	}
}

// Line is a classified source line. Content is empty for capture markers.
type Line struct {
	Kind    LineKind
	Content string
}

// Classify decides what a single source line is.
//
// Capture markers are checked before the doc prefix, so a marker line is
// never emitted as documentation. Every line is classifiable.
func (m Markers) Classify(line string) Line {
	switch {
	case strings.HasPrefix(line, m.CaptureStart):
		return Line{Kind: CaptureStart}
	case strings.HasPrefix(line, m.CaptureStop):
		return Line{Kind: CaptureStop}
	case strings.HasPrefix(line, m.Doc):
		content := strings.TrimPrefix(line, m.Doc)
		content = strings.TrimPrefix(content, " ")
		return Line{Kind: DocLine, Content: content}
	default:
		return Line{Kind: CodeLine, Content: line}
	}
}
