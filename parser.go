package exdoc

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// ErrMalformedHeader is returned when line 1 of an annotated file has no
// brace delimited documentation prefix
var ErrMalformedHeader = errors.New("malformed header: missing {prefix} token on line 1")

const maxLineSize = 1024 * 1024

type Mode int

const (
	InDoc Mode = iota
	InCode
)

func (m Mode) String() string {
	if m == InCode {
		return "code"
	}
	return "doc"
}

// ParserState is the state of the segmentation machine between two lines
type ParserState struct {
	Mode    Mode
	Capture bool
}

// Next returns the state after consuming l.
//
// Capture markers only toggle the capture flag, doc and code lines only
// switch the mode. A stop marker without an active capture is a no-op.
func (s ParserState) Next(l Line) ParserState {
	switch l.Kind {
	case CaptureStart:
		s.Capture = true
	case CaptureStop:
		s.Capture = false
	case DocLine:
		s.Mode = InDoc
	case CodeLine:
		s.Mode = InCode
	}
	return s
}

type Parser struct {
	markers Markers
}

func NewParser() *Parser {
	return NewParserWithMarkers(DefaultMarkers)
}

func NewParserWithMarkers(m Markers) *Parser {
	return &Parser{
		markers: m,
	}
}

func (p *Parser) Markers() Markers {
	return p.markers
}

// ParseAnnotatedDoc reads an annotated source file and splits it into segments
func (p *Parser) ParseAnnotatedDoc(r io.Reader, md MetaData) (*Document, error) {
	var lines []string

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		lines = append(lines, strings.TrimSuffix(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading source: %w", err)
	}

	return p.ParseLines(lines, md)
}

// ParseLines runs the segmentation machine over the lines of one file.
//
// Line 1 only provides the documentation prefix and header text, it is not
// part of any segment.
func (p *Parser) ParseLines(lines []string, md MetaData) (*Document, error) {
	if len(lines) == 0 {
		return nil, ErrMalformedHeader
	}

	prefix, header, err := p.ParseHeader(lines[0])
	if err != nil {
		return nil, err
	}

	doc := &Document{
		Metadata: md,
		Prefix:   prefix,
		Header:   header,
	}

	var (
		state    ParserState
		segments segmentAccumulator
		capture  = captureAccumulator{markers: p.markers}
	)

	for i, raw := range lines[1:] {
		line := p.markers.Classify(raw)
		next := state.Next(line)

		if line.Kind == CaptureStart || line.Kind == CaptureStop {
			slog.Debug("capture toggled", "line", i+2, "capture", next.Capture, "source", md.Source)
		}

		segments.consume(state, next, line)
		capture.consume(next, line)
		state = next
	}

	doc.Segments = segments.finish()
	doc.FullSource = capture.lines

	if state.Capture {
		slog.Debug("capture still active at end of file", "source", md.Source)
	}

	slog.Debug("parsed annotated source",
		"source", md.Source,
		"prefix", prefix,
		"segments", len(doc.Segments),
		"full_source_lines", len(doc.FullSource))

	return doc, nil
}

// ParseHeader extracts the documentation prefix from line 1.
//
// The prefix is the first token between '{' and '}', with a leading doxygen
// anchor '#' removed. The header is the line without its comment marker.
func (p *Parser) ParseHeader(line string) (prefix, header string, err error) {
	_, after, found := strings.Cut(line, "{")
	if !found {
		return "", "", fmt.Errorf("%w: %q", ErrMalformedHeader, line)
	}
	token, _, found := strings.Cut(after, "}")
	if !found {
		return "", "", fmt.Errorf("%w: %q", ErrMalformedHeader, line)
	}

	prefix = strings.TrimPrefix(strings.TrimSpace(token), "#")
	if prefix == "" {
		return "", "", fmt.Errorf("%w: %q", ErrMalformedHeader, line)
	}

	header = strings.TrimSpace(strings.TrimLeft(line, p.markers.Comment))
	return prefix, header, nil
}

// segmentAccumulator run-length encodes doc and code lines into segments
type segmentAccumulator struct {
	open     *Segment
	segments []Segment
}

func (a *segmentAccumulator) consume(prev, next ParserState, line Line) {
	var kind SegmentKind
	switch line.Kind {
	case DocLine:
		kind = DocSegment
	case CodeLine:
		kind = CodeSegment
	default:
		return
	}

	if prev.Mode != next.Mode {
		a.flush()
	}
	if a.open == nil {
		a.open = &Segment{Kind: kind}
	}
	a.open.Lines = append(a.open.Lines, line.Content)
}

func (a *segmentAccumulator) flush() {
	if a.open == nil {
		return
	}
	a.segments = append(a.segments, *a.open)
	a.open = nil
}

func (a *segmentAccumulator) finish() []Segment {
	a.flush()
	return a.segments
}

// captureAccumulator mirrors code lines into the full source listing while
// capture is active
type captureAccumulator struct {
	markers Markers
	lines   []string
}

func (c *captureAccumulator) consume(state ParserState, line Line) {
	if !state.Capture {
		return
	}

	switch line.Kind {
	case CodeLine:
		c.lines = append(c.lines, line.Content)
	case DocLine:
		if title, ok := c.markers.SectionTitle(line.Content); ok {
			c.lines = append(c.lines, c.markers.Banner(title)...)
		}
	}
}
