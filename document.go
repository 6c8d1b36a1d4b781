package exdoc

import "strings"

// Document represents a parsed annotated source file, split into
// documentation and code segments, plus any captured full source listing
type Document struct {
	// Metadata about the source file
	Metadata MetaData
	// Documentation prefix taken from the brace token on line 1
	Prefix string
	// Line 1 with its comment marker removed
	Header string
	// Doc and code segments, in file order
	Segments []Segment
	// Lines collected while capture was active, including section banners
	FullSource []string
}

type MetaData struct {
	// The source file path
	Source string
}

type SegmentKind int

const (
	DocSegment SegmentKind = iota
	CodeSegment
)

func (k SegmentKind) String() string {
	switch k {
	case DocSegment:
		return "doc"
	case CodeSegment:
		return "code"
	default:
		return "unknown"
	}
}

// Segment is a maximal run of same-kind lines
type Segment struct {
	Kind  SegmentKind
	Lines []string
}

func (s Segment) Text() string {
	return strings.Join(s.Lines, "\n")
}

// Kinds returns the kind sequence of the document segments
func (d *Document) Kinds() []SegmentKind {
	kinds := make([]SegmentKind, len(d.Segments))
	for i, s := range d.Segments {
		kinds[i] = s.Kind
	}
	return kinds
}

// HasFullSource reports whether a complete source section should be rendered
func (d *Document) HasFullSource() bool {
	return len(d.FullSource) > 0
}
