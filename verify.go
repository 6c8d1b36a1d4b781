package exdoc

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Resegment parses rendered markdown and recovers the doc/code kind sequence
// from its block structure.
//
// Top level fenced code blocks count as code, and every run of other blocks
// between them counts as a single doc segment. A doc segment made only of
// blank lines produces no block, so it is recovered from the line gaps
// around the fences: segments are separated by exactly one blank line, which
// leaves any additional lines to a doc segment.
func Resegment(rendered []byte) []SegmentKind {
	root := goldmark.New().Parser().Parse(text.NewReader(rendered))

	lineOf := func(offset int) int {
		return bytes.Count(rendered[:offset], []byte("\n"))
	}

	var kinds []SegmentKind
	push := func(k SegmentKind) {
		if k == DocSegment && len(kinds) > 0 && kinds[len(kinds)-1] == DocSegment {
			return
		}
		kinds = append(kinds, k)
	}

	// last line of the previous fence, -1 before the first one
	prevClose := -1
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		fenced, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			push(DocSegment)
			continue
		}

		openLine, closeLine, known := fenceLines(fenced, lineOf)
		if known && (len(kinds) == 0 || kinds[len(kinds)-1] == CodeSegment) {
			gap := openLine - prevClose - 1
			if (prevClose < 0 && gap > 0) || gap > 1 {
				push(DocSegment)
			}
		}
		push(CodeSegment)
		if known {
			prevClose = closeLine
		}
	}

	total := bytes.Count(rendered, []byte("\n"))
	if len(rendered) > 0 && rendered[len(rendered)-1] != '\n' {
		total++
	}
	switch {
	case len(kinds) == 0 && total > 0:
		push(DocSegment)
	case len(kinds) > 0 && kinds[len(kinds)-1] == CodeSegment && prevClose >= 0 && total-prevClose-1 > 0:
		push(DocSegment)
	}

	return kinds
}

// fenceLines returns the line numbers of the opening and closing fence of a
// fenced block as written by Writer.
func fenceLines(n *ast.FencedCodeBlock, lineOf func(int) int) (openLine, closeLine int, ok bool) {
	lines := n.Lines()
	if lines.Len() > 0 {
		openLine = lineOf(lines.At(0).Start) - 1
		closeLine = lineOf(lines.At(lines.Len()-1).Start) + 1
		return openLine, closeLine, true
	}
	if n.Info != nil {
		openLine = lineOf(n.Info.Segment.Start)
		return openLine, openLine + 1, true
	}
	return 0, 0, false
}
