package exdoc

import (
	"bytes"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"gotest.tools/v3/golden"
)

func TestCanRenderAnnotatedFiles(t *testing.T) {
	tests := []struct {
		name   string
		inFile string
		opts   WriterOptions
	}{
		{
			name:   "example with captured full source",
			inFile: "basic",
			opts: WriterOptions{
				Language:      DefaultLanguage,
				IncludeHeader: true,
			},
		},
		{
			name:   "example without capture markers",
			inFile: "no_capture",
			opts:   DefaultWriterOptions,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := fmt.Sprintf("testdata/extract/%s.F90", tt.inFile)
			input, err := os.ReadFile(src)
			require.NoError(t, err)

			parser := NewParser()
			doc, err := parser.ParseAnnotatedDoc(bytes.NewReader(input), MetaData{Source: src})
			require.NoError(t, err)

			var buf bytes.Buffer
			writer := NewWriter(tt.opts)
			require.NoError(t, writer.Write(doc, &buf))

			golden.Assert(t, buf.String(), fmt.Sprintf("extract/%s.golden.md", tt.inFile))
		})
	}
}

func TestRenderedDocumentResegments(t *testing.T) {
	for _, name := range []string{"basic", "no_capture"} {
		t.Run(name, func(t *testing.T) {
			f, err := os.Open(fmt.Sprintf("testdata/extract/%s.F90", name))
			require.NoError(t, err)
			defer f.Close()

			doc, err := NewParser().ParseAnnotatedDoc(f, MetaData{})
			require.NoError(t, err)

			// the complete source section is not part of the segment sequence
			doc.FullSource = nil

			rendered, err := NewWriter(DefaultWriterOptions).Render(doc)
			require.NoError(t, err)

			require.Equal(t, doc.Kinds(), Resegment([]byte(rendered)))
		})
	}
}

func TestBlankDocSegmentsResegment(t *testing.T) {
	inputs := append([][]string{
		{"a", "!!", "b"},
		{"!!", "a"},
		{"a", "!!"},
		{"!!", "!!  "},
		{"!!", "a", "!!", "!!", "b", "!!"},
	}, propertyInputs...)

	for i, body := range inputs {
		t.Run(fmt.Sprintf("input %d", i), func(t *testing.T) {
			doc, err := NewParser().ParseLines(append([]string{"! {P}"}, body...), MetaData{})
			require.NoError(t, err)
			doc.FullSource = nil

			rendered, err := NewWriter(DefaultWriterOptions).Render(doc)
			require.NoError(t, err)

			require.Equal(t, doc.Kinds(), Resegment([]byte(rendered)), "rendered:\n%s", rendered)
		})
	}
}
