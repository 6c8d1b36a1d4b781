package server

import (
	"context"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jwtly10/exdoc"
	iLsp "github.com/jwtly10/exdoc/internal/lsp"
	"github.com/sourcegraph/go-lsp"
	"github.com/sourcegraph/jsonrpc2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerOptions(t *testing.T) {
	// so our validation can check these paths are valid
	tempShadowRoot := filepath.Join(t.TempDir(), "test-shadow-root")
	err := os.MkdirAll(tempShadowRoot, 0755)
	require.NoError(t, err)
	notADir := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(notADir, nil, 0644))

	tests := []struct {
		name        string
		opts        Options
		expectError bool
	}{
		{
			name:        "valid options",
			opts:        Options{ShadowRoot: tempShadowRoot, Language: "fortran"},
			expectError: false,
		},
		{
			name:        "invalid shadow root",
			opts:        Options{ShadowRoot: "/nonexistent/path"},
			expectError: true,
		},
		{
			name:        "shadow root is a file",
			opts:        Options{ShadowRoot: notADir},
			expectError: true,
		},
		{
			name:        "empty options - should use defaults",
			opts:        Options{},
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.expectError {
				assert.Error(t, err)
				_, err = NewServer(tt.opts)
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)

			server, err := NewServer(tt.opts)
			require.NoError(t, err)
			require.NotNil(t, server)

			// are docservice options being set properly
			if tt.opts.ShadowRoot != "" {
				assert.Equal(t, tt.opts.ShadowRoot, server.docService.ShadowRoot())
			} else {
				assert.NotEmpty(t, server.docService.ShadowRoot())
			}
		})
	}
}

func TestOptionsOverride(t *testing.T) {
	tempShadowRoot := filepath.Join(t.TempDir(), "shadow-root")
	err := os.MkdirAll(tempShadowRoot, 0755)
	require.NoError(t, err)

	opts := Options{
		ShadowRoot: tempShadowRoot,
		Language:   "fortran",
	}

	docOpts := iLsp.DefaultDocumentServiceOptions
	err = opts.OverrideDocOpts(&docOpts)
	require.NoError(t, err)

	assert.Equal(t, tempShadowRoot, docOpts.ShadowRoot)
	assert.Equal(t, "fortran", docOpts.Writer.Language)

	// options remain dont change
	assert.Equal(t, exdoc.DefaultMarkers, docOpts.Markers)
	assert.Equal(t, exdoc.DefaultLanguage, iLsp.DefaultDocumentServiceOptions.Writer.Language)
}

type testClient struct {
	conn        *jsonrpc2.Conn
	diagnostics chan lsp.PublishDiagnosticsParams
}

// newTestClient connects a client to s over an in memory pipe. The returned
// channel is closed once the server stops serving.
func newTestClient(t *testing.T, s *Server) (*testClient, <-chan struct{}) {
	t.Helper()
	serverSide, clientSide := net.Pipe()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	done := make(chan struct{})
	go func() {
		s.Serve(ctx, serverSide)
		close(done)
	}()

	diagnostics := make(chan lsp.PublishDiagnosticsParams, 10)
	handler := jsonrpc2.HandlerWithError(func(_ context.Context, _ *jsonrpc2.Conn, req *jsonrpc2.Request) (interface{}, error) {
		if req.Method != "textDocument/publishDiagnostics" || req.Params == nil {
			return nil, nil
		}
		var params lsp.PublishDiagnosticsParams
		if err := json.Unmarshal(*req.Params, &params); err != nil {
			return nil, err
		}
		diagnostics <- params
		return nil, nil
	})

	conn := jsonrpc2.NewConn(ctx, jsonrpc2.NewBufferedStream(clientSide, jsonrpc2.VSCodeObjectCodec{}), handler)
	t.Cleanup(func() { conn.Close() })

	return &testClient{conn: conn, diagnostics: diagnostics}, done
}

func (c *testClient) waitDiagnostics(t *testing.T) lsp.PublishDiagnosticsParams {
	t.Helper()
	select {
	case d := <-c.diagnostics:
		return d
	case <-time.After(5 * time.Second):
		t.Fatal("no diagnostics published")
		return lsp.PublishDiagnosticsParams{}
	}
}

func TestServerSession(t *testing.T) {
	shadowRoot := t.TempDir()
	s, err := NewServer(Options{ShadowRoot: shadowRoot})
	require.NoError(t, err)

	client, done := newTestClient(t, s)
	ctx := context.Background()
	uri := lsp.DocumentURI("file:///work/examples/ex1.F90")

	var initResult map[string]interface{}
	require.NoError(t, client.conn.Call(ctx, "initialize", lsp.InitializeParams{RootURI: "file:///work"}, &initResult))
	caps, ok := initResult["capabilities"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(lsp.TDSKFull), caps["textDocumentSync"])
	assert.Equal(t, true, caps["documentSymbolProvider"])
	require.NoError(t, client.conn.Notify(ctx, "initialized", struct{}{}))

	// malformed header on open
	require.NoError(t, client.conn.Notify(ctx, "textDocument/didOpen", lsp.DidOpenTextDocumentParams{
		TextDocument: lsp.TextDocumentItem{URI: uri, LanguageID: "fortran", Version: 1, Text: "!! Example 1\ncode\n"},
	}))
	published := client.waitDiagnostics(t)
	assert.Equal(t, uri, published.URI)
	require.Len(t, published.Diagnostics, 1)
	assert.Equal(t, lsp.Error, published.Diagnostics[0].Severity)
	assert.Equal(t, iLsp.CodeMalformedHeader, published.Diagnostics[0].Code)

	// fixed header, capture left open
	text := "!! Example 1 {#doc_ex1}\n" +
		"!! \\subsection doc_ex1_setup Setup\n" +
		"! START SOURCE\n" +
		"call run()\n"
	require.NoError(t, client.conn.Notify(ctx, "textDocument/didChange", lsp.DidChangeTextDocumentParams{
		TextDocument:   lsp.VersionedTextDocumentIdentifier{TextDocumentIdentifier: lsp.TextDocumentIdentifier{URI: uri}, Version: 2},
		ContentChanges: []lsp.TextDocumentContentChangeEvent{{Text: text}},
	}))
	published = client.waitDiagnostics(t)
	require.Len(t, published.Diagnostics, 1)
	assert.Equal(t, iLsp.CodeUnclosedCapture, published.Diagnostics[0].Code)
	assert.Equal(t, 2, published.Diagnostics[0].Range.Start.Line)

	var symbols []lsp.SymbolInformation
	require.NoError(t, client.conn.Call(ctx, "textDocument/documentSymbol", lsp.DocumentSymbolParams{
		TextDocument: lsp.TextDocumentIdentifier{URI: uri},
	}, &symbols))
	require.Len(t, symbols, 1)
	assert.Equal(t, "Setup", symbols[0].Name)

	var preview iLsp.Preview
	require.NoError(t, client.conn.Call(ctx, MethodPreview, PreviewParams{
		TextDocument: lsp.TextDocumentIdentifier{URI: uri},
	}, &preview))
	assert.Equal(t, 2, preview.Segments)
	assert.Contains(t, preview.Markdown, "\\section doc_ex1_full Complete Source\n")
	assert.FileExists(t, filepath.Join(shadowRoot, "work", "examples", "doc_ex1.md"))

	err = client.conn.Call(ctx, "textDocument/hover", lsp.TextDocumentPositionParams{}, nil)
	var rpcErr *jsonrpc2.Error
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, int64(jsonrpc2.CodeMethodNotFound), rpcErr.Code)

	require.NoError(t, client.conn.Notify(ctx, "textDocument/didClose", lsp.DidCloseTextDocumentParams{
		TextDocument: lsp.TextDocumentIdentifier{URI: uri},
	}))
	published = client.waitDiagnostics(t)
	assert.Empty(t, published.Diagnostics)

	require.NoError(t, client.conn.Call(ctx, "shutdown", nil, nil))
	assert.True(t, s.ShutdownRequested())

	require.NoError(t, client.conn.Notify(ctx, "exit", nil))
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop after exit")
	}
}

func TestServerRejectsInvalidParams(t *testing.T) {
	s, err := NewServer(Options{ShadowRoot: t.TempDir()})
	require.NoError(t, err)

	client, _ := newTestClient(t, s)

	err = client.conn.Call(context.Background(), "textDocument/documentSymbol", "not an object", nil)
	var rpcErr *jsonrpc2.Error
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, int64(jsonrpc2.CodeInvalidParams), rpcErr.Code)
}
