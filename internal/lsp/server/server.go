package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/jwtly10/exdoc"
	iLsp "github.com/jwtly10/exdoc/internal/lsp"
	"github.com/sourcegraph/go-lsp"
	"github.com/sourcegraph/jsonrpc2"
)

// MethodPreview renders the open document and returns the generated markdown
const MethodPreview = "exdoc/preview"

type Server struct {
	// tracks canceled request IDs
	cancelMap sync.Map

	// tracking for method request counts
	trackRequestCount sync.Map

	// set once the client sent shutdown, exit without it is an error
	shutdown atomic.Bool

	docService *iLsp.DocumentService
}

type Options struct {
	// Directory previews are rendered into, defaults to a temp workspace
	ShadowRoot string
	// Language tag for rendered code fences
	Language string
	// Annotation markers, defaults to the Fortran convention
	Markers exdoc.Markers
}

func (o Options) Validate() error {
	if o.ShadowRoot != "" {
		info, err := os.Stat(o.ShadowRoot)
		if err != nil {
			return fmt.Errorf("invalid shadow root: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("shadow root %s is not a directory", o.ShadowRoot)
		}
	}
	return nil
}

// OverrideDocOpts applies the user supplied options on top of docOpts
func (o Options) OverrideDocOpts(docOpts *iLsp.DocumentServiceOptions) error {
	if err := o.Validate(); err != nil {
		return err
	}
	if o.ShadowRoot != "" {
		docOpts.ShadowRoot = o.ShadowRoot
	}
	if o.Language != "" {
		docOpts.Writer.Language = o.Language
	}
	if o.Markers != (exdoc.Markers{}) {
		docOpts.Markers = o.Markers
	}
	return nil
}

func NewServer(options Options) (*Server, error) {
	docOpts := iLsp.DefaultDocumentServiceOptions
	if err := options.OverrideDocOpts(&docOpts); err != nil {
		return nil, err
	}

	dService, err := iLsp.NewDocumentService(docOpts)
	if err != nil {
		return nil, err
	}

	return &Server{
		docService: dService,
	}, nil
}

// PreviewParams are the parameters of the exdoc/preview request
type PreviewParams struct {
	TextDocument lsp.TextDocumentIdentifier `json:"textDocument"`
}

func (s *Server) Handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (result interface{}, err error) {
	slog.Info("received request", "method", req.Method, "id", req.ID)
	reqCount, _ := s.trackRequestCount.LoadOrStore(req.Method, 0)
	if count, ok := reqCount.(int); ok {
		s.trackRequestCount.Store(req.Method, count+1)
	}

	if _, ok := s.cancelMap.Load(req.ID.String()); ok && !req.Notif {
		slog.Debug("request was canceled", "id", req.ID)
		s.cancelMap.Delete(req.ID.String())
		return nil, nil
	}

	switch req.Method {
	case "initialize":
		slog.Info("initializing lsp server")

		var initParams lsp.InitializeParams
		if err := decodeParams(req, &initParams); err != nil {
			return nil, err
		}
		slog.Debug("client root", "root", initParams.Root())

		syncKind := lsp.TDSKFull
		return lsp.InitializeResult{
			Capabilities: lsp.ServerCapabilities{
				TextDocumentSync:       &lsp.TextDocumentSyncOptionsOrKind{Kind: &syncKind},
				DocumentSymbolProvider: true,
			},
		}, nil

	case "initialized":
		slog.Info("server initialized")
		return nil, nil

	case "shutdown":
		slog.Info("shutting down")
		s.shutdown.Store(true)

		if err := s.docService.CleanupShadowFiles(); err != nil {
			slog.Error("failed to remove shadow workspace", "error", err)
		}

		s.printDebugStats()

		return nil, nil

	case "exit":
		slog.Info("exiting")
		if err := conn.Close(); err != nil {
			slog.Debug("closing connection", "error", err)
		}
		return nil, nil

	case "textDocument/didOpen":
		var params lsp.DidOpenTextDocumentParams
		if err := decodeParams(req, &params); err != nil {
			return nil, err
		}

		s.docService.Set(params.TextDocument.URI, params.TextDocument.Text)
		return nil, s.publishDiagnostics(ctx, conn, params.TextDocument.URI)

	case "textDocument/didChange":
		var params lsp.DidChangeTextDocumentParams
		if err := decodeParams(req, &params); err != nil {
			return nil, err
		}

		// full sync, the last change holds the whole document
		if n := len(params.ContentChanges); n > 0 {
			s.docService.Set(params.TextDocument.URI, params.ContentChanges[n-1].Text)
		}
		return nil, s.publishDiagnostics(ctx, conn, params.TextDocument.URI)

	case "textDocument/didSave":
		var params lsp.DidSaveTextDocumentParams
		if err := decodeParams(req, &params); err != nil {
			return nil, err
		}

		return nil, s.publishDiagnostics(ctx, conn, params.TextDocument.URI)

	case "textDocument/didClose":
		var params lsp.DidCloseTextDocumentParams
		if err := decodeParams(req, &params); err != nil {
			return nil, err
		}

		s.docService.Close(params.TextDocument.URI)
		// clear anything the client still shows for the closed document
		return nil, s.SendDiagnostics(ctx, conn, lsp.PublishDiagnosticsParams{
			URI:         params.TextDocument.URI,
			Diagnostics: []lsp.Diagnostic{},
		})

	case "textDocument/documentSymbol":
		var params lsp.DocumentSymbolParams
		if err := decodeParams(req, &params); err != nil {
			return nil, err
		}

		return s.docService.Symbols(params.TextDocument.URI)

	case MethodPreview:
		var params PreviewParams
		if err := decodeParams(req, &params); err != nil {
			return nil, err
		}

		return s.docService.Preview(params.TextDocument.URI)

	case "$/cancelRequest":
		var params lsp.CancelParams
		if err := decodeParams(req, &params); err != nil {
			return nil, err
		}
		slog.Debug("canceling request", "id", params.ID)
		s.cancelMap.Store(params.ID.String(), struct{}{})
		return nil, nil

	default:
		if req.Notif {
			slog.Debug("ignoring notification", "method", req.Method)
			return nil, nil
		}
		return nil, &jsonrpc2.Error{
			Code:    jsonrpc2.CodeMethodNotFound,
			Message: fmt.Sprintf("method not supported: %s", req.Method),
		}
	}
}

// ShutdownRequested reports whether the client asked for a clean shutdown
func (s *Server) ShutdownRequested() bool {
	return s.shutdown.Load()
}

func (s *Server) publishDiagnostics(ctx context.Context, conn *jsonrpc2.Conn, uri lsp.DocumentURI) error {
	diagnostics, err := s.docService.Diagnostics(uri)
	if err != nil {
		return err
	}

	slog.Debug("publishing diagnostics", "uri", uri, "count", len(diagnostics))
	return s.SendDiagnostics(ctx, conn, lsp.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

func (s *Server) SendDiagnostics(ctx context.Context, conn *jsonrpc2.Conn, params lsp.PublishDiagnosticsParams) error {
	return conn.Notify(ctx, "textDocument/publishDiagnostics", params)
}

func decodeParams(req *jsonrpc2.Request, v interface{}) error {
	if req.Params == nil {
		return &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: fmt.Sprintf("missing params for %s", req.Method)}
	}
	if err := json.Unmarshal(*req.Params, v); err != nil {
		return &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: err.Error()}
	}
	return nil
}

func (s *Server) printDebugStats() {
	s.trackRequestCount.Range(func(key, value interface{}) bool {
		msg := fmt.Sprintf("Method: %-30s Count: %d", key.(string), value.(int))
		slog.Debug(msg)
		return true
	})
}
