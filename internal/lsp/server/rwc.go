package server

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/sourcegraph/jsonrpc2"
)

// RWC joins a reader and a writer into the stream a connection runs over
type RWC struct {
	r io.ReadCloser
	w io.WriteCloser
}

// NewStdRWC creates a new RWC using standard input/output.
//
// Closing it only closes stdin, stdout stays usable for final log lines.
func NewStdRWC() *RWC {
	return &RWC{
		r: os.Stdin,
	}
}

// NewRWC creates a new RWC with custom reader and writer
func NewRWC(r io.ReadCloser, w io.WriteCloser) *RWC {
	return &RWC{
		r: r,
		w: w,
	}
}

func (rw *RWC) Read(p []byte) (int, error) { return rw.r.Read(p) }

func (rw *RWC) Write(p []byte) (int, error) {
	if rw.w == nil {
		return os.Stdout.Write(p)
	}
	return rw.w.Write(p)
}

func (rw *RWC) Close() error {
	if rw.r != nil {
		if err := rw.r.Close(); err != nil {
			return err
		}
	}
	if rw.w != nil {
		return rw.w.Close()
	}
	return nil
}

// Serve handles LSP messages on rwc until the client disconnects, exits or
// ctx is cancelled
func (s *Server) Serve(ctx context.Context, rwc io.ReadWriteCloser) {
	conn := jsonrpc2.NewConn(
		ctx,
		jsonrpc2.NewBufferedStream(rwc, jsonrpc2.VSCodeObjectCodec{}),
		jsonrpc2.HandlerWithError(s.Handle),
	)

	select {
	case <-conn.DisconnectNotify():
		slog.Info("client disconnected")
	case <-ctx.Done():
		slog.Info("stopping server", "reason", ctx.Err())
		if err := conn.Close(); err != nil {
			slog.Debug("closing connection", "error", err)
		}
	}
}
