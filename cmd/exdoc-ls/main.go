package main

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/jwtly10/exdoc"
	"github.com/jwtly10/exdoc/internal/config"
	"github.com/jwtly10/exdoc/internal/lsp/server"
)

// getLogFile returns a log file for the lsp server to write to.
//
// During development (-debug flag) uses persistent log for easy access.
func getLogFile(debug bool) (*os.File, error) {
	if debug {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		logDir := filepath.Join(homeDir, ".exdoc")
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return nil, err
		}
		return os.OpenFile(filepath.Join(logDir, "exdoc-ls.log"),
			os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	}

	return os.CreateTemp("", "exdoc-ls-*.log")
}

func main() {
	var (
		debug      bool
		configPath string
		shadowRoot string
	)
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")
	flag.StringVar(&configPath, "config", config.DefaultPath, "Configuration file providing markers and render language")
	flag.StringVar(&shadowRoot, "shadow-root", "", "Directory previews are rendered into")
	flag.Parse()

	logFile, err := getLogFile(debug)
	if err != nil {
		slog.Error("failed to setup logging", "error", err)
		os.Exit(1)
	}
	defer logFile.Close()

	// stdout carries the protocol, logs go to stderr and the log file
	var handler slog.Handler
	if debug {
		handler = slog.NewTextHandler(io.MultiWriter(os.Stderr, logFile), &slog.HandlerOptions{
			Level:     slog.LevelDebug,
			AddSource: true,
		})
	} else {
		handler = slog.NewTextHandler(logFile, &slog.HandlerOptions{
			Level:     slog.LevelInfo,
			AddSource: true,
		})
	}
	slog.SetDefault(slog.New(handler))

	slog.Info("starting exdoc-ls", "version", exdoc.VERSION, "logfile", logFile.Name())

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	s, err := server.NewServer(server.Options{
		ShadowRoot: shadowRoot,
		Language:   cfg.Render.Language,
		Markers:    cfg.ExdocMarkers(),
	})
	if err != nil {
		slog.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	s.Serve(ctx, server.NewStdRWC())

	if !s.ShutdownRequested() {
		slog.Warn("connection closed without shutdown request")
		os.Exit(1)
	}
}
