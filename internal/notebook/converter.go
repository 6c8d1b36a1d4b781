package notebook

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/jwtly10/exdoc"
)

const (
	Extension   = ".ipynb"
	waitDelay   = time.Second
	assetSuffix = "_files"
)

// DefaultTimeout bounds a single converter run
const DefaultTimeout = 10 * time.Second

var ErrTimeout = errors.New("notebook conversion timed out")

type Options struct {
	// Converter command, the notebook path is appended as the last argument
	Command []string
	Timeout time.Duration
	// Directory the doc_<name>.md files are written to
	OutputDir string
	// Name of the images directory inside OutputDir
	ImagesDir string
}

// Runner executes the converter command. It is replaced in tests.
type Runner func(ctx context.Context, command []string) ([]byte, error)

type Converter struct {
	opts Options
	run  Runner
}

type Result struct {
	Source  string
	OutPath string
	// Asset files copied into the images directory
	Images []string
}

func NewConverter(opts Options) *Converter {
	if opts.ImagesDir == "" {
		opts.ImagesDir = exdoc.DefaultImagesDir
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Converter{
		opts: opts,
		run:  execRunner,
	}
}

func execRunner(ctx context.Context, command []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	cmd.WaitDelay = waitDelay
	return cmd.CombinedOutput()
}

// Convert turns one notebook into a documentation page.
//
// The converter output (<stem>.md and <stem>_files/) is created next to the
// notebook, post-processed into <OutputDir>/doc_<name>.md, and removed again.
// A failed or timed out conversion returns an error and leaves the output
// directory untouched.
func (c *Converter) Convert(ctx context.Context, nbPath string) (Result, error) {
	if len(c.opts.Command) == 0 {
		return Result{}, fmt.Errorf("no converter command configured")
	}

	name := strings.TrimSuffix(filepath.Base(nbPath), Extension)
	stem := strings.TrimSuffix(nbPath, Extension)
	mdPath := stem + ".md"
	assetDir := stem + assetSuffix
	result := Result{Source: nbPath}

	runCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	command := append(append([]string{}, c.opts.Command...), nbPath)
	slog.Debug("running notebook converter", "command", strings.Join(command, " "), "timeout", c.opts.Timeout)

	output, err := c.run(runCtx, command)
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return result, fmt.Errorf("%w after %s: %s", ErrTimeout, c.opts.Timeout, nbPath)
	}
	if err != nil {
		return result, fmt.Errorf("converter failed: %w: %s", err, strings.TrimSpace(string(output)))
	}

	defer c.cleanup(mdPath, assetDir)

	raw, err := os.ReadFile(mdPath)
	if err != nil {
		return result, fmt.Errorf("reading converter output: %w", err)
	}

	contents := exdoc.PostProcessNotebook(string(raw), name, c.opts.ImagesDir)

	imagesPath := filepath.Join(c.opts.OutputDir, c.opts.ImagesDir)
	if err := os.MkdirAll(imagesPath, 0755); err != nil {
		return result, fmt.Errorf("failed to create images directory: %w", err)
	}

	result.OutPath = filepath.Join(c.opts.OutputDir, exdoc.DocFileName(name))
	if err := os.WriteFile(result.OutPath, []byte(contents), 0644); err != nil {
		return result, fmt.Errorf("failed to write output file: %w", err)
	}

	result.Images, err = copyAssets(assetDir, imagesPath)
	if err != nil {
		return result, err
	}

	for _, ref := range MissingImages(contents, c.opts.OutputDir) {
		slog.Warn("notebook references a missing image", "notebook", nbPath, "image", ref)
	}

	return result, nil
}

func (c *Converter) cleanup(mdPath, assetDir string) {
	if err := os.RemoveAll(assetDir); err != nil {
		slog.Warn("failed to remove converter assets", "path", assetDir, "error", err)
	}
	if err := os.Remove(mdPath); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to remove converter output", "path", mdPath, "error", err)
	}
}

// copyAssets copies every regular file in src into dst. A missing src
// directory means the notebook produced no assets.
func copyAssets(src, dst string) ([]string, error) {
	entries, err := os.ReadDir(src)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading assets: %w", err)
	}

	var copied []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		target := filepath.Join(dst, entry.Name())
		if err := copyFile(filepath.Join(src, entry.Name()), target); err != nil {
			return copied, fmt.Errorf("copying asset %s: %w", entry.Name(), err)
		}
		copied = append(copied, target)
	}
	return copied, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
