package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/jwtly10/exdoc"
	"github.com/jwtly10/exdoc/internal/notebook"
	"github.com/jwtly10/exdoc/internal/transformer"
)

const (
	maxFiles   = 1000
	maxDepth   = 5
	maxWorkers = 4
)

type Options struct {
	// Directory holding annotated sources
	SourcesDir string
	// Accepted source extensions, without the dot
	Extensions []string
	// Descend into subdirectories of SourcesDir
	Recursive bool
	// Directory searched for notebooks, empty disables notebook conversion
	NotebooksDir string
	// Remove and recreate the output directory first
	Clean bool

	Transform transformer.TransformOptions
	Notebook  notebook.Options
}

type TranspileResult struct {
	Path     string
	OutPath  string
	Duration time.Duration
}

type ProcessResult struct {
	Path     string
	OutPath  string
	Duration time.Duration
	Error    error
}

// Report summarises one generate run
type Report struct {
	Docs      []TranspileResult
	Notebooks []TranspileResult
	// Sources that could not be rendered, eg because of a malformed header
	Failed []ProcessResult
	// Notebooks whose conversion failed, reported as warnings only
	Skipped []ProcessResult
}

type Processor struct {
	transformer *transformer.Transformer
	converter   *notebook.Converter
	opts        Options
}

func NewProcessor(opts Options) *Processor {
	if opts.Notebook.OutputDir == "" {
		opts.Notebook.OutputDir = opts.Transform.OutputDir
	}
	return &Processor{
		transformer: transformer.NewTransformer(opts.Transform),
		converter:   notebook.NewConverter(opts.Notebook),
		opts:        opts,
	}
}

// Generate renders every annotated source and notebook into the output
// directory. Individual file failures do not stop the run, they are
// collected in the report and returned as a single error.
func (p *Processor) Generate(ctx context.Context) (*Report, error) {
	startTime := time.Now()
	report := &Report{}

	if err := p.prepareOutput(); err != nil {
		return nil, err
	}

	// an empty sources dir is only fatal when there are no notebooks either
	sources, sourcesErr := p.findFiles(p.opts.SourcesDir, p.sourceDepth(), p.isSource)
	if sourcesErr != nil && (p.opts.NotebooksDir == "" || !errors.Is(sourcesErr, errNoFiles)) {
		return nil, sourcesErr
	}
	slog.Debug("found annotated sources", "count", len(sources), "dir", p.opts.SourcesDir)

	sources, conflicts := uniqueByName(sources, sourceName)
	for _, res := range conflicts {
		slog.Warn("skipping source", "path", res.Path, "error", res.Error)
	}
	report.Failed = append(report.Failed, conflicts...)

	for res := range p.runPool(sources, func(path string) ProcessResult { return p.ProcessFile(path) }) {
		if res.Error != nil {
			slog.Warn("skipping source", "path", res.Path, "error", res.Error)
			report.Failed = append(report.Failed, res)
			continue
		}
		report.Docs = append(report.Docs, TranspileResult{Path: res.Path, OutPath: res.OutPath, Duration: res.Duration})
	}

	if p.opts.NotebooksDir != "" {
		notebooks, err := p.findFiles(p.opts.NotebooksDir, maxDepth, isNotebook)
		if err != nil && !errors.Is(err, errNoFiles) {
			return nil, err
		}
		if len(notebooks) == 0 && sourcesErr != nil {
			return nil, sourcesErr
		}
		slog.Debug("found notebooks", "count", len(notebooks), "dir", p.opts.NotebooksDir)

		// notebooks sharing a name would write the same page and images
		notebooks, conflicts := uniqueByName(notebooks, notebookName)
		for _, res := range conflicts {
			slog.Warn("notebook conversion failed", "path", res.Path, "error", res.Error)
		}
		report.Skipped = append(report.Skipped, conflicts...)

		for res := range p.runPool(notebooks, func(path string) ProcessResult { return p.processNotebook(ctx, path) }) {
			if res.Error != nil {
				slog.Warn("notebook conversion failed", "path", res.Path, "error", res.Error)
				report.Skipped = append(report.Skipped, res)
				continue
			}
			report.Notebooks = append(report.Notebooks, TranspileResult{Path: res.Path, OutPath: res.OutPath, Duration: res.Duration})
		}
	}

	sortResults(report.Docs)
	sortResults(report.Notebooks)
	sortProcessResults(report.Failed)
	sortProcessResults(report.Skipped)

	slog.Debug("generation completed",
		"duration", time.Since(startTime),
		"docs", len(report.Docs),
		"notebooks", len(report.Notebooks),
		"failed", len(report.Failed))

	if len(report.Failed) > 0 {
		return report, fmt.Errorf("encountered %d errors during generation. Please rerun with --debug to see trace", len(report.Failed))
	}
	return report, nil
}

func (p *Processor) prepareOutput() error {
	outDir := p.opts.Transform.OutputDir
	if outDir == "" {
		return fmt.Errorf("output directory is required")
	}

	if p.opts.Clean {
		for _, dir := range []string{p.opts.SourcesDir, p.opts.NotebooksDir} {
			if dir != "" && exdoc.ContainsPath(outDir, dir) {
				return fmt.Errorf("refusing to clean output directory %s: it contains %s", outDir, dir)
			}
		}
		slog.Debug("cleaning output directory", "path", outDir)
		if err := os.RemoveAll(outDir); err != nil {
			return fmt.Errorf("failed to clean output directory: %w", err)
		}
	}

	imagesDir := p.opts.Notebook.ImagesDir
	if imagesDir == "" {
		imagesDir = exdoc.DefaultImagesDir
	}
	if err := os.MkdirAll(filepath.Join(outDir, imagesDir), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}

func (p *Processor) sourceDepth() int {
	if p.opts.Recursive {
		return maxDepth
	}
	return 1
}

func (p *Processor) isSource(path string) bool {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if !slices.Contains(p.opts.Extensions, ext) {
		return false
	}
	_, err := exdoc.BaseName(path)
	return err == nil
}

func isNotebook(path string) bool {
	return strings.HasSuffix(path, notebook.Extension) &&
		!strings.Contains(filepath.ToSlash(path), ".ipynb_checkpoints/")
}

var errNoFiles = errors.New("no matching files found")

// findFiles walks the directory tree starting at root and returns the files
// accepted by match, at most depth levels below root
//
// If a .git directory is found, it will be used to load .gitignore patterns.
func (p *Processor) findFiles(root string, depth int, match func(string) bool) ([]string, error) {
	var files []string
	var patterns []gitignore.Pattern

	// If .git exists, set up gitignore patterns
	if _, err := os.Stat(filepath.Join(root, ".git")); err == nil {
		patterns = append(patterns, gitignore.ParsePattern(".git/", nil))

		if data, err := os.ReadFile(filepath.Join(root, ".gitignore")); err == nil {
			for _, p := range strings.Split(string(data), "\n") {
				if p = strings.TrimSpace(p); p != "" && !strings.HasPrefix(p, "#") {
					patterns = append(patterns, gitignore.ParsePattern(p, nil))
				}
			}
		}
	}

	matcher := gitignore.NewMatcher(patterns)

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if relPath == "." {
			return nil
		}

		pathComponents := strings.Split(relPath, string(os.PathSeparator))

		if len(patterns) > 0 && matcher.Match(pathComponents, info.IsDir()) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if info.IsDir() {
			if len(pathComponents) >= depth {
				return filepath.SkipDir
			}
			return nil
		}

		if match(path) {
			if len(files) >= maxFiles {
				return fmt.Errorf("max files limit reached (%d)", maxFiles)
			}
			files = append(files, path)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", errNoFiles, root)
	}

	return files, nil
}

// runPool fans paths out to a fixed set of workers
func (p *Processor) runPool(paths []string, work func(string) ProcessResult) <-chan ProcessResult {
	jobs := make(chan string, len(paths))
	results := make(chan ProcessResult, len(paths))

	var wg sync.WaitGroup
	for i := 0; i < maxWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				results <- work(path)
			}
		}()
	}

	for _, path := range paths {
		jobs <- path
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// ProcessFile renders a single annotated source into the output directory
func (p *Processor) ProcessFile(path string) ProcessResult {
	startTime := time.Now()
	var result ProcessResult

	absPath, err := filepath.Abs(path)
	if err != nil {
		result.Error = fmt.Errorf("failed to resolve absolute path: %w", err)
		return result
	}

	result.Path = absPath

	slog.Debug("processing file", "path", absPath)

	content, err := os.ReadFile(absPath)
	if err != nil {
		result.Error = fmt.Errorf("error reading file: %w", err)
		return result
	}

	src := transformer.AnnotatedSource{
		Content: bytes.NewReader(content),
		Metadata: exdoc.MetaData{
			Source: absPath,
		},
	}

	outPath, err := p.transformer.Transform(src)
	if err != nil {
		result.Error = err
		return result
	}

	result.OutPath = outPath
	result.Duration = time.Since(startTime)
	slog.Debug("file processed",
		"path", absPath,
		"output", outPath,
		"duration", result.Duration)

	return result
}

func (p *Processor) processNotebook(ctx context.Context, path string) ProcessResult {
	startTime := time.Now()
	result := ProcessResult{Path: path}

	res, err := p.converter.Convert(ctx, path)
	if err != nil {
		result.Error = err
		return result
	}

	result.OutPath = res.OutPath
	result.Duration = time.Since(startTime)
	slog.Debug("notebook converted", "path", path, "output", res.OutPath, "images", len(res.Images))
	return result
}

// IsSource reports whether path is an annotated source this processor handles
func (p *Processor) IsSource(path string) bool {
	return p.isSource(path)
}

// uniqueByName keeps the first path, in lexical order, for every output
// name. The others are returned as failed results naming the path they
// conflict with.
func uniqueByName(paths []string, name func(string) string) ([]string, []ProcessResult) {
	paths = slices.Clone(paths)
	slices.Sort(paths)

	seen := make(map[string]string, len(paths))
	var unique []string
	var conflicts []ProcessResult
	for _, path := range paths {
		key := name(path)
		if first, ok := seen[key]; ok {
			conflicts = append(conflicts, ProcessResult{
				Path:  path,
				Error: fmt.Errorf("%w: %s is also generated from %s", errDuplicateName, exdoc.DocFileName(key), first),
			})
			continue
		}
		seen[key] = path
		unique = append(unique, path)
	}
	return unique, conflicts
}

var errDuplicateName = errors.New("duplicate output name")

func sourceName(path string) string {
	name, err := exdoc.BaseName(path)
	if err != nil {
		return filepath.Base(path)
	}
	return name
}

func notebookName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), notebook.Extension)
}

func sortProcessResults(results []ProcessResult) {
	slices.SortFunc(results, func(a, b ProcessResult) int {
		return strings.Compare(a.Path, b.Path)
	})
}

func sortResults(results []TranspileResult) {
	slices.SortFunc(results, func(a, b TranspileResult) int {
		return strings.Compare(a.Path, b.Path)
	})
}
