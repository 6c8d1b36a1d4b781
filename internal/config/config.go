package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/jwtly10/exdoc"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "exdoc.yaml"

type Config struct {
	Sources   SourcesConfig   `yaml:"sources"`
	Notebooks NotebooksConfig `yaml:"notebooks"`
	Output    OutputConfig    `yaml:"output"`
	Render    RenderConfig    `yaml:"render"`
	Markers   MarkersConfig   `yaml:"markers"`
}

type SourcesConfig struct {
	// Directory holding the annotated example sources
	Dir string `yaml:"dir"`
	// File extensions (without dot) treated as annotated sources
	Extensions []string `yaml:"extensions"`
}

type NotebooksConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
	// Converter command, the notebook path is appended as the last argument
	Command []string      `yaml:"command"`
	Timeout time.Duration `yaml:"timeout"`
}

type OutputConfig struct {
	Dir       string `yaml:"dir"`
	ImagesDir string `yaml:"images_dir"`
	// Remove and recreate the output directory before generating
	Clean bool `yaml:"clean"`
	// Keep a timestamped copy of a generated file before overwriting it
	Backup bool `yaml:"backup"`
}

type RenderConfig struct {
	Language      string `yaml:"language"`
	IncludeHeader bool   `yaml:"include_header"`
}

type MarkersConfig struct {
	Doc          string `yaml:"doc"`
	CaptureStart string `yaml:"capture_start"`
	CaptureStop  string `yaml:"capture_stop"`
	Section      string `yaml:"section"`
	Comment      string `yaml:"comment"`
}

// Default reproduces the layout of the original documentation build, run
// from the source root.
func Default() *Config {
	return &Config{
		Sources: SourcesConfig{
			Dir:        "examples",
			Extensions: []string{"F90"},
		},
		Notebooks: NotebooksConfig{
			Enabled: true,
			Dir:     "examples/TokaMaker",
			Command: []string{"jupyter", "nbconvert", "--to", "markdown"},
			Timeout: 10 * time.Second,
		},
		Output: OutputConfig{
			Dir:       "docs/generated",
			ImagesDir: exdoc.DefaultImagesDir,
			Clean:     true,
		},
		Render: RenderConfig{
			Language: exdoc.DefaultLanguage,
		},
		Markers: MarkersConfig{
			Doc:          exdoc.DefaultMarkers.Doc,
			CaptureStart: exdoc.DefaultMarkers.CaptureStart,
			CaptureStop:  exdoc.DefaultMarkers.CaptureStop,
			Section:      exdoc.DefaultMarkers.Section,
			Comment:      exdoc.DefaultMarkers.Comment,
		},
	}
}

// Load reads the configuration file at path on top of the defaults.
//
// A missing file is not an error when path is the default path. Variables
// from .env are loaded without overriding the process environment, then
// EXDOC_* variables override file values.
func Load(path string) (*Config, error) {
	cfg := Default()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
		slog.Debug("loaded config file", "path", path)
	case errors.Is(err, os.ErrNotExist) && path == DefaultPath:
		slog.Debug("no config file, using defaults", "path", path)
	default:
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("EXDOC_SOURCES_DIR"); v != "" {
		c.Sources.Dir = v
	}
	if v := os.Getenv("EXDOC_OUTPUT_DIR"); v != "" {
		c.Output.Dir = v
	}
	if v := os.Getenv("EXDOC_LANGUAGE"); v != "" {
		c.Render.Language = v
	}
	if v := os.Getenv("EXDOC_NOTEBOOK_COMMAND"); v != "" {
		c.Notebooks.Command = strings.Fields(v)
	}
	if v := os.Getenv("EXDOC_NOTEBOOK_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parsing EXDOC_NOTEBOOK_TIMEOUT: %w", err)
		}
		c.Notebooks.Timeout = d
	}
	if v := os.Getenv("EXDOC_NOTEBOOKS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parsing EXDOC_NOTEBOOKS: %w", err)
		}
		c.Notebooks.Enabled = b
	}
	return nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Sources.Dir == "" {
		errs = append(errs, errors.New("sources.dir is required"))
	}
	if len(c.Sources.Extensions) == 0 {
		errs = append(errs, errors.New("sources.extensions must not be empty"))
	}
	if c.Output.Dir == "" {
		errs = append(errs, errors.New("output.dir is required"))
	}
	if c.Output.ImagesDir == "" {
		errs = append(errs, errors.New("output.images_dir is required"))
	}
	if c.Notebooks.Enabled {
		if len(c.Notebooks.Command) == 0 {
			errs = append(errs, errors.New("notebooks.command is required when notebooks are enabled"))
		}
		if c.Notebooks.Timeout <= 0 {
			errs = append(errs, errors.New("notebooks.timeout must be positive"))
		}
	}
	if c.Output.Clean && c.Output.Dir != "" {
		if c.Sources.Dir != "" && exdoc.ContainsPath(c.Output.Dir, c.Sources.Dir) {
			errs = append(errs, fmt.Errorf("output.dir %s contains sources.dir, cleaning it would delete the sources", c.Output.Dir))
		}
		if c.Notebooks.Enabled && c.Notebooks.Dir != "" && exdoc.ContainsPath(c.Output.Dir, c.Notebooks.Dir) {
			errs = append(errs, fmt.Errorf("output.dir %s contains notebooks.dir, cleaning it would delete the notebooks", c.Output.Dir))
		}
	}
	m := c.Markers
	if m.Doc == "" || m.CaptureStart == "" || m.CaptureStop == "" || m.Section == "" {
		errs = append(errs, errors.New("markers.doc, capture_start, capture_stop and section are required"))
	}
	if m.CaptureStart == m.CaptureStop {
		errs = append(errs, errors.New("markers.capture_start and capture_stop must differ"))
	}
	return errors.Join(errs...)
}

// ExdocMarkers converts the marker section into parser markers
func (c *Config) ExdocMarkers() exdoc.Markers {
	return exdoc.Markers{
		Doc:          c.Markers.Doc,
		CaptureStart: c.Markers.CaptureStart,
		CaptureStop:  c.Markers.CaptureStop,
		Section:      c.Markers.Section,
		Comment:      c.Markers.Comment,
	}
}

func (c *Config) WriterOptions() exdoc.WriterOptions {
	return exdoc.WriterOptions{
		Language:      c.Render.Language,
		IncludeHeader: c.Render.IncludeHeader,
	}
}

// ImagesPath is the directory notebook assets are copied into
func (c *Config) ImagesPath() string {
	return filepath.Join(c.Output.Dir, c.Output.ImagesDir)
}
