package commands

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/jwtly10/exdoc"
	"github.com/jwtly10/exdoc/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const exampleSource = "!! Example 1 {#doc_ex1}\n" +
	"!! Intro\n" +
	"x = 1\n"

// run parses args like the exdoc binary does and runs the selected command
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cli := &CLI{}
	parser, err := kong.New(cli, kong.Name("exdoc"), kong.Exit(func(code int) {
		t.Fatalf("unexpected exit %d", code)
	}))
	require.NoError(t, err)

	ctx, err := parser.Parse(args)
	require.NoError(t, err)

	var out bytes.Buffer
	err = ctx.Run(&Global{Stdout: &out}, cli)
	return out.String(), err
}

// writeProject lays out a sources directory and a config file pointing at it
func writeProject(t *testing.T) (root, cfgPath string) {
	t.Helper()
	root = t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "examples"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "examples", "ex1.F90"), []byte(exampleSource), 0644))

	cfgPath = filepath.Join(root, "exdoc.yaml")
	cfg := fmt.Sprintf("sources:\n  dir: %s\noutput:\n  dir: %s\nnotebooks:\n  enabled: false\n",
		filepath.Join(root, "examples"), filepath.Join(root, "out"))
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0644))
	return root, cfgPath
}

func TestRenderCommand(t *testing.T) {
	root, cfgPath := writeProject(t)

	out, err := run(t, "render", "-c", cfgPath, filepath.Join(root, "examples", "ex1.F90"))
	require.NoError(t, err)
	assert.Equal(t, "Intro\n\n~~~~~~~~~{.F90}\nx = 1\n~~~~~~~~~\n", out)

	out, err = run(t, "render", "-c", cfgPath, "--include-header", "--language", "fortran", filepath.Join(root, "examples", "ex1.F90"))
	require.NoError(t, err)
	assert.Equal(t, "Example 1 {#doc_ex1}\n\nIntro\n\n~~~~~~~~~{.fortran}\nx = 1\n~~~~~~~~~\n", out)
}

func TestRenderCommandMalformedHeader(t *testing.T) {
	root, cfgPath := writeProject(t)
	bad := filepath.Join(root, "examples", "bad.F90")
	require.NoError(t, os.WriteFile(bad, []byte("!! no prefix\n"), 0644))

	_, err := run(t, "render", "-c", cfgPath, bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed header")
}

func TestGenerateCommand(t *testing.T) {
	root, cfgPath := writeProject(t)

	out, err := run(t, "generate", "-c", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "doc_ex1.md")
	assert.FileExists(t, filepath.Join(root, "out", "doc_ex1.md"))
	assert.DirExists(t, filepath.Join(root, "out", "images"))

	other := filepath.Join(root, "other")
	_, err = run(t, "generate", "-c", cfgPath, "-o", other)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(other, "doc_ex1.md"))
}

func TestGenerateFlagsOverrideConfig(t *testing.T) {
	cfg := config.Default()
	g := GenerateCmd{Output: "site", NoClean: true, NoNotebooks: true}
	g.apply(cfg)

	assert.Equal(t, "site", cfg.Output.Dir)
	assert.False(t, cfg.Output.Clean)
	assert.False(t, cfg.Notebooks.Enabled)

	opts := processorOptions(cfg)
	assert.Empty(t, opts.NotebooksDir)
	assert.Equal(t, "site", opts.Transform.OutputDir)
	assert.Equal(t, "site", opts.Notebook.OutputDir)
	assert.True(t, opts.Transform.NoBackup)
	assert.Equal(t, exdoc.DefaultMarkers, opts.Transform.Markers)
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "exdoc "+exdoc.VERSION+"\n", out)
}
