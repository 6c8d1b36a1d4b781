package exdoc

import (
	"fmt"
	"path/filepath"
	"strings"
)

const docFilePrefix = "doc_"

// BaseName returns the part of a source file name before its extension.
//
// Names with more than one dot are rejected, matching the example layout
// where a file is `<basename>.<ext>`.
func BaseName(srcPath string) (string, error) {
	name := filepath.Base(srcPath)
	parts := strings.Split(name, ".")
	if len(parts) != 2 || parts[0] == "" {
		return "", fmt.Errorf("unsupported file name %q, expected <basename>.<ext>", name)
	}
	return parts[0], nil
}

// ResolveOutputPath determines the generated documentation path for a source file
func ResolveOutputPath(srcPath, outDir string) (string, error) {
	base, err := BaseName(srcPath)
	if err != nil {
		return "", err
	}
	return filepath.Join(outDir, DocFileName(base)), nil
}

// DocFileName returns the generated file name for a base name, eg doc_ex1.md
func DocFileName(base string) string {
	return docFilePrefix + base + ".md"
}

// ContainsPath reports whether path is dir itself or lies somewhere below it.
// Both are made absolute and symlinks of existing paths are resolved first.
func ContainsPath(dir, path string) bool {
	dir, path = resolvePath(dir), resolvePath(path)
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func resolvePath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
	}
	return filepath.Clean(path)
}

func MustAbs(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		panic(err)
	}
	return abs
}
