package exdoc

import (
	"regexp"
	"strings"
)

const (
	notebookFence      = "```"
	DefaultImagesDir   = "images"
	imagePlaceholder   = "[png]"
	emptyAltImageLabel = "[]"
)

var (
	displayMathRegex = regexp.MustCompile(`(?s)\$\$(.*?)\$\$`)
	inlineMathRegex  = regexp.MustCompile(`\$(.*?)\$`)
)

// PostProcessNotebook rewrites markdown exported from a notebook so it fits
// the generated documentation tree.
//
// Outside of ``` fenced regions it points the converter asset directory
// (<baseName>_files) at imagesDir, drops the [png] alt placeholder and turns
// $..$ math into doxygen \f$..\f$ form. Fenced regions pass through untouched.
func PostProcessNotebook(markdown, baseName, imagesDir string) string {
	if imagesDir == "" {
		imagesDir = DefaultImagesDir
	}
	assetDir := baseName + "_files"

	parts := strings.Split(markdown, notebookFence)
	for i, part := range parts {
		// odd parts sit between an opening and closing fence
		if i%2 == 1 {
			continue
		}
		if baseName != "" {
			part = strings.ReplaceAll(part, assetDir, imagesDir)
		}
		part = strings.ReplaceAll(part, imagePlaceholder, emptyAltImageLabel)
		part = displayMathRegex.ReplaceAllString(part, `\f[${1}\f]`)
		part = inlineMathRegex.ReplaceAllString(part, `\f$$${1}\f$$`)
		parts[i] = part
	}

	return strings.Join(parts, notebookFence)
}
