package notebook

import (
	"net/url"
	"os"
	"path/filepath"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// ImageRefs lists the destinations of all images referenced in markdown
func ImageRefs(markdown string) []string {
	source := []byte(markdown)
	root := goldmark.New().Parser().Parse(text.NewReader(source))

	var refs []string
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if img, ok := n.(*ast.Image); ok {
			refs = append(refs, string(img.Destination))
		}
		return ast.WalkContinue, nil
	})
	return refs
}

// MissingImages returns the relative image references in markdown that do
// not resolve to a file under baseDir
func MissingImages(markdown, baseDir string) []string {
	var missing []string
	for _, ref := range ImageRefs(markdown) {
		u, err := url.Parse(ref)
		if err != nil || u.IsAbs() || filepath.IsAbs(u.Path) {
			continue
		}
		if _, err := os.Stat(filepath.Join(baseDir, filepath.FromSlash(u.Path))); err != nil {
			missing = append(missing, ref)
		}
	}
	return missing
}
