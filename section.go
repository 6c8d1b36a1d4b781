package exdoc

import (
	"fmt"
	"strings"
	"unicode"
)

const bannerRule = "---------------------------------------------------------------------------"

// SectionTitle extracts the title of a section heading from the content of a
// documentation line.
//
// Headings follow the doxygen form `\subsection <label> <title>`. Only the
// first occurrence of the token counts. The label is always skipped, so a
// heading with a label and no title yields nothing.
func (m Markers) SectionTitle(content string) (string, bool) {
	idx := strings.Index(content, m.Section)
	if idx < 0 {
		return "", false
	}

	rest := content[idx+len(m.Section):]
	if rest != "" && !unicode.IsSpace(rune(rest[0])) {
		return "", false
	}

	words := strings.Fields(rest)
	if len(words) < 2 {
		return "", false
	}
	words = words[1:]

	title := strings.Join(words, " ")
	title = strings.TrimSuffix(title, ".")
	title = strings.TrimSpace(title)
	if title == "" {
		return "", false
	}

	return title, true
}

// Banner returns the comment block separating sections in the full source listing
func (m Markers) Banner(title string) []string {
	return []string{
		m.Comment + bannerRule,
		fmt.Sprintf("%s %s", m.Comment, title),
		m.Comment + bannerRule,
	}
}
