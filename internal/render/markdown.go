package render

import (
	"fmt"
	"os"
	"strings"
)

// Markdown writes "# topic", then "## title" and "- point" lines per slide.
type Markdown struct {
	sb strings.Builder
}

func NewMarkdown() *Markdown { return &Markdown{} }

func (m *Markdown) Ext() string { return "md" }

func (m *Markdown) TitleSlide(title string) {
	m.separate()
	fmt.Fprintf(&m.sb, "# %s\n", title)
}

func (m *Markdown) ContentSlide(title string, points []string) {
	m.separate()
	fmt.Fprintf(&m.sb, "## %s\n", title)
	for _, p := range points {
		fmt.Fprintf(&m.sb, "- %s\n", p)
	}
}

func (m *Markdown) separate() {
	if m.sb.Len() > 0 {
		m.sb.WriteString("\n")
	}
}

// String returns the document rendered so far.
func (m *Markdown) String() string { return m.sb.String() }

func (m *Markdown) Save(filename string) (string, error) {
	if err := os.WriteFile(filename, []byte(m.sb.String()), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", filename, err)
	}
	return filename, nil
}
