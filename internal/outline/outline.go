package outline

import "strings"

// Outline is a parsed document: optional lead text followed by sections.
type Outline struct {
	Title    string     // Document title (metadata, <title>, or filename)
	Lead     string     // Text before the first heading
	Sections []*Section // Top-level sections
}

// Section is a heading with its body text and nested subsections.
type Section struct {
	Heading  string
	Text     string // Body text, paragraphs separated by blank lines
	Page     int    // Source page (0 if N/A)
	Children []*Section
}

// Chunk is a sized piece of section text with its heading path.
type Chunk struct {
	Text       string
	Index      int
	Breadcrumb []string // e.g. ["History", "Early years"]
	PageStart  int
	PageEnd    int
}

// Visit calls fn for every section depth-first with its heading path.
func (o *Outline) Visit(fn func(s *Section, path []string)) {
	var walk func(sections []*Section, path []string)
	walk = func(sections []*Section, path []string) {
		for _, s := range sections {
			p := path
			if s.Heading != "" {
				p = append(append([]string(nil), path...), s.Heading)
			}
			fn(s, p)
			walk(s.Children, p)
		}
	}
	walk(o.Sections, nil)
}

// Text joins the lead and all section text, in document order.
func (o *Outline) Text() string {
	var parts []string
	if o.Lead != "" {
		parts = append(parts, o.Lead)
	}
	o.Visit(func(s *Section, _ []string) {
		if s.Text != "" {
			parts = append(parts, s.Text)
		}
	})
	return strings.Join(parts, "\n\n")
}
