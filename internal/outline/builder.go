package outline

import "strings"

// Builder assembles an Outline from a stream of headings and paragraphs.
// Headings nest under the closest preceding heading of a lower level.
type Builder struct {
	root  Section
	stack []entry
	text  strings.Builder
}

type entry struct {
	section *Section
	level   int
}

// NewBuilder returns a Builder with an empty root.
func NewBuilder() *Builder {
	b := &Builder{}
	b.stack = []entry{{section: &b.root, level: 0}}
	return b
}

// Heading opens a section at level (1 = top).
func (b *Builder) Heading(level int, heading string) *Section {
	b.flush()
	s := &Section{Heading: heading}
	for len(b.stack) > 1 && b.stack[len(b.stack)-1].level >= level {
		b.stack = b.stack[:len(b.stack)-1]
	}
	parent := b.stack[len(b.stack)-1].section
	parent.Children = append(parent.Children, s)
	b.stack = append(b.stack, entry{section: s, level: level})
	return s
}

// Paragraph adds body text to the open section.
func (b *Builder) Paragraph(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if b.text.Len() > 0 {
		b.text.WriteString("\n\n")
	}
	b.text.WriteString(text)
}

func (b *Builder) flush() {
	t := strings.TrimSpace(b.text.String())
	b.text.Reset()
	if t == "" {
		return
	}
	top := b.stack[len(b.stack)-1].section
	if top.Text != "" {
		top.Text += "\n\n" + t
	} else {
		top.Text = t
	}
}

// Outline finishes the build. Text seen before any heading becomes the lead.
func (b *Builder) Outline(title string) *Outline {
	b.flush()
	return &Outline{
		Title:    title,
		Lead:     b.root.Text,
		Sections: b.root.Children,
	}
}
