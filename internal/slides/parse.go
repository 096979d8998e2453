package slides

import (
	"regexp"
	"strings"
)

// LineKind classifies a line of source text by its leading marker.
type LineKind int

const (
	Blank LineKind = iota
	Plain
	Heading
	Bullet
)

func (k LineKind) String() string {
	switch k {
	case Blank:
		return "blank"
	case Plain:
		return "plain"
	case Heading:
		return "heading"
	case Bullet:
		return "bullet"
	}
	return "unknown"
}

// Syntax holds the line markers that open a slide and add a point to it.
type Syntax struct {
	HeadingMarker string
	BulletMarkers []string
}

// DefaultSyntax matches the outline format requested from generators and
// produced by the document and encyclopedia sources.
var DefaultSyntax = Syntax{
	HeadingMarker: "## ",
	BulletMarkers: []string{"- "},
}

// Draft is a slide as parsed, before its points are fitted.
type Draft struct {
	Title  string   `json:"title"`
	Points []string `json:"points"`
}

// Classify returns the kind of line and its text with the marker removed.
func (s Syntax) Classify(line string) (LineKind, string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Blank, ""
	}
	if s.HeadingMarker != "" && strings.HasPrefix(line, s.HeadingMarker) {
		return Heading, strings.TrimSpace(line[len(s.HeadingMarker):])
	}
	for _, m := range s.BulletMarkers {
		if m != "" && strings.HasPrefix(line, m) {
			return Bullet, strings.TrimSpace(line[len(m):])
		}
	}
	return Plain, line
}

// Parse splits text into drafts using DefaultSyntax.
func Parse(text string, b Budget) []Draft {
	return DefaultSyntax.Parse(text, b)
}

// Parse scans text line by line. Each heading opens a draft, bullets are
// appended to the open draft, and everything else is ignored. Content before
// the first heading is dropped. At most b.MaxSlides drafts are returned.
func (s Syntax) Parse(text string, b Budget) []Draft {
	b = b.Normalize()

	var drafts []Draft
	var cur *Draft
	for _, line := range strings.Split(text, "\n") {
		kind, body := s.Classify(line)
		switch kind {
		case Heading:
			if cur != nil {
				drafts = append(drafts, *cur)
				cur = nil
			}
			if title := StripNumbering(body); title != "" {
				cur = &Draft{Title: title}
			}
		case Bullet:
			if cur != nil {
				cur.Points = append(cur.Points, body)
			}
		}
	}
	if cur != nil {
		drafts = append(drafts, *cur)
	}

	if len(drafts) > b.MaxSlides {
		drafts = drafts[:b.MaxSlides]
	}
	return drafts
}

// numberingRe matches "Slide 3:", a leading "2.1" token followed by
// whitespace, or a dotted token such as "1." or "2.1." directly followed by a
// letter, which is captured and kept. "3D Printing" is left alone.
var numberingRe = regexp.MustCompile(`(?i)^(?:slide\s*\d+\s*:\s*|\d[\d.]*(?:\s+|$)|\d+(?:\.\d+)*\.(\pL))`)

// StripNumbering removes ordinal noise from the start of a heading. If
// nothing would be left the heading is returned trimmed but otherwise intact.
func StripNumbering(heading string) string {
	heading = strings.TrimSpace(heading)
	stripped := strings.TrimSpace(numberingRe.ReplaceAllString(heading, "$1"))
	if stripped == "" {
		return heading
	}
	return stripped
}
