// Package render writes fitted decks to files.
package render

import (
	"fmt"
	"strings"

	"github.com/dgallion1/deckgest/internal/slides"
)

// Renderer receives a deck slide by slide and writes it out on Save.
type Renderer interface {
	TitleSlide(title string)
	ContentSlide(title string, points []string)
	// Save writes the document to filename and returns the path written.
	Save(filename string) (string, error)
	Ext() string
}

// Formats lists the names accepted by New.
var Formats = []string{"docx", "md"}

// New returns an empty renderer for format ("docx" or "md").
func New(format string) (Renderer, error) {
	switch strings.ToLower(format) {
	case "", "docx":
		return NewDOCX(), nil
	case "md", "markdown":
		return NewMarkdown(), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want one of %s)", format, strings.Join(Formats, ", "))
	}
}

// Deck feeds a title slide followed by one content slide per deck slide.
func Deck(r Renderer, d slides.Deck) {
	r.TitleSlide(d.Topic)
	for _, s := range d.Slides {
		r.ContentSlide(s.Title, s.Points)
	}
}

// Filename derives "<topic>_presentation.<ext>" with spaces as underscores.
// Path separators and other characters unsafe in file names are dropped.
func Filename(topic, ext string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case ' ':
			return '_'
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', 0:
			return -1
		}
		return r
	}, strings.TrimSpace(topic))
	name = strings.Trim(name, ".")
	if name == "" {
		name = "deck"
	}
	return name + "_presentation." + strings.TrimPrefix(ext, ".")
}
