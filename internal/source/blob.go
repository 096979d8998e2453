package source

import (
	"fmt"
	"strings"

	"github.com/dgallion1/deckgest/internal/chunker"
	"github.com/dgallion1/deckgest/internal/outline"
)

// BlobOptions controls how an outline is written as slide text.
type BlobOptions struct {
	// SentencesPerSection caps the bullets taken from each section.
	SentencesPerSection int
	// LeadTitle names the slide made from text before the first heading.
	// Empty drops the lead.
	LeadTitle string
	// Skip lists headings (case-insensitive) whose sections are left out.
	Skip []string
}

// Blob writes an outline as "## heading" lines each followed by up to
// SentencesPerSection "- sentence" lines. Nested headings are joined with
// " / ". Sections without text are omitted; untitled sections are named
// after the outline.
func Blob(o *outline.Outline, opts BlobOptions) string {
	if opts.SentencesPerSection <= 0 {
		opts.SentencesPerSection = 5
	}
	skip := make(map[string]bool, len(opts.Skip))
	for _, h := range opts.Skip {
		skip[strings.ToLower(h)] = true
	}

	var sb strings.Builder
	write := func(title, text string) {
		sentences := chunker.SplitSentences(text)
		if len(sentences) == 0 {
			return
		}
		if len(sentences) > opts.SentencesPerSection {
			sentences = sentences[:opts.SentencesPerSection]
		}
		fmt.Fprintf(&sb, "## %s\n", oneLine(title))
		for _, s := range sentences {
			fmt.Fprintf(&sb, "- %s\n", s)
		}
		sb.WriteString("\n")
	}

	if opts.LeadTitle != "" && o.Lead != "" {
		write(opts.LeadTitle, o.Lead)
	}

	untitled := 0
	o.Visit(func(s *outline.Section, path []string) {
		for _, h := range path {
			if skip[strings.ToLower(h)] {
				return
			}
		}
		if s.Text == "" {
			return
		}
		title := strings.Join(path, " / ")
		if title == "" {
			untitled++
			title = fmt.Sprintf("%s (%d)", o.Title, untitled)
		}
		write(title, s.Text)
	})

	return sb.String()
}

// oneLine keeps a heading from spilling onto a second line of the blob.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
