package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/dgallion1/deckgest/internal/outline"
)

// TextParser handles plain text files. Each blank-line separated paragraph
// becomes an untitled section.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*outline.Outline, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	o := &outline.Outline{Title: titleFromFilename(filename)}
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			o.Sections = append(o.Sections, &outline.Section{Text: current.String()})
			current.Reset()
		}
	}

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()

	return o, nil
}
