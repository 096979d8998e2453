package render

import (
	"fmt"
	"os"
	"strconv"

	"github.com/fumiama/go-docx"
)

// Point sizes for slide text.
const (
	TitlePt   = 40
	ContentPt = 20
)

// Bullet prefixes every point paragraph.
const Bullet = "• "

// DOCX lays each slide out on its own page.
type DOCX struct {
	doc   *docx.Docx
	pages int
}

func NewDOCX() *DOCX {
	return &DOCX{doc: docx.New().WithDefaultTheme()}
}

func (d *DOCX) Ext() string { return "docx" }

func (d *DOCX) TitleSlide(title string) {
	d.newPage()
	d.doc.AddParagraph().Style("Title").Justification("center").
		AddText(title).Size(halfPoints(TitlePt)).Bold()
}

func (d *DOCX) ContentSlide(title string, points []string) {
	d.newPage()
	d.doc.AddParagraph().Style("Heading1").
		AddText(title).Size(halfPoints(TitlePt)).Bold()
	for _, p := range points {
		d.doc.AddParagraph().AddText(Bullet + p).Size(halfPoints(ContentPt))
	}
}

func (d *DOCX) Save(filename string) (string, error) {
	f, err := os.Create(filename)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", filename, err)
	}
	if _, err := d.doc.WriteTo(f); err != nil {
		f.Close()
		return "", fmt.Errorf("write docx: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", filename, err)
	}
	return filename, nil
}

// newPage starts every slide after the first on a fresh page.
func (d *DOCX) newPage() {
	if d.pages > 0 {
		d.doc.AddParagraph().AddPageBreaks()
	}
	d.pages++
}

// halfPoints converts a point size to the unit go-docx expects.
func halfPoints(pt int) string {
	return strconv.Itoa(pt * 2)
}
