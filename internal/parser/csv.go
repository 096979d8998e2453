package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/deckgest/internal/outline"
)

// CSVParser handles CSV files. Rows are grouped into sections of rowsPerSection,
// one "header: value" line per row.
type CSVParser struct{}

const rowsPerSection = 20

func (p *CSVParser) Parse(r io.Reader, filename string) (*outline.Outline, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	o := &outline.Outline{Title: titleFromFilename(filename)}
	if len(records) == 0 {
		return o, nil
	}

	headers := records[0]
	rows := records[1:]
	for i := 0; i < len(rows); i += rowsPerSection {
		end := min(i+rowsPerSection, len(rows))

		var body strings.Builder
		for _, row := range rows[i:end] {
			cells := make([]string, 0, len(row))
			for j, cell := range row {
				if j < len(headers) && headers[j] != "" {
					cells = append(cells, headers[j]+": "+cell)
				} else {
					cells = append(cells, cell)
				}
			}
			body.WriteString(strings.Join(cells, ", "))
			body.WriteString("\n")
		}

		o.Sections = append(o.Sections, &outline.Section{
			Heading: fmt.Sprintf("Rows %d-%d", i+2, end+1), // 1-indexed, header is row 1
			Text:    strings.TrimSpace(body.String()),
		})
	}

	return o, nil
}
