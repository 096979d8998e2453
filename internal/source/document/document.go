// Package document turns uploaded files into slide outlines and reference
// material for generation prompts.
package document

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dgallion1/deckgest/internal/chunker"
	"github.com/dgallion1/deckgest/internal/outline"
	"github.com/dgallion1/deckgest/internal/parser"
	"github.com/dgallion1/deckgest/internal/source"
)

// ErrUnsupported means no parser handles the file's extension.
var ErrUnsupported = errors.New("unsupported document type")

// Parse reads data as the format implied by filename.
func Parse(filename string, data []byte) (*outline.Outline, error) {
	if !parser.IsSupportedExtension(filename) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, filepath.Ext(filename))
	}
	p, err := parser.ForFile(filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	o, err := p.Parse(bytes.NewReader(data), filename)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(filename), err)
	}
	return o, nil
}

// FromBytes builds a Found result whose text holds up to sentences bullets
// per document section. Text before the first heading becomes "Overview".
func FromBytes(filename string, data []byte, sentences int) (source.Result, error) {
	o, err := Parse(filename, data)
	if err != nil {
		return source.Result{}, err
	}
	text := source.Blob(o, source.BlobOptions{
		SentencesPerSection: sentences,
		LeadTitle:           "Overview",
	})
	return source.FoundResult(o.Title, text), nil
}

// Reference chunks the document and concatenates chunks, each labelled with
// its heading path, until tokenBudget would be exceeded. The first chunk is
// always kept.
func Reference(filename string, data []byte, tokenBudget int) (string, error) {
	o, err := Parse(filename, data)
	if err != nil {
		return "", err
	}
	return ReferenceText(o, tokenBudget), nil
}

// ReferenceText is Reference for an already parsed outline.
func ReferenceText(o *outline.Outline, tokenBudget int) string {
	cfg := chunker.DefaultConfig()
	// Short documents are still worth quoting.
	cfg.MinChunk = 1
	if tokenBudget > 0 && tokenBudget < cfg.ChunkSize {
		cfg.ChunkSize = tokenBudget
		cfg.ChunkOverlap = max(1, tokenBudget/8)
	}

	var sb strings.Builder
	used := 0
	for _, c := range chunker.ChunkOutline(o, cfg) {
		label := o.Title
		if len(c.Breadcrumb) > 0 {
			label = strings.Join(c.Breadcrumb, " > ")
		}
		tokens := chunker.EstimateTokens(c.Text)
		if tokenBudget > 0 && sb.Len() > 0 && used+tokens > tokenBudget {
			break
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "[%s]\n%s", label, c.Text)
		used += tokens
	}
	return sb.String()
}
