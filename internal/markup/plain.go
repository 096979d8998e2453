// Package markup reduces inline markdown in slide text to what a reader sees.
package markup

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// inlineParser treats every input as a single paragraph so leading "1." or
// "#" in a point is not read as a list or heading.
var inlineParser = parser.NewParser(
	parser.WithBlockParsers(util.Prioritized(parser.NewParagraphParser(), 1000)),
	parser.WithInlineParsers(parser.DefaultInlineParsers()...),
)

// formattingTag matches inline HTML tags that only style the text they wrap.
var formattingTag = regexp.MustCompile(`(?i)^</?(?:b|i|u|s|em|strong|code|span|mark|sub|sup|small)(?:\s[^>]*)?/?>$`)

// Plain strips emphasis, code spans, links, escapes and inline formatting
// tags, keeping their visible text, and collapses whitespace. Other
// angle-bracket text such as "List<String>" or "<div>" is kept as written.
func Plain(s string) string {
	if !strings.ContainsAny(s, "*_`[]<\\") {
		return strings.TrimSpace(s)
	}

	src := []byte(s)
	doc := inlineParser.Parse(text.NewReader(src))

	var buf bytes.Buffer
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Text:
			if node.IsRaw() {
				buf.Write(node.Segment.Value(src))
			} else {
				buf.Write(util.UnescapePunctuations(node.Segment.Value(src)))
			}
			if node.SoftLineBreak() || node.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(node.Value)
		case *ast.AutoLink:
			buf.Write(node.Label(src))
			return ast.WalkSkipChildren, nil
		case *ast.RawHTML:
			var raw []byte
			for i := 0; i < node.Segments.Len(); i++ {
				seg := node.Segments.At(i)
				raw = append(raw, seg.Value(src)...)
			}
			if !formattingTag.Match(raw) {
				buf.Write(raw)
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	return strings.Join(strings.Fields(buf.String()), " ")
}

// PlainAll applies Plain to every string.
func PlainAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = Plain(s)
	}
	return out
}
