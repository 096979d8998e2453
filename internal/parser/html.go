package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/deckgest/internal/outline"
	"golang.org/x/net/html"
)

// HTMLParser handles HTML documents and rendered wiki article HTML.
type HTMLParser struct{}

// skippedTags never contribute text.
var skippedTags = map[string]bool{
	"script": true, "style": true, "nav": true, "footer": true, "header": true,
	"table": true, "sup": true, "figure": true, "noscript": true,
}

// skippedClasses mark wiki chrome: edit links, citations, navigation boxes.
var skippedClasses = []string{
	"mw-editsection", "reference", "navbox", "infobox", "hatnote",
	"thumb", "metadata", "mw-empty-elt", "toc", "shortdescription",
}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*outline.Outline, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	title := titleFromFilename(filename)
	if t := findTitle(doc); t != "" {
		title = t
	}

	b := outline.NewBuilder()
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if skipped(n) {
				return
			}
			if level := headingLevel(n.Data); level > 0 {
				b.Heading(level, textContent(n))
				return
			}
			switch n.Data {
			case "p", "li", "blockquote", "dd", "pre":
				b.Paragraph(textContent(n))
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	if body := findElement(doc, "body"); body != nil {
		walk(body)
	} else {
		walk(doc)
	}

	return b.Outline(title), nil
}

func headingLevel(tag string) int {
	if len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6' {
		return int(tag[1] - '0')
	}
	return 0
}

// Chrome reports whether n is an element that never contributes article text.
func Chrome(n *html.Node) bool {
	return n.Type == html.ElementNode && skipped(n)
}

func skipped(n *html.Node) bool {
	if skippedTags[n.Data] {
		return true
	}
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		for _, cls := range strings.Fields(a.Val) {
			for _, s := range skippedClasses {
				if cls == s {
					return true
				}
			}
		}
	}
	return false
}

// textContent collects visible text below n with whitespace collapsed.
func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.ElementNode && skipped(n) {
			return
		}
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.Join(strings.Fields(buf.String()), " ")
}

func findTitle(n *html.Node) string {
	if t := findElement(n, "title"); t != nil {
		return textContent(t)
	}
	return ""
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}
