package wiki

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/dgallion1/deckgest/internal/parser"
)

// disambiguationOptions returns the target title of the first article link
// in each list item, in page order, without duplicates.
func disambiguationOptions(fragment string) []string {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return nil
	}

	var options []string
	seen := make(map[string]bool)
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if parser.Chrome(n) {
			return
		}
		if n.Type == html.ElementNode && n.Data == "li" {
			if t := firstArticleLink(n); t != "" && !seen[t] {
				seen[t] = true
				options = append(options, t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return options
}

// firstArticleLink skips red links and links into other namespaces.
func firstArticleLink(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "a" {
		var href, title string
		red := false
		for _, a := range n.Attr {
			switch a.Key {
			case "href":
				href = a.Val
			case "title":
				title = a.Val
			case "class":
				red = strings.Contains(" "+a.Val+" ", " new ")
			}
		}
		if !red && title != "" && strings.HasPrefix(href, "/wiki/") && !strings.Contains(title, ":") {
			return title
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := firstArticleLink(c); t != "" {
			return t
		}
	}
	return ""
}
