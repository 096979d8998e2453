package generate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dgallion1/deckgest/internal/slides"
	"github.com/dgallion1/deckgest/internal/source"
)

// chatterPattern matches unmarked lines where the model talks about the task
// or echoes instructions instead of writing slide content.
var chatterPattern = regexp.MustCompile(
	`(?i)^(here\s+(is|are)\s+(a|an|the|your)\b|sure[,!.]|certainly[,!.]|i\s+hope\s+this|let\s+me\s+know|` +
		`as\s+an\s+ai\b)|ignore\s+(previous|all|above)\s+instructions|system\s*prompt`,
)

// validateReply drops chatter from unmarked lines and checks that the reply
// has at least one slide heading. Heading and bullet lines are slide content
// and always kept. A reply with no headings is retryable: another sample
// usually follows the structure.
func validateReply(text string) (string, error) {
	var kept []string
	headings := 0
	for _, line := range strings.Split(text, "\n") {
		kind, body := slides.DefaultSyntax.Classify(line)
		switch kind {
		case slides.Heading:
			headings++
		case slides.Plain:
			if chatterPattern.MatchString(body) {
				continue
			}
		}
		kept = append(kept, line)
	}
	if headings == 0 {
		return "", &source.RetryableError{Message: fmt.Sprintf("reply has no %q headings: %s",
			strings.TrimSpace(slides.DefaultSyntax.HeadingMarker), source.Truncate(strings.TrimSpace(text), 80))}
	}
	return strings.TrimSpace(strings.Join(kept, "\n")), nil
}
