package generate

import (
	"fmt"
	"strings"
)

// SystemPrompt frames every generation request.
const SystemPrompt = `You are an expert technical writer preparing presentation slides. Write every point as a complete sentence that explains one concrete idea, and include a short example or specific detail where it helps. Do not number sections. Do not add introductions or closing remarks outside the requested structure.`

// PromptOptions shapes the user message.
type PromptOptions struct {
	Slides         int
	PointsPerSlide int
	// Reference is optional source material the slides should draw on.
	Reference string
}

// BuildPrompt asks for a deck outline about topic in "## " / "- " form.
func BuildPrompt(topic string, opts PromptOptions) string {
	if opts.Slides <= 0 {
		opts.Slides = 7
	}
	if opts.PointsPerSlide <= 0 {
		opts.PointsPerSlide = 5
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Create a %d-slide presentation about %q.\n\n", opts.Slides, topic)
	sb.WriteString("Use exactly this structure for each slide:\n\n")
	sb.WriteString("## [Section Title]\n")
	for range opts.PointsPerSlide {
		sb.WriteString("- [Point]\n")
	}
	fmt.Fprintf(&sb, "\nWrite %d points per slide. Respond with only the slides.", opts.PointsPerSlide)

	if ref := strings.TrimSpace(opts.Reference); ref != "" {
		sb.WriteString("\n\n---\nBase the slides on this reference material:\n---\n")
		sb.WriteString(ref)
	}
	return sb.String()
}
