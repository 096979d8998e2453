package slides

import "errors"

// ErrNoSlides is returned by callers that need at least one slide, when the
// source text contained no headings.
var ErrNoSlides = errors.New("no slides found in content")

// Slide is a titled slide whose points satisfy a Budget.
type Slide struct {
	Title  string   `json:"title"`
	Points []string `json:"points"`
}

// Deck is a topic plus its fitted slides in heading order.
type Deck struct {
	Topic  string  `json:"topic"`
	Slides []Slide `json:"slides"`
}

// Build parses text with DefaultSyntax and fits every slide.
func Build(topic, text string, b Budget) Deck {
	return DefaultSyntax.Build(topic, text, b)
}

// Build parses text and fits every slide.
func (s Syntax) Build(topic, text string, b Budget) Deck {
	return Assemble(topic, s.Parse(text, b), b)
}

// Assemble fits each draft and caps the deck at b.MaxSlides.
func Assemble(topic string, drafts []Draft, b Budget) Deck {
	b = b.Normalize()
	if len(drafts) > b.MaxSlides {
		drafts = drafts[:b.MaxSlides]
	}
	deck := Deck{Topic: topic, Slides: make([]Slide, 0, len(drafts))}
	for _, d := range drafts {
		deck.Slides = append(deck.Slides, Slide{
			Title:  d.Title,
			Points: Fit(d.Points, b),
		})
	}
	return deck
}

// Empty reports whether the deck has no slides.
func (d Deck) Empty() bool {
	return len(d.Slides) == 0
}
