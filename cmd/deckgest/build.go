package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dgallion1/deckgest/internal/pipeline"
	"github.com/dgallion1/deckgest/internal/slides"
	"github.com/dgallion1/deckgest/internal/source"
)

// buildFlags are the deck-shaping flags shared by generate, doc and fit.
type buildFlags struct {
	profile    string
	format     string
	out        string
	keepMarkup bool
	budget     slides.Budget
}

func (f *buildFlags) register(cmd *cobra.Command, withOutput bool) {
	cmd.Flags().StringVarP(&f.profile, "profile", "p", "", "budget profile (see 'deckgest profiles')")
	cmd.Flags().BoolVar(&f.keepMarkup, "keep-markup", false, "keep inline markdown in titles and points")
	cmd.Flags().IntVar(&f.budget.MaxSlides, "max-slides", 0, "override the profile's slide limit")
	cmd.Flags().IntVar(&f.budget.MaxBulletChars, "max-bullet-chars", 0, "override the profile's per-point limit")
	cmd.Flags().IntVar(&f.budget.MaxTotalChars, "max-total-chars", 0, "override the profile's per-slide limit")
	cmd.Flags().IntVar(&f.budget.MinMeaningfulChars, "min-chars", 0, "override the shortest partial point kept")
	if withOutput {
		cmd.Flags().StringVarP(&f.format, "format", "f", "docx", "output format (docx or md)")
		cmd.Flags().StringVarP(&f.out, "out", "o", "", "output directory (default OUTPUT_DIR)")
	}
}

func (f *buildFlags) request(topic, src string) pipeline.Request {
	return pipeline.Request{
		Topic:      topic,
		Source:     src,
		Profile:    f.profile,
		Format:     f.format,
		Budget:     f.budget,
		KeepMarkup: f.keepMarkup,
		OutputDir:  f.out,
	}
}

// run builds req and prints where the deck went, or what the lookup found
// instead.
func (c *cli) run(cmd *cobra.Command, b *pipeline.Builder, req pipeline.Request) error {
	progress := func(s pipeline.JobStatus) {
		c.log.Info("phase", "status", s, "topic", req.Topic)
	}
	out, err := b.Run(cmd.Context(), req, progress)
	w := cmd.OutOrStdout()

	var lookup *source.LookupError
	if errors.As(err, &lookup) {
		printAlternatives(w, lookup)
		return err
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Wrote %s (%d slides)\n", out.File, len(out.Deck.Slides))
	for i, s := range out.Deck.Slides {
		fmt.Fprintf(w, "  %d. %s (%d points)\n", i+1, s.Title, len(s.Points))
	}
	return nil
}

func printAlternatives(w io.Writer, e *source.LookupError) {
	switch {
	case e.Kind == source.Ambiguous:
		fmt.Fprintf(w, "%q is ambiguous. Did you mean:\n", e.Topic)
	case len(e.Alternatives) > 0:
		fmt.Fprintf(w, "No article found for %q. Similar titles:\n", e.Topic)
	default:
		fmt.Fprintf(w, "No article found for %q.\n", e.Topic)
	}
	for _, alt := range e.Alternatives {
		fmt.Fprintf(w, "  - %s\n", alt)
	}
}
