package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/deckgest/internal/pipeline"
	"github.com/dgallion1/deckgest/internal/render"
	"github.com/dgallion1/deckgest/internal/slides"
)

func (c *cli) newFitCommand() *cobra.Command {
	var (
		topic  string
		asJSON bool
		flags  buildFlags
	)
	cmd := &cobra.Command{
		Use:   "fit [file]",
		Short: "Fit '## heading' / '- point' text to a budget and print the deck",
		Long: `fit reads slide text from a file or stdin, fits it to the chosen
budget and prints the result as markdown. Nothing is fetched or written.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			data, err := c.readInput(name)
			if err != nil {
				return err
			}
			if topic == "" {
				topic = topicFromFilename(name)
			}

			b := &pipeline.Builder{Profiles: cfg.Profiles, Log: c.log}
			_, budget, err := b.ResolveBudget(flags.profile, flags.budget)
			if err != nil {
				return err
			}
			deck := pipeline.BuildDeck(topic, string(data), budget, flags.keepMarkup)
			if deck.Empty() {
				return slides.ErrNoSlides
			}

			w := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(deck)
			}
			md := render.NewMarkdown()
			render.Deck(md, deck)
			_, err = fmt.Fprint(w, md.String())
			return err
		},
	}
	cmd.Flags().StringVarP(&topic, "topic", "t", "", "deck title (default: the file name)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the deck as JSON")
	flags.register(cmd, false)
	return cmd
}

func topicFromFilename(name string) string {
	if name == "" || name == "-" {
		return "Deck"
	}
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
