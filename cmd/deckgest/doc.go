package main

import (
	"errors"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dgallion1/deckgest/internal/pipeline"
)

func (c *cli) newDocCommand() *cobra.Command {
	var (
		src   string
		topic string
		flags buildFlags
	)
	cmd := &cobra.Command{
		Use:   "doc <file>",
		Short: "Build a deck from a document, or generate one that draws on it",
		Long: `doc turns a .md, .txt, .csv, .html, .pdf or .docx file into a deck.

With --source openai or --source claude the document is instead handed to the
model as reference material for a deck about --topic.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			if src != pipeline.SourceDocument && topic == "" {
				return errors.New("--topic is required when a model writes the deck")
			}
			if src == pipeline.SourceDocument && flags.profile == "" {
				flags.profile = pipeline.SourceDocument
			}
			if flags.out == "" {
				flags.out = cfg.OutputDir
			}
			data, err := c.readInput(args[0])
			if err != nil {
				return err
			}

			req := flags.request(topic, src)
			req.Filename = filepath.Base(args[0])
			req.Data = data
			return c.run(cmd, c.deps.newBuilder(cfg, c.log), req)
		},
	}
	cmd.Flags().StringVarP(&src, "source", "s", pipeline.SourceDocument, "document, or a model source to use the file as reference")
	cmd.Flags().StringVarP(&topic, "topic", "t", "", "deck topic (default: the file name)")
	flags.register(cmd, true)
	return cmd
}
