package main

import (
	"errors"

	"github.com/spf13/cobra"
)

func (c *cli) newGenerateCommand() *cobra.Command {
	var (
		src   string
		flags buildFlags
	)
	cmd := &cobra.Command{
		Use:   "generate <topic>",
		Short: "Build a deck about a topic from a language model or the encyclopedia",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			topic := joinArgs(args)
			if topic == "" {
				return errors.New("topic is required")
			}
			cfg, err := c.config()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if src == "" {
				src = cfg.Sources()[0]
			}
			if flags.profile == "" && src == "wiki" {
				flags.profile = "wiki"
			}
			if flags.out == "" {
				flags.out = cfg.OutputDir
			}
			return c.run(cmd, c.deps.newBuilder(cfg, c.log), flags.request(topic, src))
		},
	}
	cmd.Flags().StringVarP(&src, "source", "s", "", "content source: openai, claude or wiki (default: first configured)")
	flags.register(cmd, true)
	return cmd
}
