package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dgallion1/deckgest/internal/config"
)

func (c *cli) newProfilesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List budget profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tSLIDES\tPOINT\tSLIDE TOTAL\tMIN PARTIAL\tSENTENCES")
			for _, name := range cfg.Profiles.Names() {
				p := cfg.Profiles[name]
				marker := ""
				if name == config.DefaultProfile {
					marker = " (default)"
				}
				fmt.Fprintf(tw, "%s%s\t%d\t%d\t%d\t%d\t%d\n", name, marker,
					p.MaxSlides, p.MaxBulletChars, p.MaxTotalChars, p.MinMeaningfulChars, p.SentencesPerSection)
			}
			return tw.Flush()
		},
	}
}
