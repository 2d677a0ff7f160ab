package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fpang/reel-studio/internal/shots"
)

var stylesCmd = &cobra.Command{
	Use:   "styles",
	Short: "List the built-in visual styles",
	Long:  "List the built-in visual styles. Any other style name is accepted and passed to the prompt writer verbatim.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		for _, fam := range shots.Styles() {
			fmt.Fprintf(out, "%s\n", fam.Name)
			for _, st := range fam.Styles {
				fmt.Fprintf(out, "  %-18s %s\n", st.Name, st.Cues)
			}
		}
	},
}
