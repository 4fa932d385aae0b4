package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/mgpai22/capconv/internal/caption"
	"github.com/spf13/cobra"
)

var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List supported caption formats",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "FORMAT\tEXTENSION\tREAD\tWRITE")
		for _, f := range caption.Formats {
			read := "no"
			if f.Readable() {
				read = "yes"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\tyes\n", f, f.Extension(), read)
		}
		w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(formatsCmd)
}
