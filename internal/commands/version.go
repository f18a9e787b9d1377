package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCommand(opts Options) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "remote-curl version %s\n", opts.Version)
			fmt.Fprintf(cmd.OutOrStdout(), "Built: %s\n", opts.BuildTime)
		},
	}
}
