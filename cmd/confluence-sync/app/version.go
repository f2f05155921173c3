package app

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewVersionCommand creates the version command.
func (a *App) NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "confluence-sync %s\n", a.version)
			fmt.Fprintf(w, "  commit: %s\n", a.commit)
			fmt.Fprintf(w, "  built:  %s\n", a.date)
			fmt.Fprintf(w, "  by:     %s\n", a.builtBy)
		},
	}
}
