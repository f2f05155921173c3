package app

import (
	"fmt"

	"github.com/spf13/cobra"

	confluencesync "github.com/shouhanzen/confluence-sync"
)

// NewStatusCommand creates the status command.
func (a *App) NewStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the sync state of every page and local file",
		Long: `Status compares the local directory, the last-synced snapshot, and the
remote space, and classifies every page without changing anything.

Conflicts are reported, not fatal: status always exits zero unless the
remote service cannot be reached.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			syncer, err := a.Syncer()
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(cmd.Context())
			defer cancel()

			report, err := syncer.Status(ctx)
			if err != nil {
				return commandError(err)
			}

			printReport(cmd, report)
			return nil
		},
	}
}

func printReport(cmd *cobra.Command, report *confluencesync.Report) {
	w := cmd.OutOrStdout()

	if report.Clean() {
		fmt.Fprintf(w, "Everything up to date (%d pages)\n", len(report.Pages))
		return
	}

	for _, state := range []confluencesync.State{
		confluencesync.StateConflict,
		confluencesync.StateModifiedLocal,
		confluencesync.StateModifiedRemote,
		confluencesync.StateNewLocal,
		confluencesync.StateNewRemote,
		confluencesync.StateDeletedLocal,
		confluencesync.StateMissingRemote,
		confluencesync.StateUnknown,
	} {
		for _, p := range report.InState(state) {
			fmt.Fprintf(w, "  %-16s %s\n", state, describePage(p))
		}
	}

	fmt.Fprintf(w, "%d pages: %d unchanged, %d with differences\n",
		len(report.Pages),
		report.Count(confluencesync.StateUnchanged),
		len(report.Pages)-report.Count(confluencesync.StateUnchanged))
}

func describePage(p confluencesync.PageStatus) string {
	name := p.Path
	if name == "" {
		name = fmt.Sprintf("%q (page %s)", p.Title, p.PageID)
	}

	switch p.State {
	case confluencesync.StateConflict, confluencesync.StateModifiedRemote:
		return fmt.Sprintf("%s (local v%d, remote v%d)", name, p.LocalVersion, p.RemoteVersion)
	case confluencesync.StateUnknown:
		return fmt.Sprintf("%s: %v", name, p.Err)
	}
	return name
}
