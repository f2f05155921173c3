package app

import (
	"github.com/spf13/cobra"

	confluencesync "github.com/shouhanzen/confluence-sync"
)

// NewPullCommand creates the pull command.
func (a *App) NewPullCommand() *cobra.Command {
	var pageIDs []string

	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Download pages from the remote space into the local directory",
		Long: `Pull mirrors remote pages into the local directory as markdown files.

Remote content is authoritative: local edits to pulled files are overwritten.
By default the whole configured space is pulled; use --page to restrict the
pull to specific page ids.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			syncer, err := a.Syncer()
			if err != nil {
				return err
			}

			var opts []confluencesync.PullOption
			if len(pageIDs) > 0 {
				opts = append(opts, confluencesync.WithPages(pageIDs...))
			}

			ctx, cancel := commandContext(cmd.Context())
			defer cancel()

			result, err := syncer.Pull(ctx, opts...)
			if result != nil {
				printResult(cmd.OutOrStdout(), result)
			}
			if err != nil {
				return commandError(err)
			}
			return resultError(result)
		},
	}

	cmd.Flags().StringSliceVar(&pageIDs, "page", nil, "pull only the given page id (repeatable)")

	return cmd
}
