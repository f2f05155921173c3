package app

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

// NewPushCommand creates the push command.
func (a *App) NewPushCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "push [file...]",
		Short: "Upload local markdown changes to the remote space",
		Long: `Push submits local edits back to the remote space, one file at a time.

Files whose remote page changed since the last sync are refused with a
conflict and left untouched; pull first to pick up the remote edits. Files
without a page identity header are created as new pages. With no arguments
every tracked file is pushed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			syncer, err := a.Syncer()
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(cmd.Context())
			defer cancel()

			result, err := syncer.Push(ctx, a.resolvePushPaths(args)...)
			if result != nil {
				printResult(cmd.OutOrStdout(), result)
			}
			if err != nil {
				return commandError(err)
			}
			return resultError(result)
		},
	}
}

// resolvePushPaths maps user-supplied file paths onto paths relative to
// the sync directory, which is what the engine expects. Each argument is
// tried as given first; failing that, spellings relative to the working
// directory (docs/Intro.md with directory: docs) and absolute paths are
// rewritten when they point inside the sync directory.
func (a *App) resolvePushPaths(args []string) []string {
	root := a.config.Directory
	resolved := make([]string, 0, len(args))

	for _, arg := range args {
		if _, err := os.Stat(filepath.Join(root, arg)); err == nil {
			resolved = append(resolved, arg)
			continue
		}

		candidate := arg
		if filepath.IsAbs(candidate) {
			if absRoot, err := filepath.Abs(root); err == nil {
				candidate = strings.TrimPrefix(candidate, absRoot+string(filepath.Separator))
			}
		} else if rel, err := filepath.Rel(root, candidate); err == nil && !strings.HasPrefix(rel, "..") {
			candidate = rel
		}
		resolved = append(resolved, candidate)
	}
	return resolved
}
