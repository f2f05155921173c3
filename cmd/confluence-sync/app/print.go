package app

import (
	"context"
	"fmt"
	"io"

	confluencesync "github.com/shouhanzen/confluence-sync"
	"github.com/shouhanzen/confluence-sync/pkg/constants"
	"github.com/shouhanzen/confluence-sync/pkg/errors"
)

// commandContext bounds a whole invocation so a stalled remote never
// hangs the CLI indefinitely.
func commandContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, constants.CommandTimeout)
}

// commandError rewrites timeout errors into something actionable.
func commandError(err error) error {
	if errors.IsTimeout(err) {
		return fmt.Errorf("gave up after %s: %w", constants.CommandTimeout, err)
	}
	return err
}

// printResult writes one line per file plus the batch summary.
func printResult(w io.Writer, result *confluencesync.Result) {
	for _, f := range result.Files {
		switch f.Outcome {
		case confluencesync.OutcomeSucceeded:
			fmt.Fprintf(w, "  synced    %s  (page %s, v%d)\n", f.Path, f.PageID, f.Version)
		case confluencesync.OutcomeCreated:
			fmt.Fprintf(w, "  created   %s  (page %s, v%d)\n", f.Path, f.PageID, f.Version)
		case confluencesync.OutcomeUnchanged:
			fmt.Fprintf(w, "  unchanged %s\n", f.Path)
		case confluencesync.OutcomeConflicted:
			fmt.Fprintf(w, "  conflict  %s  (page %s): %v\n", f.Path, f.PageID, f.Err)
		case confluencesync.OutcomeFailed:
			name := f.Path
			if name == "" {
				name = "page " + f.PageID
			}
			fmt.Fprintf(w, "  failed    %s: %v\n", name, f.Err)
		}
	}
	fmt.Fprintln(w, result.Summary())
}

// resultError converts a batch with conflicted or failed files into a
// non-nil error so the process exits non-zero.
func resultError(result *confluencesync.Result) error {
	if !result.HasProblems() {
		return nil
	}
	return fmt.Errorf("%s finished with %d conflicted, %d failed",
		result.Operation,
		result.Count(confluencesync.OutcomeConflicted),
		result.Count(confluencesync.OutcomeFailed))
}
