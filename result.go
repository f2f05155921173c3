package confluencesync

import (
	"fmt"
	"sort"
	"strings"
)

// Outcome is the per-file result of a pull or push unit of work.
type Outcome string

// Per-file outcomes. A batch aggregates one outcome per file; no file's
// outcome depends on another's.
const (
	// OutcomeSucceeded means the file was pulled or pushed successfully.
	OutcomeSucceeded Outcome = "succeeded"

	// OutcomeCreated means push created a new remote page for the file.
	OutcomeCreated Outcome = "created"

	// OutcomeConflicted means push was refused because the remote version
	// advanced independently. The local file is left untouched.
	OutcomeConflicted Outcome = "conflicted"

	// OutcomeFailed means the unit of work failed for a reason other than
	// a version conflict.
	OutcomeFailed Outcome = "failed"

	// OutcomeUnchanged means the file was already in sync and no remote
	// write was attempted.
	OutcomeUnchanged Outcome = "unchanged"
)

// FileResult is the outcome of one unit of work within a batch.
type FileResult struct {
	Path    string
	PageID  string
	Outcome Outcome
	Version int // remote version after the operation, when known
	Err     error
}

// Result is the aggregated outcome set of a pull or push batch.
type Result struct {
	Operation string // "pull" or "push"
	Files     []FileResult
}

func (r *Result) add(fr FileResult) {
	r.Files = append(r.Files, fr)
}

// Count returns the number of files with the given outcome.
func (r *Result) Count(outcome Outcome) int {
	n := 0
	for _, f := range r.Files {
		if f.Outcome == outcome {
			n++
		}
	}
	return n
}

// ByOutcome returns the file results with the given outcome, sorted by path.
func (r *Result) ByOutcome(outcome Outcome) []FileResult {
	var files []FileResult
	for _, f := range r.Files {
		if f.Outcome == outcome {
			files = append(files, f)
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files
}

// HasProblems reports whether any file ended conflicted or failed; the CLI
// exits non-zero when this is true.
func (r *Result) HasProblems() bool {
	return r.Count(OutcomeConflicted) > 0 || r.Count(OutcomeFailed) > 0
}

// Summary returns a human-readable one-line summary of the batch.
func (r *Result) Summary() string {
	if len(r.Files) == 0 {
		return fmt.Sprintf("%s: nothing to do", r.Operation)
	}

	var parts []string
	for _, outcome := range []Outcome{OutcomeSucceeded, OutcomeCreated, OutcomeUnchanged, OutcomeConflicted, OutcomeFailed} {
		if n := r.Count(outcome); n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, outcome))
		}
	}
	return fmt.Sprintf("%s: %s", r.Operation, strings.Join(parts, ", "))
}

// State classifies one page in a status report.
type State string

// Status classifications. Every tracked page and untracked local file
// lands in exactly one.
const (
	// StateUnchanged means neither side changed since the last sync.
	StateUnchanged State = "unchanged"

	// StateModifiedLocal means the local content differs from the last
	// synced snapshot.
	StateModifiedLocal State = "modified-local"

	// StateModifiedRemote means the remote version is greater than the
	// recorded version.
	StateModifiedRemote State = "modified-remote"

	// StateConflict means both sides diverged from the last synced state.
	StateConflict State = "conflict"

	// StateNewLocal means an untracked local file with no remote identity.
	StateNewLocal State = "new-local"

	// StateNewRemote means a remote page that has never been pulled.
	StateNewRemote State = "new-remote"

	// StateDeletedLocal means a tracked page whose local file is gone.
	StateDeletedLocal State = "deleted-local"

	// StateMissingRemote means a tracked page that no longer exists on
	// the remote service.
	StateMissingRemote State = "missing-remote"

	// StateUnknown means the remote check failed; Err carries the reason.
	StateUnknown State = "unknown"
)

// PageStatus is the classification of one page or local file.
type PageStatus struct {
	Path          string // empty for never-pulled remote pages
	PageID        string // empty for untracked local files
	Title         string
	LocalVersion  int
	RemoteVersion int
	State         State
	Err           error
}

// Report is the read-only result of a status operation.
type Report struct {
	Pages []PageStatus
}

func (r *Report) add(ps PageStatus) {
	r.Pages = append(r.Pages, ps)
}

// Count returns the number of pages in the given state.
func (r *Report) Count(state State) int {
	n := 0
	for _, p := range r.Pages {
		if p.State == state {
			n++
		}
	}
	return n
}

// InState returns pages in the given state, sorted by path then id.
func (r *Report) InState(state State) []PageStatus {
	var result []PageStatus
	for _, p := range r.Pages {
		if p.State == state {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Path != result[j].Path {
			return result[i].Path < result[j].Path
		}
		return result[i].PageID < result[j].PageID
	})
	return result
}

// Clean reports whether every page is unchanged.
func (r *Report) Clean() bool {
	return r.Count(StateUnchanged) == len(r.Pages)
}
