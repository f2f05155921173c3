package confluencesync

import (
	"context"
	"sort"

	"github.com/shouhanzen/confluence-sync/internal/document"
	"github.com/shouhanzen/confluence-sync/internal/store"
	"github.com/shouhanzen/confluence-sync/pkg/errors"
	"github.com/shouhanzen/confluence-sync/pkg/logging"
	"github.com/shouhanzen/confluence-sync/pkg/pages"
)

// Status classifies every tracked page, every untracked local markdown
// file, and every remote page that has never been pulled. It performs no
// writes against the adapters or the store.
//
// One space listing covers remote version checks for tracked pages and
// new-remote detection in a single call; pages absent from the listing
// (moved or deleted remotely) fall back to an individual version lookup.
func (e *engine) Status(ctx context.Context) (*Report, error) {
	ctx = logging.WithOperation(logging.WithSpace(ctx, e.spaceKey), "status")
	log := logging.Ctx(ctx)
	report := &Report{}

	summaries, err := e.service.List(ctx, e.spaceKey)
	if err != nil {
		return nil, err
	}
	remote := make(map[string]pages.Summary, len(summaries))
	for _, s := range summaries {
		remote[s.ID] = s
	}

	trackedIDs := make(map[string]bool)

	for _, entry := range e.store.List() {
		trackedIDs[entry.PageID] = true

		ps, err := e.classify(ctx, entry, remote)
		if err != nil {
			return nil, err
		}
		report.add(ps)
	}

	// Untracked local markdown files.
	files, err := document.Scan(e.root, e.ignore)
	if err != nil {
		return nil, err
	}
	for _, rel := range files {
		if _, ok := e.store.ByPath(rel); ok {
			continue
		}
		ps := PageStatus{Path: rel, State: StateNewLocal}
		if doc, err := document.Load(e.root, rel); err == nil {
			ps.Title = doc.Meta.Title
			ps.PageID = doc.Meta.PageID
		}
		report.add(ps)
	}

	// Remote pages never pulled.
	for _, s := range summaries {
		if trackedIDs[s.ID] {
			continue
		}
		report.add(PageStatus{
			PageID:        s.ID,
			Title:         s.Title,
			RemoteVersion: s.Version,
			State:         StateNewRemote,
		})
	}

	sort.Slice(report.Pages, func(i, j int) bool {
		if report.Pages[i].Path != report.Pages[j].Path {
			return report.Pages[i].Path < report.Pages[j].Path
		}
		return report.Pages[i].PageID < report.Pages[j].PageID
	})

	log.Debug().Int("pages", len(report.Pages)).Msg("Status computed")
	return report, nil
}

// classify determines the state of one tracked page.
func (e *engine) classify(ctx context.Context, entry store.Entry, remote map[string]pages.Summary) (PageStatus, error) {
	ps := PageStatus{
		Path:         entry.LocalPath,
		PageID:       entry.PageID,
		Title:        entry.Title,
		LocalVersion: entry.Version,
	}

	if !document.Exists(e.root, entry.LocalPath) {
		ps.State = StateDeletedLocal
		return ps, nil
	}

	// Local half: compare file content against the last-synced snapshot.
	// No network round-trip is needed for this side.
	localChanged := false
	doc, err := document.Load(e.root, entry.LocalPath)
	if err != nil {
		// An unreadable or unparsable file counts as locally modified.
		localChanged = true
	} else {
		localChanged = doc.BodyHash() != entry.SyncedHash || doc.Meta.Version != entry.Version
	}

	// Remote half: version from the space listing, or an individual
	// lookup when the page no longer appears there.
	remoteVersion := 0
	if summary, ok := remote[entry.PageID]; ok {
		remoteVersion = summary.Version
	} else {
		version, err := e.service.FetchVersion(ctx, entry.PageID)
		switch {
		case err == nil:
			remoteVersion = version
		case errors.IsNotFound(err):
			ps.State = StateMissingRemote
			return ps, nil
		case errors.IsAuth(err):
			return ps, err
		default:
			ps.State = StateUnknown
			ps.Err = err
			return ps, nil
		}
	}
	ps.RemoteVersion = remoteVersion
	remoteChanged := remoteVersion > entry.Version

	switch {
	case localChanged && remoteChanged:
		ps.State = StateConflict
	case localChanged:
		ps.State = StateModifiedLocal
	case remoteChanged:
		ps.State = StateModifiedRemote
	default:
		ps.State = StateUnchanged
	}
	return ps, nil
}
