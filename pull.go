package confluencesync

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/shouhanzen/confluence-sync/internal/document"
	"github.com/shouhanzen/confluence-sync/internal/store"
	"github.com/shouhanzen/confluence-sync/pkg/errors"
	"github.com/shouhanzen/confluence-sync/pkg/logging"
	"github.com/shouhanzen/confluence-sync/pkg/pages"
)

// Pull retrieves remote pages and mirrors them into the local root.
// Remote state is authoritative: pulled files are overwritten without a
// conflict check. A single page's failure is reported and skipped; only
// an authentication failure or a store write failure aborts the batch.
func (e *engine) Pull(ctx context.Context, opts ...PullOption) (*Result, error) {
	options := newPullOptions(opts...)
	ctx = logging.WithOperation(logging.WithSpace(ctx, e.spaceKey), "pull")
	log := logging.Ctx(ctx)
	result := &Result{Operation: "pull"}

	ids, err := e.pullTargets(ctx, options)
	if err != nil {
		return nil, err
	}

	log.Info().Int("pages", len(ids)).Msg("Pulling pages")

	// Remote fetches may run in parallel; file and store writes below
	// stay on this goroutine so the store has a single mutator.
	fetched := e.fetchAll(ctx, ids)

	taken := e.takenPaths()
	for _, fr := range fetched {
		if fr.err != nil {
			if errors.IsAuth(fr.err) {
				return result, fr.err
			}
			log.Warn().Err(fr.err).Str("page_id", fr.id).Msg("Skipping page")
			result.add(FileResult{PageID: fr.id, Outcome: OutcomeFailed, Err: fr.err})
			continue
		}

		page := fr.page
		rel := e.localPathFor(page, taken)
		doc := &document.Document{
			Path: rel,
			Meta: document.Meta{
				PageID:   page.ID,
				Title:    page.Title,
				Version:  page.Version,
				ParentID: page.ParentID,
				SpaceKey: page.SpaceKey,
			},
			// Parsing a written file trims the body, so the recorded
			// hash must be computed over the trimmed form or a fresh
			// pull would read back as locally modified.
			Body: strings.TrimSpace(page.Content),
		}

		if err := document.Write(e.root, doc); err != nil {
			log.Warn().Err(err).Str("page_id", page.ID).Str("path", rel).Msg("Skipping page")
			result.add(FileResult{Path: rel, PageID: page.ID, Outcome: OutcomeFailed, Err: err})
			continue
		}

		if err := e.record(doc); err != nil {
			// A store that cannot be saved invalidates every later
			// result; stop rather than continue inconsistently.
			return result, err
		}

		result.add(FileResult{Path: rel, PageID: page.ID, Outcome: OutcomeSucceeded, Version: page.Version})
		log.Debug().Str("page_id", page.ID).Str("path", rel).Int("version", page.Version).Msg("Pulled page")
	}

	log.Info().Str("summary", result.Summary()).Msg("Pull finished")
	return result, nil
}

// pullTargets resolves which page ids this pull covers.
func (e *engine) pullTargets(ctx context.Context, options *pullOptions) ([]string, error) {
	if len(options.pageIDs) > 0 {
		return options.pageIDs, nil
	}

	summaries, err := e.service.List(ctx, e.spaceKey)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(summaries))
	for i, s := range summaries {
		ids[i] = s.ID
	}
	return ids, nil
}

// fetchResult pairs a page id with its fetch outcome.
type fetchResult struct {
	id   string
	page *pages.Page
	err  error
}

// fetchAll fetches pages with bounded parallelism, preserving input order.
func (e *engine) fetchAll(ctx context.Context, ids []string) []fetchResult {
	results := make([]fetchResult, len(ids))

	sem := make(chan struct{}, e.concurrency)
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			page, err := e.service.Fetch(ctx, id)
			results[i] = fetchResult{id: id, page: page, err: err}
		}(i, id)
	}
	wg.Wait()

	return results
}

// takenPaths returns the local paths already assigned to tracked pages.
func (e *engine) takenPaths() map[string]string {
	taken := make(map[string]string)
	for _, entry := range e.store.List() {
		taken[entry.LocalPath] = entry.PageID
	}
	return taken
}

// localPathFor picks the local file for a page. The pairing is stable once
// established: a tracked page keeps its path even if the title changed.
// New pages get a filename derived from the sanitized title, with the page
// id appended when another page already claimed that name.
func (e *engine) localPathFor(page *pages.Page, taken map[string]string) string {
	if entry, ok := e.store.Get(page.ID); ok {
		return entry.LocalPath
	}

	rel := document.UniqueFilename(page.Title, page.ID, func(name string) bool {
		owner, ok := taken[name]
		return ok && owner != page.ID
	})
	taken[rel] = page.ID
	return rel
}

// record upserts the store entry for a freshly synced document and saves
// incrementally, so an interrupted batch loses at most one page of work.
// An entry identical to what is stored is not rewritten; repeated pulls of
// an unchanged space leave the store file untouched.
func (e *engine) record(doc *document.Document) error {
	next := store.Entry{
		PageID:     doc.Meta.PageID,
		LocalPath:  doc.Path,
		Title:      doc.Meta.Title,
		Version:    doc.Meta.Version,
		SyncedHash: doc.BodyHash(),
		SyncedAt:   time.Now().UTC(),
	}

	if current, ok := e.store.Get(doc.Meta.PageID); ok {
		if current.LocalPath == next.LocalPath &&
			current.Title == next.Title &&
			current.Version == next.Version &&
			current.SyncedHash == next.SyncedHash {
			return nil
		}
	}

	e.store.Put(next)
	return e.store.Save()
}
