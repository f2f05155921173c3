package confluencesync

import (
	"context"

	"github.com/shouhanzen/confluence-sync/internal/document"
	"github.com/shouhanzen/confluence-sync/pkg/errors"
	"github.com/shouhanzen/confluence-sync/pkg/logging"
)

// Push submits local changes for the given files, or for every tracked
// file when none are given. Files are attempted independently: one file's
// conflict or failure never blocks the rest. Only an authentication
// failure or a store write failure aborts the batch; the partial result
// accumulated so far is returned alongside the error.
func (e *engine) Push(ctx context.Context, paths ...string) (*Result, error) {
	ctx = logging.WithOperation(logging.WithSpace(ctx, e.spaceKey), "push")
	log := logging.Ctx(ctx)
	result := &Result{Operation: "push"}

	targets := paths
	if len(targets) == 0 {
		for _, entry := range e.store.List() {
			if document.Exists(e.root, entry.LocalPath) {
				targets = append(targets, entry.LocalPath)
			}
		}
	}

	log.Info().Int("files", len(targets)).Msg("Pushing files")

	for _, rel := range targets {
		if err := e.pushOne(ctx, rel, result); err != nil {
			return result, err
		}
	}

	log.Info().Str("summary", result.Summary()).Msg("Push finished")
	return result, nil
}

// pushOne pushes a single file and records its outcome. A returned error
// is batch-fatal; everything else becomes a per-file outcome.
func (e *engine) pushOne(ctx context.Context, rel string, result *Result) error {
	doc, err := document.Load(e.root, rel)
	if err != nil {
		result.add(FileResult{Path: rel, Outcome: OutcomeFailed, Err: err})
		return nil
	}

	if !doc.Tracked() {
		return e.createOne(ctx, doc, result)
	}

	pageID := doc.Meta.PageID
	ctx = logging.WithPage(ctx, pageID)
	log := logging.Ctx(ctx)

	remoteVersion, err := e.service.FetchVersion(ctx, pageID)
	if err != nil {
		if errors.IsAuth(err) {
			return err
		}
		result.add(FileResult{Path: rel, PageID: pageID, Outcome: OutcomeFailed, Err: err})
		return nil
	}

	// The conflict rule: a remote version different from the snapshot's
	// means the remote advanced independently. The push is refused and
	// the local file left untouched.
	if remoteVersion != doc.Meta.Version {
		conflict := errors.NewConflictError(pageID, doc.Meta.Version, remoteVersion)
		log.Warn().Str("path", rel).
			Int("local_version", doc.Meta.Version).
			Int("remote_version", remoteVersion).
			Msg("Push refused: remote changed since last sync")
		result.add(FileResult{Path: rel, PageID: pageID, Outcome: OutcomeConflicted, Version: remoteVersion, Err: conflict})
		return nil
	}

	// Versions match and the body is what we last synced: already in
	// sync, no update call.
	if entry, ok := e.store.Get(pageID); ok &&
		entry.Version == doc.Meta.Version &&
		entry.SyncedHash == doc.BodyHash() {
		result.add(FileResult{Path: rel, PageID: pageID, Outcome: OutcomeUnchanged, Version: doc.Meta.Version})
		return nil
	}

	page, err := e.service.Update(ctx, pageID, doc.Meta.Title, doc.Body, doc.Meta.Version)
	if err != nil {
		switch {
		case errors.IsAuth(err):
			return err
		case errors.IsConflict(err):
			// The remote advanced between our version check and the
			// update. Same outcome as the pre-check.
			result.add(FileResult{Path: rel, PageID: pageID, Outcome: OutcomeConflicted, Err: err})
		default:
			result.add(FileResult{Path: rel, PageID: pageID, Outcome: OutcomeFailed, Err: err})
		}
		return nil
	}

	// Adopt exactly the version the service returned.
	doc.Meta.Version = page.Version
	if err := document.Write(e.root, doc); err != nil {
		// The remote write happened; record it in the store so status
		// stays truthful, but surface the header write failure.
		if recordErr := e.record(doc); recordErr != nil {
			return recordErr
		}
		result.add(FileResult{Path: rel, PageID: pageID, Outcome: OutcomeFailed, Version: page.Version, Err: err})
		return nil
	}
	if err := e.record(doc); err != nil {
		return err
	}

	log.Debug().Str("path", rel).Int("version", page.Version).Msg("Pushed page")
	result.add(FileResult{Path: rel, PageID: pageID, Outcome: OutcomeSucceeded, Version: page.Version})
	return nil
}

// createOne pushes a never-synced local file as a new remote page and
// back-fills the assigned identity into the file header and the store.
func (e *engine) createOne(ctx context.Context, doc *document.Document, result *Result) error {
	log := logging.Ctx(ctx)

	spaceKey := doc.Meta.SpaceKey
	if spaceKey == "" {
		spaceKey = e.spaceKey
	}
	parentID := doc.Meta.ParentID
	if parentID == "" {
		parentID = e.parentID
	}

	page, err := e.service.Create(ctx, spaceKey, doc.Meta.Title, parentID, doc.Body)
	if err != nil {
		if errors.IsAuth(err) {
			return err
		}
		result.add(FileResult{Path: doc.Path, Outcome: OutcomeFailed, Err: err})
		return nil
	}

	doc.Meta = document.Meta{
		PageID:   page.ID,
		Title:    page.Title,
		Version:  page.Version,
		ParentID: parentID,
		SpaceKey: spaceKey,
	}
	if err := document.Write(e.root, doc); err != nil {
		if recordErr := e.record(doc); recordErr != nil {
			return recordErr
		}
		result.add(FileResult{Path: doc.Path, PageID: page.ID, Outcome: OutcomeFailed, Version: page.Version, Err: err})
		return nil
	}
	if err := e.record(doc); err != nil {
		return err
	}

	log.Info().Str("path", doc.Path).Str("page_id", page.ID).Msg("Created remote page")
	result.add(FileResult{Path: doc.Path, PageID: page.ID, Outcome: OutcomeCreated, Version: page.Version})
	return nil
}
