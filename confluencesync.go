// Package confluencesync provides a version-aware two-way sync engine
// between a local directory of markdown files and pages in a Confluence
// space.
//
// The engine tracks each page's remote version in an embedded metadata
// block and a persistent metadata store, so local edits can never
// silently clobber concurrent remote edits: a push is refused whenever
// the remote version has advanced past the locally recorded one.
// Conflict resolution is binary (block or allow); the engine never
// attempts content-level merging.
//
// Example usage:
//
//	svc, err := confluence.New(confluence.Config{
//	    BaseURL:  "https://example.atlassian.net/wiki",
//	    Username: "me@example.com",
//	    APIToken: os.Getenv("CONFLUENCE_API_TOKEN"),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	st, err := store.Open(filepath.Join("docs", ".confluence-sync", "metadata.yaml"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	syncer, err := confluencesync.New(
//	    confluencesync.WithService(svc),
//	    confluencesync.WithStore(st),
//	    confluencesync.WithRoot("docs"),
//	    confluencesync.WithSpace("DOCS"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := syncer.Pull(ctx)
package confluencesync

import (
	"context"

	"github.com/shouhanzen/confluence-sync/internal/store"
	"github.com/shouhanzen/confluence-sync/pkg/constants"
	"github.com/shouhanzen/confluence-sync/pkg/errors"
	"github.com/shouhanzen/confluence-sync/pkg/pages"
)

// Compile-time interface check to ensure proper implementation.
var _ Syncer = (*engine)(nil)

// Syncer orchestrates pull, push, and status operations for one configured
// space and local root.
type Syncer interface {
	// Pull retrieves remote pages (the whole space, or a subset given via
	// WithPages), writes them to local markdown files, and records their
	// versions. Remote state is authoritative on pull: local content for
	// pulled pages is overwritten unconditionally.
	Pull(ctx context.Context, opts ...PullOption) (*Result, error)

	// Push submits local changes for the given files, or for all tracked
	// files when none are given. Each file is attempted independently; a
	// conflict or failure on one file never blocks the others.
	Push(ctx context.Context, paths ...string) (*Result, error)

	// Status classifies every tracked page and untracked local file
	// without performing any writes.
	Status(ctx context.Context) (*Report, error)
}

// engine is the internal implementation of the Syncer interface.
type engine struct {
	service     pages.Service
	store       *store.Store
	root        string
	spaceKey    string
	parentID    string
	ignore      []string
	concurrency int
}

// New creates a sync engine. A page service, metadata store, local root,
// and space key are required.
func New(opts ...Option) (Syncer, error) {
	e := &engine{
		concurrency: constants.MaxConcurrentRequests,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.service == nil {
		return nil, errors.NewConfigError("engine", "a page service is required", nil)
	}
	if e.store == nil {
		return nil, errors.NewConfigError("engine", "a metadata store is required", nil)
	}
	if e.root == "" {
		return nil, errors.NewConfigError("engine", "a local root directory is required", nil)
	}
	if e.spaceKey == "" {
		return nil, errors.NewConfigError("engine", "a space key is required", nil)
	}
	if e.concurrency < 1 {
		e.concurrency = 1
	}

	return e, nil
}
