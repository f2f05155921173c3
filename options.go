package confluencesync

import (
	"github.com/shouhanzen/confluence-sync/internal/store"
	"github.com/shouhanzen/confluence-sync/pkg/pages"
)

// Option configures the sync engine at construction.
type Option func(*engine)

// WithService sets the page adapter the engine syncs against.
func WithService(service pages.Service) Option {
	return func(e *engine) {
		e.service = service
	}
}

// WithStore sets the metadata store.
func WithStore(st *store.Store) Option {
	return func(e *engine) {
		e.store = st
	}
}

// WithRoot sets the local directory mirrored against the remote space.
func WithRoot(dir string) Option {
	return func(e *engine) {
		e.root = dir
	}
}

// WithSpace sets the remote space key.
func WithSpace(key string) Option {
	return func(e *engine) {
		e.spaceKey = key
	}
}

// WithParent sets the default parent page for pages created by push.
func WithParent(pageID string) Option {
	return func(e *engine) {
		e.parentID = pageID
	}
}

// WithIgnorePatterns sets glob patterns excluded from local file scans.
func WithIgnorePatterns(patterns ...string) Option {
	return func(e *engine) {
		e.ignore = patterns
	}
}

// WithConcurrency bounds parallel remote fetches during pull. Values
// below one are clamped to sequential fetching.
func WithConcurrency(n int) Option {
	return func(e *engine) {
		e.concurrency = n
	}
}

// PullOption configures a single pull operation.
type PullOption func(*pullOptions)

type pullOptions struct {
	pageIDs []string
}

func newPullOptions(opts ...PullOption) *pullOptions {
	options := &pullOptions{}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// WithPages restricts a pull to the given page ids instead of the whole
// space.
func WithPages(ids ...string) PullOption {
	return func(o *pullOptions) {
		o.pageIDs = append(o.pageIDs, ids...)
	}
}
