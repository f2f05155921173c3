// Package pages defines the domain model for remote wiki pages and the
// adapter contract the sync engine requires from a content service.
// Adapters validate responses at this boundary so the engine never
// depends on loosely typed payloads.
package pages

import (
	"context"

	"github.com/shouhanzen/confluence-sync/pkg/errors"
)

// Page is the canonical identity and content of a remote page.
// Content is markdown at this boundary; the adapter owns the translation
// to and from the service's storage representation.
type Page struct {
	ID       string
	Title    string
	Version  int
	ParentID string // empty when the page has no parent
	SpaceKey string
	Content  string
}

// Summary is a lightweight page listing entry, enough for Pull to
// enumerate a space and for Status to compare versions without fetching
// page bodies.
type Summary struct {
	ID       string
	Title    string
	Version  int
	ParentID string
}

// Validate checks the structural contract an adapter must satisfy before
// handing a page to the engine.
func (p *Page) Validate() error {
	if p.ID == "" {
		return errors.NewValidationError("id", p.ID, "page id cannot be empty")
	}
	if p.Title == "" {
		return errors.NewValidationError("title", p.Title, "page title cannot be empty")
	}
	if p.Version < 1 {
		return errors.NewValidationError("version", p.Version, "version must be at least 1")
	}
	if p.SpaceKey == "" {
		return errors.NewValidationError("space_key", p.SpaceKey, "space key cannot be empty")
	}
	return nil
}

// Validate checks the structural contract for a listing entry.
func (s *Summary) Validate() error {
	if s.ID == "" {
		return errors.NewValidationError("id", s.ID, "page id cannot be empty")
	}
	if s.Version < 1 {
		return errors.NewValidationError("version", s.Version, "version must be at least 1")
	}
	return nil
}

// Service is the page adapter contract. Implementations translate between
// the remote service's wire format and the Page model, map failures onto
// the pkg/errors taxonomy, and bound every request with a timeout.
type Service interface {
	// Fetch retrieves a page with its content converted to markdown.
	// Fails with a not-found error if the id no longer exists.
	Fetch(ctx context.Context, id string) (*Page, error)

	// FetchVersion retrieves only the current version number of a page.
	// This is the lightweight check used by Status and Push.
	FetchVersion(ctx context.Context, id string) (int, error)

	// List enumerates all pages in a space.
	List(ctx context.Context, spaceKey string) ([]Summary, error)

	// Create submits a new page and returns its assigned identity and
	// initial version.
	Create(ctx context.Context, spaceKey, title, parentID, content string) (*Page, error)

	// Update submits new content for a page. expectedVersion is the version
	// the caller last synced; the service refuses the write with a conflict
	// error if the remote version has advanced past it. On success the
	// returned page carries the new remote version.
	Update(ctx context.Context, id, title, content string, expectedVersion int) (*Page, error)
}
