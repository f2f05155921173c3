package confluencesync

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouhanzen/confluence-sync/internal/document"
	pkgerrors "github.com/shouhanzen/confluence-sync/pkg/errors"
)

// pullOne pulls a single page and returns its local document.
func pullOne(t *testing.T, syncer Syncer, root, id string) *document.Document {
	t.Helper()
	result, err := syncer.Pull(context.Background(), WithPages(id))
	require.NoError(t, err)
	require.Len(t, result.Files, 1)
	require.Equal(t, OutcomeSucceeded, result.Files[0].Outcome)

	doc, err := document.Load(root, result.Files[0].Path)
	require.NoError(t, err)
	return doc
}

func TestPushAdoptsServiceVersion(t *testing.T) {
	svc := newFakeService()
	svc.addPage("42", "Intro", 3, "original")
	// The version after an update is whatever the service says it is,
	// not a local increment.
	svc.bump = func(current int) int { return current + 5 }
	syncer, st, root := newTestEngine(t, svc)

	doc := pullOne(t, syncer, root, "42")
	doc.Body = "edited locally"
	require.NoError(t, document.Write(root, doc))

	result, err := syncer.Push(context.Background(), "Intro.md")
	require.NoError(t, err)
	require.Len(t, result.Files, 1)
	assert.Equal(t, OutcomeSucceeded, result.Files[0].Outcome)
	assert.Equal(t, 8, result.Files[0].Version)

	doc, err = document.Load(root, "Intro.md")
	require.NoError(t, err)
	assert.Equal(t, 8, doc.Meta.Version)
	assert.Equal(t, "edited locally", doc.Body)

	entry, ok := st.Get("42")
	require.True(t, ok)
	assert.Equal(t, 8, entry.Version)
	assert.Equal(t, doc.BodyHash(), entry.SyncedHash)
	assert.Equal(t, "edited locally", svc.page("42").Content)
}

func TestPushRefusesStaleVersion(t *testing.T) {
	svc := newFakeService()
	svc.addPage("42", "Intro", 3, "original")
	syncer, st, root := newTestEngine(t, svc)

	doc := pullOne(t, syncer, root, "42")
	doc.Body = "local edit"
	require.NoError(t, document.Write(root, doc))
	fileBefore, err := os.ReadFile(filepath.Join(root, "Intro.md"))
	require.NoError(t, err)

	// Someone else edited the page after our pull.
	svc.setVersion("42", 4)

	result, err := syncer.Push(context.Background(), "Intro.md")
	require.NoError(t, err)
	require.Len(t, result.Files, 1)
	assert.Equal(t, OutcomeConflicted, result.Files[0].Outcome)
	assert.True(t, pkgerrors.IsConflict(result.Files[0].Err))
	assert.True(t, result.HasProblems())
	assert.Equal(t, 0, svc.updateCalls)

	// The refused file and its store entry are untouched.
	fileAfter, err := os.ReadFile(filepath.Join(root, "Intro.md"))
	require.NoError(t, err)
	assert.Equal(t, fileBefore, fileAfter)
	entry, ok := st.Get("42")
	require.True(t, ok)
	assert.Equal(t, 3, entry.Version)
}

func TestPushSkipsUnchangedFile(t *testing.T) {
	svc := newFakeService()
	svc.addPage("42", "Intro", 3, "original")
	syncer, _, root := newTestEngine(t, svc)

	pullOne(t, syncer, root, "42")

	result, err := syncer.Push(context.Background(), "Intro.md")
	require.NoError(t, err)
	require.Len(t, result.Files, 1)
	assert.Equal(t, OutcomeUnchanged, result.Files[0].Outcome)
	assert.Equal(t, 0, svc.updateCalls)
	assert.Equal(t, 3, svc.page("42").Version)
}

func TestPushCreatesUntrackedFile(t *testing.T) {
	svc := newFakeService()
	syncer, st, root := newTestEngine(t, svc)

	path := filepath.Join(root, "new-page.md")
	require.NoError(t, os.WriteFile(path, []byte("# Brand New\n\nFresh content.\n"), 0o644))

	result, err := syncer.Push(context.Background(), "new-page.md")
	require.NoError(t, err)
	require.Len(t, result.Files, 1)
	assert.Equal(t, OutcomeCreated, result.Files[0].Outcome)
	assert.Equal(t, 1, svc.createCalls)

	// The assigned identity is written back into the file header.
	doc, err := document.Load(root, "new-page.md")
	require.NoError(t, err)
	assert.True(t, doc.Tracked())
	assert.Equal(t, 1, doc.Meta.Version)
	assert.Equal(t, "DOCS", doc.Meta.SpaceKey)
	assert.Equal(t, "new-page", doc.Meta.Title)

	entry, ok := st.Get(doc.Meta.PageID)
	require.True(t, ok)
	assert.Equal(t, "new-page.md", entry.LocalPath)
	assert.Equal(t, 1, entry.Version)

	remote := svc.page(doc.Meta.PageID)
	assert.Equal(t, "# Brand New\n\nFresh content.", remote.Content)
}

func TestPushBatchIsolation(t *testing.T) {
	svc := newFakeService()
	svc.addPage("1", "Alpha", 2, "alpha")
	svc.addPage("2", "Beta", 1, "beta")
	svc.addPage("3", "Gamma", 1, "gamma")
	syncer, _, root := newTestEngine(t, svc)

	_, err := syncer.Pull(context.Background())
	require.NoError(t, err)

	for _, name := range []string{"Alpha.md", "Beta.md", "Gamma.md"} {
		doc, err := document.Load(root, name)
		require.NoError(t, err)
		doc.Body = doc.Body + " changed"
		require.NoError(t, document.Write(root, doc))
	}

	// Alpha conflicts, Gamma is gone remotely, Beta is pushable.
	svc.setVersion("1", 3)
	svc.removePage("3")

	result, err := syncer.Push(context.Background(), "Alpha.md", "Beta.md", "Gamma.md")
	require.NoError(t, err)
	require.Len(t, result.Files, 3)
	assert.Equal(t, OutcomeConflicted, result.Files[0].Outcome)
	assert.Equal(t, OutcomeSucceeded, result.Files[1].Outcome)
	assert.Equal(t, OutcomeFailed, result.Files[2].Outcome)
	assert.True(t, pkgerrors.IsNotFound(result.Files[2].Err))

	assert.Equal(t, "beta changed", svc.page("2").Content)
	assert.Equal(t, 2, svc.page("2").Version)
}

func TestPushDefaultsToTrackedFiles(t *testing.T) {
	svc := newFakeService()
	svc.addPage("1", "Alpha", 1, "alpha")
	svc.addPage("2", "Beta", 1, "beta")
	syncer, _, root := newTestEngine(t, svc)

	_, err := syncer.Pull(context.Background())
	require.NoError(t, err)

	doc, err := document.Load(root, "Beta.md")
	require.NoError(t, err)
	doc.Body = "beta v2"
	require.NoError(t, document.Write(root, doc))

	result, err := syncer.Push(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Files, 2)
	assert.Equal(t, 1, result.Count(OutcomeSucceeded))
	assert.Equal(t, 1, result.Count(OutcomeUnchanged))
	assert.Equal(t, 1, svc.updateCalls)
}

func TestPushMissingFile(t *testing.T) {
	svc := newFakeService()
	syncer, _, _ := newTestEngine(t, svc)

	result, err := syncer.Push(context.Background(), "nope.md")
	require.NoError(t, err)
	require.Len(t, result.Files, 1)
	assert.Equal(t, OutcomeFailed, result.Files[0].Outcome)
	assert.Error(t, result.Files[0].Err)
}

func TestPushAuthFailureAborts(t *testing.T) {
	svc := newFakeService()
	svc.addPage("42", "Intro", 3, "original")
	syncer, _, root := newTestEngine(t, svc)

	doc := pullOne(t, syncer, root, "42")
	doc.Body = "edited"
	require.NoError(t, document.Write(root, doc))

	svc.authErr = &pkgerrors.AuthError{Message: "token expired"}
	_, err := syncer.Push(context.Background(), "Intro.md")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsAuth(err))
}

// The full round trip: pull a page, edit it, push, then push again.
func TestPushRoundTrip(t *testing.T) {
	svc := newFakeService()
	svc.addPage("42", "Intro", 3, "# Introduction\n\nWelcome.")
	syncer, _, root := newTestEngine(t, svc)

	doc := pullOne(t, syncer, root, "42")
	require.Equal(t, 3, doc.Meta.Version)

	doc.Body = "# Introduction\n\nWelcome, updated."
	require.NoError(t, document.Write(root, doc))

	result, err := syncer.Push(context.Background(), "Intro.md")
	require.NoError(t, err)
	assert.Equal(t, OutcomeSucceeded, result.Files[0].Outcome)
	assert.Equal(t, 4, svc.page("42").Version)

	doc, err = document.Load(root, "Intro.md")
	require.NoError(t, err)
	assert.Equal(t, 4, doc.Meta.Version)

	// Nothing changed since; a second push is a no-op.
	result, err = syncer.Push(context.Background(), "Intro.md")
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnchanged, result.Files[0].Outcome)
	assert.Equal(t, 1, svc.updateCalls)
}
