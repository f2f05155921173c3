package document

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `---
confluence_id: "42"
confluence_title: Intro
confluence_version: 3
confluence_space_key: DOCS
---

# Intro

Welcome to the docs.
`

func TestParse(t *testing.T) {
	doc, err := Parse([]byte(sample), "Intro.md")
	require.NoError(t, err)

	assert.Equal(t, "42", doc.Meta.PageID)
	assert.Equal(t, "Intro", doc.Meta.Title)
	assert.Equal(t, 3, doc.Meta.Version)
	assert.Equal(t, "DOCS", doc.Meta.SpaceKey)
	assert.Empty(t, doc.Meta.ParentID)
	assert.Equal(t, "# Intro\n\nWelcome to the docs.", doc.Body)
	assert.True(t, doc.Tracked())
}

func TestParseWithoutHeader(t *testing.T) {
	doc, err := Parse([]byte("# Just markdown\n"), "notes/New Page.md")
	require.NoError(t, err)

	assert.False(t, doc.Tracked())
	assert.Empty(t, doc.Meta.PageID)
	assert.Zero(t, doc.Meta.Version)
	// Title falls back to the file name stem.
	assert.Equal(t, "New Page", doc.Meta.Title)
	assert.Equal(t, "# Just markdown", doc.Body)
}

func TestRenderParseRoundTrip(t *testing.T) {
	doc := &Document{
		Path: "Intro.md",
		Meta: Meta{
			PageID:   "42",
			Title:    "Intro",
			Version:  3,
			ParentID: "7",
			SpaceKey: "DOCS",
		},
		Body: "# Intro\n\nWelcome.",
	}

	content, err := doc.Render()
	require.NoError(t, err)

	parsed, err := Parse(content, "Intro.md")
	require.NoError(t, err)
	assert.Equal(t, doc.Meta, parsed.Meta)
	assert.Equal(t, doc.Body, parsed.Body)
}

func TestRenderIsDeterministic(t *testing.T) {
	doc := &Document{
		Path: "a.md",
		Meta: Meta{PageID: "1", Title: "A", Version: 1, SpaceKey: "DOCS"},
		Body: "body",
	}

	first, err := doc.Render()
	require.NoError(t, err)
	second, err := doc.Render()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestLoadAndWrite(t *testing.T) {
	root := t.TempDir()
	doc := &Document{
		Path: "guides/Setup.md",
		Meta: Meta{PageID: "9", Title: "Setup", Version: 2, SpaceKey: "DOCS"},
		Body: "Install the thing.",
	}

	require.NoError(t, Write(root, doc))
	assert.True(t, Exists(root, "guides/Setup.md"))

	loaded, err := Load(root, "guides/Setup.md")
	require.NoError(t, err)
	assert.Equal(t, doc.Meta, loaded.Meta)
	assert.Equal(t, doc.Body, loaded.Body)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(t.TempDir(), "nope.md")
	require.Error(t, err)
}

func TestHash(t *testing.T) {
	assert.Equal(t, Hash("same"), Hash("same"))
	assert.NotEqual(t, Hash("same"), Hash("different"))
}

func TestSlug(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Intro", "Intro"},
		{"Getting Started", "Getting Started"},
		{"API/Reference: v2", "API_Reference_ v2"},
		{"Café Menu", "Cafe Menu"},
		{"what?!", "what"},
		{"///", "___"},
		{"   ", "untitled"},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, Slug(tt.title))
		})
	}
}

func TestUniqueFilename(t *testing.T) {
	taken := map[string]bool{"Intro.md": true}
	isTaken := func(name string) bool { return taken[name] }

	assert.Equal(t, "Setup.md", UniqueFilename("Setup", "7", isTaken))
	assert.Equal(t, "Intro-42.md", UniqueFilename("Intro", "42", isTaken))
}

func TestScan(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "Intro.md", "a")
	writeFile(t, root, "guides/Setup.markdown", "b")
	writeFile(t, root, "notes.txt", "c")
	writeFile(t, root, "draft.tmp.md", "d")
	writeFile(t, root, ".confluence-sync/metadata.yaml", "e")

	files, err := Scan(root, []string{"*.tmp.md"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Intro.md", "guides/Setup.markdown"}, files)
}

func TestScanIgnorePatterns(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "keep.md", "a")
	writeFile(t, root, "drafts/wip.md", "b")

	files, err := Scan(root, []string{"drafts/*"})
	require.NoError(t, err)
	assert.Equal(t, []string{"keep.md"}, files)
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}
