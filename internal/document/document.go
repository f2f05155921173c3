// Package document is the local file adapter. It reads and writes markdown
// files with the embedded metadata block that records a page's last-synced
// remote identity, and computes the file-level signals the sync engine
// needs (existence, body hash, derived filenames).
package document

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/frontmatter"
	"github.com/goccy/go-yaml"

	"github.com/shouhanzen/confluence-sync/pkg/constants"
	"github.com/shouhanzen/confluence-sync/pkg/errors"
)

// Meta is the metadata block embedded at the head of a local file.
// It mirrors the page identity exactly as last written by a pull or a
// successful push; this is the engine's only record of last-known remote
// state on the local side.
type Meta struct {
	PageID   string `yaml:"confluence_id"`
	Title    string `yaml:"confluence_title"`
	Version  int    `yaml:"confluence_version"`
	ParentID string `yaml:"confluence_parent_id,omitempty"`
	SpaceKey string `yaml:"confluence_space_key"`
}

// Document is a parsed local file: the metadata block plus the markdown body.
type Document struct {
	Path string // relative to the configured root
	Meta Meta
	Body string
}

// Tracked reports whether the document carries a page identity, i.e. it has
// been pulled or pushed at least once.
func (d *Document) Tracked() bool {
	return d.Meta.PageID != ""
}

// BodyHash returns the content signal used to detect local edits since the
// last sync.
func (d *Document) BodyHash() string {
	return Hash(d.Body)
}

// Hash returns the hex-encoded SHA-256 of a markdown body.
func Hash(body string) string {
	sum := sha256.Sum256([]byte(body))
	return hex.EncodeToString(sum[:])
}

// Parse extracts the metadata block and markdown body from raw file content.
// Files without a metadata block parse as untracked documents whose title
// falls back to the file name stem.
func Parse(source []byte, path string) (*Document, error) {
	var meta Meta
	body, err := frontmatter.Parse(bytes.NewReader(source), &meta)
	if err != nil {
		return nil, errors.WrapParse("frontmatter", path, err)
	}

	doc := &Document{
		Path: path,
		Meta: meta,
		Body: strings.TrimSpace(string(body)),
	}
	if doc.Meta.Title == "" {
		doc.Meta.Title = Stem(path)
	}
	return doc, nil
}

// Render assembles file content: the metadata block between "---" fences,
// a blank line, then the markdown body.
func (d *Document) Render() ([]byte, error) {
	header, err := yaml.Marshal(&d.Meta)
	if err != nil {
		return nil, errors.WrapParse("yaml", d.Path, err)
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(header)
	buf.WriteString("---\n\n")
	buf.WriteString(d.Body)
	if !strings.HasSuffix(d.Body, "\n") {
		buf.WriteString("\n")
	}
	return buf.Bytes(), nil
}

// Load reads and parses the file at rel under root.
func Load(root, rel string) (*Document, error) {
	full := filepath.Join(root, rel)
	source, err := os.ReadFile(full)
	if err != nil {
		return nil, errors.WrapIO("read", rel, err)
	}
	return Parse(source, rel)
}

// Write renders the document and writes it to rel under root, creating
// parent directories as needed.
func Write(root string, doc *Document) error {
	content, err := doc.Render()
	if err != nil {
		return err
	}

	full := filepath.Join(root, doc.Path)
	if err := os.MkdirAll(filepath.Dir(full), constants.DirPermissions); err != nil {
		return errors.WrapIO("create", filepath.Dir(doc.Path), err)
	}
	if err := os.WriteFile(full, content, constants.FilePermissions); err != nil {
		return errors.WrapIO("write", doc.Path, err)
	}
	return nil
}

// Exists reports whether rel exists under root as a regular file.
func Exists(root, rel string) bool {
	info, err := os.Stat(filepath.Join(root, rel))
	return err == nil && info.Mode().IsRegular()
}

// Stem returns the file name without directory or extension, used as the
// title fallback for files that were never pulled.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// UniqueFilename derives a deterministic markdown filename from a page
// title, appending the page id when the plain name is already taken by a
// different page.
func UniqueFilename(title, pageID string, taken func(string) bool) string {
	name := Slug(title) + constants.MarkdownExtension
	if !taken(name) {
		return name
	}
	return fmt.Sprintf("%s-%s%s", Slug(title), pageID, constants.MarkdownExtension)
}
