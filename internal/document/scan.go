package document

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/shouhanzen/confluence-sync/pkg/constants"
	"github.com/shouhanzen/confluence-sync/pkg/errors"
)

// Scan walks root and returns the relative paths of all markdown files,
// sorted, excluding the metadata directory and anything matching an
// ignore pattern. Patterns match against both the relative path and the
// base name, so "*.tmp" and "drafts/*" both work.
func Scan(root string, ignore []string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}

		if d.IsDir() {
			if rel == constants.MetadataDir || strings.HasPrefix(filepath.Base(rel), ".") && rel != "." {
				return filepath.SkipDir
			}
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".md" && ext != ".markdown" {
			return nil
		}
		if ignored(rel, ignore) {
			return nil
		}

		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, errors.WrapIO("scan", root, err)
	}

	sort.Strings(files)
	return files, nil
}

// ignored reports whether rel matches any of the configured ignore patterns.
func ignored(rel string, patterns []string) bool {
	rel = filepath.ToSlash(rel)
	base := filepath.Base(rel)
	for _, pattern := range patterns {
		if ok, _ := filepath.Match(pattern, rel); ok {
			return true
		}
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
	}
	return false
}
