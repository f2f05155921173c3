// Package convert translates between markdown and the content service's
// storage HTML. The translation is inherently lossy in both directions:
// service-specific macros are stripped on the way in, and formatting that
// markdown cannot express is flattened. Round-trip fidelity is a known
// limitation, not a guarantee.
package convert

import (
	"bytes"
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/shouhanzen/confluence-sync/pkg/errors"
)

// engine renders markdown to HTML. goldmark instances are safe for
// concurrent use, so a single package-level engine suffices.
var engine = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Linkify,
	),
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(),
	),
	goldmark.WithRendererOptions(
		html.WithUnsafe(),
	),
)

// Service-specific structured macros and resource references do not
// survive translation to markdown; they are removed before conversion.
var (
	macroPattern    = regexp.MustCompile(`(?s)<ac:[^>]*>.*?</ac:[^>]*>`)
	resourcePattern = regexp.MustCompile(`<ri:[^>]*/>`)
)

// ToStorage renders a markdown body into storage HTML for submission to
// the content service.
func ToStorage(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := engine.Convert([]byte(markdown), &buf); err != nil {
		return "", errors.WrapConversion("markdown-to-storage", "", err)
	}
	return buf.String(), nil
}

// ToMarkdown converts storage HTML into a markdown body, stripping macro
// elements that have no markdown representation.
func ToMarkdown(storage string) (string, error) {
	cleaned := stripMacros(storage)

	markdown, err := htmltomarkdown.ConvertString(cleaned)
	if err != nil {
		return "", errors.WrapConversion("storage-to-markdown", "", err)
	}
	return strings.TrimSpace(markdown), nil
}

// stripMacros removes service macro markup from storage HTML.
func stripMacros(storage string) string {
	storage = macroPattern.ReplaceAllString(storage, "")
	return resourcePattern.ReplaceAllString(storage, "")
}
