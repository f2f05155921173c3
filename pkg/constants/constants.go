// Package constants provides shared constants used throughout the
// confluence-sync codebase. This includes timeouts, retry policy values,
// file permissions, and pagination limits that should be consistent
// across the application.
package constants

import "time"

// Timeout constants define various timeout durations used in the application
const (
	// DefaultHTTPTimeout is the standard timeout for a single HTTP request
	// to the content service
	DefaultHTTPTimeout = 30 * time.Second

	// CommandTimeout is the default timeout for a whole CLI invocation
	CommandTimeout = 10 * time.Minute

	// RetryBackoff is the base backoff duration for retries
	RetryBackoff = 1 * time.Second

	// MaxRetryBackoff is the maximum backoff duration for retries
	MaxRetryBackoff = 30 * time.Second
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Limit constants define various limits and capacities
const (
	// MaxRetries is the maximum number of retry attempts for rate-limited
	// or transient request failures
	MaxRetries = 3

	// MaxConcurrentRequests bounds parallel remote fetches during Pull
	MaxConcurrentRequests = 5

	// DefaultPageSize is the number of pages requested per listing call
	DefaultPageSize = 100
)

// File layout constants
const (
	// MetadataDir is the directory holding sync state, relative to the
	// configured local root
	MetadataDir = ".confluence-sync"

	// MetadataFile is the metadata store file name inside MetadataDir
	MetadataFile = "metadata.yaml"

	// MarkdownExtension is the extension given to pulled page files
	MarkdownExtension = ".md"
)
