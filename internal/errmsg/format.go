// Package errmsg provides consistent error formatting for user-facing messages.
package errmsg

import "fmt"

// Op represents an operation that can fail.
type Op string

// Operation constants - grouped by domain.
const (
	// Search operations
	OpSearchResolve Op = "resolve search query"
	OpSearchBatch   Op = "resolve song queue"

	// Cache operations
	OpCacheLookup Op = "look up cached songs"
	OpCacheSave   Op = "save resolved songs"

	// History operations
	OpHistoryLoad   Op = "load play history"
	OpHistoryRecord Op = "record play"

	// Downloads operations
	OpDownloadsScan Op = "scan download folders"
	OpDownloadsLoad Op = "load local tracks"

	// Catalog operations
	OpCatalogLookup Op = "search the catalog"

	// Playback operations
	OpPlaybackStart Op = "start playback"

	// Initialization
	OpInitialize Op = "initialize application"
	OpConfigLoad Op = "load configuration"
)

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %v", op, err)
}

// FormatWith creates an error message with additional context.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %v", op, context, err)
}
