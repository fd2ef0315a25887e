//nolint:goconst // test cases intentionally repeat strings for readability
package errmsg

import (
	"errors"
	"testing"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		op       Op
		err      error
		expected string
	}{
		{
			name:     "nil error returns empty string",
			op:       OpSearchResolve,
			err:      nil,
			expected: "",
		},
		{
			name:     "formats error with operation",
			op:       OpSearchResolve,
			err:      errors.New("catalog unavailable"),
			expected: "Failed to resolve search query: catalog unavailable",
		},
		{
			name:     "cache operation",
			op:       OpCacheLookup,
			err:      errors.New("database is locked"),
			expected: "Failed to look up cached songs: database is locked",
		},
		{
			name:     "downloads operation",
			op:       OpDownloadsScan,
			err:      errors.New("permission denied"),
			expected: "Failed to scan download folders: permission denied",
		},
		{
			name:     "playback operation",
			op:       OpPlaybackStart,
			err:      errors.New("mpv not found"),
			expected: "Failed to start playback: mpv not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Format(tt.op, tt.err)
			if result != tt.expected {
				t.Errorf("Format(%q, %v) = %q, want %q", tt.op, tt.err, result, tt.expected)
			}
		})
	}
}

func TestFormatWith(t *testing.T) {
	tests := []struct {
		name     string
		op       Op
		context  string
		err      error
		expected string
	}{
		{
			name:     "nil error returns empty string",
			op:       OpCatalogLookup,
			context:  "shape of you",
			err:      nil,
			expected: "",
		},
		{
			name:     "formats error with context",
			op:       OpCatalogLookup,
			context:  "shape of you",
			err:      errors.New("timeout"),
			expected: "Failed to search the catalog 'shape of you': timeout",
		},
		{
			name:     "empty context falls back to Format",
			op:       OpCatalogLookup,
			context:  "",
			err:      errors.New("timeout"),
			expected: "Failed to search the catalog: timeout",
		},
		{
			name:     "scan with path context",
			op:       OpDownloadsScan,
			context:  "/home/user/music",
			err:      errors.New("directory not found"),
			expected: "Failed to scan download folders '/home/user/music': directory not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FormatWith(tt.op, tt.context, tt.err)
			if result != tt.expected {
				t.Errorf("FormatWith(%q, %q, %v) = %q, want %q", tt.op, tt.context, tt.err, result, tt.expected)
			}
		})
	}
}

func TestOpConstants(t *testing.T) {
	ops := []Op{
		OpSearchResolve, OpSearchBatch,
		OpCacheLookup, OpCacheSave,
		OpHistoryLoad, OpHistoryRecord,
		OpDownloadsScan, OpDownloadsLoad,
		OpCatalogLookup,
		OpPlaybackStart,
		OpInitialize, OpConfigLoad,
	}

	testErr := errors.New("test error")

	for _, op := range ops {
		t.Run(string(op), func(t *testing.T) {
			if op == "" {
				t.Error("Op constant should not be empty")
			}

			expected := "Failed to " + string(op) + ": test error"
			if result := Format(op, testErr); result != expected {
				t.Errorf("Format = %q, want %q", result, expected)
			}
		})
	}
}
