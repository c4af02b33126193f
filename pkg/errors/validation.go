package errors

import (
	"strings"
	"unicode"
)

// ValidatePagePath validates a page path from event data.
// It rejects paths that could be used for traversal or injection when a
// path later becomes part of a file name or query.
//
// The validation rules are intentionally conservative:
//   - No empty paths
//   - Must start with "/"
//   - No control characters or null bytes
//   - No path traversal sequences (..)
//   - No backslashes
//   - Maximum length of 500 characters
func ValidatePagePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "page path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "page path too long (max %d characters)", maxPathLength)
	}

	if !strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "page path must start with /")
	}

	// Check for null bytes and control characters
	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "page path contains invalid characters")
		}
	}

	// Check for path traversal
	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "page path cannot contain path traversal sequences (..)")
	}

	// No backslashes (potential Windows path injection)
	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "page path cannot contain backslashes")
	}

	return nil
}

// ValidateSessionID validates a session identifier from event data.
// Session IDs end up in cache keys and log lines, so the same conservative
// character rules apply.
func ValidateSessionID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "session id cannot be empty")
	}

	const maxIDLength = 256
	if len(id) > maxIDLength {
		return New(ErrCodeInvalidInput, "session id too long (max %d characters)", maxIDLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidInput, "session id contains invalid characters")
		}
	}

	return nil
}

// ValidateThreshold validates a minimum-sessions pruning threshold.
func ValidateThreshold(n int) error {
	if n < 1 {
		return New(ErrCodeInvalidThreshold, "threshold must be at least 1, got %d", n)
	}
	return nil
}

// ValidateCanvas validates canvas dimensions.
func ValidateCanvas(width, height float64) error {
	if width <= 0 || height <= 0 {
		return New(ErrCodeInvalidCanvas, "canvas dimensions must be positive, got %gx%g", width, height)
	}
	return nil
}
