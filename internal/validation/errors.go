// Package validation holds local precondition checks. A ValidationError is
// returned before any network call is made.
package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/filedash/filedash/internal/constants"
)

// ValidationError is a local precondition failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IsValidationError reports whether err is or wraps a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ValidateUploadSize enforces the per-file upload limit (inclusive).
func ValidateUploadSize(size int64) error {
	if size < 0 {
		return &ValidationError{Field: "file", Message: "invalid file size"}
	}
	if size > constants.MaxUploadSize {
		return &ValidationError{Field: "file", Message: "File size exceeds 5MB limit"}
	}
	return nil
}

// ValidateFolderName trims name and rejects blank results.
func ValidateFolderName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", &ValidationError{Field: "name", Message: "Invalid Folder Name"}
	}
	if strings.ContainsAny(trimmed, "/\\") {
		return "", &ValidationError{Field: "name", Message: "folder name cannot contain path separators"}
	}
	return trimmed, nil
}
