// Package diskspace checks free space in the download directory before a
// file is written.
package diskspace

import (
	"errors"
	"fmt"

	"github.com/filedash/filedash/internal/models"
)

// InsufficientSpaceError indicates that there is not enough disk space available.
type InsufficientSpaceError struct {
	Dir            string
	RequiredBytes  int64
	AvailableBytes int64
}

func (e *InsufficientSpaceError) Error() string {
	return fmt.Sprintf("insufficient disk space in %s: need %s, have %s",
		e.Dir, models.FormatBytes(e.RequiredBytes), models.FormatBytes(e.AvailableBytes))
}

// CheckAvailableSpace returns an InsufficientSpaceError when dir cannot hold
// requiredBytes times safetyMargin. When free space cannot be determined
// (network or virtual filesystems) the check passes and the write is left
// to fail on its own.
func CheckAvailableSpace(dir string, requiredBytes int64, safetyMargin float64) error {
	if requiredBytes <= 0 {
		return nil
	}
	available, ok := availableBytes(dir)
	if !ok {
		return nil
	}

	required := int64(float64(requiredBytes) * safetyMargin)
	if available < required {
		return &InsufficientSpaceError{Dir: dir, RequiredBytes: required, AvailableBytes: available}
	}
	return nil
}

// IsInsufficientSpaceError checks if an error is an InsufficientSpaceError
func IsInsufficientSpaceError(err error) bool {
	var target *InsufficientSpaceError
	return errors.As(err, &target)
}
