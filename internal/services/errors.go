package services

import (
	"errors"
	"fmt"
)

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrProductNotFound  = errors.New("product not found")
)

// ValidationError carries a message safe to show in the back office.
type ValidationError struct{ Message string }

func (e *ValidationError) Error() string { return e.Message }

func invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// UploadError names the file the image host rejected.
type UploadError struct {
	File string
	Err  error
}

func (e *UploadError) Error() string { return fmt.Sprintf("upload of %s failed: %v", e.File, e.Err) }
func (e *UploadError) Unwrap() error { return e.Err }
