package simpleblog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Error types
var (
	// ErrPostNotFound indicates a post was not found
	ErrPostNotFound = errors.New("post not found")

	// ErrCategoryNotFound indicates a category was not found
	ErrCategoryNotFound = errors.New("category not found")

	// ErrUnauthenticated indicates the bearer credential is missing or invalid
	ErrUnauthenticated = errors.New("authentication failed")

	// ErrForbidden indicates the caller is authenticated but not an administrator
	ErrForbidden = errors.New("administrator privilege required")

	// ErrDuplicateCategoryName indicates a category with the same name already exists
	ErrDuplicateCategoryName = errors.New("category name already exists")

	// ErrUploadFailed indicates an upload to the blob backend failed
	ErrUploadFailed = errors.New("upload failed")
)

// ValidationError reports malformed or empty request input.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %v", e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// DanglingReferenceError reports category ids that do not exist. The ids are
// carried so the caller can name the offending references.
type DanglingReferenceError struct {
	CategoryIDs []uuid.UUID
}

func (e *DanglingReferenceError) Error() string {
	if len(e.CategoryIDs) == 0 {
		return "referenced category does not exist"
	}
	ids := make([]string, len(e.CategoryIDs))
	for i, id := range e.CategoryIDs {
		ids[i] = id.String()
	}
	return fmt.Sprintf("referenced categories do not exist: %s", strings.Join(ids, ", "))
}

// PostError represents an error related to post operations
type PostError struct {
	PostID uuid.UUID
	Op     string
	Err    error
}

func (e *PostError) Error() string {
	return fmt.Sprintf("post operation %s failed for post %s: %v", e.Op, e.PostID, e.Err)
}

func (e *PostError) Unwrap() error {
	return e.Err
}

// CategoryError represents an error related to category operations
type CategoryError struct {
	CategoryID uuid.UUID
	Op         string
	Err        error
}

func (e *CategoryError) Error() string {
	return fmt.Sprintf("category operation %s failed for category %s: %v", e.Op, e.CategoryID, e.Err)
}

func (e *CategoryError) Unwrap() error {
	return e.Err
}

// StorageError represents an error related to blob storage operations
type StorageError struct {
	Backend string
	Key     string
	Op      string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed for key %s on backend %s: %v", e.Op, e.Key, e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
