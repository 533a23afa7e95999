package simpleblog

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// Request/Response DTOs

// CreatePostRequest contains parameters for creating a new post.
//
// CoverImage carries raw upload bytes; when set (non-nil, empty is legal) the
// service stores the blob before any database row is written. CoverImageKey
// carries a pre-resolved content-addressed key instead, for callers that
// uploaded through StoreCoverImage already. At most one of the two may be set.
type CreatePostRequest struct {
	Title         string
	Content       string
	CoverImage    []byte
	CoverImageKey string
	CategoryIDs   []uuid.UUID
}

// Validate checks the request input.
func (r CreatePostRequest) Validate() error {
	err := validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required),
		validation.Field(&r.Content, validation.Required),
	)
	if err != nil {
		return err
	}
	if r.CoverImage != nil && r.CoverImageKey != "" {
		return validation.NewError("validation_cover_image", "cover_image and cover_image_key are mutually exclusive")
	}
	return nil
}

// UpdatePostRequest contains parameters for updating a post. The cover image,
// if changed, is uploaded separately through StoreCoverImage; only the
// resulting key travels here.
type UpdatePostRequest struct {
	ID            uuid.UUID
	Title         string
	Content       string
	CoverImageKey string
	CategoryIDs   []uuid.UUID
}

// Validate checks the request input.
func (r UpdatePostRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ID, validation.Required),
		validation.Field(&r.Title, validation.Required),
		validation.Field(&r.Content, validation.Required),
	)
}

// CreateCategoryRequest contains parameters for creating a category.
type CreateCategoryRequest struct {
	Name string
}

// Validate checks the request input.
func (r CreateCategoryRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required),
	)
}

// UpdateCategoryRequest contains parameters for renaming a category.
type UpdateCategoryRequest struct {
	ID   uuid.UUID
	Name string
}

// Validate checks the request input.
func (r UpdateCategoryRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ID, validation.Required),
		validation.Field(&r.Name, validation.Required),
	)
}

// BulkDeleteResult reports the outcome of a bulk delete. Deletion is applied
// per id sequentially and stops at the first failure, so Deleted may cover
// only a prefix of the requested ids; callers re-query to discover state.
type BulkDeleteResult struct {
	Deleted []uuid.UUID `json:"deleted"`
}

// StoredCoverImage is the result of storing cover image bytes.
type StoredCoverImage struct {
	Key string `json:"key"`
	URL string `json:"url"`
}
