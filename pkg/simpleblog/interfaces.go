package simpleblog

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
)

// BlobStore defines the interface for storage backends holding cover image
// bytes. Upload uses overwrite-allowed semantics: writing an existing key with
// the same bytes is a no-op success.
type BlobStore interface {
	// Upload writes the object at objectKey, overwriting any existing object
	Upload(ctx context.Context, objectKey string, reader io.Reader) error

	// Download reads the object at objectKey
	Download(ctx context.Context, objectKey string) (io.ReadCloser, error)

	// Delete removes the object at objectKey
	Delete(ctx context.Context, objectKey string) error

	// GetObjectMeta retrieves metadata for an object
	GetObjectMeta(ctx context.Context, objectKey string) (*ObjectMeta, error)

	// PublicURL derives a publicly fetchable URL for objectKey. Pure
	// derivation from configuration, no network call.
	PublicURL(objectKey string) (string, error)
}

// ObjectMeta contains metadata about an object in storage
type ObjectMeta struct {
	Key         string
	Size        int64
	ContentType string
	UpdatedAt   time.Time
	ETag        string
}

// Repository defines the interface for post, category and association
// persistence.
//
// Operations that touch associations (CreatePost, UpdatePost, DeletePost,
// DeleteCategory, ReplacePostCategories) must be atomic: either the full
// mutation commits or the prior state is left unchanged. Implementations
// return *DanglingReferenceError naming the missing ids when categoryIDs
// reference categories that do not exist.
type Repository interface {
	// Post operations
	CreatePost(ctx context.Context, post *Post, categoryIDs []uuid.UUID) error
	GetPost(ctx context.Context, id uuid.UUID) (*Post, error)
	UpdatePost(ctx context.Context, post *Post, categoryIDs []uuid.UUID) error
	DeletePost(ctx context.Context, id uuid.UUID) error
	ListPosts(ctx context.Context) ([]*Post, error)

	// Category operations
	CreateCategory(ctx context.Context, category *Category) error
	GetCategory(ctx context.Context, id uuid.UUID) (*Category, error)
	UpdateCategory(ctx context.Context, category *Category) error
	// DeleteCategory removes the category and every association referencing
	// it in one transaction. Posts are never touched.
	DeleteCategory(ctx context.Context, id uuid.UUID) error
	ListCategories(ctx context.Context) ([]*Category, error)

	// Association operations
	ReplacePostCategories(ctx context.Context, postID uuid.UUID, categoryIDs []uuid.UUID) error
	DetachCategory(ctx context.Context, categoryID uuid.UUID) error

	// Profile operations
	GetProfile(ctx context.Context, subjectID string) (*Profile, error)
	UpsertProfile(ctx context.Context, profile *Profile) error
}

// IdentityProvider exchanges an opaque bearer credential for an identity.
type IdentityProvider interface {
	VerifyCredential(ctx context.Context, credential string) (*Identity, error)
}

// ProfileStore is the subset of Repository the authorization guard needs.
type ProfileStore interface {
	GetProfile(ctx context.Context, subjectID string) (*Profile, error)
}
