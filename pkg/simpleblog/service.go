package simpleblog

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the main interface for the simple-blog library.
//
// Mutating operations take the caller's bearer credential and run the
// authorization guard (authenticate, then require admin) before touching any
// state. Read operations are open.
type Service interface {
	// Post operations
	CreatePost(ctx context.Context, credential string, req CreatePostRequest) (*Post, error)
	GetPost(ctx context.Context, id uuid.UUID) (*Post, error)
	UpdatePost(ctx context.Context, credential string, req UpdatePostRequest) (*Post, error)
	DeletePost(ctx context.Context, credential string, id uuid.UUID) (*Post, error)
	ListPosts(ctx context.Context) ([]*Post, error)

	// BulkDeletePosts deletes each id independently and sequentially,
	// stopping at the first failure. The returned result reports what was
	// deleted before the error, if any.
	BulkDeletePosts(ctx context.Context, credential string, ids []uuid.UUID) (*BulkDeleteResult, error)

	// Category operations
	CreateCategory(ctx context.Context, credential string, req CreateCategoryRequest) (*Category, error)
	GetCategory(ctx context.Context, id uuid.UUID) (*Category, error)
	UpdateCategory(ctx context.Context, credential string, req UpdateCategoryRequest) (*Category, error)
	DeleteCategory(ctx context.Context, credential string, id uuid.UUID) (*Category, error)
	ListCategories(ctx context.Context) ([]*Category, error)

	// Cover image operations
	StoreCoverImage(ctx context.Context, credential string, data []byte) (*StoredCoverImage, error)
	CoverImageURL(key string) (string, error)
}
