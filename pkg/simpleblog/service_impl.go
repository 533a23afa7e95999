package simpleblog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// service implements the Service interface
type service struct {
	repository  Repository
	blobStore   BlobStore
	backendName string
	identity    IdentityProvider

	covers *CoverImageStore
	guard  *Guard
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the repository for the service
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithBlobStore sets the blob storage backend holding cover images
func WithBlobStore(name string, store BlobStore) Option {
	return func(s *service) {
		s.backendName = name
		s.blobStore = store
	}
}

// WithIdentityProvider sets the identity provider backing the guard
func WithIdentityProvider(provider IdentityProvider) Option {
	return func(s *service) {
		s.identity = provider
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if s.blobStore == nil {
		return nil, fmt.Errorf("blob store is required")
	}
	if s.identity == nil {
		return nil, fmt.Errorf("identity provider is required")
	}

	s.covers = NewCoverImageStore(s.backendName, s.blobStore)
	s.guard = NewGuard(s.identity, s.repository)

	return s, nil
}

// Post operations

func (s *service) CreatePost(ctx context.Context, credential string, req CreatePostRequest) (*Post, error) {
	if _, err := s.guard.Authorize(ctx, credential); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, &ValidationError{Err: err}
	}

	now := time.Now().UTC()
	post := &Post{
		ID:            uuid.New(),
		Title:         req.Title,
		Content:       req.Content,
		CoverImageKey: req.CoverImageKey,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	// Store the blob before any row is written so a storage failure leaves
	// no post behind with an unresolvable cover key.
	if req.CoverImage != nil {
		key, err := s.covers.Put(ctx, req.CoverImage)
		if err != nil {
			return nil, err
		}
		post.CoverImageKey = key
	}

	if err := s.repository.CreatePost(ctx, post, req.CategoryIDs); err != nil {
		return nil, &PostError{PostID: post.ID, Op: "create", Err: err}
	}

	return s.repository.GetPost(ctx, post.ID)
}

func (s *service) GetPost(ctx context.Context, id uuid.UUID) (*Post, error) {
	return s.repository.GetPost(ctx, id)
}

func (s *service) UpdatePost(ctx context.Context, credential string, req UpdatePostRequest) (*Post, error) {
	if _, err := s.guard.Authorize(ctx, credential); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, &ValidationError{Err: err}
	}

	post, err := s.repository.GetPost(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	post.Title = req.Title
	post.Content = req.Content
	post.CoverImageKey = req.CoverImageKey
	post.UpdatedAt = time.Now().UTC()

	if err := s.repository.UpdatePost(ctx, post, req.CategoryIDs); err != nil {
		return nil, &PostError{PostID: post.ID, Op: "update", Err: err}
	}

	return s.repository.GetPost(ctx, post.ID)
}

func (s *service) DeletePost(ctx context.Context, credential string, id uuid.UUID) (*Post, error) {
	if _, err := s.guard.Authorize(ctx, credential); err != nil {
		return nil, err
	}

	post, err := s.repository.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}

	// The cover blob stays: other posts may reference the same key.
	if err := s.repository.DeletePost(ctx, id); err != nil {
		return nil, &PostError{PostID: id, Op: "delete", Err: err}
	}

	return post, nil
}

func (s *service) ListPosts(ctx context.Context) ([]*Post, error) {
	return s.repository.ListPosts(ctx)
}

func (s *service) BulkDeletePosts(ctx context.Context, credential string, ids []uuid.UUID) (*BulkDeleteResult, error) {
	if _, err := s.guard.Authorize(ctx, credential); err != nil {
		return nil, err
	}

	result := &BulkDeleteResult{Deleted: make([]uuid.UUID, 0, len(ids))}
	for _, id := range ids {
		if err := s.repository.DeletePost(ctx, id); err != nil {
			return result, &PostError{PostID: id, Op: "bulk-delete", Err: err}
		}
		result.Deleted = append(result.Deleted, id)
	}

	return result, nil
}

// Category operations

func (s *service) CreateCategory(ctx context.Context, credential string, req CreateCategoryRequest) (*Category, error) {
	if _, err := s.guard.Authorize(ctx, credential); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, &ValidationError{Err: err}
	}

	now := time.Now().UTC()
	category := &Category{
		ID:        uuid.New(),
		Name:      req.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repository.CreateCategory(ctx, category); err != nil {
		return nil, &CategoryError{CategoryID: category.ID, Op: "create", Err: err}
	}

	return category, nil
}

func (s *service) GetCategory(ctx context.Context, id uuid.UUID) (*Category, error) {
	return s.repository.GetCategory(ctx, id)
}

func (s *service) UpdateCategory(ctx context.Context, credential string, req UpdateCategoryRequest) (*Category, error) {
	if _, err := s.guard.Authorize(ctx, credential); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, &ValidationError{Err: err}
	}

	category, err := s.repository.GetCategory(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	category.Name = req.Name
	category.UpdatedAt = time.Now().UTC()

	if err := s.repository.UpdateCategory(ctx, category); err != nil {
		return nil, &CategoryError{CategoryID: category.ID, Op: "update", Err: err}
	}

	return category, nil
}

func (s *service) DeleteCategory(ctx context.Context, credential string, id uuid.UUID) (*Category, error) {
	if _, err := s.guard.Authorize(ctx, credential); err != nil {
		return nil, err
	}

	category, err := s.repository.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}

	// Cascade-detach: the repository removes association rows together with
	// the category row; posts survive with their other tags intact.
	if err := s.repository.DeleteCategory(ctx, id); err != nil {
		return nil, &CategoryError{CategoryID: id, Op: "delete", Err: err}
	}

	return category, nil
}

func (s *service) ListCategories(ctx context.Context) ([]*Category, error) {
	return s.repository.ListCategories(ctx)
}

// Cover image operations

func (s *service) StoreCoverImage(ctx context.Context, credential string, data []byte) (*StoredCoverImage, error) {
	if _, err := s.guard.Authorize(ctx, credential); err != nil {
		return nil, err
	}

	key, err := s.covers.Put(ctx, data)
	if err != nil {
		return nil, err
	}

	url, err := s.covers.PublicURL(key)
	if err != nil {
		return nil, err
	}

	return &StoredCoverImage{Key: key, URL: url}, nil
}

func (s *service) CoverImageURL(key string) (string, error) {
	return s.covers.PublicURL(key)
}
