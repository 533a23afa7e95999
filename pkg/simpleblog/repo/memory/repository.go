package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/exp/maps"

	"github.com/tendant/simple-blog/pkg/simpleblog"
)

// Repository implements simpleblog.Repository using in-memory storage. A
// single mutex serializes mutations, so every multi-row operation (create
// with associations, replace, cascade delete) is atomic by construction.
type Repository struct {
	mu             sync.RWMutex
	posts          map[uuid.UUID]*simpleblog.Post
	categories     map[uuid.UUID]*simpleblog.Category
	postCategories map[uuid.UUID][]uuid.UUID // post_id -> ordered category ids
	profiles       map[string]*simpleblog.Profile
}

// New creates a new in-memory repository
func New() *Repository {
	return &Repository{
		posts:          make(map[uuid.UUID]*simpleblog.Post),
		categories:     make(map[uuid.UUID]*simpleblog.Category),
		postCategories: make(map[uuid.UUID][]uuid.UUID),
		profiles:       make(map[string]*simpleblog.Profile),
	}
}

// missingCategories returns the ids in categoryIDs with no category row.
// Callers hold at least the read lock.
func (r *Repository) missingCategories(categoryIDs []uuid.UUID) []uuid.UUID {
	var missing []uuid.UUID
	for _, id := range categoryIDs {
		if _, ok := r.categories[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

// resolvePost builds a copy of the stored post with its categories attached.
// Callers hold at least the read lock.
func (r *Repository) resolvePost(post *simpleblog.Post) *simpleblog.Post {
	postCopy := *post
	postCopy.Categories = make([]*simpleblog.Category, 0, len(r.postCategories[post.ID]))
	for _, categoryID := range r.postCategories[post.ID] {
		if category, ok := r.categories[categoryID]; ok {
			categoryCopy := *category
			postCopy.Categories = append(postCopy.Categories, &categoryCopy)
		}
	}
	return &postCopy
}

// Post operations

func (r *Repository) CreatePost(ctx context.Context, post *simpleblog.Post, categoryIDs []uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if missing := r.missingCategories(categoryIDs); len(missing) > 0 {
		return &simpleblog.DanglingReferenceError{CategoryIDs: missing}
	}

	postCopy := *post
	postCopy.Categories = nil
	r.posts[post.ID] = &postCopy
	r.postCategories[post.ID] = append([]uuid.UUID(nil), categoryIDs...)

	return nil
}

func (r *Repository) GetPost(ctx context.Context, id uuid.UUID) (*simpleblog.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	post, exists := r.posts[id]
	if !exists {
		return nil, simpleblog.ErrPostNotFound
	}

	return r.resolvePost(post), nil
}

func (r *Repository) UpdatePost(ctx context.Context, post *simpleblog.Post, categoryIDs []uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.posts[post.ID]; !exists {
		return simpleblog.ErrPostNotFound
	}
	if missing := r.missingCategories(categoryIDs); len(missing) > 0 {
		return &simpleblog.DanglingReferenceError{CategoryIDs: missing}
	}

	postCopy := *post
	postCopy.Categories = nil
	r.posts[post.ID] = &postCopy
	r.postCategories[post.ID] = append([]uuid.UUID(nil), categoryIDs...)

	return nil
}

func (r *Repository) DeletePost(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.posts[id]; !exists {
		return simpleblog.ErrPostNotFound
	}

	delete(r.posts, id)
	delete(r.postCategories, id)

	return nil
}

func (r *Repository) ListPosts(ctx context.Context) ([]*simpleblog.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*simpleblog.Post, 0, len(r.posts))
	for _, post := range maps.Values(r.posts) {
		result = append(result, r.resolvePost(post))
	}

	// Newest first; id as tie-breaker for a stable order.
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID.String() > result[j].ID.String()
	})

	return result, nil
}

// Category operations

func (r *Repository) CreateCategory(ctx context.Context, category *simpleblog.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.categories {
		if existing.Name == category.Name {
			return simpleblog.ErrDuplicateCategoryName
		}
	}

	categoryCopy := *category
	r.categories[category.ID] = &categoryCopy

	return nil
}

func (r *Repository) GetCategory(ctx context.Context, id uuid.UUID) (*simpleblog.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	category, exists := r.categories[id]
	if !exists {
		return nil, simpleblog.ErrCategoryNotFound
	}

	categoryCopy := *category
	return &categoryCopy, nil
}

func (r *Repository) UpdateCategory(ctx context.Context, category *simpleblog.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.categories[category.ID]; !exists {
		return simpleblog.ErrCategoryNotFound
	}
	for _, existing := range r.categories {
		if existing.ID != category.ID && existing.Name == category.Name {
			return simpleblog.ErrDuplicateCategoryName
		}
	}

	categoryCopy := *category
	r.categories[category.ID] = &categoryCopy

	return nil
}

func (r *Repository) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.categories[id]; !exists {
		return simpleblog.ErrCategoryNotFound
	}

	delete(r.categories, id)
	r.detachCategoryLocked(id)

	return nil
}

func (r *Repository) ListCategories(ctx context.Context) ([]*simpleblog.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*simpleblog.Category, 0, len(r.categories))
	for _, category := range maps.Values(r.categories) {
		categoryCopy := *category
		result = append(result, &categoryCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].Name < result[j].Name
	})

	return result, nil
}

// Association operations

func (r *Repository) ReplacePostCategories(ctx context.Context, postID uuid.UUID, categoryIDs []uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.posts[postID]; !exists {
		return simpleblog.ErrPostNotFound
	}
	if missing := r.missingCategories(categoryIDs); len(missing) > 0 {
		return &simpleblog.DanglingReferenceError{CategoryIDs: missing}
	}

	r.postCategories[postID] = append([]uuid.UUID(nil), categoryIDs...)

	return nil
}

func (r *Repository) DetachCategory(ctx context.Context, categoryID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.detachCategoryLocked(categoryID)

	return nil
}

func (r *Repository) detachCategoryLocked(categoryID uuid.UUID) {
	for postID, ids := range r.postCategories {
		kept := ids[:0]
		for _, id := range ids {
			if id != categoryID {
				kept = append(kept, id)
			}
		}
		r.postCategories[postID] = kept
	}
}

// Profile operations

func (r *Repository) GetProfile(ctx context.Context, subjectID string) (*simpleblog.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	profile, exists := r.profiles[subjectID]
	if !exists {
		return nil, fmt.Errorf("no profile for subject %s", subjectID)
	}

	profileCopy := *profile
	return &profileCopy, nil
}

func (r *Repository) UpsertProfile(ctx context.Context, profile *simpleblog.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	profileCopy := *profile
	r.profiles[profile.SubjectID] = &profileCopy

	return nil
}
