package simpleblog_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-blog/pkg/simpleblog"
	"github.com/tendant/simple-blog/pkg/simpleblog/identity"
	memoryrepo "github.com/tendant/simple-blog/pkg/simpleblog/repo/memory"
	memorystorage "github.com/tendant/simple-blog/pkg/simpleblog/storage/memory"
)

const (
	adminCredential  = "Bearer admin-token"
	readerCredential = "Bearer reader-token"
)

func setupTestService(t *testing.T) (simpleblog.Service, *memoryrepo.Repository, *memorystorage.Backend) {
	t.Helper()

	repo := memoryrepo.New()
	backend := memorystorage.New()
	provider := identity.NewStatic(map[string]string{
		"admin-token":  "admin-user",
		"reader-token": "reader-user",
	})

	ctx := context.Background()
	now := time.Now().UTC()
	require.NoError(t, repo.UpsertProfile(ctx, &simpleblog.Profile{
		SubjectID: "admin-user",
		IsAdmin:   true,
		CreatedAt: now,
		UpdatedAt: now,
	}))
	require.NoError(t, repo.UpsertProfile(ctx, &simpleblog.Profile{
		SubjectID: "reader-user",
		IsAdmin:   false,
		CreatedAt: now,
		UpdatedAt: now,
	}))

	svc, err := simpleblog.New(
		simpleblog.WithRepository(repo),
		simpleblog.WithBlobStore("memory", backend),
		simpleblog.WithIdentityProvider(provider),
	)
	require.NoError(t, err)

	return svc, repo, backend
}

func mustCreateCategory(t *testing.T, svc simpleblog.Service, name string) *simpleblog.Category {
	t.Helper()
	category, err := svc.CreateCategory(context.Background(), adminCredential, simpleblog.CreateCategoryRequest{Name: name})
	require.NoError(t, err)
	return category
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	repo := memoryrepo.New()
	backend := memorystorage.New()
	provider := identity.NewStatic(nil)

	tests := []struct {
		name    string
		options []simpleblog.Option
		wantErr bool
	}{
		{
			name: "all dependencies",
			options: []simpleblog.Option{
				simpleblog.WithRepository(repo),
				simpleblog.WithBlobStore("memory", backend),
				simpleblog.WithIdentityProvider(provider),
			},
		},
		{
			name: "missing repository",
			options: []simpleblog.Option{
				simpleblog.WithBlobStore("memory", backend),
				simpleblog.WithIdentityProvider(provider),
			},
			wantErr: true,
		},
		{
			name: "missing blob store",
			options: []simpleblog.Option{
				simpleblog.WithRepository(repo),
				simpleblog.WithIdentityProvider(provider),
			},
			wantErr: true,
		},
		{
			name: "missing identity provider",
			options: []simpleblog.Option{
				simpleblog.WithRepository(repo),
				simpleblog.WithBlobStore("memory", backend),
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := simpleblog.New(tt.options...)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, svc)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, svc)
		})
	}
}

func TestCreatePost(t *testing.T) {
	svc, _, backend := setupTestService(t)
	ctx := context.Background()

	golang := mustCreateCategory(t, svc, "Go")
	infra := mustCreateCategory(t, svc, "Infrastructure")

	post, err := svc.CreatePost(ctx, adminCredential, simpleblog.CreatePostRequest{
		Title:       "Hello",
		Content:     "First post",
		CoverImage:  []byte("abc"),
		CategoryIDs: []uuid.UUID{golang.ID, infra.ID},
	})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, post.ID)
	assert.Equal(t, "Hello", post.Title)
	assert.Equal(t, "private/900150983cd24fb0d6963f7d28e17f72", post.CoverImageKey)
	require.Len(t, post.Categories, 2)
	assert.Equal(t, 1, backend.Len())
	assert.False(t, post.CreatedAt.IsZero())
	assert.Equal(t, post.CreatedAt, post.UpdatedAt)

	got, err := svc.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, post.ID, got.ID)
	assert.Len(t, got.Categories, 2)
}

func TestCreatePostWithoutCoverImage(t *testing.T) {
	svc, _, backend := setupTestService(t)
	ctx := context.Background()

	post, err := svc.CreatePost(ctx, adminCredential, simpleblog.CreatePostRequest{
		Title:   "No cover",
		Content: "body",
	})
	require.NoError(t, err)
	assert.Empty(t, post.CoverImageKey)
	assert.Equal(t, 0, backend.Len())
	assert.Empty(t, post.Categories)
}

func TestCreatePostValidation(t *testing.T) {
	svc, _, _ := setupTestService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  simpleblog.CreatePostRequest
	}{
		{
			name: "missing title",
			req:  simpleblog.CreatePostRequest{Content: "body"},
		},
		{
			name: "missing content",
			req:  simpleblog.CreatePostRequest{Title: "title"},
		},
		{
			name: "cover bytes and cover key together",
			req: simpleblog.CreatePostRequest{
				Title:         "title",
				Content:       "body",
				CoverImage:    []byte("abc"),
				CoverImageKey: "private/deadbeef",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreatePost(ctx, adminCredential, tt.req)
			require.Error(t, err)

			var validationErr *simpleblog.ValidationError
			assert.ErrorAs(t, err, &validationErr)
		})
	}
}

func TestCreatePostDanglingCategory(t *testing.T) {
	svc, _, _ := setupTestService(t)
	ctx := context.Background()

	golang := mustCreateCategory(t, svc, "Go")
	missing := uuid.New()

	_, err := svc.CreatePost(ctx, adminCredential, simpleblog.CreatePostRequest{
		Title:       "Hello",
		Content:     "body",
		CategoryIDs: []uuid.UUID{golang.ID, missing},
	})
	require.Error(t, err)

	var danglingErr *simpleblog.DanglingReferenceError
	require.ErrorAs(t, err, &danglingErr)
	assert.Equal(t, []uuid.UUID{missing}, danglingErr.CategoryIDs)
	assert.Contains(t, err.Error(), missing.String())

	posts, err := svc.ListPosts(ctx)
	require.NoError(t, err)
	assert.Empty(t, posts, "failed create must not leave a post behind")
}

func TestCreatePostStorageFailureLeavesNoPost(t *testing.T) {
	repo := memoryrepo.New()
	provider := identity.NewStatic(map[string]string{"admin-token": "admin-user"})
	ctx := context.Background()
	now := time.Now().UTC()
	require.NoError(t, repo.UpsertProfile(ctx, &simpleblog.Profile{
		SubjectID: "admin-user",
		IsAdmin:   true,
		CreatedAt: now,
		UpdatedAt: now,
	}))

	svc, err := simpleblog.New(
		simpleblog.WithRepository(repo),
		simpleblog.WithBlobStore("broken", &failingBlobStore{}),
		simpleblog.WithIdentityProvider(provider),
	)
	require.NoError(t, err)

	_, err = svc.CreatePost(ctx, adminCredential, simpleblog.CreatePostRequest{
		Title:      "Hello",
		Content:    "body",
		CoverImage: []byte("abc"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, simpleblog.ErrUploadFailed)

	posts, err := svc.ListPosts(ctx)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestUpdatePost(t *testing.T) {
	svc, _, _ := setupTestService(t)
	ctx := context.Background()

	golang := mustCreateCategory(t, svc, "Go")
	infra := mustCreateCategory(t, svc, "Infrastructure")

	post, err := svc.CreatePost(ctx, adminCredential, simpleblog.CreatePostRequest{
		Title:       "Hello",
		Content:     "body",
		CategoryIDs: []uuid.UUID{golang.ID},
	})
	require.NoError(t, err)

	updated, err := svc.UpdatePost(ctx, adminCredential, simpleblog.UpdatePostRequest{
		ID:          post.ID,
		Title:       "Hello again",
		Content:     "revised body",
		CategoryIDs: []uuid.UUID{infra.ID},
	})
	require.NoError(t, err)

	assert.Equal(t, "Hello again", updated.Title)
	assert.Equal(t, "revised body", updated.Content)
	require.Len(t, updated.Categories, 1)
	assert.Equal(t, infra.ID, updated.Categories[0].ID)
	assert.True(t, updated.UpdatedAt.After(post.UpdatedAt) || updated.UpdatedAt.Equal(post.UpdatedAt))
	assert.Equal(t, post.CreatedAt, updated.CreatedAt)
}

func TestUpdatePostNotFound(t *testing.T) {
	svc, _, _ := setupTestService(t)

	_, err := svc.UpdatePost(context.Background(), adminCredential, simpleblog.UpdatePostRequest{
		ID:      uuid.New(),
		Title:   "x",
		Content: "y",
	})
	assert.ErrorIs(t, err, simpleblog.ErrPostNotFound)
}

func TestUpdatePostDanglingCategory(t *testing.T) {
	svc, _, _ := setupTestService(t)
	ctx := context.Background()

	golang := mustCreateCategory(t, svc, "Go")
	post, err := svc.CreatePost(ctx, adminCredential, simpleblog.CreatePostRequest{
		Title:       "Hello",
		Content:     "body",
		CategoryIDs: []uuid.UUID{golang.ID},
	})
	require.NoError(t, err)

	missing := uuid.New()
	_, err = svc.UpdatePost(ctx, adminCredential, simpleblog.UpdatePostRequest{
		ID:          post.ID,
		Title:       "Hello",
		Content:     "body",
		CategoryIDs: []uuid.UUID{missing},
	})
	require.Error(t, err)

	var danglingErr *simpleblog.DanglingReferenceError
	require.ErrorAs(t, err, &danglingErr)
	assert.Equal(t, []uuid.UUID{missing}, danglingErr.CategoryIDs)

	// The old association survives a failed update.
	got, err := svc.GetPost(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, got.Categories, 1)
	assert.Equal(t, golang.ID, got.Categories[0].ID)
}

func TestDeletePost(t *testing.T) {
	svc, _, backend := setupTestService(t)
	ctx := context.Background()

	post, err := svc.CreatePost(ctx, adminCredential, simpleblog.CreatePostRequest{
		Title:      "Hello",
		Content:    "body",
		CoverImage: []byte("abc"),
	})
	require.NoError(t, err)

	deleted, err := svc.DeletePost(ctx, adminCredential, post.ID)
	require.NoError(t, err)
	assert.Equal(t, post.ID, deleted.ID)
	assert.Equal(t, "Hello", deleted.Title)

	_, err = svc.GetPost(ctx, post.ID)
	assert.ErrorIs(t, err, simpleblog.ErrPostNotFound)

	// The cover blob stays because another post may share the key.
	assert.Equal(t, 1, backend.Len())

	_, err = svc.DeletePost(ctx, adminCredential, post.ID)
	assert.ErrorIs(t, err, simpleblog.ErrPostNotFound)
}

func TestListPostsNewestFirst(t *testing.T) {
	svc, _, _ := setupTestService(t)
	ctx := context.Background()

	titles := []string{"first", "second", "third"}
	for _, title := range titles {
		_, err := svc.CreatePost(ctx, adminCredential, simpleblog.CreatePostRequest{
			Title:   title,
			Content: "body",
		})
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}

	posts, err := svc.ListPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, "third", posts[0].Title)
	assert.Equal(t, "second", posts[1].Title)
	assert.Equal(t, "first", posts[2].Title)
}

func TestBulkDeletePostsStopsAtFirstFailure(t *testing.T) {
	svc, _, _ := setupTestService(t)
	ctx := context.Background()

	first, err := svc.CreatePost(ctx, adminCredential, simpleblog.CreatePostRequest{Title: "a", Content: "x"})
	require.NoError(t, err)
	second, err := svc.CreatePost(ctx, adminCredential, simpleblog.CreatePostRequest{Title: "b", Content: "x"})
	require.NoError(t, err)
	missing := uuid.New()

	result, err := svc.BulkDeletePosts(ctx, adminCredential, []uuid.UUID{first.ID, missing, second.ID})
	require.Error(t, err)
	assert.ErrorIs(t, err, simpleblog.ErrPostNotFound)

	var postErr *simpleblog.PostError
	require.ErrorAs(t, err, &postErr)
	assert.Equal(t, missing, postErr.PostID)

	// Deletion is sequential: everything before the failure is gone, nothing
	// after it is touched.
	require.NotNil(t, result)
	assert.Equal(t, []uuid.UUID{first.ID}, result.Deleted)

	_, err = svc.GetPost(ctx, first.ID)
	assert.ErrorIs(t, err, simpleblog.ErrPostNotFound)
	_, err = svc.GetPost(ctx, second.ID)
	assert.NoError(t, err)
}

func TestBulkDeletePostsAll(t *testing.T) {
	svc, _, _ := setupTestService(t)
	ctx := context.Background()

	var ids []uuid.UUID
	for _, title := range []string{"a", "b", "c"} {
		post, err := svc.CreatePost(ctx, adminCredential, simpleblog.CreatePostRequest{Title: title, Content: "x"})
		require.NoError(t, err)
		ids = append(ids, post.ID)
	}

	result, err := svc.BulkDeletePosts(ctx, adminCredential, ids)
	require.NoError(t, err)
	assert.Equal(t, ids, result.Deleted)

	posts, err := svc.ListPosts(ctx)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestCategoryLifecycle(t *testing.T) {
	svc, _, _ := setupTestService(t)
	ctx := context.Background()

	category := mustCreateCategory(t, svc, "Go")
	assert.NotEqual(t, uuid.Nil, category.ID)

	_, err := svc.CreateCategory(ctx, adminCredential, simpleblog.CreateCategoryRequest{Name: "Go"})
	assert.ErrorIs(t, err, simpleblog.ErrDuplicateCategoryName)

	renamed, err := svc.UpdateCategory(ctx, adminCredential, simpleblog.UpdateCategoryRequest{
		ID:   category.ID,
		Name: "Golang",
	})
	require.NoError(t, err)
	assert.Equal(t, "Golang", renamed.Name)

	categories, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, "Golang", categories[0].Name)

	deleted, err := svc.DeleteCategory(ctx, adminCredential, category.ID)
	require.NoError(t, err)
	assert.Equal(t, "Golang", deleted.Name)

	_, err = svc.GetCategory(ctx, category.ID)
	assert.ErrorIs(t, err, simpleblog.ErrCategoryNotFound)
}

func TestDeleteCategoryDetachesPosts(t *testing.T) {
	svc, _, _ := setupTestService(t)
	ctx := context.Background()

	golang := mustCreateCategory(t, svc, "Go")
	infra := mustCreateCategory(t, svc, "Infrastructure")

	tagged, err := svc.CreatePost(ctx, adminCredential, simpleblog.CreatePostRequest{
		Title:       "Tagged",
		Content:     "body",
		CoverImage:  []byte("cover"),
		CategoryIDs: []uuid.UUID{golang.ID, infra.ID},
	})
	require.NoError(t, err)

	_, err = svc.DeleteCategory(ctx, adminCredential, golang.ID)
	require.NoError(t, err)

	// The post survives with the deleted tag detached and everything else
	// intact.
	got, err := svc.GetPost(ctx, tagged.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tagged", got.Title)
	assert.Equal(t, tagged.CoverImageKey, got.CoverImageKey)
	require.Len(t, got.Categories, 1)
	assert.Equal(t, infra.ID, got.Categories[0].ID)
}

func TestStoreCoverImage(t *testing.T) {
	svc, _, backend := setupTestService(t)
	ctx := context.Background()

	stored, err := svc.StoreCoverImage(ctx, adminCredential, []byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, "private/900150983cd24fb0d6963f7d28e17f72", stored.Key)
	assert.Equal(t, "memory://private/900150983cd24fb0d6963f7d28e17f72", stored.URL)

	again, err := svc.StoreCoverImage(ctx, adminCredential, []byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, stored.Key, again.Key)
	assert.Equal(t, 1, backend.Len())

	url, err := svc.CoverImageURL(stored.Key)
	require.NoError(t, err)
	assert.Equal(t, stored.URL, url)
}

func TestMutationsRequireAdmin(t *testing.T) {
	svc, _, _ := setupTestService(t)
	ctx := context.Background()

	post, err := svc.CreatePost(ctx, adminCredential, simpleblog.CreatePostRequest{Title: "a", Content: "x"})
	require.NoError(t, err)
	category := mustCreateCategory(t, svc, "Go")

	mutations := []struct {
		name string
		call func(credential string) error
	}{
		{
			name: "create post",
			call: func(c string) error {
				_, err := svc.CreatePost(ctx, c, simpleblog.CreatePostRequest{Title: "t", Content: "c"})
				return err
			},
		},
		{
			name: "update post",
			call: func(c string) error {
				_, err := svc.UpdatePost(ctx, c, simpleblog.UpdatePostRequest{ID: post.ID, Title: "t", Content: "c"})
				return err
			},
		},
		{
			name: "delete post",
			call: func(c string) error {
				_, err := svc.DeletePost(ctx, c, post.ID)
				return err
			},
		},
		{
			name: "bulk delete posts",
			call: func(c string) error {
				_, err := svc.BulkDeletePosts(ctx, c, []uuid.UUID{post.ID})
				return err
			},
		},
		{
			name: "create category",
			call: func(c string) error {
				_, err := svc.CreateCategory(ctx, c, simpleblog.CreateCategoryRequest{Name: "n"})
				return err
			},
		},
		{
			name: "update category",
			call: func(c string) error {
				_, err := svc.UpdateCategory(ctx, c, simpleblog.UpdateCategoryRequest{ID: category.ID, Name: "n"})
				return err
			},
		},
		{
			name: "delete category",
			call: func(c string) error {
				_, err := svc.DeleteCategory(ctx, c, category.ID)
				return err
			},
		},
		{
			name: "store cover image",
			call: func(c string) error {
				_, err := svc.StoreCoverImage(ctx, c, []byte("x"))
				return err
			},
		},
	}

	for _, tt := range mutations {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call("")
			assert.ErrorIs(t, err, simpleblog.ErrUnauthenticated, "missing credential")

			err = tt.call("Bearer bogus")
			assert.ErrorIs(t, err, simpleblog.ErrUnauthenticated, "invalid credential")

			err = tt.call(readerCredential)
			assert.ErrorIs(t, err, simpleblog.ErrForbidden, "non-admin credential")
		})
	}

	// Nothing above mutated state.
	posts, err := svc.ListPosts(ctx)
	require.NoError(t, err)
	assert.Len(t, posts, 1)
	categories, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, 1)
}

func TestReadsNeedNoCredential(t *testing.T) {
	svc, _, _ := setupTestService(t)
	ctx := context.Background()

	post, err := svc.CreatePost(ctx, adminCredential, simpleblog.CreatePostRequest{Title: "a", Content: "x"})
	require.NoError(t, err)

	got, err := svc.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, post.ID, got.ID)

	posts, err := svc.ListPosts(ctx)
	require.NoError(t, err)
	assert.Len(t, posts, 1)

	categories, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	assert.Empty(t, categories)
}
