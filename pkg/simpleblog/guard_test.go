package simpleblog_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-blog/pkg/simpleblog"
	"github.com/tendant/simple-blog/pkg/simpleblog/identity"
	memoryrepo "github.com/tendant/simple-blog/pkg/simpleblog/repo/memory"
)

func setupGuard(t *testing.T) *simpleblog.Guard {
	t.Helper()

	provider := identity.NewStatic(map[string]string{
		"admin-token":  "admin-user",
		"reader-token": "reader-user",
		"ghost-token":  "ghost-user",
	})

	repo := memoryrepo.New()
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

	return simpleblog.NewGuard(provider, repo)
}

func TestGuardAuthenticate(t *testing.T) {
	guard := setupGuard(t)
	ctx := context.Background()

	tests := []struct {
		name       string
		credential string
		wantErr    error
		wantSub    string
	}{
		{
			name:       "valid bearer credential",
			credential: "Bearer admin-token",
			wantSub:    "admin-user",
		},
		{
			name:       "bare token without scheme",
			credential: "admin-token",
			wantSub:    "admin-user",
		},
		{
			name:       "missing credential",
			credential: "",
			wantErr:    simpleblog.ErrUnauthenticated,
		},
		{
			name:       "scheme only",
			credential: "Bearer   ",
			wantErr:    simpleblog.ErrUnauthenticated,
		},
		{
			name:       "unknown token",
			credential: "Bearer nope",
			wantErr:    simpleblog.ErrUnauthenticated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := guard.Authenticate(ctx, tt.credential)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSub, id.SubjectID)
		})
	}
}

func TestGuardRequireAdmin(t *testing.T) {
	guard := setupGuard(t)
	ctx := context.Background()

	err := guard.RequireAdmin(ctx, &simpleblog.Identity{SubjectID: "admin-user"})
	assert.NoError(t, err)

	err = guard.RequireAdmin(ctx, &simpleblog.Identity{SubjectID: "reader-user"})
	assert.ErrorIs(t, err, simpleblog.ErrForbidden)

	// A subject with no profile row is treated the same as a non-admin.
	err = guard.RequireAdmin(ctx, &simpleblog.Identity{SubjectID: "ghost-user"})
	assert.ErrorIs(t, err, simpleblog.ErrForbidden)
}

func TestGuardAuthorizeOrdering(t *testing.T) {
	guard := setupGuard(t)
	ctx := context.Background()

	// An invalid credential fails authentication even though the caller would
	// also fail the admin check.
	_, err := guard.Authorize(ctx, "Bearer bogus")
	require.Error(t, err)
	assert.ErrorIs(t, err, simpleblog.ErrUnauthenticated)
	assert.NotErrorIs(t, err, simpleblog.ErrForbidden)

	// A valid non-admin credential passes authentication and fails the
	// privilege check.
	_, err = guard.Authorize(ctx, "Bearer reader-token")
	require.Error(t, err)
	assert.ErrorIs(t, err, simpleblog.ErrForbidden)
	assert.NotErrorIs(t, err, simpleblog.ErrUnauthenticated)

	id, err := guard.Authorize(ctx, "Bearer admin-token")
	require.NoError(t, err)
	assert.Equal(t, "admin-user", id.SubjectID)
}
