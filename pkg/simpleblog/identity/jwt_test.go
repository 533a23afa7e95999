package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTProviderRoundTrip(t *testing.T) {
	provider := NewJWT([]byte("test-secret"))
	ctx := context.Background()

	token, err := provider.Encode("admin-user")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	id, err := provider.VerifyCredential(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "admin-user", id.SubjectID)
}

func TestJWTProviderRejectsBadTokens(t *testing.T) {
	provider := NewJWT([]byte("test-secret"))
	ctx := context.Background()

	_, err := provider.VerifyCredential(ctx, "not-a-jwt")
	assert.Error(t, err)

	// A token signed with a different secret fails verification.
	other := NewJWT([]byte("other-secret"))
	token, err := other.Encode("admin-user")
	require.NoError(t, err)

	_, err = provider.VerifyCredential(ctx, token)
	assert.Error(t, err)
}

func TestJWTProviderRequiresSubject(t *testing.T) {
	provider := NewJWT([]byte("test-secret"))

	token, err := provider.Encode("")
	require.NoError(t, err)

	_, err = provider.VerifyCredential(context.Background(), token)
	assert.Error(t, err)
}

func TestStaticProvider(t *testing.T) {
	provider := NewStatic(map[string]string{"token-a": "subject-a"})
	ctx := context.Background()

	id, err := provider.VerifyCredential(ctx, "token-a")
	require.NoError(t, err)
	assert.Equal(t, "subject-a", id.SubjectID)

	_, err = provider.VerifyCredential(ctx, "unknown")
	assert.Error(t, err)

	provider.Register("token-b", "subject-b")
	id, err = provider.VerifyCredential(ctx, "token-b")
	require.NoError(t, err)
	assert.Equal(t, "subject-b", id.SubjectID)
}
