package memory

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadDownloadDelete(t *testing.T) {
	backend := New()
	ctx := context.Background()

	require.NoError(t, backend.Upload(ctx, "private/abc", bytes.NewReader([]byte("hello"))))
	assert.Equal(t, 1, backend.Len())

	rc, err := backend.Download(ctx, "private/abc")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, []byte("hello"), data)

	// Upload to the same key overwrites.
	require.NoError(t, backend.Upload(ctx, "private/abc", bytes.NewReader([]byte("world"))))
	assert.Equal(t, 1, backend.Len())

	rc, err = backend.Download(ctx, "private/abc")
	require.NoError(t, err)
	data, err = io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, []byte("world"), data)

	require.NoError(t, backend.Delete(ctx, "private/abc"))
	assert.Equal(t, 0, backend.Len())

	_, err = backend.Download(ctx, "private/abc")
	assert.Error(t, err)
}

func TestGetObjectMeta(t *testing.T) {
	backend := New()
	ctx := context.Background()

	_, err := backend.GetObjectMeta(ctx, "private/missing")
	assert.Error(t, err)

	require.NoError(t, backend.Upload(ctx, "private/abc", bytes.NewReader([]byte("hello"))))

	meta, err := backend.GetObjectMeta(ctx, "private/abc")
	require.NoError(t, err)
	assert.Equal(t, "private/abc", meta.Key)
	assert.Equal(t, int64(5), meta.Size)
	assert.NotEmpty(t, meta.ContentType)
	assert.False(t, meta.UpdatedAt.IsZero())
}

func TestPublicURL(t *testing.T) {
	backend := New()

	url, err := backend.PublicURL("private/abc")
	require.NoError(t, err)
	assert.Equal(t, "memory://private/abc", url)
}
