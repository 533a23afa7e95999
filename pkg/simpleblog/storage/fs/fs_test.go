package fs

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequiresBaseDir(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestUploadDownloadDelete(t *testing.T) {
	baseDir := t.TempDir()
	backend, err := New(Config{BaseDir: baseDir})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, backend.Upload(ctx, "private/abc", bytes.NewReader([]byte("hello"))))

	// The key's slash becomes a directory under the base dir.
	_, err = os.Stat(filepath.Join(baseDir, "private", "abc"))
	require.NoError(t, err)

	rc, err := backend.Download(ctx, "private/abc")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, []byte("hello"), data)

	meta, err := backend.GetObjectMeta(ctx, "private/abc")
	require.NoError(t, err)
	assert.Equal(t, int64(5), meta.Size)

	require.NoError(t, backend.Delete(ctx, "private/abc"))
	_, err = backend.Download(ctx, "private/abc")
	assert.Error(t, err)

	// Deleting a missing object is not an error.
	assert.NoError(t, backend.Delete(ctx, "private/abc"))
}

func TestPublicURL(t *testing.T) {
	backend, err := New(Config{BaseDir: t.TempDir(), URLPrefix: "https://cdn.example.com/covers/"})
	require.NoError(t, err)

	url, err := backend.PublicURL("private/abc")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/covers/private/abc", url)

	noPrefix, err := New(Config{BaseDir: t.TempDir()})
	require.NoError(t, err)
	_, err = noPrefix.PublicURL("private/abc")
	assert.Error(t, err)
}
