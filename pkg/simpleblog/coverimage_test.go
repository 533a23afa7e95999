package simpleblog_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-blog/pkg/simpleblog"
	memorystorage "github.com/tendant/simple-blog/pkg/simpleblog/storage/memory"
)

func TestCoverImageKey(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{
			name: "known digest",
			data: []byte("abc"),
			want: "private/900150983cd24fb0d6963f7d28e17f72",
		},
		{
			name: "empty content hashes like any other",
			data: []byte{},
			want: "private/d41d8cd98f00b204e9800998ecf8427e",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, simpleblog.CoverImageKey(tt.data))
			// Stable across calls.
			assert.Equal(t, simpleblog.CoverImageKey(tt.data), simpleblog.CoverImageKey(tt.data))
		})
	}
}

func TestCoverImageStorePutIsIdempotent(t *testing.T) {
	ctx := context.Background()
	backend := memorystorage.New()
	store := simpleblog.NewCoverImageStore("memory", backend)

	key1, err := store.Put(ctx, []byte("abc"))
	require.NoError(t, err)
	key2, err := store.Put(ctx, []byte("abc"))
	require.NoError(t, err)

	assert.Equal(t, key1, key2)
	assert.Equal(t, "private/900150983cd24fb0d6963f7d28e17f72", key1)
	assert.Equal(t, 1, backend.Len(), "double put must leave exactly one object")

	// Different bytes get a different key.
	key3, err := store.Put(ctx, []byte("abd"))
	require.NoError(t, err)
	assert.NotEqual(t, key1, key3)
	assert.Equal(t, 2, backend.Len())
}

func TestCoverImageStorePutEmpty(t *testing.T) {
	ctx := context.Background()
	backend := memorystorage.New()
	store := simpleblog.NewCoverImageStore("memory", backend)

	key, err := store.Put(ctx, []byte{})
	require.NoError(t, err)
	assert.Equal(t, "private/d41d8cd98f00b204e9800998ecf8427e", key)

	rc, err := backend.Download(ctx, key)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestCoverImageStorePutFailure(t *testing.T) {
	ctx := context.Background()
	store := simpleblog.NewCoverImageStore("broken", &failingBlobStore{})

	_, err := store.Put(ctx, []byte("abc"))
	require.Error(t, err)
	assert.ErrorIs(t, err, simpleblog.ErrUploadFailed)

	var storageErr *simpleblog.StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "broken", storageErr.Backend)
	assert.Equal(t, "upload", storageErr.Op)
}

// failingBlobStore fails every write, for exercising storage error paths.
type failingBlobStore struct{}

func (f *failingBlobStore) Upload(ctx context.Context, objectKey string, reader io.Reader) error {
	return errors.New("backend unavailable")
}

func (f *failingBlobStore) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	return nil, errors.New("backend unavailable")
}

func (f *failingBlobStore) Delete(ctx context.Context, objectKey string) error {
	return errors.New("backend unavailable")
}

func (f *failingBlobStore) GetObjectMeta(ctx context.Context, objectKey string) (*simpleblog.ObjectMeta, error) {
	return nil, errors.New("backend unavailable")
}

func (f *failingBlobStore) PublicURL(objectKey string) (string, error) {
	return "", errors.New("backend unavailable")
}
