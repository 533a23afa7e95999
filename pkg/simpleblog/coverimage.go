package simpleblog

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
)

// CoverImageKeyPrefix is the namespace all cover image objects live under.
const CoverImageKeyPrefix = "private/"

// CoverImageKey returns the content-addressed object key for data. Identical
// bytes always yield the identical key, so the store deduplicates itself.
//
// The digest is MD5 for compatibility with keys already present in existing
// buckets; changing the algorithm would orphan every stored cover image.
func CoverImageKey(data []byte) string {
	sum := md5.Sum(data)
	return CoverImageKeyPrefix + hex.EncodeToString(sum[:])
}

// CoverImageStore stores uploaded cover images under content-addressed keys
// in a BlobStore backend.
type CoverImageStore struct {
	backend     BlobStore
	backendName string
}

// NewCoverImageStore creates a cover image store on top of backend.
func NewCoverImageStore(backendName string, backend BlobStore) *CoverImageStore {
	return &CoverImageStore{
		backend:     backend,
		backendName: backendName,
	}
}

// Put writes data under its content-addressed key and returns the key.
//
// The write is idempotent: a second Put with the same bytes targets the same
// key, and overwriting is safe because the content is byte-identical by
// construction. Empty data is legal and hashes like any other byte sequence.
func (s *CoverImageStore) Put(ctx context.Context, data []byte) (string, error) {
	key := CoverImageKey(data)
	if err := s.backend.Upload(ctx, key, bytes.NewReader(data)); err != nil {
		return "", &StorageError{
			Backend: s.backendName,
			Key:     key,
			Op:      "upload",
			Err:     fmt.Errorf("%w: %v", ErrUploadFailed, err),
		}
	}
	return key, nil
}

// PublicURL resolves key to a publicly fetchable URL.
func (s *CoverImageStore) PublicURL(key string) (string, error) {
	return s.backend.PublicURL(key)
}
