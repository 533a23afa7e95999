package simpleblog

import (
	"time"

	"github.com/google/uuid"
)

// Post is a blog post managed through the admin panel.
//
// CoverImageKey, when set, is a content-addressed object key produced by
// CoverImageStore; the bytes it points at live independently of the post and
// may be shared by any number of posts.
type Post struct {
	ID            uuid.UUID   `json:"id"`
	Title         string      `json:"title"`
	Content       string      `json:"content"`
	CoverImageKey string      `json:"cover_image_key,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
	Categories    []*Category `json:"categories"`
}

// Category is a label attached to zero or more posts.
type Category struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Identity is the caller resolved from a bearer credential. It is never
// persisted by this library.
type Identity struct {
	SubjectID string `json:"subject_id"`
}

// Profile carries the elevated-privilege flag for a subject. Profiles are
// maintained by the identity side of the system; this library only reads them.
type Profile struct {
	SubjectID string    `json:"subject_id"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
