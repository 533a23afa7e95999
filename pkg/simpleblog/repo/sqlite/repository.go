package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/tendant/simple-blog/pkg/simpleblog"
)

// Repository implements simpleblog.Repository on a SQLite database. Suitable
// for single-node deployments and development; the postgres repository is the
// production choice.
type Repository struct {
	db *sql.DB
}

// New opens (or creates) the SQLite database at path, ensures the data
// directory exists, and runs schema setup.
func New(path string) (*Repository, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL for concurrent read/write access, busy_timeout so writers wait
	// instead of failing with SQLITE_BUSY, foreign_keys so the association
	// table rejects dangling references at the engine level too.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA foreign_keys=ON;
	`); err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	r := &Repository{db: db}
	if err := r.ensureSchema(); err != nil {
		return nil, err
	}
	return r, nil
}

// Close closes the underlying database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) ensureSchema() error {
	_, err := r.db.Exec(`
CREATE TABLE IF NOT EXISTS posts (
    id              TEXT PRIMARY KEY,
    title           TEXT NOT NULL,
    content         TEXT NOT NULL,
    cover_image_key TEXT NOT NULL DEFAULT '',
    created_at      TIMESTAMP NOT NULL,
    updated_at      TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS categories (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL UNIQUE,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS post_categories (
    post_id     TEXT NOT NULL REFERENCES posts (id),
    category_id TEXT NOT NULL REFERENCES categories (id),
    PRIMARY KEY (post_id, category_id)
);
CREATE TABLE IF NOT EXISTS profiles (
    subject_id TEXT PRIMARY KEY,
    is_admin   INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS posts_created_at_idx ON posts (created_at DESC);
`)
	return err
}

func checkCategoriesExist(ctx context.Context, tx *sql.Tx, categoryIDs []uuid.UUID) error {
	if len(categoryIDs) == 0 {
		return nil
	}

	placeholders := make([]string, len(categoryIDs))
	args := make([]any, len(categoryIDs))
	for i, id := range categoryIDs {
		placeholders[i] = "?"
		args[i] = id.String()
	}

	query := fmt.Sprintf(`SELECT id FROM categories WHERE id IN (%s)`, strings.Join(placeholders, ","))
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("check categories: %w", err)
	}
	defer rows.Close()

	found := make(map[uuid.UUID]bool, len(categoryIDs))
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return fmt.Errorf("check categories: %w", err)
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return fmt.Errorf("check categories: %w", err)
		}
		found[id] = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("check categories: %w", err)
	}

	var missing []uuid.UUID
	for _, id := range categoryIDs {
		if !found[id] {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		sort.Slice(missing, func(i, j int) bool { return missing[i].String() < missing[j].String() })
		return &simpleblog.DanglingReferenceError{CategoryIDs: missing}
	}

	return nil
}

func insertAssociations(ctx context.Context, tx *sql.Tx, postID uuid.UUID, categoryIDs []uuid.UUID) error {
	for _, categoryID := range categoryIDs {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO post_categories (post_id, category_id) VALUES (?, ?)`,
			postID.String(), categoryID.String())
		if err != nil {
			return fmt.Errorf("insert association: %w", err)
		}
	}
	return nil
}

// Post operations

func (r *Repository) CreatePost(ctx context.Context, post *simpleblog.Post, categoryIDs []uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := checkCategoriesExist(ctx, tx, categoryIDs); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO posts (id, title, content, cover_image_key, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		post.ID.String(), post.Title, post.Content, post.CoverImageKey,
		post.CreatedAt, post.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create post: %w", err)
	}

	if err := insertAssociations(ctx, tx, post.ID, categoryIDs); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *Repository) GetPost(ctx context.Context, id uuid.UUID) (*simpleblog.Post, error) {
	var post simpleblog.Post
	var rawID string
	err := r.db.QueryRowContext(ctx, `
		SELECT id, title, content, cover_image_key, created_at, updated_at
		FROM posts WHERE id = ?`, id.String()).Scan(
		&rawID, &post.Title, &post.Content, &post.CoverImageKey,
		&post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, simpleblog.ErrPostNotFound
		}
		return nil, fmt.Errorf("get post: %w", err)
	}
	post.ID = id

	categories, err := r.postCategories(ctx, id)
	if err != nil {
		return nil, err
	}
	post.Categories = categories

	return &post, nil
}

func (r *Repository) postCategories(ctx context.Context, postID uuid.UUID) ([]*simpleblog.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.name, c.created_at, c.updated_at
		FROM post_categories pc
		JOIN categories c ON c.id = pc.category_id
		WHERE pc.post_id = ?
		ORDER BY c.name`, postID.String())
	if err != nil {
		return nil, fmt.Errorf("get post categories: %w", err)
	}
	defer rows.Close()

	return scanCategories(rows)
}

func scanCategories(rows *sql.Rows) ([]*simpleblog.Category, error) {
	categories := make([]*simpleblog.Category, 0)
	for rows.Next() {
		var c simpleblog.Category
		var rawID string
		if err := rows.Scan(&rawID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		id, err := uuid.Parse(rawID)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.ID = id
		categories = append(categories, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *Repository) UpdatePost(ctx context.Context, post *simpleblog.Post, categoryIDs []uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := checkCategoriesExist(ctx, tx, categoryIDs); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE posts SET title = ?, content = ?, cover_image_key = ?, updated_at = ?
		WHERE id = ?`,
		post.Title, post.Content, post.CoverImageKey, post.UpdatedAt, post.ID.String())
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return simpleblog.ErrPostNotFound
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM post_categories WHERE post_id = ?`, post.ID.String())
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}

	if err := insertAssociations(ctx, tx, post.ID, categoryIDs); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *Repository) DeletePost(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `DELETE FROM post_categories WHERE post_id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return simpleblog.ErrPostNotFound
	}

	return tx.Commit()
}

func (r *Repository) ListPosts(ctx context.Context) ([]*simpleblog.Post, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, content, cover_image_key, created_at, updated_at
		FROM posts ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	posts := make([]*simpleblog.Post, 0)
	byID := make(map[uuid.UUID]*simpleblog.Post)
	for rows.Next() {
		var p simpleblog.Post
		var rawID string
		if err := rows.Scan(&rawID, &p.Title, &p.Content, &p.CoverImageKey, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("list posts: %w", err)
		}
		id, err := uuid.Parse(rawID)
		if err != nil {
			return nil, fmt.Errorf("list posts: %w", err)
		}
		p.ID = id
		p.Categories = make([]*simpleblog.Category, 0)
		posts = append(posts, &p)
		byID[id] = &p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	assocRows, err := r.db.QueryContext(ctx, `
		SELECT pc.post_id, c.id, c.name, c.created_at, c.updated_at
		FROM post_categories pc
		JOIN categories c ON c.id = pc.category_id
		ORDER BY c.name`)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer assocRows.Close()

	for assocRows.Next() {
		var rawPostID, rawCategoryID string
		var c simpleblog.Category
		if err := assocRows.Scan(&rawPostID, &rawCategoryID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("list posts: %w", err)
		}
		postID, err := uuid.Parse(rawPostID)
		if err != nil {
			return nil, fmt.Errorf("list posts: %w", err)
		}
		categoryID, err := uuid.Parse(rawCategoryID)
		if err != nil {
			return nil, fmt.Errorf("list posts: %w", err)
		}
		c.ID = categoryID
		if p, ok := byID[postID]; ok {
			p.Categories = append(p.Categories, &c)
		}
	}
	if err := assocRows.Err(); err != nil {
		return nil, err
	}

	return posts, nil
}

// Category operations

func (r *Repository) CreateCategory(ctx context.Context, category *simpleblog.Category) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO categories (id, name, created_at, updated_at)
		VALUES (?, ?, ?, ?)`,
		category.ID.String(), category.Name, category.CreatedAt, category.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return simpleblog.ErrDuplicateCategoryName
		}
		return fmt.Errorf("create category: %w", err)
	}

	return nil
}

func (r *Repository) GetCategory(ctx context.Context, id uuid.UUID) (*simpleblog.Category, error) {
	var category simpleblog.Category
	var rawID string
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, created_at, updated_at
		FROM categories WHERE id = ?`, id.String()).Scan(
		&rawID, &category.Name, &category.CreatedAt, &category.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, simpleblog.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	category.ID = id

	return &category, nil
}

func (r *Repository) UpdateCategory(ctx context.Context, category *simpleblog.Category) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE categories SET name = ?, updated_at = ? WHERE id = ?`,
		category.Name, category.UpdatedAt, category.ID.String())
	if err != nil {
		if isUniqueViolation(err) {
			return simpleblog.ErrDuplicateCategoryName
		}
		return fmt.Errorf("update category: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return simpleblog.ErrCategoryNotFound
	}

	return nil
}

func (r *Repository) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `DELETE FROM post_categories WHERE category_id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return simpleblog.ErrCategoryNotFound
	}

	return tx.Commit()
}

func (r *Repository) ListCategories(ctx context.Context) ([]*simpleblog.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, created_at, updated_at
		FROM categories ORDER BY created_at, name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	return scanCategories(rows)
}

// Association operations

func (r *Repository) ReplacePostCategories(ctx context.Context, postID uuid.UUID, categoryIDs []uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists string
	err = tx.QueryRowContext(ctx, `SELECT id FROM posts WHERE id = ?`, postID.String()).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return simpleblog.ErrPostNotFound
		}
		return fmt.Errorf("replace post categories: %w", err)
	}

	if err := checkCategoriesExist(ctx, tx, categoryIDs); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM post_categories WHERE post_id = ?`, postID.String())
	if err != nil {
		return fmt.Errorf("replace post categories: %w", err)
	}

	if err := insertAssociations(ctx, tx, postID, categoryIDs); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *Repository) DetachCategory(ctx context.Context, categoryID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM post_categories WHERE category_id = ?`, categoryID.String())
	if err != nil {
		return fmt.Errorf("detach category: %w", err)
	}

	return nil
}

// Profile operations

func (r *Repository) GetProfile(ctx context.Context, subjectID string) (*simpleblog.Profile, error) {
	var profile simpleblog.Profile
	var isAdmin int
	err := r.db.QueryRowContext(ctx, `
		SELECT subject_id, is_admin, created_at, updated_at
		FROM profiles WHERE subject_id = ?`, subjectID).Scan(
		&profile.SubjectID, &isAdmin, &profile.CreatedAt, &profile.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("no profile for subject %s", subjectID)
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	profile.IsAdmin = isAdmin != 0

	return &profile, nil
}

func (r *Repository) UpsertProfile(ctx context.Context, profile *simpleblog.Profile) error {
	now := time.Now().UTC()
	isAdmin := 0
	if profile.IsAdmin {
		isAdmin = 1
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO profiles (subject_id, is_admin, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (subject_id) DO UPDATE SET is_admin = excluded.is_admin, updated_at = excluded.updated_at`,
		profile.SubjectID, isAdmin, now, now)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}

	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
