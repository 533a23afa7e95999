package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tendant/simple-blog/pkg/simpleblog"
)

// Repository implements simpleblog.Repository using PostgreSQL. Association
// mutations run inside transactions so a replace either commits whole or
// leaves the prior set untouched.
type Repository struct {
	pool *pgxpool.Pool
}

// NewWithPool creates a new PostgreSQL repository with a connection pool
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// handlePostgresError maps driver errors onto the domain taxonomy.
func handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			if strings.Contains(pgErr.ConstraintName, "categories_name") {
				return simpleblog.ErrDuplicateCategoryName
			}
			return fmt.Errorf("duplicate entry in %s", operation)
		case "23503": // foreign_key_violation
			// Backstop only: callers pre-check category ids inside the same
			// transaction so the offending ids can be named.
			return &simpleblog.DanglingReferenceError{}
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing", pgErr.ColumnName)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

// checkCategoriesExist verifies every id in categoryIDs has a category row,
// returning *DanglingReferenceError naming the missing ones. Runs on the
// supplied tx so the check and the insert see the same snapshot.
func checkCategoriesExist(ctx context.Context, tx pgx.Tx, categoryIDs []uuid.UUID) error {
	if len(categoryIDs) == 0 {
		return nil
	}

	rows, err := tx.Query(ctx, `SELECT id FROM categories WHERE id = ANY($1)`, categoryIDs)
	if err != nil {
		return handlePostgresError("check categories", err)
	}
	defer rows.Close()

	found := make(map[uuid.UUID]bool, len(categoryIDs))
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return handlePostgresError("check categories", err)
		}
		found[id] = true
	}
	if err := rows.Err(); err != nil {
		return handlePostgresError("check categories", err)
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

func insertAssociations(ctx context.Context, tx pgx.Tx, postID uuid.UUID, categoryIDs []uuid.UUID) error {
	for _, categoryID := range categoryIDs {
		_, err := tx.Exec(ctx,
			`INSERT INTO post_categories (post_id, category_id) VALUES ($1, $2)`,
			postID, categoryID)
		if err != nil {
			return handlePostgresError("insert association", err)
		}
	}
	return nil
}

// Post operations

func (r *Repository) CreatePost(ctx context.Context, post *simpleblog.Post, categoryIDs []uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return handlePostgresError("create post", err)
	}
	defer tx.Rollback(ctx)

	if err := checkCategoriesExist(ctx, tx, categoryIDs); err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO posts (id, title, content, cover_image_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		post.ID, post.Title, post.Content, post.CoverImageKey, post.CreatedAt, post.UpdatedAt)
	if err != nil {
		return handlePostgresError("create post", err)
	}

	if err := insertAssociations(ctx, tx, post.ID, categoryIDs); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *Repository) GetPost(ctx context.Context, id uuid.UUID) (*simpleblog.Post, error) {
	var post simpleblog.Post
	err := r.pool.QueryRow(ctx, `
		SELECT id, title, content, cover_image_key, created_at, updated_at
		FROM posts WHERE id = $1`, id).Scan(
		&post.ID, &post.Title, &post.Content, &post.CoverImageKey,
		&post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, simpleblog.ErrPostNotFound
		}
		return nil, handlePostgresError("get post", err)
	}

	categories, err := r.postCategories(ctx, id)
	if err != nil {
		return nil, err
	}
	post.Categories = categories

	return &post, nil
}

func (r *Repository) postCategories(ctx context.Context, postID uuid.UUID) ([]*simpleblog.Category, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT c.id, c.name, c.created_at, c.updated_at
		FROM post_categories pc
		JOIN categories c ON c.id = pc.category_id
		WHERE pc.post_id = $1
		ORDER BY c.name`, postID)
	if err != nil {
		return nil, handlePostgresError("get post categories", err)
	}
	defer rows.Close()

	categories := make([]*simpleblog.Category, 0)
	for rows.Next() {
		var c simpleblog.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, handlePostgresError("get post categories", err)
		}
		categories = append(categories, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, handlePostgresError("get post categories", err)
	}

	return categories, nil
}

func (r *Repository) UpdatePost(ctx context.Context, post *simpleblog.Post, categoryIDs []uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return handlePostgresError("update post", err)
	}
	defer tx.Rollback(ctx)

	if err := checkCategoriesExist(ctx, tx, categoryIDs); err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE posts SET title = $2, content = $3, cover_image_key = $4, updated_at = $5
		WHERE id = $1`,
		post.ID, post.Title, post.Content, post.CoverImageKey, post.UpdatedAt)
	if err != nil {
		return handlePostgresError("update post", err)
	}
	if tag.RowsAffected() == 0 {
		return simpleblog.ErrPostNotFound
	}

	_, err = tx.Exec(ctx, `DELETE FROM post_categories WHERE post_id = $1`, post.ID)
	if err != nil {
		return handlePostgresError("update post", err)
	}

	if err := insertAssociations(ctx, tx, post.ID, categoryIDs); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *Repository) DeletePost(ctx context.Context, id uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return handlePostgresError("delete post", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `DELETE FROM post_categories WHERE post_id = $1`, id)
	if err != nil {
		return handlePostgresError("delete post", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return handlePostgresError("delete post", err)
	}
	if tag.RowsAffected() == 0 {
		return simpleblog.ErrPostNotFound
	}

	return tx.Commit(ctx)
}

func (r *Repository) ListPosts(ctx context.Context) ([]*simpleblog.Post, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, title, content, cover_image_key, created_at, updated_at
		FROM posts ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, handlePostgresError("list posts", err)
	}
	defer rows.Close()

	posts := make([]*simpleblog.Post, 0)
	byID := make(map[uuid.UUID]*simpleblog.Post)
	for rows.Next() {
		var p simpleblog.Post
		if err := rows.Scan(&p.ID, &p.Title, &p.Content, &p.CoverImageKey, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, handlePostgresError("list posts", err)
		}
		p.Categories = make([]*simpleblog.Category, 0)
		posts = append(posts, &p)
		byID[p.ID] = &p
	}
	if err := rows.Err(); err != nil {
		return nil, handlePostgresError("list posts", err)
	}

	// One pass over the join table instead of a query per post.
	assocRows, err := r.pool.Query(ctx, `
		SELECT pc.post_id, c.id, c.name, c.created_at, c.updated_at
		FROM post_categories pc
		JOIN categories c ON c.id = pc.category_id
		ORDER BY c.name`)
	if err != nil {
		return nil, handlePostgresError("list posts", err)
	}
	defer assocRows.Close()

	for assocRows.Next() {
		var postID uuid.UUID
		var c simpleblog.Category
		if err := assocRows.Scan(&postID, &c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, handlePostgresError("list posts", err)
		}
		if p, ok := byID[postID]; ok {
			p.Categories = append(p.Categories, &c)
		}
	}
	if err := assocRows.Err(); err != nil {
		return nil, handlePostgresError("list posts", err)
	}

	return posts, nil
}

// Category operations

func (r *Repository) CreateCategory(ctx context.Context, category *simpleblog.Category) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO categories (id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4)`,
		category.ID, category.Name, category.CreatedAt, category.UpdatedAt)
	if err != nil {
		return handlePostgresError("create category", err)
	}

	return nil
}

func (r *Repository) GetCategory(ctx context.Context, id uuid.UUID) (*simpleblog.Category, error) {
	var category simpleblog.Category
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, created_at, updated_at
		FROM categories WHERE id = $1`, id).Scan(
		&category.ID, &category.Name, &category.CreatedAt, &category.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, simpleblog.ErrCategoryNotFound
		}
		return nil, handlePostgresError("get category", err)
	}

	return &category, nil
}

func (r *Repository) UpdateCategory(ctx context.Context, category *simpleblog.Category) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE categories SET name = $2, updated_at = $3 WHERE id = $1`,
		category.ID, category.Name, category.UpdatedAt)
	if err != nil {
		return handlePostgresError("update category", err)
	}
	if tag.RowsAffected() == 0 {
		return simpleblog.ErrCategoryNotFound
	}

	return nil
}

func (r *Repository) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return handlePostgresError("delete category", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `DELETE FROM post_categories WHERE category_id = $1`, id)
	if err != nil {
		return handlePostgresError("delete category", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return handlePostgresError("delete category", err)
	}
	if tag.RowsAffected() == 0 {
		return simpleblog.ErrCategoryNotFound
	}

	return tx.Commit(ctx)
}

func (r *Repository) ListCategories(ctx context.Context) ([]*simpleblog.Category, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, created_at, updated_at
		FROM categories ORDER BY created_at, name`)
	if err != nil {
		return nil, handlePostgresError("list categories", err)
	}
	defer rows.Close()

	categories := make([]*simpleblog.Category, 0)
	for rows.Next() {
		var c simpleblog.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, handlePostgresError("list categories", err)
		}
		categories = append(categories, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, handlePostgresError("list categories", err)
	}

	return categories, nil
}

// Association operations

func (r *Repository) ReplacePostCategories(ctx context.Context, postID uuid.UUID, categoryIDs []uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return handlePostgresError("replace post categories", err)
	}
	defer tx.Rollback(ctx)

	// Row-lock the post so concurrent replaces serialize instead of
	// interleaving their delete/insert pairs.
	var exists uuid.UUID
	err = tx.QueryRow(ctx, `SELECT id FROM posts WHERE id = $1 FOR UPDATE`, postID).Scan(&exists)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return simpleblog.ErrPostNotFound
		}
		return handlePostgresError("replace post categories", err)
	}

	if err := checkCategoriesExist(ctx, tx, categoryIDs); err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `DELETE FROM post_categories WHERE post_id = $1`, postID)
	if err != nil {
		return handlePostgresError("replace post categories", err)
	}

	if err := insertAssociations(ctx, tx, postID, categoryIDs); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *Repository) DetachCategory(ctx context.Context, categoryID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM post_categories WHERE category_id = $1`, categoryID)
	if err != nil {
		return handlePostgresError("detach category", err)
	}

	return nil
}

// Profile operations

func (r *Repository) GetProfile(ctx context.Context, subjectID string) (*simpleblog.Profile, error) {
	var profile simpleblog.Profile
	err := r.pool.QueryRow(ctx, `
		SELECT subject_id, is_admin, created_at, updated_at
		FROM profiles WHERE subject_id = $1`, subjectID).Scan(
		&profile.SubjectID, &profile.IsAdmin, &profile.CreatedAt, &profile.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("no profile for subject %s", subjectID)
		}
		return nil, handlePostgresError("get profile", err)
	}

	return &profile, nil
}

func (r *Repository) UpsertProfile(ctx context.Context, profile *simpleblog.Profile) error {
	now := time.Now().UTC()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO profiles (subject_id, is_admin, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (subject_id) DO UPDATE SET is_admin = $2, updated_at = $4`,
		profile.SubjectID, profile.IsAdmin, now, now)
	if err != nil {
		return handlePostgresError("upsert profile", err)
	}

	return nil
}
