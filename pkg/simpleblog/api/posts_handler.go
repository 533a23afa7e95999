package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/tendant/simple-blog/pkg/simpleblog"
)

// PostsHandler handles HTTP requests for posts
type PostsHandler struct {
	service simpleblog.Service
}

// NewPostsHandler creates a new posts handler
func NewPostsHandler(service simpleblog.Service) *PostsHandler {
	return &PostsHandler{service: service}
}

// Routes returns the open, read-only routes for posts
func (h *PostsHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListPosts)
	r.Get("/{id}", h.GetPost)

	return r
}

// AdminRoutes returns the mutating routes. Authorization runs inside the
// service per request, so no route-level gate is needed here.
func (h *PostsHandler) AdminRoutes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.CreatePost)
	r.Put("/{id}", h.UpdatePost)
	r.Delete("/{id}", h.DeletePost)
	r.Post("/bulk-delete", h.BulkDeletePosts)

	return r
}

// CreatePostRequest is the request body for creating a post. CoverImage is
// base64-encoded raw bytes; CoverImageKey is a key returned by the images
// endpoint. At most one of the two may be set.
type CreatePostRequest struct {
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	CoverImage    []byte   `json:"cover_image,omitempty"`
	CoverImageKey string   `json:"cover_image_key,omitempty"`
	CategoryIDs   []string `json:"category_ids"`
}

// UpdatePostRequest is the request body for updating a post
type UpdatePostRequest struct {
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	CoverImageKey string   `json:"cover_image_key,omitempty"`
	CategoryIDs   []string `json:"category_ids"`
}

// BulkDeleteRequest is the request body for bulk-deleting posts
type BulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

// BulkDeleteResponse reports which ids were deleted before any failure
type BulkDeleteResponse struct {
	Deleted []uuid.UUID `json:"deleted"`
	Error   string      `json:"error,omitempty"`
}

func parseIDs(raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ListPosts lists all posts, newest first
func (h *PostsHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.service.ListPosts(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.JSON(w, r, posts)
}

// GetPost returns a single post
func (h *PostsHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "invalid post id"})
		return
	}

	post, err := h.service.GetPost(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.JSON(w, r, post)
}

// CreatePost creates a new post
func (h *PostsHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var req CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "invalid request body"})
		return
	}

	categoryIDs, err := parseIDs(req.CategoryIDs)
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "invalid category id"})
		return
	}

	post, err := h.service.CreatePost(r.Context(), r.Header.Get("Authorization"), simpleblog.CreatePostRequest{
		Title:         req.Title,
		Content:       req.Content,
		CoverImage:    req.CoverImage,
		CoverImageKey: req.CoverImageKey,
		CategoryIDs:   categoryIDs,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("Post created", "post_id", post.ID.String())
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, post)
}

// UpdatePost updates a post's metadata and tag set
func (h *PostsHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "invalid post id"})
		return
	}

	var req UpdatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "invalid request body"})
		return
	}

	categoryIDs, err := parseIDs(req.CategoryIDs)
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "invalid category id"})
		return
	}

	post, err := h.service.UpdatePost(r.Context(), r.Header.Get("Authorization"), simpleblog.UpdatePostRequest{
		ID:            id,
		Title:         req.Title,
		Content:       req.Content,
		CoverImageKey: req.CoverImageKey,
		CategoryIDs:   categoryIDs,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.JSON(w, r, post)
}

// DeletePost deletes a post and its tag associations
func (h *PostsHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "invalid post id"})
		return
	}

	post, err := h.service.DeletePost(r.Context(), r.Header.Get("Authorization"), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("Post deleted", "post_id", id.String())
	render.JSON(w, r, map[string]string{"msg": "deleted post \"" + post.Title + "\""})
}

// BulkDeletePosts deletes the requested ids sequentially, stopping at the
// first failure. Completed deletions are reported alongside any error.
func (h *PostsHandler) BulkDeletePosts(w http.ResponseWriter, r *http.Request) {
	var req BulkDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "invalid request body"})
		return
	}

	ids, err := parseIDs(req.IDs)
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "invalid post id"})
		return
	}

	result, err := h.service.BulkDeletePosts(r.Context(), r.Header.Get("Authorization"), ids)
	if err != nil {
		resp := BulkDeleteResponse{Error: err.Error()}
		if result != nil {
			resp.Deleted = result.Deleted
		}
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			slog.Error("Bulk delete failed", "error", err)
			resp.Error = "unexpected error"
		}
		render.Status(r, status)
		render.JSON(w, r, resp)
		return
	}

	render.JSON(w, r, BulkDeleteResponse{Deleted: result.Deleted})
}
