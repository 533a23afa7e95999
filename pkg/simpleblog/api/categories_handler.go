package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/tendant/simple-blog/pkg/simpleblog"
)

// CategoriesHandler handles HTTP requests for categories
type CategoriesHandler struct {
	service simpleblog.Service
}

// NewCategoriesHandler creates a new categories handler
func NewCategoriesHandler(service simpleblog.Service) *CategoriesHandler {
	return &CategoriesHandler{service: service}
}

// Routes returns the open, read-only routes for categories
func (h *CategoriesHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListCategories)
	r.Get("/{id}", h.GetCategory)

	return r
}

// AdminRoutes returns the mutating routes for categories
func (h *CategoriesHandler) AdminRoutes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.CreateCategory)
	r.Put("/{id}", h.UpdateCategory)
	r.Delete("/{id}", h.DeleteCategory)

	return r
}

// CategoryRequest is the request body for creating or renaming a category
type CategoryRequest struct {
	Name string `json:"name"`
}

// ListCategories lists all categories
func (h *CategoriesHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.JSON(w, r, categories)
}

// GetCategory returns a single category
func (h *CategoriesHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "invalid category id"})
		return
	}

	category, err := h.service.GetCategory(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.JSON(w, r, category)
}

// CreateCategory creates a new category
func (h *CategoriesHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "invalid request body"})
		return
	}

	category, err := h.service.CreateCategory(r.Context(), r.Header.Get("Authorization"), simpleblog.CreateCategoryRequest{
		Name: req.Name,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("Category created", "category_id", category.ID.String(), "name", category.Name)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, category)
}

// UpdateCategory renames a category
func (h *CategoriesHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "invalid category id"})
		return
	}

	var req CategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "invalid request body"})
		return
	}

	category, err := h.service.UpdateCategory(r.Context(), r.Header.Get("Authorization"), simpleblog.UpdateCategoryRequest{
		ID:   id,
		Name: req.Name,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.JSON(w, r, category)
}

// DeleteCategory deletes a category, detaching it from every post
func (h *CategoriesHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "invalid category id"})
		return
	}

	category, err := h.service.DeleteCategory(r.Context(), r.Header.Get("Authorization"), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("Category deleted", "category_id", id.String(), "name", category.Name)
	render.JSON(w, r, map[string]string{"msg": fmt.Sprintf("deleted category %q", category.Name)})
}
