package api

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/tendant/simple-blog/pkg/simpleblog"
)

// maxUploadSize caps cover image uploads.
const maxUploadSize = 10 << 20 // 10MB

// ImagesHandler handles cover image uploads
type ImagesHandler struct {
	service simpleblog.Service
}

// NewImagesHandler creates a new images handler
func NewImagesHandler(service simpleblog.Service) *ImagesHandler {
	return &ImagesHandler{service: service}
}

// AdminRoutes returns the upload route
func (h *ImagesHandler) AdminRoutes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.StoreCoverImage)

	return r
}

// StoreCoverImage reads raw image bytes from the request body, stores them
// under their content-addressed key, and returns the key with its public URL.
// Re-uploading identical bytes returns the same key.
func (h *ImagesHandler) StoreCoverImage(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadSize))
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "failed to read upload body"})
		return
	}

	stored, err := h.service.StoreCoverImage(r.Context(), r.Header.Get("Authorization"), data)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("Cover image stored", "key", stored.Key, "size", len(data))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, stored)
}
