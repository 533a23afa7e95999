package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/tendant/simple-blog/pkg/simpleblog"
)

// ErrorResponse is the error body for every failed request
type ErrorResponse struct {
	Error string `json:"error"`
}

// statusFor maps domain errors onto HTTP status codes. Ordering matters:
// authentication is reported before authorization.
func statusFor(err error) int {
	var validationErr *simpleblog.ValidationError
	var danglingErr *simpleblog.DanglingReferenceError

	switch {
	case errors.Is(err, simpleblog.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, simpleblog.ErrForbidden):
		return http.StatusForbidden
	case errors.As(err, &validationErr),
		errors.As(err, &danglingErr),
		errors.Is(err, simpleblog.ErrDuplicateCategoryName):
		return http.StatusBadRequest
	case errors.Is(err, simpleblog.ErrPostNotFound),
		errors.Is(err, simpleblog.ErrCategoryNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders the {"error": message} shape. Internal detail is logged
// but never leaks into 5xx bodies.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)

	message := err.Error()
	if status == http.StatusInternalServerError {
		slog.Error("Request failed", "path", r.URL.Path, "error", err)
		message = "unexpected error"
	}

	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: message})
}
