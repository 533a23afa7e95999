// Package api exposes the simpleblog service over HTTP: an open read surface
// for posts and categories, and admin-gated mutation routes. Mutating
// requests carry a bearer credential in the Authorization header; the service
// runs the authorization guard per request.
package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/tendant/simple-blog/pkg/simpleblog"
)

// Router assembles the full HTTP surface for the service.
func Router(service simpleblog.Service) chi.Router {
	posts := NewPostsHandler(service)
	categories := NewCategoriesHandler(service)
	images := NewImagesHandler(service)

	r := chi.NewRouter()
	r.Mount("/posts", posts.Routes())
	r.Mount("/categories", categories.Routes())
	r.Route("/admin", func(r chi.Router) {
		r.Mount("/posts", posts.AdminRoutes())
		r.Mount("/categories", categories.AdminRoutes())
		r.Mount("/images", images.AdminRoutes())
	})

	return r
}
