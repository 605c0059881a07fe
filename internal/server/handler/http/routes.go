// Package http provides HTTP routing and middleware configuration
// for the form wizard service.
package http

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/mkrivosheev/formflow/internal/middleware"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter constructs and returns an HTTP handler that serves
// the form wizard API.
//
// Routes:
//
//	GET  /api/form           → formHandler.Fetch (fetch-or-create)
//	POST /api/form/personal  → formHandler.SavePersonal
//	POST /api/form/education → formHandler.SaveEducation
//	POST /api/form/projects  → formHandler.SaveProjects
//	POST /api/form/submit    → formHandler.Submit
//
// Middleware chain (applied in order):
//  1. AllowContentType("application/json") — rejects non-JSON bodies
//  2. WithRequestLogging(logger)           — logs incoming requests
func NewRouter(formHandler *FormHandler, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Only allow requests with Content-Type: application/json.
	// Bodyless requests like the fetch GET pass through unchecked.
	r.Use(chiMiddleware.AllowContentType("application/json"))

	// Log each request and its metadata
	r.Use(middleware.WithRequestLogging(logger))

	// Mount API routes
	r.Route("/api/form", func(r chi.Router) {
		r.Get("/", formHandler.Fetch)
		r.Post("/personal", formHandler.SavePersonal)
		r.Post("/education", formHandler.SaveEducation)
		r.Post("/projects", formHandler.SaveProjects)
		r.Post("/submit", formHandler.Submit)
	})

	return r
}
