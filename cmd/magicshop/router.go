// Package main provides the Magic Shop server entrypoint.
package main

import (
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/arcanum-labs/magicshop/cmd/magicshop/handlers"
	"github.com/arcanum-labs/magicshop/internal/catalog"
	"github.com/arcanum-labs/magicshop/internal/config"
	"github.com/arcanum-labs/magicshop/internal/observability"
)

// NewRouter creates the storefront router with all routes configured.
func NewRouter(logger *observability.Logger, cfg *config.Config, svc *catalog.Service, tmpl *template.Template) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	// Image generation alone regularly takes tens of seconds, so the
	// request timeout has to be generous.
	r.Use(chimiddleware.Timeout(5 * time.Minute))

	public := handlers.NewPublicHandler(logger, svc, tmpl)
	admin := handlers.NewAdminHandler(logger, svc, tmpl)

	r.Get("/health", public.Health)
	r.Get("/", public.Index)
	r.Get("/products/{id}", public.Product)

	imageServer := http.StripPrefix("/images/", http.FileServer(http.Dir(cfg.ImageDir())))
	r.Handle("/images/*", imageServer)

	r.Group(func(r chi.Router) {
		if cfg.Admin.Password != "" {
			r.Use(chimiddleware.BasicAuth("magic shop", map[string]string{
				"admin": cfg.Admin.Password,
			}))
		} else {
			logger.Warn().Msg("ADMIN_PASSWORD not set; admin surface is unprotected")
		}
		r.Get("/admin", admin.List)
		r.Get("/admin/new", admin.Form)
		r.Post("/admin/products", admin.CreateProduct)
	})

	return r
}
