// Package handlers provides HTTP handlers for the Magic Shop storefront.
package handlers

import (
	"html/template"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/arcanum-labs/magicshop/internal/catalog"
	"github.com/arcanum-labs/magicshop/internal/observability"
)

// PublicHandler serves the customer-facing storefront pages.
type PublicHandler struct {
	logger  *observability.Logger
	catalog *catalog.Service
	tmpl    *template.Template
}

// NewPublicHandler creates a new storefront handler.
func NewPublicHandler(logger *observability.Logger, svc *catalog.Service, tmpl *template.Template) *PublicHandler {
	return &PublicHandler{
		logger:  logger.WithComponent("storefront"),
		catalog: svc,
		tmpl:    tmpl,
	}
}

// Index renders the product listing, newest first.
func (h *PublicHandler) Index(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListProducts(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list products")
		h.renderError(w, http.StatusInternalServerError, "The Shop Is Closed", "Something went wrong fetching the wares. Try again shortly.")
		return
	}

	h.render(w, http.StatusOK, "index.html", map[string]any{"Products": products})
}

// Product renders a single product page.
func (h *PublicHandler) Product(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.renderError(w, http.StatusBadRequest, "Bad Request", "That is not a product number.")
		return
	}

	product, err := h.catalog.GetProduct(r.Context(), id)
	if err != nil {
		h.logger.Error().Err(err).Int64("id", id).Msg("Failed to load product")
		h.renderError(w, http.StatusInternalServerError, "The Shop Is Closed", "Something went wrong fetching that item. Try again shortly.")
		return
	}
	if product == nil {
		h.renderError(w, http.StatusNotFound, "Not Found", "No such item on the shelves.")
		return
	}

	h.render(w, http.StatusOK, "product.html", map[string]any{"Product": product})
}

// Health reports service liveness.
func (h *PublicHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"healthy","service":"magicshop"}`))
}

func (h *PublicHandler) render(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.tmpl.ExecuteTemplate(w, name, data); err != nil {
		h.logger.Error().Err(err).Str("template", name).Msg("Template execution failed")
	}
}

func (h *PublicHandler) renderError(w http.ResponseWriter, status int, title, message string) {
	h.render(w, status, "error.html", map[string]any{"Title": title, "Message": message})
}
