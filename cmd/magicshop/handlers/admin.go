package handlers

import (
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/arcanum-labs/magicshop/internal/catalog"
	"github.com/arcanum-labs/magicshop/internal/domain"
	"github.com/arcanum-labs/magicshop/internal/observability"
)

// AdminHandler serves the proprietor's product creation surface.
type AdminHandler struct {
	logger  *observability.Logger
	catalog *catalog.Service
	tmpl    *template.Template
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(logger *observability.Logger, svc *catalog.Service, tmpl *template.Template) *AdminHandler {
	return &AdminHandler{
		logger:  logger.WithComponent("admin"),
		catalog: svc,
		tmpl:    tmpl,
	}
}

// List renders the inventory table over every committed product.
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListProducts(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list products")
		http.Error(w, "failed to load inventory", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.tmpl.ExecuteTemplate(w, "admin_list.html", map[string]any{"Products": products}); err != nil {
		h.logger.Error().Err(err).Msg("Template execution failed")
	}
}

// Form renders the product creation form.
func (h *AdminHandler) Form(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, map[string]any{})
}

// CreateProduct runs the creation pipeline for the submitted idea and
// redirects to the new product page on success.
func (h *AdminHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, http.StatusBadRequest, map[string]any{"Error": "Could not read the form submission."})
		return
	}

	idea := strings.TrimSpace(r.FormValue("idea"))
	if idea == "" {
		h.render(w, http.StatusBadRequest, map[string]any{"Error": "A product idea is required."})
		return
	}

	product, err := h.catalog.CreateFromIdea(r.Context(), idea)
	if err != nil {
		h.logger.Error().Err(err).Str("idea", idea).Msg("Product creation failed")
		h.render(w, statusForError(err), map[string]any{
			"Error": userMessage(err),
			"Idea":  idea,
		})
		return
	}

	http.Redirect(w, r, fmt.Sprintf("/products/%d", product.ID), http.StatusSeeOther)
}

func (h *AdminHandler) render(w http.ResponseWriter, status int, data map[string]any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.tmpl.ExecuteTemplate(w, "admin_new.html", data); err != nil {
		h.logger.Error().Err(err).Msg("Template execution failed")
	}
}

func statusForError(err error) int {
	if domain.KindOf(err) == domain.KindInvalidArgument {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func userMessage(err error) string {
	switch domain.KindOf(err) {
	case domain.KindAIGeneration:
		return "The conjuring failed partway through. Nothing was saved; try again."
	case domain.KindImageConversion:
		return "The artwork could not be prepared for display. Nothing was saved; try again."
	case domain.KindInvalidArgument:
		return "That idea could not be used as submitted."
	default:
		return "An unexpected mishap interrupted the conjuring. Nothing was saved."
	}
}
