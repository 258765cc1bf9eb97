package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/questlog/internal/models"
)

// ListDomains handles GET /api/domains.
//
//	@Summary		List domains in display order
//	@Tags			domains
//	@Produce		json
//	@Success		200	{array}	models.Domain
//	@Security		BearerAuth
//	@Router			/domains [get]
func (h *Handler) ListDomains(w http.ResponseWriter, r *http.Request) {
	domains, err := h.svc.ListDomains(r.Context())
	if err != nil {
		writeError(w, "list domains", err)
		return
	}
	if domains == nil {
		domains = []models.Domain{}
	}
	writeJSON(w, http.StatusOK, domains)
}

// CreateDomain handles POST /api/domains.
//
//	@Summary		Create a domain
//	@Tags			domains
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateDomainRequest	true	"Domain to create"
//	@Success		201		{object}	models.Domain
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/domains [post]
func (h *Handler) CreateDomain(w http.ResponseWriter, r *http.Request) {
	var req CreateDomainRequest
	if !decodeBody(w, r, &req) {
		return
	}
	d, err := h.svc.CreateDomain(r.Context(), req.Name, req.Color)
	if err != nil {
		writeError(w, "create domain", err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

// ReorderDomains handles PUT /api/domains.
//
//	@Summary		Reorder domains
//	@Tags			domains
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ReorderRequest	true	"Every domain id in the new order"
//	@Success		200		{array}		models.Domain
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/domains [put]
func (h *Handler) ReorderDomains(w http.ResponseWriter, r *http.Request) {
	var req ReorderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	domains, err := h.svc.ReorderDomains(r.Context(), req.IDs)
	if err != nil {
		writeError(w, "reorder domains", err)
		return
	}
	writeJSON(w, http.StatusOK, domains)
}

// UpdateDomain handles PATCH /api/domains/{id}.
//
//	@Summary		Rename or recolor a domain
//	@Tags			domains
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Domain id"
//	@Param			body	body		UpdateDomainRequest	true	"Fields to change"
//	@Success		200		{object}	models.Domain
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/domains/{id} [patch]
func (h *Handler) UpdateDomain(w http.ResponseWriter, r *http.Request) {
	var req UpdateDomainRequest
	if !decodeBody(w, r, &req) {
		return
	}
	d, err := h.svc.UpdateDomain(r.Context(), chi.URLParam(r, "id"), models.DomainPatch{
		Name:  req.Name,
		Color: req.Color,
	})
	if err != nil {
		writeError(w, "update domain", err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// DeleteDomain handles DELETE /api/domains/{id}.
//
//	@Summary		Delete a domain, moving its quests to Personal
//	@Tags			domains
//	@Param			id	path	string	true	"Domain id"
//	@Success		204	"Domain deleted"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/domains/{id} [delete]
func (h *Handler) DeleteDomain(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteDomain(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete domain", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
