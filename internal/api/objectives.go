package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/questlog/internal/models"
)

// CreateObjective handles POST /api/quests/{id}/objectives.
//
//	@Summary		Append an objective to a quest
//	@Tags			objectives
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Quest id"
//	@Param			body	body		CreateObjectiveRequest	true	"Objective"
//	@Success		201		{object}	models.Objective
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/quests/{id}/objectives [post]
func (h *Handler) CreateObjective(w http.ResponseWriter, r *http.Request) {
	var req CreateObjectiveRequest
	if !decodeBody(w, r, &req) {
		return
	}
	o, err := h.svc.CreateObjective(r.Context(), chi.URLParam(r, "id"), req.Text)
	if err != nil {
		writeError(w, "create objective", err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

// ReorderObjectives handles PUT /api/quests/{id}/objectives.
//
//	@Summary		Reorder a quest's objectives
//	@Tags			objectives
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Quest id"
//	@Param			body	body		ReorderRequest	true	"Every objective id in the new order"
//	@Success		200		{array}		models.Objective
//	@Failure		404		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/quests/{id}/objectives [put]
func (h *Handler) ReorderObjectives(w http.ResponseWriter, r *http.Request) {
	var req ReorderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	objs, err := h.svc.ReorderObjectives(r.Context(), chi.URLParam(r, "id"), req.IDs)
	if err != nil {
		writeError(w, "reorder objectives", err)
		return
	}
	if objs == nil {
		objs = []models.Objective{}
	}
	writeJSON(w, http.StatusOK, objs)
}

// UpdateObjective handles PATCH /api/objectives/{id}.
//
//	@Summary		Edit an objective's text or completion
//	@Tags			objectives
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Objective id"
//	@Param			body	body		UpdateObjectiveRequest	true	"Fields to change"
//	@Success		200		{object}	models.Objective
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/objectives/{id} [patch]
func (h *Handler) UpdateObjective(w http.ResponseWriter, r *http.Request) {
	var req UpdateObjectiveRequest
	if !decodeBody(w, r, &req) {
		return
	}
	o, err := h.svc.UpdateObjective(r.Context(), chi.URLParam(r, "id"), models.ObjectivePatch{
		Text:      req.Text,
		Completed: req.Completed,
	})
	if err != nil {
		writeError(w, "update objective", err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// DeleteObjective handles DELETE /api/objectives/{id}.
//
//	@Summary		Delete an objective
//	@Tags			objectives
//	@Param			id	path	string	true	"Objective id"
//	@Success		204	"Objective deleted"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/objectives/{id} [delete]
func (h *Handler) DeleteObjective(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteObjective(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete objective", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
