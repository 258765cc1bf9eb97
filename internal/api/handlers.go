package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/questlog/internal/models"
	"github.com/starford/questlog/internal/questservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *questservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *questservice.Service) *Handler {
	return &Handler{svc: svc}
}

func queryBool(r *http.Request, key string) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get(key))
	return v
}

// ListQuests handles GET /api/quests.
//
//	@Summary		List quests, open ones first
//	@Tags			quests
//	@Produce		json
//	@Param			active		query		bool	false	"Only active quests"
//	@Param			completed	query		bool	false	"Include completed quests"
//	@Param			domain		query		string	false	"Filter by domain id"
//	@Param			q			query		string	false	"Substring filter on title, goal and notes"
//	@Success		200			{object}	QuestListResponse
//	@Security		BearerAuth
//	@Router			/quests [get]
func (h *Handler) ListQuests(w http.ResponseWriter, r *http.Request) {
	f := models.QuestFilter{
		Domain:        r.URL.Query().Get("domain"),
		ActiveOnly:    queryBool(r, "active"),
		ShowCompleted: queryBool(r, "completed"),
		Query:         r.URL.Query().Get("q"),
	}
	quests, err := h.svc.ListQuests(r.Context(), f)
	if err != nil {
		writeError(w, "list quests", err)
		return
	}
	if quests == nil {
		quests = []models.Quest{}
	}
	writeJSON(w, http.StatusOK, QuestListResponse{Quests: quests, Total: len(quests)})
}

// GetQuest handles GET /api/quests/{id}.
//
//	@Summary		Get a quest with its objectives
//	@Tags			quests
//	@Produce		json
//	@Param			id	path		string	true	"Quest id"
//	@Success		200	{object}	models.QuestWithObjectives
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/quests/{id} [get]
func (h *Handler) GetQuest(w http.ResponseWriter, r *http.Request) {
	q, err := h.svc.GetQuest(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get quest", err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// CreateQuest handles POST /api/quests.
//
//	@Summary		Create a quest and its journal file
//	@Tags			quests
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateQuestRequest	true	"Quest to create"
//	@Success		201		{object}	models.QuestWithObjectives
//	@Failure		400		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/quests [post]
func (h *Handler) CreateQuest(w http.ResponseWriter, r *http.Request) {
	var req CreateQuestRequest
	if !decodeBody(w, r, &req) {
		return
	}
	q, err := h.svc.CreateQuest(r.Context(), req.toNewQuest())
	if err != nil {
		writeError(w, "create quest", err)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

// UpdateQuest handles PATCH /api/quests/{id}.
//
//	@Summary		Partially update a quest
//	@Description	Completing a quest clears active. Renaming moves the journal file.
//	@Tags			quests
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Quest id"
//	@Param			body	body		UpdateQuestRequest	true	"Fields to change"
//	@Success		200		{object}	models.QuestWithObjectives
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/quests/{id} [patch]
func (h *Handler) UpdateQuest(w http.ResponseWriter, r *http.Request) {
	var req UpdateQuestRequest
	if !decodeBody(w, r, &req) {
		return
	}
	q, err := h.svc.UpdateQuest(r.Context(), chi.URLParam(r, "id"), req.toChanges())
	if err != nil {
		writeError(w, "update quest", err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// DeleteQuest handles DELETE /api/quests/{id}.
//
//	@Summary		Delete a quest and its journal file
//	@Tags			quests
//	@Param			id	path	string	true	"Quest id"
//	@Success		204	"Quest deleted"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/quests/{id} [delete]
func (h *Handler) DeleteQuest(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteQuest(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete quest", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across quests
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	QuestListResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	quests, err := h.svc.SearchQuests(r.Context(), q, limit)
	if err != nil {
		writeError(w, "search", err)
		return
	}
	if quests == nil {
		quests = []models.Quest{}
	}
	writeJSON(w, http.StatusOK, QuestListResponse{Quests: quests, Total: len(quests)})
}
