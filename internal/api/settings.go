package api

import "net/http"

// GetSettings handles GET /api/settings.
//
//	@Summary		Get preferences
//	@Tags			settings
//	@Produce		json
//	@Success		200	{object}	SettingsResponse
//	@Security		BearerAuth
//	@Router			/settings [get]
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.svc.Settings(r.Context())
	if err != nil {
		writeError(w, "get settings", err)
		return
	}
	writeJSON(w, http.StatusOK, SettingsResponse{Settings: s})
}

// PutSettings handles PUT /api/settings.
//
//	@Summary		Set the journal folder
//	@Description	The folder is imported and watched from then on. The import counts are returned.
//	@Tags			settings
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SettingsRequest	true	"New settings"
//	@Success		200		{object}	SettingsResponse
//	@Failure		400		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/settings [put]
func (h *Handler) PutSettings(w http.ResponseWriter, r *http.Request) {
	var req SettingsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := h.svc.SetJournalFolder(r.Context(), req.JournalFolder)
	if err != nil {
		writeError(w, "set journal folder", err)
		return
	}
	s, err := h.svc.Settings(r.Context())
	if err != nil {
		writeError(w, "get settings", err)
		return
	}
	writeJSON(w, http.StatusOK, SettingsResponse{Settings: s, Import: &res})
}

// Import handles POST /api/import.
//
//	@Summary		Import markdown quest files from a folder
//	@Tags			settings
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ImportRequest	false	"Folder to import, the journal when empty"
//	@Success		200		{object}	journal.ImportResult
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/import [post]
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	var req ImportRequest
	if r.ContentLength != 0 && !decodeBody(w, r, &req) {
		return
	}
	res, err := h.svc.Import(r.Context(), req.Dir)
	if err != nil {
		writeError(w, "import", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
