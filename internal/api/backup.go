package api

import (
	"net/http"
)

func (h *Handler) createBackup(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, RoleAdmin) {
		return
	}
	info, err := h.backups.Create(h.db)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "backup failed: "+err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, info)
}

func (h *Handler) listBackups(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, RoleAdmin) {
		return
	}
	infos, err := h.backups.List()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list backups")
		return
	}
	respondJSON(w, http.StatusOK, infos)
}
