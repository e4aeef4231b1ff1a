package api

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"edms/m/domain"
)

func (h *Handler) getCompanyProfile(w http.ResponseWriter, r *http.Request) {
	var profile domain.CompanyProfile
	err := h.db.Get(&profile, `SELECT * FROM company_profile WHERE id = 1`)
	if errors.Is(err, sql.ErrNoRows) {
		respondError(w, http.StatusNotFound, "company profile has not been set up")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load company profile")
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

func (h *Handler) putCompanyProfile(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, RoleAdmin) {
		return
	}
	var req struct {
		CompanyName  string `json:"company_name"`
		AddressLine1 string `json:"address_line1,omitempty"`
		AddressLine2 string `json:"address_line2,omitempty"`
		City         string `json:"city,omitempty"`
		State        string `json:"state,omitempty"`
		ZipCode      string `json:"zip_code,omitempty"`
		Phone        string `json:"phone,omitempty"`
		Email        string `json:"email,omitempty"`
		Website      string `json:"website,omitempty"`
		Notes        string `json:"notes,omitempty"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.CompanyName) == "" {
		respondError(w, http.StatusBadRequest, "company_name is required")
		return
	}

	uid := currentUser(r)
	_, err := h.db.Exec(`INSERT INTO company_profile (id, company_name, address_line1, address_line2, city, state, zip_code, phone, email, website, notes, created_by, modified_by)
        VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
        ON CONFLICT(id) DO UPDATE SET
            company_name = excluded.company_name,
            address_line1 = excluded.address_line1,
            address_line2 = excluded.address_line2,
            city = excluded.city,
            state = excluded.state,
            zip_code = excluded.zip_code,
            phone = excluded.phone,
            email = excluded.email,
            website = excluded.website,
            notes = excluded.notes,
            modified_date = CURRENT_TIMESTAMP,
            modified_by = excluded.modified_by`,
		strings.TrimSpace(req.CompanyName), nullIfEmpty(req.AddressLine1), nullIfEmpty(req.AddressLine2),
		nullIfEmpty(req.City), nullIfEmpty(req.State), nullIfEmpty(req.ZipCode), nullIfEmpty(req.Phone),
		nullIfEmpty(req.Email), nullIfEmpty(req.Website), nullIfEmpty(req.Notes), uid)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to save company profile")
		return
	}

	var profile domain.CompanyProfile
	if err := h.db.Get(&profile, `SELECT * FROM company_profile WHERE id = 1`); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load company profile")
		return
	}
	respondJSON(w, http.StatusOK, profile)
}
