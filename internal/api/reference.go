package api

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"edms/m/domain"
)

// Charge codes

type chargeCodeRequest struct {
	Code           string `json:"code"`
	AlternateCode  string `json:"alternate_code,omitempty"`
	Description    string `json:"description"`
	Category       string `json:"category,omitempty"`
	StandardCharge string `json:"standard_charge,omitempty"`
	IsActive       *bool  `json:"is_active,omitempty"`
}

func (req *chargeCodeRequest) validate() (decimal.Decimal, error) {
	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	req.Description = strings.TrimSpace(req.Description)
	if req.Code == "" {
		return decimal.Zero, errors.New("code is required")
	}
	if req.Description == "" {
		return decimal.Zero, errors.New("description is required")
	}
	charge := decimal.Zero
	if strings.TrimSpace(req.StandardCharge) != "" {
		parsed, err := decimal.NewFromString(req.StandardCharge)
		if err != nil || parsed.IsNegative() {
			return decimal.Zero, errors.New("standard_charge must be a non-negative amount")
		}
		charge = parsed
	}
	return charge, nil
}

func (h *Handler) createChargeCode(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, RoleAdmin, RoleStaff) {
		return
	}
	var req chargeCodeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	charge, err := req.validate()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	uid := currentUser(r)
	var id int64
	err = h.db.QueryRowx(`INSERT INTO charge_codes (code, alternate_code, description, category, standard_charge, created_by, modified_by) VALUES ($1, $2, $3, $4, $5, $6, $6) RETURNING charge_code_id`,
		req.Code, nullIfEmpty(req.AlternateCode), req.Description, nullIfEmpty(req.Category), charge, uid).Scan(&id)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			respondError(w, http.StatusConflict, "code already exists")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to create charge code")
		return
	}
	var code domain.ChargeCode
	if err := h.db.Get(&code, `SELECT * FROM charge_codes WHERE charge_code_id = $1`, id); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load created charge code")
		return
	}
	respondJSON(w, http.StatusCreated, code)
}

func (h *Handler) getChargeCode(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid charge code id")
		return
	}
	var code domain.ChargeCode
	err = h.db.Get(&code, `SELECT * FROM charge_codes WHERE charge_code_id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		respondError(w, http.StatusNotFound, "charge code not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load charge code")
		return
	}
	respondJSON(w, http.StatusOK, code)
}

func (h *Handler) listChargeCodes(w http.ResponseWriter, r *http.Request) {
	search := strings.TrimSpace(r.URL.Query().Get("search"))
	activeOnly := r.URL.Query().Get("active_only") != "false"

	query := `SELECT * FROM charge_codes`
	var clauses []string
	var args []any
	if activeOnly {
		clauses = append(clauses, "is_active = 1")
	}
	if search != "" {
		like := "%" + search + "%"
		args = append(args, like)
		n := len(args)
		clauses = append(clauses, fmt.Sprintf(
			"(code LIKE $%d OR alternate_code LIKE $%d OR description LIKE $%d)", n, n, n))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY code"

	codes := []domain.ChargeCode{}
	if err := h.db.Select(&codes, query, args...); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list charge codes")
		return
	}
	respondJSON(w, http.StatusOK, codes)
}

func (h *Handler) updateChargeCode(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, RoleAdmin, RoleStaff) {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid charge code id")
		return
	}
	var req chargeCodeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	charge, err := req.validate()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	res, err := h.db.Exec(`UPDATE charge_codes SET code = $1, alternate_code = $2, description = $3, category = $4, standard_charge = $5, is_active = $6, modified_date = CURRENT_TIMESTAMP, modified_by = $7 WHERE charge_code_id = $8`,
		req.Code, nullIfEmpty(req.AlternateCode), req.Description, nullIfEmpty(req.Category), charge, isActive, currentUser(r), id)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			respondError(w, http.StatusConflict, "code already exists")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to update charge code")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		respondError(w, http.StatusNotFound, "charge code not found")
		return
	}
	var code domain.ChargeCode
	if err := h.db.Get(&code, `SELECT * FROM charge_codes WHERE charge_code_id = $1`, id); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load updated charge code")
		return
	}
	respondJSON(w, http.StatusOK, code)
}

// Locations

type locationRequest struct {
	LocationName string `json:"location_name"`
	Description  string `json:"description,omitempty"`
	IsActive     *bool  `json:"is_active,omitempty"`
}

func (h *Handler) createLocation(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.LocationName) == "" {
		respondError(w, http.StatusBadRequest, "location_name is required")
		return
	}
	uid := currentUser(r)
	var id int64
	err := h.db.QueryRowx(`INSERT INTO locations (location_name, description, created_by, modified_by) VALUES ($1, $2, $3, $3) RETURNING location_id`,
		strings.TrimSpace(req.LocationName), nullIfEmpty(req.Description), uid).Scan(&id)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			respondError(w, http.StatusConflict, "location_name already exists")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to create location")
		return
	}
	var loc domain.Location
	if err := h.db.Get(&loc, `SELECT * FROM locations WHERE location_id = $1`, id); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load created location")
		return
	}
	respondJSON(w, http.StatusCreated, loc)
}

func (h *Handler) listLocations(w http.ResponseWriter, r *http.Request) {
	query := `SELECT * FROM locations`
	if r.URL.Query().Get("active_only") != "false" {
		query += " WHERE is_active = 1"
	}
	query += " ORDER BY location_name"
	locs := []domain.Location{}
	if err := h.db.Select(&locs, query); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list locations")
		return
	}
	respondJSON(w, http.StatusOK, locs)
}

func (h *Handler) updateLocation(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid location id")
		return
	}
	var req locationRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.LocationName) == "" {
		respondError(w, http.StatusBadRequest, "location_name is required")
		return
	}
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}
	res, err := h.db.Exec(`UPDATE locations SET location_name = $1, description = $2, is_active = $3, modified_date = CURRENT_TIMESTAMP, modified_by = $4 WHERE location_id = $5`,
		strings.TrimSpace(req.LocationName), nullIfEmpty(req.Description), isActive, currentUser(r), id)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			respondError(w, http.StatusConflict, "location_name already exists")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to update location")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		respondError(w, http.StatusNotFound, "location not found")
		return
	}
	var loc domain.Location
	if err := h.db.Get(&loc, `SELECT * FROM locations WHERE location_id = $1`, id); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load updated location")
		return
	}
	respondJSON(w, http.StatusOK, loc)
}

// Veterinarians

type vetRequest struct {
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	LicenseNumber string `json:"license_number,omitempty"`
	Phone         string `json:"phone,omitempty"`
	Email         string `json:"email,omitempty"`
	IsActive      *bool  `json:"is_active,omitempty"`
}

func (h *Handler) createVeterinarian(w http.ResponseWriter, r *http.Request) {
	var req vetRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" {
		respondError(w, http.StatusBadRequest, "first_name and last_name are required")
		return
	}
	uid := currentUser(r)
	var id int64
	err := h.db.QueryRowx(`INSERT INTO veterinarians (first_name, last_name, license_number, phone, email, created_by, modified_by) VALUES ($1, $2, $3, $4, $5, $6, $6) RETURNING vet_id`,
		strings.TrimSpace(req.FirstName), strings.TrimSpace(req.LastName), nullIfEmpty(req.LicenseNumber),
		nullIfEmpty(req.Phone), nullIfEmpty(req.Email), uid).Scan(&id)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			respondError(w, http.StatusConflict, "license_number already exists")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to create veterinarian")
		return
	}
	var vet domain.Veterinarian
	if err := h.db.Get(&vet, `SELECT * FROM veterinarians WHERE vet_id = $1`, id); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load created veterinarian")
		return
	}
	respondJSON(w, http.StatusCreated, vet)
}

func (h *Handler) listVeterinarians(w http.ResponseWriter, r *http.Request) {
	query := `SELECT * FROM veterinarians`
	if r.URL.Query().Get("active_only") != "false" {
		query += " WHERE is_active = 1"
	}
	query += " ORDER BY last_name, first_name"
	vets := []domain.Veterinarian{}
	if err := h.db.Select(&vets, query); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list veterinarians")
		return
	}
	respondJSON(w, http.StatusOK, vets)
}

func (h *Handler) updateVeterinarian(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid veterinarian id")
		return
	}
	var req vetRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" {
		respondError(w, http.StatusBadRequest, "first_name and last_name are required")
		return
	}
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}
	res, err := h.db.Exec(`UPDATE veterinarians SET first_name = $1, last_name = $2, license_number = $3, phone = $4, email = $5, is_active = $6, modified_date = CURRENT_TIMESTAMP, modified_by = $7 WHERE vet_id = $8`,
		strings.TrimSpace(req.FirstName), strings.TrimSpace(req.LastName), nullIfEmpty(req.LicenseNumber),
		nullIfEmpty(req.Phone), nullIfEmpty(req.Email), isActive, currentUser(r), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to update veterinarian")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		respondError(w, http.StatusNotFound, "veterinarian not found")
		return
	}
	var vet domain.Veterinarian
	if err := h.db.Get(&vet, `SELECT * FROM veterinarians WHERE vet_id = $1`, id); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load updated veterinarian")
		return
	}
	respondJSON(w, http.StatusOK, vet)
}

// Species and states

func (h *Handler) createSpecies(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description,omitempty"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	uid := currentUser(r)
	var id int64
	err := h.db.QueryRowx(`INSERT INTO species (name, description, created_by, modified_by) VALUES ($1, $2, $3, $3) RETURNING species_id`,
		strings.TrimSpace(req.Name), nullIfEmpty(req.Description), uid).Scan(&id)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			respondError(w, http.StatusConflict, "species already exists")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to create species")
		return
	}
	var sp domain.Species
	if err := h.db.Get(&sp, `SELECT * FROM species WHERE species_id = $1`, id); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load created species")
		return
	}
	respondJSON(w, http.StatusCreated, sp)
}

func (h *Handler) listSpecies(w http.ResponseWriter, r *http.Request) {
	species := []domain.Species{}
	if err := h.db.Select(&species, `SELECT * FROM species ORDER BY name`); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list species")
		return
	}
	respondJSON(w, http.StatusOK, species)
}

func (h *Handler) listStates(w http.ResponseWriter, r *http.Request) {
	states := []domain.StateProvince{}
	if err := h.db.Select(&states, `SELECT * FROM state_provinces WHERE is_active = 1 ORDER BY state_code`); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list states")
		return
	}
	respondJSON(w, http.StatusOK, states)
}
