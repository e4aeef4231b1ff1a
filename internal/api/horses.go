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

type horseRequest struct {
	HorseName          string `json:"horse_name"`
	AccountNumber      string `json:"account_number,omitempty"`
	SpeciesID          *int64 `json:"species_id,omitempty"`
	Breed              string `json:"breed,omitempty"`
	Color              string `json:"color,omitempty"`
	Sex                string `json:"sex,omitempty"`
	DateOfBirth        string `json:"date_of_birth,omitempty"`
	RegistrationNumber string `json:"registration_number,omitempty"`
	MicrochipID        string `json:"microchip_id,omitempty"`
	Tattoo             string `json:"tattoo,omitempty"`
	Brand              string `json:"brand,omitempty"`
	IsActive           *bool  `json:"is_active,omitempty"`
	Notes              string `json:"notes,omitempty"`
}

func (h *Handler) createHorse(w http.ResponseWriter, r *http.Request) {
	var req horseRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.HorseName) == "" {
		respondError(w, http.StatusBadRequest, "horse_name is required")
		return
	}
	if req.DateOfBirth != "" {
		if _, err := parseDate(req.DateOfBirth); err != nil {
			respondError(w, http.StatusBadRequest, "date_of_birth must be in YYYY-MM-DD format")
			return
		}
	}

	uid := currentUser(r)
	var id int64
	err := h.db.QueryRowx(`INSERT INTO horses
        (horse_name, account_number, species_id, breed, color, sex, date_of_birth, registration_number, microchip_id, tattoo, brand, notes, created_by, modified_by)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13) RETURNING horse_id`,
		strings.TrimSpace(req.HorseName), nullIfEmpty(req.AccountNumber), req.SpeciesID, nullIfEmpty(req.Breed),
		nullIfEmpty(req.Color), nullIfEmpty(req.Sex), nullIfEmpty(req.DateOfBirth), nullIfEmpty(req.RegistrationNumber),
		nullIfEmpty(req.MicrochipID), nullIfEmpty(req.Tattoo), nullIfEmpty(req.Brand), nullIfEmpty(req.Notes), uid).Scan(&id)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			respondError(w, http.StatusConflict, "microchip_id already exists")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to create horse")
		return
	}

	var horse domain.Horse
	if err := h.db.Get(&horse, `SELECT * FROM horses WHERE horse_id = $1`, id); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load created horse")
		return
	}
	respondJSON(w, http.StatusCreated, horse)
}

func (h *Handler) getHorse(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid horse id")
		return
	}
	var horse domain.Horse
	err = h.db.Get(&horse, `SELECT * FROM horses WHERE horse_id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		respondError(w, http.StatusNotFound, "horse not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load horse")
		return
	}
	respondJSON(w, http.StatusOK, horse)
}

func (h *Handler) listHorses(w http.ResponseWriter, r *http.Request) {
	search := strings.TrimSpace(r.URL.Query().Get("search"))
	activeOnly := r.URL.Query().Get("active_only") != "false"

	query := `SELECT * FROM horses`
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
			"(horse_name LIKE $%d OR account_number LIKE $%d OR registration_number LIKE $%d OR microchip_id LIKE $%d)", n, n, n, n))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY horse_name"

	horses := []domain.Horse{}
	if err := h.db.Select(&horses, query, args...); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list horses")
		return
	}
	respondJSON(w, http.StatusOK, horses)
}

func (h *Handler) updateHorse(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid horse id")
		return
	}
	var req horseRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.HorseName) == "" {
		respondError(w, http.StatusBadRequest, "horse_name is required")
		return
	}
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	uid := currentUser(r)
	res, err := h.db.Exec(`UPDATE horses SET
        horse_name = $1, account_number = $2, species_id = $3, breed = $4, color = $5, sex = $6,
        date_of_birth = $7, registration_number = $8, microchip_id = $9, tattoo = $10, brand = $11,
        notes = $12, is_active = $13, modified_date = CURRENT_TIMESTAMP, modified_by = $14
        WHERE horse_id = $15`,
		strings.TrimSpace(req.HorseName), nullIfEmpty(req.AccountNumber), req.SpeciesID, nullIfEmpty(req.Breed),
		nullIfEmpty(req.Color), nullIfEmpty(req.Sex), nullIfEmpty(req.DateOfBirth), nullIfEmpty(req.RegistrationNumber),
		nullIfEmpty(req.MicrochipID), nullIfEmpty(req.Tattoo), nullIfEmpty(req.Brand), nullIfEmpty(req.Notes),
		isActive, uid, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to update horse")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		respondError(w, http.StatusNotFound, "horse not found")
		return
	}
	var horse domain.Horse
	if err := h.db.Get(&horse, `SELECT * FROM horses WHERE horse_id = $1`, id); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load updated horse")
		return
	}
	respondJSON(w, http.StatusOK, horse)
}

// Ownership links

type linkOwnerRequest struct {
	OwnerID             int64  `json:"owner_id"`
	OwnershipPercentage string `json:"ownership_percentage,omitempty"`
	StartDate           string `json:"start_date,omitempty"`
}

// linkHorseOwner attaches an owner to a horse. The active ownership
// percentages for a horse may not exceed 100.
func (h *Handler) linkHorseOwner(w http.ResponseWriter, r *http.Request) {
	horseID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid horse id")
		return
	}
	var req linkOwnerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.OwnerID == 0 {
		respondError(w, http.StatusBadRequest, "owner_id is required")
		return
	}
	pct := decimal.NewFromInt(100)
	if strings.TrimSpace(req.OwnershipPercentage) != "" {
		pct, err = decimal.NewFromString(req.OwnershipPercentage)
		if err != nil || !pct.IsPositive() || pct.GreaterThan(decimal.NewFromInt(100)) {
			respondError(w, http.StatusBadRequest, "ownership_percentage must be between 0 and 100")
			return
		}
	}
	startDate := strings.TrimSpace(req.StartDate)
	if startDate == "" {
		startDate = todayISO()
	} else if _, err := parseDate(startDate); err != nil {
		respondError(w, http.StatusBadRequest, "start_date must be in YYYY-MM-DD format")
		return
	}

	tx, err := h.db.Beginx()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to start ownership link")
		return
	}
	defer tx.Rollback()

	var current decimal.Decimal
	if err := tx.Get(&current, `SELECT COALESCE(SUM(ownership_percentage), 0) FROM horse_owners WHERE horse_id = $1 AND end_date IS NULL`, horseID); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to check existing ownership")
		return
	}
	if current.Add(pct).GreaterThan(decimal.NewFromInt(100)) {
		respondError(w, http.StatusBadRequest,
			fmt.Sprintf("ownership would exceed 100%% (currently %s%%)", current.StringFixed(2)))
		return
	}

	uid := currentUser(r)
	if _, err := tx.Exec(`INSERT INTO horse_owners (horse_id, owner_id, ownership_percentage, start_date, created_by, modified_by) VALUES ($1, $2, $3, $4, $5, $5)`,
		horseID, req.OwnerID, pct, startDate, uid); err != nil {
		if strings.Contains(err.Error(), "UNIQUE") || strings.Contains(err.Error(), "PRIMARY") {
			respondError(w, http.StatusConflict, "owner is already linked to this horse")
			return
		}
		respondError(w, http.StatusBadRequest, "unable to link owner (horse and owner must exist)")
		return
	}
	if err := tx.Commit(); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to finalize ownership link")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"horse_id":             horseID,
		"owner_id":             req.OwnerID,
		"ownership_percentage": pct,
		"start_date":           startDate,
	})
}

// unlinkHorseOwner ends an ownership rather than deleting its row; the
// history stays queryable.
func (h *Handler) unlinkHorseOwner(w http.ResponseWriter, r *http.Request) {
	horseID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid horse id")
		return
	}
	ownerID, err := strconv.ParseInt(chi.URLParam(r, "ownerID"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid owner id")
		return
	}
	res, err := h.db.Exec(`UPDATE horse_owners SET end_date = $1, modified_date = CURRENT_TIMESTAMP, modified_by = $2 WHERE horse_id = $3 AND owner_id = $4 AND end_date IS NULL`,
		todayISO(), currentUser(r), horseID, ownerID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to unlink owner")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		respondError(w, http.StatusNotFound, "active ownership link not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ownership ended"})
}

func (h *Handler) listHorseOwners(w http.ResponseWriter, r *http.Request) {
	horseID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid horse id")
		return
	}
	links := []domain.HorseOwner{}
	if err := h.db.Select(&links, `SELECT * FROM horse_owners WHERE horse_id = $1 ORDER BY start_date`, horseID); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list horse owners")
		return
	}
	respondJSON(w, http.StatusOK, links)
}

// Location history

type moveHorseRequest struct {
	LocationID    int64  `json:"location_id"`
	ReasonForMove string `json:"reason_for_move,omitempty"`
}

// moveHorse closes the open location-history row, opens a new one and
// updates the horse's current location, in one transaction.
func (h *Handler) moveHorse(w http.ResponseWriter, r *http.Request) {
	horseID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid horse id")
		return
	}
	var req moveHorseRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.LocationID == 0 {
		respondError(w, http.StatusBadRequest, "location_id is required")
		return
	}

	tx, err := h.db.Beginx()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to start move")
		return
	}
	defer tx.Rollback()

	uid := currentUser(r)
	if _, err := tx.Exec(`UPDATE horse_locations SET end_date = CURRENT_TIMESTAMP, modified_date = CURRENT_TIMESTAMP, modified_by = $1 WHERE horse_id = $2 AND end_date IS NULL`, uid, horseID); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to close current location")
		return
	}
	if _, err := tx.Exec(`INSERT INTO horse_locations (horse_id, location_id, reason_for_move, created_by, modified_by) VALUES ($1, $2, $3, $4, $4)`,
		horseID, req.LocationID, nullIfEmpty(req.ReasonForMove), uid); err != nil {
		respondError(w, http.StatusBadRequest, "unable to record move (horse and location must exist)")
		return
	}
	res, err := tx.Exec(`UPDATE horses SET current_location_id = $1, modified_date = CURRENT_TIMESTAMP, modified_by = $2 WHERE horse_id = $3`, req.LocationID, uid, horseID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to update current location")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		respondError(w, http.StatusNotFound, "horse not found")
		return
	}
	if err := tx.Commit(); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to finalize move")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": "moved", "location_id": req.LocationID})
}

func (h *Handler) listHorseLocations(w http.ResponseWriter, r *http.Request) {
	horseID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid horse id")
		return
	}
	history := []domain.HorseLocation{}
	if err := h.db.Select(&history, `SELECT * FROM horse_locations WHERE horse_id = $1 ORDER BY start_date DESC`, horseID); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list location history")
		return
	}
	respondJSON(w, http.StatusOK, history)
}

// listHorseTransactions returns a horse's billable lines; ?invoiced=true
// narrows to billed lines, ?invoiced=false to unbilled.
func (h *Handler) listHorseTransactions(w http.ResponseWriter, r *http.Request) {
	horseID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid horse id")
		return
	}
	query := `SELECT * FROM transactions WHERE horse_id = $1`
	switch r.URL.Query().Get("invoiced") {
	case "true":
		query += " AND invoice_id IS NOT NULL"
	case "false":
		query += " AND invoice_id IS NULL"
	}
	query += " ORDER BY transaction_date DESC, transaction_id DESC"

	txns := []domain.Transaction{}
	if err := h.db.Select(&txns, query, horseID); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list transactions")
		return
	}
	respondJSON(w, http.StatusOK, txns)
}
