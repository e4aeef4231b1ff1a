package api

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"edms/m/domain"
)

type chargeLine struct {
	ChargeCodeID    int64  `json:"charge_code_id"`
	TransactionDate string `json:"transaction_date"`
	Description     string `json:"description"`
	Quantity        string `json:"quantity"`
	UnitPrice       string `json:"unit_price"`
	Taxable         bool   `json:"taxable,omitempty"`
	AdministeredBy  string `json:"administered_by,omitempty"`
	ItemNotes       string `json:"item_notes,omitempty"`
}

type chargeBatchRequest struct {
	HorseID int64        `json:"horse_id"`
	OwnerID int64        `json:"owner_id"`
	Lines   []chargeLine `json:"lines"`
}

type parsedLine struct {
	line      chargeLine
	quantity  decimal.Decimal
	unitPrice decimal.Decimal
	total     decimal.Decimal
}

func validateChargeLine(idx int, line chargeLine) (parsedLine, error) {
	out := parsedLine{line: line}
	if line.ChargeCodeID == 0 {
		return out, fmt.Errorf("line %d: charge_code_id is required", idx+1)
	}
	desc := strings.TrimSpace(line.Description)
	if desc == "" {
		return out, fmt.Errorf("line %d: description is required", idx+1)
	}
	if len(desc) > 255 {
		return out, fmt.Errorf("line %d: description cannot exceed 255 characters", idx+1)
	}
	out.line.Description = desc

	date, err := parseDate(line.TransactionDate)
	if err != nil {
		return out, fmt.Errorf("line %d: transaction_date must be in YYYY-MM-DD format", idx+1)
	}
	if date.After(time.Now()) {
		return out, fmt.Errorf("line %d: transaction_date cannot be in the future", idx+1)
	}

	out.quantity, err = decimal.NewFromString(strings.TrimSpace(line.Quantity))
	if err != nil || !out.quantity.IsPositive() {
		return out, fmt.Errorf("line %d: quantity must be greater than zero", idx+1)
	}
	out.unitPrice, err = decimal.NewFromString(strings.TrimSpace(line.UnitPrice))
	if err != nil || out.unitPrice.IsNegative() {
		return out, fmt.Errorf("line %d: unit_price must be zero or greater", idx+1)
	}
	out.total = out.quantity.Mul(out.unitPrice).Round(2)
	return out, nil
}

// addChargeBatch records a set of billable lines against one horse and
// owner. The whole batch succeeds or none of it does.
func (h *Handler) addChargeBatch(w http.ResponseWriter, r *http.Request) {
	var req chargeBatchRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.HorseID == 0 || req.OwnerID == 0 {
		respondError(w, http.StatusBadRequest, "horse_id and owner_id are required")
		return
	}
	if len(req.Lines) == 0 {
		respondError(w, http.StatusBadRequest, "at least one charge line is required")
		return
	}

	parsed := make([]parsedLine, 0, len(req.Lines))
	for i, line := range req.Lines {
		p, err := validateChargeLine(i, line)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		parsed = append(parsed, p)
	}

	tx, err := h.db.Beginx()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to start charge batch")
		return
	}
	defer tx.Rollback()

	var horseExists, ownerExists int
	if err := tx.Get(&horseExists, `SELECT COUNT(*) FROM horses WHERE horse_id = $1`, req.HorseID); err != nil || horseExists == 0 {
		respondError(w, http.StatusBadRequest, "horse does not exist")
		return
	}
	if err := tx.Get(&ownerExists, `SELECT COUNT(*) FROM owners WHERE owner_id = $1`, req.OwnerID); err != nil || ownerExists == 0 {
		respondError(w, http.StatusBadRequest, "owner does not exist")
		return
	}

	uid := currentUser(r)
	ids := make([]int64, 0, len(parsed))
	for i, p := range parsed {
		var active bool
		err := tx.Get(&active, `SELECT is_active FROM charge_codes WHERE charge_code_id = $1`, p.line.ChargeCodeID)
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("line %d: charge code does not exist", i+1))
			return
		}
		if err != nil {
			respondError(w, http.StatusInternalServerError, "unable to verify charge code")
			return
		}
		if !active {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("line %d: charge code is inactive", i+1))
			return
		}

		var id int64
		err = tx.QueryRowx(`INSERT INTO transactions
            (horse_id, owner_id, charge_code_id, administered_by, transaction_date, description, quantity, unit_price, total_price, taxable, item_notes, created_by, modified_by)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12) RETURNING transaction_id`,
			req.HorseID, req.OwnerID, p.line.ChargeCodeID, nullIfEmpty(p.line.AdministeredBy),
			strings.TrimSpace(p.line.TransactionDate), p.line.Description, p.quantity, p.unitPrice,
			p.total, p.line.Taxable, nullIfEmpty(p.line.ItemNotes), uid).Scan(&id)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "unable to record charge")
			return
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to finalize charge batch")
		return
	}

	txns := []domain.Transaction{}
	query, args, err := bindIn(`SELECT * FROM transactions WHERE transaction_id IN (?) ORDER BY transaction_id`, ids)
	if err == nil {
		err = h.db.Select(&txns, query, args...)
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load recorded charges")
		return
	}
	respondJSON(w, http.StatusCreated, txns)
}
