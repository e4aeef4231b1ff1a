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

type ownerRequest struct {
	AccountNumber string `json:"account_number,omitempty"`
	FarmName      string `json:"farm_name,omitempty"`
	FirstName     string `json:"first_name,omitempty"`
	LastName      string `json:"last_name,omitempty"`
	AddressLine1  string `json:"address_line1"`
	AddressLine2  string `json:"address_line2,omitempty"`
	City          string `json:"city"`
	StateCode     string `json:"state_code"`
	ZipCode       string `json:"zip_code"`
	Phone         string `json:"phone"`
	MobilePhone   string `json:"mobile_phone,omitempty"`
	Email         string `json:"email,omitempty"`
	IsActive      *bool  `json:"is_active,omitempty"`
	CreditLimit   string `json:"credit_limit,omitempty"`
	BillingTerms  string `json:"billing_terms,omitempty"`
	Notes         string `json:"notes,omitempty"`
}

// validateOwner applies the master-file rules: at least one name field,
// and the full mailing address plus a phone number.
func validateOwner(req ownerRequest) []string {
	var errs []string
	if strings.TrimSpace(req.FirstName) == "" && strings.TrimSpace(req.LastName) == "" && strings.TrimSpace(req.FarmName) == "" {
		errs = append(errs, "at least one name field (first, last, or farm name) is required")
	}
	if strings.TrimSpace(req.AddressLine1) == "" {
		errs = append(errs, "address_line1 is required")
	}
	if strings.TrimSpace(req.City) == "" {
		errs = append(errs, "city is required")
	}
	if strings.TrimSpace(req.StateCode) == "" {
		errs = append(errs, "state_code is required")
	}
	if strings.TrimSpace(req.ZipCode) == "" {
		errs = append(errs, "zip_code is required")
	}
	if strings.TrimSpace(req.Phone) == "" {
		errs = append(errs, "phone is required")
	}
	if len(req.FirstName) > 50 {
		errs = append(errs, "first_name too long")
	}
	if len(req.LastName) > 50 {
		errs = append(errs, "last_name too long")
	}
	if len(req.FarmName) > 100 {
		errs = append(errs, "farm_name too long")
	}
	return errs
}

func (h *Handler) createOwner(w http.ResponseWriter, r *http.Request) {
	var req ownerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if errs := validateOwner(req); len(errs) > 0 {
		respondError(w, http.StatusBadRequest, "validation failed: "+strings.Join(errs, "; "))
		return
	}

	var creditLimit decimal.NullDecimal
	if strings.TrimSpace(req.CreditLimit) != "" {
		d, err := decimal.NewFromString(req.CreditLimit)
		if err != nil {
			respondError(w, http.StatusBadRequest, "credit_limit is not a valid number")
			return
		}
		creditLimit = decimal.NullDecimal{Decimal: d, Valid: true}
	}

	uid := currentUser(r)
	var id int64
	err := h.db.QueryRowx(`INSERT INTO owners
        (account_number, farm_name, first_name, last_name, address_line1, address_line2, city, state_code, zip_code, phone, mobile_phone, email, credit_limit, billing_terms, notes, created_by, modified_by)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $16) RETURNING owner_id`,
		nullIfEmpty(req.AccountNumber), nullIfEmpty(req.FarmName), nullIfEmpty(req.FirstName), nullIfEmpty(req.LastName),
		strings.TrimSpace(req.AddressLine1), nullIfEmpty(req.AddressLine2), strings.TrimSpace(req.City),
		strings.TrimSpace(req.StateCode), strings.TrimSpace(req.ZipCode), strings.TrimSpace(req.Phone),
		nullIfEmpty(req.MobilePhone), nullIfEmpty(strings.ToLower(req.Email)), creditLimit,
		nullIfEmpty(req.BillingTerms), nullIfEmpty(req.Notes), uid).Scan(&id)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			respondError(w, http.StatusConflict, fmt.Sprintf("account number %q already exists", req.AccountNumber))
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to create owner")
		return
	}

	owner, err := h.fetchOwner(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load created owner")
		return
	}
	respondJSON(w, http.StatusCreated, owner)
}

func (h *Handler) fetchOwner(id int64) (domain.Owner, error) {
	var owner domain.Owner
	err := h.db.Get(&owner, `SELECT * FROM owners WHERE owner_id = $1`, id)
	return owner, err
}

func (h *Handler) getOwner(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid owner id")
		return
	}
	owner, err := h.fetchOwner(id)
	if errors.Is(err, sql.ErrNoRows) {
		respondError(w, http.StatusNotFound, "owner not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load owner")
		return
	}
	respondJSON(w, http.StatusOK, owner)
}

func (h *Handler) listOwners(w http.ResponseWriter, r *http.Request) {
	search := strings.TrimSpace(r.URL.Query().Get("search"))
	activeOnly := r.URL.Query().Get("active_only") != "false"

	query := `SELECT * FROM owners`
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
			"(first_name LIKE $%d OR last_name LIKE $%d OR farm_name LIKE $%d OR account_number LIKE $%d)", n, n, n, n))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY farm_name, last_name, first_name"

	owners := []domain.Owner{}
	if err := h.db.Select(&owners, query, args...); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list owners")
		return
	}
	respondJSON(w, http.StatusOK, owners)
}

func (h *Handler) updateOwner(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid owner id")
		return
	}
	var req ownerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if errs := validateOwner(req); len(errs) > 0 {
		respondError(w, http.StatusBadRequest, "validation failed: "+strings.Join(errs, "; "))
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	uid := currentUser(r)
	res, err := h.db.Exec(`UPDATE owners SET
        account_number = $1, farm_name = $2, first_name = $3, last_name = $4,
        address_line1 = $5, address_line2 = $6, city = $7, state_code = $8, zip_code = $9,
        phone = $10, mobile_phone = $11, email = $12, billing_terms = $13, notes = $14,
        is_active = $15, modified_date = CURRENT_TIMESTAMP, modified_by = $16
        WHERE owner_id = $17`,
		nullIfEmpty(req.AccountNumber), nullIfEmpty(req.FarmName), nullIfEmpty(req.FirstName), nullIfEmpty(req.LastName),
		strings.TrimSpace(req.AddressLine1), nullIfEmpty(req.AddressLine2), strings.TrimSpace(req.City),
		strings.TrimSpace(req.StateCode), strings.TrimSpace(req.ZipCode), strings.TrimSpace(req.Phone),
		nullIfEmpty(req.MobilePhone), nullIfEmpty(strings.ToLower(req.Email)), nullIfEmpty(req.BillingTerms),
		nullIfEmpty(req.Notes), isActive, uid, id)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			respondError(w, http.StatusConflict, fmt.Sprintf("account number %q already exists", req.AccountNumber))
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to update owner")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		respondError(w, http.StatusNotFound, "owner not found")
		return
	}
	owner, err := h.fetchOwner(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load updated owner")
		return
	}
	respondJSON(w, http.StatusOK, owner)
}

// Payments

type paymentRequest struct {
	InvoiceID       *int64 `json:"invoice_id,omitempty"`
	PaymentDate     string `json:"payment_date"`
	Amount          string `json:"amount"`
	PaymentMethod   string `json:"payment_method"`
	ReferenceNumber string `json:"reference_number,omitempty"`
	Notes           string `json:"notes,omitempty"`
}

// recordPayment inserts the payment, lowers the owner balance, appends a
// billing history row and, when an invoice is named, applies the payment
// to it. All inside one transaction.
func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	ownerID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid owner id")
		return
	}
	var req paymentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		respondError(w, http.StatusBadRequest, "amount must be a positive number")
		return
	}
	if _, err := parseDate(req.PaymentDate); err != nil {
		respondError(w, http.StatusBadRequest, "payment_date must be in YYYY-MM-DD format")
		return
	}
	if strings.TrimSpace(req.PaymentMethod) == "" {
		respondError(w, http.StatusBadRequest, "payment_method is required")
		return
	}

	tx, err := h.db.Beginx()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to start payment")
		return
	}
	defer tx.Rollback()

	var owner domain.Owner
	err = tx.Get(&owner, `SELECT * FROM owners WHERE owner_id = $1`, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		respondError(w, http.StatusNotFound, "owner not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load owner")
		return
	}

	if req.InvoiceID != nil {
		var inv domain.Invoice
		err := tx.Get(&inv, `SELECT * FROM invoices WHERE invoice_id = $1 AND owner_id = $2`, *req.InvoiceID, ownerID)
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusBadRequest, "invoice not found for owner")
			return
		}
		if err != nil {
			respondError(w, http.StatusInternalServerError, "unable to load invoice")
			return
		}
		if inv.Status == domain.InvoiceVoid {
			respondError(w, http.StatusBadRequest, "cannot pay a void invoice")
			return
		}
		applied := amount
		if applied.GreaterThan(inv.BalanceDue) {
			applied = inv.BalanceDue
		}
		newPaid := inv.AmountPaid.Add(applied)
		newDue := inv.GrandTotal.Sub(newPaid)
		status := domain.InvoicePartial
		if newDue.LessThanOrEqual(decimal.Zero) {
			newDue = decimal.Zero
			status = domain.InvoicePaid
		} else if newPaid.IsZero() {
			status = domain.InvoiceUnpaid
		}
		if _, err := tx.Exec(`UPDATE invoices SET amount_paid = $1, balance_due = $2, status = $3, modified_date = CURRENT_TIMESTAMP, modified_by = $4 WHERE invoice_id = $5`,
			newPaid, newDue, status, currentUser(r), inv.InvoiceID); err != nil {
			respondError(w, http.StatusInternalServerError, "unable to apply payment to invoice")
			return
		}
	}

	uid := currentUser(r)
	var paymentID int64
	err = tx.QueryRowx(`INSERT INTO owner_payments (owner_id, invoice_id, payment_date, amount, payment_method, reference_number, notes, created_by, modified_by)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8) RETURNING payment_id`,
		ownerID, req.InvoiceID, strings.TrimSpace(req.PaymentDate), amount, strings.TrimSpace(req.PaymentMethod),
		nullIfEmpty(req.ReferenceNumber), nullIfEmpty(req.Notes), uid).Scan(&paymentID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to record payment")
		return
	}

	newBalance := owner.Balance.Sub(amount)
	if _, err := tx.Exec(`UPDATE owners SET balance = $1, modified_date = CURRENT_TIMESTAMP, modified_by = $2 WHERE owner_id = $3`, newBalance, uid, ownerID); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to update owner balance")
		return
	}

	desc := fmt.Sprintf("Payment - %s", strings.TrimSpace(req.PaymentMethod))
	if req.ReferenceNumber != "" {
		desc += fmt.Sprintf(" (Ref: %s)", strings.TrimSpace(req.ReferenceNumber))
	}
	if _, err := tx.Exec(`INSERT INTO owner_billing_history (owner_id, description, amount_change, new_balance, created_by, modified_by) VALUES ($1, $2, $3, $4, $5, $5)`,
		ownerID, desc, amount.Neg(), newBalance, uid); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to write billing history")
		return
	}

	if err := tx.Commit(); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to finalize payment")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"payment_id":  paymentID,
		"owner_id":    ownerID,
		"amount":      amount,
		"new_balance": newBalance,
	})
}

func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	ownerID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid owner id")
		return
	}
	payments := []domain.OwnerPayment{}
	if err := h.db.Select(&payments, `SELECT * FROM owner_payments WHERE owner_id = $1 ORDER BY payment_date DESC, payment_id DESC`, ownerID); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list payments")
		return
	}
	respondJSON(w, http.StatusOK, payments)
}

func (h *Handler) listBillingHistory(w http.ResponseWriter, r *http.Request) {
	ownerID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid owner id")
		return
	}
	entries := []domain.OwnerBillingHistory{}
	if err := h.db.Select(&entries, `SELECT * FROM owner_billing_history WHERE owner_id = $1 ORDER BY entry_date DESC, history_id DESC`, ownerID); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list billing history")
		return
	}
	respondJSON(w, http.StatusOK, entries)
}
