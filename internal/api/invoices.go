package api

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"edms/m/domain"
)

type createInvoiceRequest struct {
	OwnerID        int64   `json:"owner_id"`
	HorseID        *int64  `json:"horse_id,omitempty"`
	TransactionIDs []int64 `json:"transaction_ids,omitempty"`
	InvoiceDate    string  `json:"invoice_date,omitempty"`
	DueDate        string  `json:"due_date,omitempty"`
	ThroughDate    string  `json:"through_date,omitempty"`
	TaxRate        string  `json:"tax_rate,omitempty"`
}

type invoiceResponse struct {
	domain.Invoice
	Lines []domain.Transaction `json:"lines,omitempty"`
}

// createInvoice sweeps an owner's unbilled transactions onto a new
// invoice and raises the owner's running balance by the grand total.
func (h *Handler) createInvoice(w http.ResponseWriter, r *http.Request) {
	var req createInvoiceRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.OwnerID == 0 {
		respondError(w, http.StatusBadRequest, "owner_id is required")
		return
	}
	invoiceDate := strings.TrimSpace(req.InvoiceDate)
	if invoiceDate == "" {
		invoiceDate = todayISO()
	} else if _, err := parseDate(invoiceDate); err != nil {
		respondError(w, http.StatusBadRequest, "invoice_date must be in YYYY-MM-DD format")
		return
	}
	if req.DueDate != "" {
		if _, err := parseDate(req.DueDate); err != nil {
			respondError(w, http.StatusBadRequest, "due_date must be in YYYY-MM-DD format")
			return
		}
	}
	if req.ThroughDate != "" {
		if _, err := parseDate(req.ThroughDate); err != nil {
			respondError(w, http.StatusBadRequest, "through_date must be in YYYY-MM-DD format")
			return
		}
	}
	taxRate := decimal.Zero
	if strings.TrimSpace(req.TaxRate) != "" {
		parsed, err := decimal.NewFromString(req.TaxRate)
		if err != nil || parsed.IsNegative() {
			respondError(w, http.StatusBadRequest, "tax_rate must be a non-negative rate")
			return
		}
		taxRate = parsed
	}

	tx, err := h.db.Beginx()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to start invoice")
		return
	}
	defer tx.Rollback()

	var owner domain.Owner
	err = tx.Get(&owner, `SELECT * FROM owners WHERE owner_id = $1`, req.OwnerID)
	if errors.Is(err, sql.ErrNoRows) {
		respondError(w, http.StatusNotFound, "owner not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load owner")
		return
	}

	lines := []domain.Transaction{}
	if len(req.TransactionIDs) > 0 {
		query, args, err := sqlx.In(`SELECT * FROM transactions WHERE owner_id = ? AND invoice_id IS NULL AND transaction_id IN (?) ORDER BY transaction_date, transaction_id`,
			req.OwnerID, req.TransactionIDs)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "unable to load transactions")
			return
		}
		if err := tx.Select(&lines, query, args...); err != nil {
			respondError(w, http.StatusInternalServerError, "unable to load transactions")
			return
		}
		if len(lines) != len(req.TransactionIDs) {
			respondError(w, http.StatusBadRequest, "transaction_ids must all be unbilled lines of this owner")
			return
		}
	} else {
		query := `SELECT * FROM transactions WHERE owner_id = $1 AND invoice_id IS NULL`
		args := []any{req.OwnerID}
		if req.HorseID != nil {
			args = append(args, *req.HorseID)
			query += fmt.Sprintf(" AND horse_id = $%d", len(args))
		}
		if req.ThroughDate != "" {
			args = append(args, strings.TrimSpace(req.ThroughDate))
			query += fmt.Sprintf(" AND transaction_date <= $%d", len(args))
		}
		query += " ORDER BY transaction_date, transaction_id"
		if err := tx.Select(&lines, query, args...); err != nil {
			respondError(w, http.StatusInternalServerError, "unable to load unbilled transactions")
			return
		}
	}
	if len(lines) == 0 {
		respondError(w, http.StatusBadRequest, "owner has no unbilled transactions")
		return
	}

	subtotal := decimal.Zero
	taxableBase := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.TotalPrice)
		if line.Taxable {
			taxableBase = taxableBase.Add(line.TotalPrice)
		}
	}
	taxTotal := taxableBase.Mul(taxRate).Round(2)
	grandTotal := subtotal.Add(taxTotal)

	uid := currentUser(r)
	var invoiceID int64
	err = tx.QueryRowx(`INSERT INTO invoices (owner_id, invoice_date, due_date, subtotal, tax_total, grand_total, amount_paid, balance_due, status, created_by, modified_by)
        VALUES ($1, $2, $3, $4, $5, $6, 0, $6, $7, $8, $8) RETURNING invoice_id`,
		req.OwnerID, invoiceDate, nullIfEmpty(req.DueDate), subtotal, taxTotal, grandTotal,
		domain.InvoiceUnpaid, uid).Scan(&invoiceID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to create invoice")
		return
	}

	lineIDs := make([]int64, 0, len(lines))
	for _, line := range lines {
		lineIDs = append(lineIDs, line.TransactionID)
	}
	attach, attachArgs, err := sqlx.In(`UPDATE transactions SET invoice_id = ?, modified_date = CURRENT_TIMESTAMP, modified_by = ? WHERE transaction_id IN (?)`, invoiceID, uid, lineIDs)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to attach transactions")
		return
	}
	if _, err := tx.Exec(attach, attachArgs...); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to attach transactions")
		return
	}

	newBalance := owner.Balance.Add(grandTotal)
	if _, err := tx.Exec(`UPDATE owners SET balance = $1, modified_date = CURRENT_TIMESTAMP, modified_by = $2 WHERE owner_id = $3`, newBalance, uid, req.OwnerID); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to update owner balance")
		return
	}
	if _, err := tx.Exec(`INSERT INTO owner_billing_history (owner_id, description, amount_change, new_balance, created_by, modified_by) VALUES ($1, $2, $3, $4, $5, $5)`,
		req.OwnerID, fmt.Sprintf("Invoice #%d", invoiceID), grandTotal, newBalance, uid); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to record billing history")
		return
	}

	if err := tx.Commit(); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to finalize invoice")
		return
	}

	var invoice domain.Invoice
	if err := h.db.Get(&invoice, `SELECT * FROM invoices WHERE invoice_id = $1`, invoiceID); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load created invoice")
		return
	}
	billed := []domain.Transaction{}
	if err := h.db.Select(&billed, `SELECT * FROM transactions WHERE invoice_id = $1 ORDER BY transaction_date, transaction_id`, invoiceID); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load invoice lines")
		return
	}
	respondJSON(w, http.StatusCreated, invoiceResponse{Invoice: invoice, Lines: billed})
}

func (h *Handler) listInvoices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := `SELECT * FROM invoices`
	var clauses []string
	var args []any
	if owner := q.Get("owner_id"); owner != "" {
		id, err := strconv.ParseInt(owner, 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid owner_id")
			return
		}
		args = append(args, id)
		clauses = append(clauses, fmt.Sprintf("owner_id = $%d", len(args)))
	}
	if status := strings.TrimSpace(q.Get("status")); status != "" {
		args = append(args, status)
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}
	if start := strings.TrimSpace(q.Get("start_date")); start != "" {
		if _, err := parseDate(start); err != nil {
			respondError(w, http.StatusBadRequest, "start_date must be in YYYY-MM-DD format")
			return
		}
		args = append(args, start)
		clauses = append(clauses, fmt.Sprintf("invoice_date >= $%d", len(args)))
	}
	if end := strings.TrimSpace(q.Get("end_date")); end != "" {
		if _, err := parseDate(end); err != nil {
			respondError(w, http.StatusBadRequest, "end_date must be in YYYY-MM-DD format")
			return
		}
		args = append(args, end)
		clauses = append(clauses, fmt.Sprintf("invoice_date <= $%d", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY invoice_date DESC, invoice_id DESC"

	invoices := []domain.Invoice{}
	if err := h.db.Select(&invoices, query, args...); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list invoices")
		return
	}
	respondJSON(w, http.StatusOK, invoices)
}

func (h *Handler) getInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid invoice id")
		return
	}
	var invoice domain.Invoice
	err = h.db.Get(&invoice, `SELECT * FROM invoices WHERE invoice_id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		respondError(w, http.StatusNotFound, "invoice not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load invoice")
		return
	}
	lines := []domain.Transaction{}
	if err := h.db.Select(&lines, `SELECT * FROM transactions WHERE invoice_id = $1 ORDER BY transaction_date, transaction_id`, id); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load invoice lines")
		return
	}
	respondJSON(w, http.StatusOK, invoiceResponse{Invoice: invoice, Lines: lines})
}

// voidInvoice cancels an unpaid invoice, releasing its transactions back
// to the unbilled pool and reversing the owner balance change.
func (h *Handler) voidInvoice(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, RoleAdmin, RoleStaff) {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid invoice id")
		return
	}

	tx, err := h.db.Beginx()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to start void")
		return
	}
	defer tx.Rollback()

	var invoice domain.Invoice
	err = tx.Get(&invoice, `SELECT * FROM invoices WHERE invoice_id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		respondError(w, http.StatusNotFound, "invoice not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load invoice")
		return
	}
	if invoice.Status == domain.InvoiceVoid {
		respondError(w, http.StatusConflict, "invoice is already void")
		return
	}
	if invoice.AmountPaid.IsPositive() {
		respondError(w, http.StatusConflict, "invoice has payments applied and cannot be voided")
		return
	}

	uid := currentUser(r)
	if _, err := tx.Exec(`UPDATE transactions SET invoice_id = NULL, modified_date = CURRENT_TIMESTAMP, modified_by = $1 WHERE invoice_id = $2`, uid, id); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to release transactions")
		return
	}
	if _, err := tx.Exec(`UPDATE invoices SET status = $1, balance_due = 0, modified_date = CURRENT_TIMESTAMP, modified_by = $2 WHERE invoice_id = $3`, domain.InvoiceVoid, uid, id); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to void invoice")
		return
	}

	var owner domain.Owner
	if err := tx.Get(&owner, `SELECT * FROM owners WHERE owner_id = $1`, invoice.OwnerID); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load owner")
		return
	}
	newBalance := owner.Balance.Sub(invoice.GrandTotal)
	if _, err := tx.Exec(`UPDATE owners SET balance = $1, modified_date = CURRENT_TIMESTAMP, modified_by = $2 WHERE owner_id = $3`, newBalance, uid, invoice.OwnerID); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to update owner balance")
		return
	}
	if _, err := tx.Exec(`INSERT INTO owner_billing_history (owner_id, description, amount_change, new_balance, created_by, modified_by) VALUES ($1, $2, $3, $4, $5, $5)`,
		invoice.OwnerID, fmt.Sprintf("Void Invoice #%d", id), invoice.GrandTotal.Neg(), newBalance, uid); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to record billing history")
		return
	}

	if err := tx.Commit(); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to finalize void")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "invoice voided"})
}
