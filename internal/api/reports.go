package api

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"edms/m/domain"
	"edms/m/internal/reports"
)

type reportRangeRequest struct {
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
}

func (req *reportRangeRequest) validate() error {
	req.StartDate = strings.TrimSpace(req.StartDate)
	req.EndDate = strings.TrimSpace(req.EndDate)
	if req.StartDate != "" {
		if _, err := parseDate(req.StartDate); err != nil {
			return errors.New("start_date must be in YYYY-MM-DD format")
		}
	}
	if req.EndDate != "" {
		if _, err := parseDate(req.EndDate); err != nil {
			return errors.New("end_date must be in YYYY-MM-DD format")
		}
	}
	return nil
}

// companyProfile loads the letterhead details, falling back to an empty
// profile before setup is done.
func (h *Handler) companyProfile() domain.CompanyProfile {
	var profile domain.CompanyProfile
	if err := h.db.Get(&profile, `SELECT * FROM company_profile WHERE id = 1`); err != nil {
		return domain.CompanyProfile{}
	}
	return profile
}

func dateRangeClause(column string, start, end string, args *[]any) string {
	var clauses []string
	if start != "" {
		*args = append(*args, start)
		clauses = append(clauses, column+" >= $"+strconv.Itoa(len(*args)))
	}
	if end != "" {
		*args = append(*args, end)
		clauses = append(clauses, column+" <= $"+strconv.Itoa(len(*args)))
	}
	if len(clauses) == 0 {
		return ""
	}
	return " AND " + strings.Join(clauses, " AND ")
}

func (h *Handler) reportInvoiceRegister(w http.ResponseWriter, r *http.Request) {
	var req reportRangeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	type row struct {
		domain.Invoice
		FarmName  *string `db:"farm_name"`
		FirstName *string `db:"first_name"`
		LastName  *string `db:"last_name"`
	}
	var args []any
	query := `SELECT i.*, o.farm_name, o.first_name, o.last_name
        FROM invoices i JOIN owners o ON o.owner_id = i.owner_id
        WHERE 1 = 1` + dateRangeClause("i.invoice_date", req.StartDate, req.EndDate, &args) +
		` ORDER BY i.invoice_date, i.invoice_id`

	dbRows := []row{}
	if err := h.db.Select(&dbRows, query, args...); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to assemble invoice register")
		return
	}

	out := make([]reports.InvoiceRegisterRow, 0, len(dbRows))
	for _, r := range dbRows {
		owner := domain.Owner{FarmName: r.FarmName, FirstName: r.FirstName, LastName: r.LastName}
		tax := decimal.Zero
		if r.TaxTotal.Valid {
			tax = r.TaxTotal.Decimal
		}
		out = append(out, reports.InvoiceRegisterRow{
			InvoiceID:   r.InvoiceID,
			InvoiceDate: r.InvoiceDate,
			OwnerName:   owner.DisplayName(),
			Subtotal:    r.Subtotal,
			TaxTotal:    tax,
			GrandTotal:  r.GrandTotal,
			AmountPaid:  r.AmountPaid,
			BalanceDue:  r.BalanceDue,
			Status:      r.Status,
		})
	}

	path, err := reports.InvoiceRegister(h.cfg.ReportsDir, h.companyProfile(), req.StartDate, req.EndDate, out)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to render invoice register")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"file": path, "invoices": len(out)})
}

func (h *Handler) reportChargeCodeUsage(w http.ResponseWriter, r *http.Request) {
	var req reportRangeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	type row struct {
		Code          string          `db:"code"`
		Description   string          `db:"description"`
		TimesUsed     int64           `db:"times_used"`
		TotalQuantity decimal.Decimal `db:"total_quantity"`
		TotalRevenue  decimal.Decimal `db:"total_revenue"`
	}
	var args []any
	query := `SELECT c.code, c.description,
            COUNT(*) AS times_used,
            SUM(t.quantity) AS total_quantity,
            SUM(t.total_price) AS total_revenue
        FROM transactions t JOIN charge_codes c ON c.charge_code_id = t.charge_code_id
        WHERE 1 = 1` + dateRangeClause("t.transaction_date", req.StartDate, req.EndDate, &args) +
		` GROUP BY c.charge_code_id ORDER BY times_used DESC, total_revenue DESC`

	dbRows := []row{}
	if err := h.db.Select(&dbRows, query, args...); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to assemble charge code usage")
		return
	}

	out := make([]reports.ChargeCodeUsageRow, 0, len(dbRows))
	for _, r := range dbRows {
		out = append(out, reports.ChargeCodeUsageRow(r))
	}
	path, err := reports.ChargeCodeUsage(h.cfg.ReportsDir, h.companyProfile(), req.StartDate, req.EndDate, out)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to render charge code usage")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"file": path, "charge_codes": len(out)})
}

func (h *Handler) reportARAging(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AsOf string `json:"as_of,omitempty"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	asOf := strings.TrimSpace(req.AsOf)
	if asOf == "" {
		asOf = todayISO()
	} else if _, err := parseDate(asOf); err != nil {
		respondError(w, http.StatusBadRequest, "as_of must be in YYYY-MM-DD format")
		return
	}

	out, err := h.agingRows(asOf)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to assemble aging report")
		return
	}
	path, err := reports.ARAging(h.cfg.ReportsDir, h.companyProfile(), asOf, out)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to render aging report")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"file": path, "owners": len(out)})
}

// agingRows buckets each owner's open balances by invoice age at asOf:
// up to 30 days is current, then 31-60, 61-90 and over 90.
func (h *Handler) agingRows(asOf string) ([]reports.AgingRow, error) {
	type row struct {
		FarmName   *string         `db:"farm_name"`
		FirstName  *string         `db:"first_name"`
		LastName   *string         `db:"last_name"`
		Current    decimal.Decimal `db:"bucket_current"`
		Days31to60 decimal.Decimal `db:"bucket_31_60"`
		Days61to90 decimal.Decimal `db:"bucket_61_90"`
		Over90     decimal.Decimal `db:"bucket_over_90"`
		Total      decimal.Decimal `db:"total_due"`
	}
	query := `SELECT o.farm_name, o.first_name, o.last_name,
            SUM(CASE WHEN julianday($1) - julianday(i.invoice_date) <= 30 THEN i.balance_due ELSE 0 END) AS bucket_current,
            SUM(CASE WHEN julianday($1) - julianday(i.invoice_date) > 30 AND julianday($1) - julianday(i.invoice_date) <= 60 THEN i.balance_due ELSE 0 END) AS bucket_31_60,
            SUM(CASE WHEN julianday($1) - julianday(i.invoice_date) > 60 AND julianday($1) - julianday(i.invoice_date) <= 90 THEN i.balance_due ELSE 0 END) AS bucket_61_90,
            SUM(CASE WHEN julianday($1) - julianday(i.invoice_date) > 90 THEN i.balance_due ELSE 0 END) AS bucket_over_90,
            SUM(i.balance_due) AS total_due
        FROM invoices i JOIN owners o ON o.owner_id = i.owner_id
        WHERE i.status IN ($2, $3) AND i.balance_due > 0 AND i.invoice_date <= $1
        GROUP BY i.owner_id
        ORDER BY total_due DESC`

	dbRows := []row{}
	if err := h.db.Select(&dbRows, query, asOf, domain.InvoiceUnpaid, domain.InvoicePartial); err != nil {
		return nil, err
	}

	out := make([]reports.AgingRow, 0, len(dbRows))
	for _, r := range dbRows {
		owner := domain.Owner{FarmName: r.FarmName, FirstName: r.FirstName, LastName: r.LastName}
		out = append(out, reports.AgingRow{
			OwnerName:  owner.DisplayName(),
			Current:    r.Current,
			Days31to60: r.Days31to60,
			Days61to90: r.Days61to90,
			Over90:     r.Over90,
			Total:      r.Total,
		})
	}
	return out, nil
}

func (h *Handler) reportPaymentHistory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		reportRangeRequest
		OwnerID *int64 `json:"owner_id,omitempty"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	type row struct {
		domain.OwnerPayment
		FarmName  *string `db:"farm_name"`
		FirstName *string `db:"first_name"`
		LastName  *string `db:"last_name"`
	}
	var args []any
	query := `SELECT p.*, o.farm_name, o.first_name, o.last_name
        FROM owner_payments p JOIN owners o ON o.owner_id = p.owner_id
        WHERE 1 = 1` + dateRangeClause("p.payment_date", req.StartDate, req.EndDate, &args)
	if req.OwnerID != nil {
		args = append(args, *req.OwnerID)
		query += " AND p.owner_id = $" + strconv.Itoa(len(args))
	}
	query += ` ORDER BY p.payment_date, p.payment_id`

	dbRows := []row{}
	if err := h.db.Select(&dbRows, query, args...); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to assemble payment history")
		return
	}

	out := make([]reports.PaymentRow, 0, len(dbRows))
	for _, r := range dbRows {
		owner := domain.Owner{FarmName: r.FarmName, FirstName: r.FirstName, LastName: r.LastName}
		reference := ""
		if r.ReferenceNumber != nil {
			reference = *r.ReferenceNumber
		}
		out = append(out, reports.PaymentRow{
			PaymentDate: r.PaymentDate,
			OwnerName:   owner.DisplayName(),
			Method:      r.PaymentMethod,
			Reference:   reference,
			InvoiceID:   r.InvoiceID,
			Amount:      r.Amount,
		})
	}
	path, err := reports.PaymentHistory(h.cfg.ReportsDir, h.companyProfile(), req.StartDate, req.EndDate, out)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to render payment history")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"file": path, "payments": len(out)})
}

func (h *Handler) reportOwnerStatement(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OwnerID   *int64 `json:"owner_id,omitempty"`
		StartDate string `json:"start_date"`
		EndDate   string `json:"end_date"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := parseDate(req.StartDate); err != nil {
		respondError(w, http.StatusBadRequest, "start_date must be in YYYY-MM-DD format")
		return
	}
	if _, err := parseDate(req.EndDate); err != nil {
		respondError(w, http.StatusBadRequest, "end_date must be in YYYY-MM-DD format")
		return
	}

	company := h.companyProfile()

	// Single owner when named, otherwise every owner with activity in
	// the period.
	var ownerIDs []int64
	if req.OwnerID != nil {
		ownerIDs = []int64{*req.OwnerID}
	} else {
		err := h.db.Select(&ownerIDs, `SELECT DISTINCT owner_id FROM owner_billing_history
            WHERE date(entry_date) >= $1 AND date(entry_date) <= $2 ORDER BY owner_id`,
			req.StartDate, req.EndDate)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "unable to find owners with activity")
			return
		}
	}

	files := []string{}
	for _, ownerID := range ownerIDs {
		var owner domain.Owner
		err := h.db.Get(&owner, `SELECT * FROM owners WHERE owner_id = $1`, ownerID)
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, "owner not found")
			return
		}
		if err != nil {
			respondError(w, http.StatusInternalServerError, "unable to load owner")
			return
		}
		path, err := h.renderOwnerStatement(company, owner, req.StartDate, req.EndDate)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "unable to render statement")
			return
		}
		files = append(files, path)
	}
	respondJSON(w, http.StatusOK, map[string]any{"files": files, "owners": len(files)})
}

func (h *Handler) renderOwnerStatement(company domain.CompanyProfile, owner domain.Owner, start, end string) (string, error) {
	starting, lines, err := h.statementData(owner.OwnerID, start, end)
	if err != nil {
		return "", err
	}
	return reports.OwnerStatement(h.cfg.StatementsDir, company, owner, start, end, starting, lines)
}

// statementData assembles one owner's statement from the billing ledger.
// The balance carried forward is the ledger balance just before the
// statement period opens; in-range entries split into charge and
// payment columns by the sign of the amount change.
func (h *Handler) statementData(ownerID int64, start, end string) (decimal.Decimal, []reports.StatementLine, error) {
	starting := decimal.Zero
	err := h.db.Get(&starting, `SELECT new_balance FROM owner_billing_history
        WHERE owner_id = $1 AND date(entry_date) < $2
        ORDER BY entry_date DESC, history_id DESC LIMIT 1`, ownerID, start)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, nil, err
	}

	entries := []domain.OwnerBillingHistory{}
	err = h.db.Select(&entries, `SELECT * FROM owner_billing_history
        WHERE owner_id = $1 AND date(entry_date) >= $2 AND date(entry_date) <= $3
        ORDER BY entry_date, history_id`, ownerID, start, end)
	if err != nil {
		return decimal.Zero, nil, err
	}

	lines := make([]reports.StatementLine, 0, len(entries))
	for _, entry := range entries {
		line := reports.StatementLine{
			Date:        entry.EntryDate,
			Description: entry.Description,
			Balance:     entry.NewBalance,
		}
		if entry.AmountChange.IsNegative() {
			line.Payment = entry.AmountChange.Neg()
		} else {
			line.Charge = entry.AmountChange
		}
		lines = append(lines, line)
	}
	return starting, lines, nil
}

func (h *Handler) reportHorseHistory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		HorseID   int64  `json:"horse_id"`
		StartDate string `json:"start_date,omitempty"`
		EndDate   string `json:"end_date,omitempty"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.HorseID == 0 {
		respondError(w, http.StatusBadRequest, "horse_id is required")
		return
	}
	dates := reportRangeRequest{StartDate: req.StartDate, EndDate: req.EndDate}
	if err := dates.validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var horseName string
	err := h.db.Get(&horseName, `SELECT horse_name FROM horses WHERE horse_id = $1`, req.HorseID)
	if errors.Is(err, sql.ErrNoRows) {
		respondError(w, http.StatusNotFound, "horse not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load horse")
		return
	}

	type row struct {
		domain.Transaction
		Code string `db:"code"`
	}
	args := []any{req.HorseID}
	query := `SELECT t.*, c.code
        FROM transactions t JOIN charge_codes c ON c.charge_code_id = t.charge_code_id
        WHERE t.horse_id = $1` + dateRangeClause("t.transaction_date", dates.StartDate, dates.EndDate, &args) +
		` ORDER BY t.transaction_date, t.transaction_id`

	dbRows := []row{}
	if err := h.db.Select(&dbRows, query, args...); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to assemble horse history")
		return
	}

	out := make([]reports.HorseHistoryRow, 0, len(dbRows))
	for _, r := range dbRows {
		out = append(out, reports.HorseHistoryRow{
			Date:        r.TransactionDate,
			Code:        r.Code,
			Description: r.Description,
			Quantity:    r.Quantity,
			UnitPrice:   r.UnitPrice,
			Total:       r.TotalPrice,
			InvoiceID:   r.InvoiceID,
		})
	}
	path, err := reports.HorseHistory(h.cfg.ReportsDir, h.companyProfile(), horseName, dates.StartDate, dates.EndDate, out)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to render horse history")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"file": path, "charges": len(out)})
}

func (h *Handler) reportInvoiceDocument(w http.ResponseWriter, r *http.Request) {
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
	var owner domain.Owner
	if err := h.db.Get(&owner, `SELECT * FROM owners WHERE owner_id = $1`, invoice.OwnerID); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load owner")
		return
	}

	type row struct {
		domain.Transaction
		Code string `db:"code"`
	}
	dbRows := []row{}
	err = h.db.Select(&dbRows, `SELECT t.*, c.code
        FROM transactions t JOIN charge_codes c ON c.charge_code_id = t.charge_code_id
        WHERE t.invoice_id = $1 ORDER BY t.transaction_date, t.transaction_id`, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load invoice lines")
		return
	}

	lines := make([]reports.InvoiceLine, 0, len(dbRows))
	for _, r := range dbRows {
		lines = append(lines, reports.InvoiceLine{
			Date:        r.TransactionDate,
			Code:        r.Code,
			Description: r.Description,
			Quantity:    r.Quantity,
			UnitPrice:   r.UnitPrice,
			Total:       r.TotalPrice,
		})
	}
	path, err := reports.InvoiceDocument(h.cfg.InvoicesDir, h.companyProfile(), invoice, owner, lines)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to render invoice")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"file": path, "lines": len(lines)})
}
