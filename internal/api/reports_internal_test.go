package api

import (
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"

	"edms/m/domain"
	"edms/m/internal/database"
	"edms/m/internal/migrations"
)

func newReportsHandler(t *testing.T) *Handler {
	t.Helper()
	db, err := database.Open(database.DSN(filepath.Join(t.TempDir(), "edms.db")))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	migrations.Run(db)
	if _, err := db.Exec(`INSERT INTO state_provinces (state_code, state_name, country_code) VALUES ('KY', 'Kentucky', 'US')`); err != nil {
		t.Fatalf("seed state: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return &Handler{db: db}
}

func seedOwner(t *testing.T, db *sqlx.DB, farmName string) int64 {
	t.Helper()
	res, err := db.Exec(`INSERT INTO owners (farm_name, address_line1, city, state_code, zip_code, phone)
        VALUES ($1, '1 Paddock Ln', 'Lexington', 'KY', '40502', '555-0100')`, farmName)
	if err != nil {
		t.Fatalf("seed owner: %v", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("owner id: %v", err)
	}
	return id
}

func seedInvoice(t *testing.T, db *sqlx.DB, ownerID int64, date, balance, status string) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO invoices (owner_id, invoice_date, subtotal, grand_total, amount_paid, balance_due, status)
        VALUES ($1, $2, $3, $3, 0, $3, $4)`, ownerID, date, balance, status)
	if err != nil {
		t.Fatalf("seed invoice: %v", err)
	}
}

func TestAgingRowsBucketBoundaries(t *testing.T) {
	h := newReportsHandler(t)
	ownerID := seedOwner(t, h.db, "Bluegrass Farm")

	// Against 2026-06-30 these sit exactly at 30, 31, 60, 61, 90 and
	// 91 days old, one invoice on each side of every bucket edge.
	seedInvoice(t, h.db, ownerID, "2026-05-31", "10.00", domain.InvoiceUnpaid)
	seedInvoice(t, h.db, ownerID, "2026-05-30", "20.00", domain.InvoiceUnpaid)
	seedInvoice(t, h.db, ownerID, "2026-05-01", "30.00", domain.InvoicePartial)
	seedInvoice(t, h.db, ownerID, "2026-04-30", "40.00", domain.InvoiceUnpaid)
	seedInvoice(t, h.db, ownerID, "2026-04-01", "50.00", domain.InvoiceUnpaid)
	seedInvoice(t, h.db, ownerID, "2026-03-31", "60.00", domain.InvoiceUnpaid)

	// Settled and voided invoices carry no open balance.
	seedInvoice(t, h.db, ownerID, "2026-05-15", "0.00", domain.InvoicePaid)
	seedInvoice(t, h.db, ownerID, "2026-05-16", "0.00", domain.InvoiceVoid)

	// A second owner whose only open invoice postdates the as-of date.
	otherID := seedOwner(t, h.db, "Hillside Stables")
	seedInvoice(t, h.db, otherID, "2026-07-15", "75.00", domain.InvoiceUnpaid)

	rows, err := h.agingRows("2026-06-30")
	if err != nil {
		t.Fatalf("agingRows: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected one owner with open balances, got %d", len(rows))
	}
	row := rows[0]
	if row.OwnerName != "Bluegrass Farm" {
		t.Fatalf("owner name: expected Bluegrass Farm, got %q", row.OwnerName)
	}
	for _, check := range []struct {
		bucket string
		got    string
		want   string
	}{
		{"current", row.Current.StringFixed(2), "10.00"},
		{"31-60", row.Days31to60.StringFixed(2), "50.00"},
		{"61-90", row.Days61to90.StringFixed(2), "90.00"},
		{"over 90", row.Over90.StringFixed(2), "60.00"},
		{"total", row.Total.StringFixed(2), "210.00"},
	} {
		if check.got != check.want {
			t.Errorf("%s bucket: expected %s, got %s", check.bucket, check.want, check.got)
		}
	}
}

func TestStatementDataCarriesBalanceForward(t *testing.T) {
	h := newReportsHandler(t)
	ownerID := seedOwner(t, h.db, "Bluegrass Farm")

	ledger := []struct {
		date        string
		description string
		change      string
		balance     string
	}{
		{"2026-05-20", "Invoice #1", "50.00", "50.00"},
		{"2026-06-05", "Invoice #2", "165.00", "215.00"},
		{"2026-06-20", "Payment - Check", "-65.00", "150.00"},
		{"2026-07-02", "Invoice #3", "25.00", "175.00"},
	}
	for _, entry := range ledger {
		_, err := h.db.Exec(`INSERT INTO owner_billing_history (owner_id, entry_date, description, amount_change, new_balance)
            VALUES ($1, $2, $3, $4, $5)`, ownerID, entry.date, entry.description, entry.change, entry.balance)
		if err != nil {
			t.Fatalf("seed ledger entry: %v", err)
		}
	}

	starting, lines, err := h.statementData(ownerID, "2026-06-01", "2026-06-30")
	if err != nil {
		t.Fatalf("statementData: %v", err)
	}
	// The May entry sets the carried-forward balance; the July entry is
	// outside the period entirely.
	if got := starting.StringFixed(2); got != "50.00" {
		t.Fatalf("starting balance: expected 50.00, got %s", got)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 statement lines, got %d", len(lines))
	}

	charge := lines[0]
	if charge.Charge.StringFixed(2) != "165.00" || !charge.Payment.IsZero() {
		t.Fatalf("invoice entry should land in the charge column, got charge=%s payment=%s",
			charge.Charge.StringFixed(2), charge.Payment.StringFixed(2))
	}
	if got := charge.Balance.StringFixed(2); got != "215.00" {
		t.Fatalf("running balance after charge: expected 215.00, got %s", got)
	}

	payment := lines[1]
	if payment.Payment.StringFixed(2) != "65.00" || !payment.Charge.IsZero() {
		t.Fatalf("payment entry should land in the payment column, got charge=%s payment=%s",
			payment.Charge.StringFixed(2), payment.Payment.StringFixed(2))
	}
	if got := payment.Balance.StringFixed(2); got != "150.00" {
		t.Fatalf("running balance after payment: expected 150.00, got %s", got)
	}
}

func TestStatementDataEmptyLedger(t *testing.T) {
	h := newReportsHandler(t)
	ownerID := seedOwner(t, h.db, "Bluegrass Farm")

	starting, lines, err := h.statementData(ownerID, "2026-06-01", "2026-06-30")
	if err != nil {
		t.Fatalf("statementData: %v", err)
	}
	if !starting.IsZero() {
		t.Fatalf("starting balance with no history: expected zero, got %s", starting.StringFixed(2))
	}
	if len(lines) != 0 {
		t.Fatalf("expected no statement lines, got %d", len(lines))
	}
}
