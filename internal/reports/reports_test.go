package reports_test

import (
	"os"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"edms/m/domain"
	"edms/m/internal/reports"
)

func d(s string) decimal.Decimal {
	out, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return out
}

func TestFileNameShape(t *testing.T) {
	name := reports.FileName("invoice_register")
	if !strings.HasPrefix(name, "invoice_register_") || !strings.HasSuffix(name, ".pdf") {
		t.Fatalf("unexpected file name %q", name)
	}
	if name == reports.FileName("invoice_register") {
		t.Fatal("two file names should not collide")
	}
}

func TestInvoiceRegisterWritesPDF(t *testing.T) {
	dir := t.TempDir()
	company := domain.CompanyProfile{CompanyName: "Test Equine Clinic"}
	rows := []reports.InvoiceRegisterRow{
		{InvoiceID: 1, InvoiceDate: "2026-01-15", OwnerName: "Bluegrass Farm",
			Subtotal: d("165.00"), GrandTotal: d("165.00"), BalanceDue: d("165.00"), Status: domain.InvoiceUnpaid},
		{InvoiceID: 2, InvoiceDate: "2026-01-20", OwnerName: "Ann Smith",
			Subtotal: d("40.00"), GrandTotal: d("40.00"), Status: domain.InvoiceVoid},
	}

	path, err := reports.InvoiceRegister(dir, company, "2026-01-01", "2026-01-31", rows)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	stat, err := os.Stat(path)
	if err != nil {
		t.Fatalf("output missing: %v", err)
	}
	if stat.Size() == 0 {
		t.Fatal("output is empty")
	}
}

func TestOwnerStatementWritesPDF(t *testing.T) {
	dir := t.TempDir()
	owner := domain.Owner{
		OwnerID:      7,
		FirstName:    strPtr("Ann"),
		LastName:     strPtr("Smith"),
		AddressLine1: "100 Paddock Ln",
		City:         "Lexington",
		StateCode:    "KY",
		ZipCode:      "40502",
	}
	lines := []reports.StatementLine{
		{Date: "2026-01-15", Description: "Invoice #1", Charge: d("165.00"), Balance: d("215.00")},
		{Date: "2026-01-20", Description: "Payment - Check", Payment: d("65.00"), Balance: d("150.00")},
	}

	path, err := reports.OwnerStatement(dir, domain.CompanyProfile{}, owner, "2026-01-01", "2026-01-31", d("50.00"), lines)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("output missing: %v", err)
	}
}

func strPtr(s string) *string { return &s }
