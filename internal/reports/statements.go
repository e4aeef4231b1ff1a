package reports

import (
	"fmt"

	"github.com/shopspring/decimal"

	"edms/m/domain"
)

// StatementLine is one dated entry on an owner statement. Exactly one of
// Charge or Payment is set per line.
type StatementLine struct {
	Date        string
	Description string
	Charge      decimal.Decimal
	Payment     decimal.Decimal
	Balance     decimal.Decimal
}

// OwnerStatement renders an owner's activity over a period, opening with
// the balance carried forward from before the start date.
func OwnerStatement(dir string, company domain.CompanyProfile, owner domain.Owner, start, end string, startingBalance decimal.Decimal, lines []StatementLine) (string, error) {
	pdf := newDocument("P", "Statement of Account", company)

	pdf.SetFont(fontFamily, "B", 10)
	pdf.CellFormat(0, 5, owner.DisplayName(), "", 1, "L", false, 0, "")
	pdf.SetFont(fontFamily, "", 9)
	pdf.CellFormat(0, 4.5, owner.AddressLine1, "", 1, "L", false, 0, "")
	if owner.AddressLine2 != nil {
		pdf.CellFormat(0, 4.5, *owner.AddressLine2, "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(0, 4.5, fmt.Sprintf("%s, %s %s", owner.City, owner.StateCode, owner.ZipCode), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont(fontFamily, "", 10)
	pdf.CellFormat(0, 6, periodLabel(start, end), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	cols := []column{
		{"Date", 26, "C"},
		{"Description", 82, "L"},
		{"Charges", 24, "R"},
		{"Payments", 24, "R"},
		{"Balance", 24, "R"},
	}
	writeTableHeader(pdf, cols)

	writeTableRow(pdf, cols, []string{
		start, "Balance forward", "", "", money(startingBalance),
	})

	ending := startingBalance
	for _, line := range lines {
		charge, payment := "", ""
		if !line.Charge.IsZero() {
			charge = money(line.Charge)
		}
		if !line.Payment.IsZero() {
			payment = money(line.Payment)
		}
		writeTableRow(pdf, cols, []string{
			line.Date, line.Description, charge, payment, money(line.Balance),
		})
		ending = line.Balance
	}

	pdf.Ln(4)
	pdf.SetFont(fontFamily, "B", 11)
	pdf.CellFormat(0, 7, "Balance due: "+money(ending), "", 1, "R", false, 0, "")

	return save(pdf, dir, FileName(fmt.Sprintf("statement_owner_%d", owner.OwnerID)))
}

// HorseHistoryRow is one billed or unbilled charge on a horse's history.
type HorseHistoryRow struct {
	Date        string
	Code        string
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Total       decimal.Decimal
	InvoiceID   *int64
}

// HorseHistory renders every charge recorded against one horse.
func HorseHistory(dir string, company domain.CompanyProfile, horseName string, start, end string, rows []HorseHistoryRow) (string, error) {
	pdf := newDocument("P", "Horse Transaction History", company)

	pdf.SetFont(fontFamily, "B", 11)
	pdf.CellFormat(0, 6, "Horse: "+horseName, "", 1, "L", false, 0, "")
	pdf.SetFont(fontFamily, "", 10)
	pdf.CellFormat(0, 6, periodLabel(start, end), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	cols := []column{
		{"Date", 24, "C"},
		{"Code", 20, "L"},
		{"Description", 70, "L"},
		{"Qty", 14, "R"},
		{"Price", 22, "R"},
		{"Total", 22, "R"},
		{"Invoice", 18, "R"},
	}
	writeTableHeader(pdf, cols)

	total := decimal.Zero
	for _, row := range rows {
		invoice := "unbilled"
		if row.InvoiceID != nil {
			invoice = fmt.Sprintf("%d", *row.InvoiceID)
		}
		writeTableRow(pdf, cols, []string{
			row.Date,
			row.Code,
			row.Description,
			row.Quantity.StringFixed(2),
			money(row.UnitPrice),
			money(row.Total),
			invoice,
		})
		total = total.Add(row.Total)
	}

	pdf.SetFont(fontFamily, "B", 9)
	writeTableRow(pdf, cols, []string{
		"", "", fmt.Sprintf("Total (%d charges)", len(rows)), "", "", money(total), "",
	})

	return save(pdf, dir, FileName("horse_history"))
}

// InvoiceLine is one line item on a printed invoice.
type InvoiceLine struct {
	Date        string
	Code        string
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Total       decimal.Decimal
}

// InvoiceDocument renders a single invoice for sending to the owner.
func InvoiceDocument(dir string, company domain.CompanyProfile, invoice domain.Invoice, owner domain.Owner, lines []InvoiceLine) (string, error) {
	pdf := newDocument("P", fmt.Sprintf("Invoice #%d", invoice.InvoiceID), company)

	pdf.SetFont(fontFamily, "B", 10)
	pdf.CellFormat(0, 5, "Bill to:", "", 1, "L", false, 0, "")
	pdf.SetFont(fontFamily, "", 9)
	pdf.CellFormat(0, 4.5, owner.DisplayName(), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 4.5, owner.AddressLine1, "", 1, "L", false, 0, "")
	if owner.AddressLine2 != nil {
		pdf.CellFormat(0, 4.5, *owner.AddressLine2, "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(0, 4.5, fmt.Sprintf("%s, %s %s", owner.City, owner.StateCode, owner.ZipCode), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont(fontFamily, "", 10)
	pdf.CellFormat(0, 5, "Invoice date: "+invoice.InvoiceDate, "", 1, "L", false, 0, "")
	if invoice.DueDate != nil {
		pdf.CellFormat(0, 5, "Due date: "+*invoice.DueDate, "", 1, "L", false, 0, "")
	}
	pdf.Ln(2)

	cols := []column{
		{"Date", 24, "C"},
		{"Code", 20, "L"},
		{"Description", 78, "L"},
		{"Qty", 14, "R"},
		{"Price", 22, "R"},
		{"Total", 22, "R"},
	}
	writeTableHeader(pdf, cols)

	for _, line := range lines {
		writeTableRow(pdf, cols, []string{
			line.Date,
			line.Code,
			line.Description,
			line.Quantity.StringFixed(2),
			money(line.UnitPrice),
			money(line.Total),
		})
	}

	pdf.Ln(4)
	labelW, valueW := 150.0, 30.0
	writeTotal := func(label string, amount decimal.Decimal, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont(fontFamily, style, 10)
		pdf.CellFormat(labelW, 6, label, "", 0, "R", false, 0, "")
		pdf.CellFormat(valueW, 6, money(amount), "", 1, "R", false, 0, "")
	}
	writeTotal("Subtotal:", invoice.Subtotal, false)
	if invoice.TaxTotal.Valid && !invoice.TaxTotal.Decimal.IsZero() {
		writeTotal("Tax:", invoice.TaxTotal.Decimal, false)
	}
	writeTotal("Total:", invoice.GrandTotal, true)
	if invoice.AmountPaid.IsPositive() {
		writeTotal("Paid:", invoice.AmountPaid, false)
		writeTotal("Balance due:", invoice.BalanceDue, true)
	}

	return save(pdf, dir, FileName(fmt.Sprintf("invoice_%d", invoice.InvoiceID)))
}
