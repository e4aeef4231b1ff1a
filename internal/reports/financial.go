package reports

import (
	"fmt"

	"github.com/shopspring/decimal"

	"edms/m/domain"
)

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

func periodLabel(start, end string) string {
	switch {
	case start != "" && end != "":
		return fmt.Sprintf("Period: %s through %s", start, end)
	case start != "":
		return "Period: from " + start
	case end != "":
		return "Period: through " + end
	default:
		return "Period: all dates"
	}
}

// InvoiceRegisterRow is one invoice line on the register report.
type InvoiceRegisterRow struct {
	InvoiceID   int64
	InvoiceDate string
	OwnerName   string
	Subtotal    decimal.Decimal
	TaxTotal    decimal.Decimal
	GrandTotal  decimal.Decimal
	AmountPaid  decimal.Decimal
	BalanceDue  decimal.Decimal
	Status      string
}

// InvoiceRegister renders the landscape invoice register for a date range.
func InvoiceRegister(dir string, company domain.CompanyProfile, start, end string, rows []InvoiceRegisterRow) (string, error) {
	pdf := newDocument("L", "Invoice Register", company)

	pdf.SetFont(fontFamily, "", 10)
	pdf.CellFormat(0, 6, periodLabel(start, end), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	cols := []column{
		{"Invoice #", 22, "R"},
		{"Date", 26, "C"},
		{"Owner", 72, "L"},
		{"Subtotal", 26, "R"},
		{"Tax", 22, "R"},
		{"Total", 26, "R"},
		{"Paid", 26, "R"},
		{"Balance", 26, "R"},
		{"Status", 20, "C"},
	}
	writeTableHeader(pdf, cols)

	totals := struct{ subtotal, tax, grand, paid, balance decimal.Decimal }{}
	for _, row := range rows {
		writeTableRow(pdf, cols, []string{
			fmt.Sprintf("%d", row.InvoiceID),
			row.InvoiceDate,
			row.OwnerName,
			money(row.Subtotal),
			money(row.TaxTotal),
			money(row.GrandTotal),
			money(row.AmountPaid),
			money(row.BalanceDue),
			row.Status,
		})
		if row.Status != domain.InvoiceVoid {
			totals.subtotal = totals.subtotal.Add(row.Subtotal)
			totals.tax = totals.tax.Add(row.TaxTotal)
			totals.grand = totals.grand.Add(row.GrandTotal)
			totals.paid = totals.paid.Add(row.AmountPaid)
			totals.balance = totals.balance.Add(row.BalanceDue)
		}
	}

	pdf.SetFont(fontFamily, "B", 9)
	writeTableRow(pdf, cols, []string{
		"", "", fmt.Sprintf("Totals (%d invoices, void excluded)", len(rows)),
		money(totals.subtotal), money(totals.tax), money(totals.grand),
		money(totals.paid), money(totals.balance), "",
	})

	return save(pdf, dir, FileName("invoice_register"))
}

// ChargeCodeUsageRow aggregates one charge code's activity.
type ChargeCodeUsageRow struct {
	Code          string
	Description   string
	TimesUsed     int64
	TotalQuantity decimal.Decimal
	TotalRevenue  decimal.Decimal
}

// ChargeCodeUsage renders usage counts and revenue per charge code, with
// a summary block at the end.
func ChargeCodeUsage(dir string, company domain.CompanyProfile, start, end string, rows []ChargeCodeUsageRow) (string, error) {
	pdf := newDocument("P", "Charge Code Usage", company)

	pdf.SetFont(fontFamily, "", 10)
	pdf.CellFormat(0, 6, periodLabel(start, end), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	cols := []column{
		{"Code", 25, "L"},
		{"Description", 75, "L"},
		{"Uses", 20, "R"},
		{"Quantity", 28, "R"},
		{"Revenue", 32, "R"},
	}
	writeTableHeader(pdf, cols)

	var totalUses int64
	totalRevenue := decimal.Zero
	for _, row := range rows {
		writeTableRow(pdf, cols, []string{
			row.Code,
			row.Description,
			fmt.Sprintf("%d", row.TimesUsed),
			row.TotalQuantity.StringFixed(2),
			money(row.TotalRevenue),
		})
		totalUses += row.TimesUsed
		totalRevenue = totalRevenue.Add(row.TotalRevenue)
	}

	pdf.Ln(4)
	pdf.SetFont(fontFamily, "B", 10)
	pdf.CellFormat(0, 6, "Summary", "", 1, "L", false, 0, "")
	pdf.SetFont(fontFamily, "", 10)
	pdf.CellFormat(0, 5, fmt.Sprintf("Charge codes used: %d", len(rows)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, fmt.Sprintf("Total charges recorded: %d", totalUses), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, "Total revenue: "+money(totalRevenue), "", 1, "L", false, 0, "")

	return save(pdf, dir, FileName("charge_code_usage"))
}

// AgingRow is one owner's receivable split into aging buckets.
type AgingRow struct {
	OwnerName  string
	Current    decimal.Decimal
	Days31to60 decimal.Decimal
	Days61to90 decimal.Decimal
	Over90     decimal.Decimal
	Total      decimal.Decimal
}

// ARAging renders accounts receivable by age as of a date. Buckets are
// 0-30, 31-60, 61-90 and over 90 days.
func ARAging(dir string, company domain.CompanyProfile, asOf string, rows []AgingRow) (string, error) {
	pdf := newDocument("P", "Accounts Receivable Aging", company)

	pdf.SetFont(fontFamily, "", 10)
	pdf.CellFormat(0, 6, "As of "+asOf, "", 1, "L", false, 0, "")
	pdf.Ln(2)

	cols := []column{
		{"Owner", 60, "L"},
		{"Current", 24, "R"},
		{"31-60", 24, "R"},
		{"61-90", 24, "R"},
		{"Over 90", 24, "R"},
		{"Total", 24, "R"},
	}
	writeTableHeader(pdf, cols)

	var totals AgingRow
	for _, row := range rows {
		writeTableRow(pdf, cols, []string{
			row.OwnerName,
			money(row.Current),
			money(row.Days31to60),
			money(row.Days61to90),
			money(row.Over90),
			money(row.Total),
		})
		totals.Current = totals.Current.Add(row.Current)
		totals.Days31to60 = totals.Days31to60.Add(row.Days31to60)
		totals.Days61to90 = totals.Days61to90.Add(row.Days61to90)
		totals.Over90 = totals.Over90.Add(row.Over90)
		totals.Total = totals.Total.Add(row.Total)
	}

	pdf.SetFont(fontFamily, "B", 9)
	writeTableRow(pdf, cols, []string{
		"Totals",
		money(totals.Current),
		money(totals.Days31to60),
		money(totals.Days61to90),
		money(totals.Over90),
		money(totals.Total),
	})

	return save(pdf, dir, FileName("ar_aging"))
}

// PaymentRow is one received payment on the history report.
type PaymentRow struct {
	PaymentDate string
	OwnerName   string
	Method      string
	Reference   string
	InvoiceID   *int64
	Amount      decimal.Decimal
}

// PaymentHistory renders payments received over a date range.
func PaymentHistory(dir string, company domain.CompanyProfile, start, end string, rows []PaymentRow) (string, error) {
	pdf := newDocument("P", "Payment History", company)

	pdf.SetFont(fontFamily, "", 10)
	pdf.CellFormat(0, 6, periodLabel(start, end), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	cols := []column{
		{"Date", 24, "C"},
		{"Owner", 58, "L"},
		{"Method", 26, "L"},
		{"Reference", 30, "L"},
		{"Invoice", 18, "R"},
		{"Amount", 24, "R"},
	}
	writeTableHeader(pdf, cols)

	total := decimal.Zero
	for _, row := range rows {
		invoice := ""
		if row.InvoiceID != nil {
			invoice = fmt.Sprintf("%d", *row.InvoiceID)
		}
		writeTableRow(pdf, cols, []string{
			row.PaymentDate,
			row.OwnerName,
			row.Method,
			row.Reference,
			invoice,
			money(row.Amount),
		})
		total = total.Add(row.Amount)
	}

	pdf.SetFont(fontFamily, "B", 9)
	writeTableRow(pdf, cols, []string{
		"", fmt.Sprintf("Total (%d payments)", len(rows)), "", "", "", money(total),
	})

	return save(pdf, dir, FileName("payment_history"))
}
