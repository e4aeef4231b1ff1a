package domain

import "github.com/shopspring/decimal"

// Invoice statuses.
const (
	InvoiceUnpaid  = "Unpaid"
	InvoicePartial = "Partial"
	InvoicePaid    = "Paid"
	InvoiceVoid    = "Void"
)

// Transaction is a single billable line item for a horse. Everything
// financial hangs off these rows; invoice_id stays NULL until the line is
// swept onto an invoice.
type Transaction struct {
	TransactionID   int64           `db:"transaction_id" json:"transaction_id"`
	HorseID         int64           `db:"horse_id" json:"horse_id"`
	OwnerID         int64           `db:"owner_id" json:"owner_id"`
	InvoiceID       *int64          `db:"invoice_id" json:"invoice_id,omitempty"`
	ChargeCodeID    int64           `db:"charge_code_id" json:"charge_code_id"`
	AdministeredBy  *string         `db:"administered_by" json:"administered_by,omitempty"`
	TransactionDate string          `db:"transaction_date" json:"transaction_date"`
	Description     string          `db:"description" json:"description"`
	Quantity        decimal.Decimal `db:"quantity" json:"quantity"`
	UnitPrice       decimal.Decimal `db:"unit_price" json:"unit_price"`
	TotalPrice      decimal.Decimal `db:"total_price" json:"total_price"`
	Taxable         bool            `db:"taxable" json:"taxable"`
	ItemNotes       *string         `db:"item_notes" json:"item_notes,omitempty"`
	Audit
}

// Invoice groups transactions billed to one owner.
type Invoice struct {
	InvoiceID   int64               `db:"invoice_id" json:"invoice_id"`
	OwnerID     int64               `db:"owner_id" json:"owner_id"`
	InvoiceDate string              `db:"invoice_date" json:"invoice_date"`
	DueDate     *string             `db:"due_date" json:"due_date,omitempty"`
	Subtotal    decimal.Decimal     `db:"subtotal" json:"subtotal"`
	TaxTotal    decimal.NullDecimal `db:"tax_total" json:"tax_total,omitempty"`
	GrandTotal  decimal.Decimal     `db:"grand_total" json:"grand_total"`
	AmountPaid  decimal.Decimal     `db:"amount_paid" json:"amount_paid"`
	BalanceDue  decimal.Decimal     `db:"balance_due" json:"balance_due"`
	Status      string              `db:"status" json:"status"`
	Audit
}
