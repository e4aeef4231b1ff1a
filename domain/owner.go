package domain

import "github.com/shopspring/decimal"

type Owner struct {
	OwnerID       int64               `db:"owner_id" json:"owner_id"`
	AccountNumber *string             `db:"account_number" json:"account_number,omitempty"`
	FarmName      *string             `db:"farm_name" json:"farm_name,omitempty"`
	FirstName     *string             `db:"first_name" json:"first_name,omitempty"`
	LastName      *string             `db:"last_name" json:"last_name,omitempty"`
	AddressLine1  string              `db:"address_line1" json:"address_line1"`
	AddressLine2  *string             `db:"address_line2" json:"address_line2,omitempty"`
	City          string              `db:"city" json:"city"`
	StateCode     string              `db:"state_code" json:"state_code"`
	ZipCode       string              `db:"zip_code" json:"zip_code"`
	Phone         string              `db:"phone" json:"phone"`
	MobilePhone   *string             `db:"mobile_phone" json:"mobile_phone,omitempty"`
	Email         *string             `db:"email" json:"email,omitempty"`
	IsActive      bool                `db:"is_active" json:"is_active"`
	Balance       decimal.Decimal     `db:"balance" json:"balance"`
	CreditLimit   decimal.NullDecimal `db:"credit_limit" json:"credit_limit,omitempty"`
	BillingTerms  *string             `db:"billing_terms" json:"billing_terms,omitempty"`
	Notes         *string             `db:"notes" json:"notes,omitempty"`
	Audit
}

// DisplayName renders the owner the way statements and registers print it:
// farm name when present, otherwise "First Last".
func (o Owner) DisplayName() string {
	if o.FarmName != nil && *o.FarmName != "" {
		return *o.FarmName
	}
	name := ""
	if o.FirstName != nil {
		name = *o.FirstName
	}
	if o.LastName != nil {
		if name != "" {
			name += " "
		}
		name += *o.LastName
	}
	if name == "" {
		return "Unnamed Owner"
	}
	return name
}

type OwnerPayment struct {
	PaymentID       int64           `db:"payment_id" json:"payment_id"`
	OwnerID         int64           `db:"owner_id" json:"owner_id"`
	InvoiceID       *int64          `db:"invoice_id" json:"invoice_id,omitempty"`
	PaymentDate     string          `db:"payment_date" json:"payment_date"`
	Amount          decimal.Decimal `db:"amount" json:"amount"`
	PaymentMethod   string          `db:"payment_method" json:"payment_method"`
	ReferenceNumber *string         `db:"reference_number" json:"reference_number,omitempty"`
	Notes           *string         `db:"notes" json:"notes,omitempty"`
	Audit
}

// OwnerBillingHistory is the append-only ledger behind statement starting
// balances.
type OwnerBillingHistory struct {
	HistoryID    int64           `db:"history_id" json:"history_id"`
	OwnerID      int64           `db:"owner_id" json:"owner_id"`
	EntryDate    string          `db:"entry_date" json:"entry_date"`
	Description  string          `db:"description" json:"description"`
	AmountChange decimal.Decimal `db:"amount_change" json:"amount_change"`
	NewBalance   decimal.Decimal `db:"new_balance" json:"new_balance"`
	Audit
}
