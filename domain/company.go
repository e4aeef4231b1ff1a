package domain

// CompanyProfile holds the clinic's own identity, printed on invoices and
// statements. The table holds a single row with id 1.
type CompanyProfile struct {
	ID           int64   `db:"id" json:"id"`
	CompanyName  string  `db:"company_name" json:"company_name"`
	AddressLine1 *string `db:"address_line1" json:"address_line1,omitempty"`
	AddressLine2 *string `db:"address_line2" json:"address_line2,omitempty"`
	City         *string `db:"city" json:"city,omitempty"`
	State        *string `db:"state" json:"state,omitempty"`
	ZipCode      *string `db:"zip_code" json:"zip_code,omitempty"`
	Phone        *string `db:"phone" json:"phone,omitempty"`
	Email        *string `db:"email" json:"email,omitempty"`
	Website      *string `db:"website" json:"website,omitempty"`
	Notes        *string `db:"notes" json:"notes,omitempty"`
	Audit
}
