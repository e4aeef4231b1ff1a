package domain

import "github.com/shopspring/decimal"

type Species struct {
	SpeciesID   int64   `db:"species_id" json:"species_id"`
	Name        string  `db:"name" json:"name"`
	Description *string `db:"description" json:"description,omitempty"`
	Audit
}

type StateProvince struct {
	StateCode   string  `db:"state_code" json:"state_code"`
	StateName   string  `db:"state_name" json:"state_name"`
	CountryCode *string `db:"country_code" json:"country_code,omitempty"`
	IsActive    bool    `db:"is_active" json:"is_active"`
	Audit
}

// ChargeCode is a billable service or item code.
type ChargeCode struct {
	ChargeCodeID   int64           `db:"charge_code_id" json:"charge_code_id"`
	Code           string          `db:"code" json:"code"`
	AlternateCode  *string         `db:"alternate_code" json:"alternate_code,omitempty"`
	Description    string          `db:"description" json:"description"`
	Category       *string         `db:"category" json:"category,omitempty"`
	StandardCharge decimal.Decimal `db:"standard_charge" json:"standard_charge"`
	IsActive       bool            `db:"is_active" json:"is_active"`
	Audit
}

type Veterinarian struct {
	VetID         int64   `db:"vet_id" json:"vet_id"`
	FirstName     string  `db:"first_name" json:"first_name"`
	LastName      string  `db:"last_name" json:"last_name"`
	LicenseNumber *string `db:"license_number" json:"license_number,omitempty"`
	Phone         *string `db:"phone" json:"phone,omitempty"`
	Email         *string `db:"email" json:"email,omitempty"`
	IsActive      bool    `db:"is_active" json:"is_active"`
	Audit
}

type Location struct {
	LocationID   int64   `db:"location_id" json:"location_id"`
	LocationName string  `db:"location_name" json:"location_name"`
	Description  *string `db:"description" json:"description,omitempty"`
	IsActive     bool    `db:"is_active" json:"is_active"`
	Audit
}
