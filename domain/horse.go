package domain

import "github.com/shopspring/decimal"

type Horse struct {
	HorseID            int64   `db:"horse_id" json:"horse_id"`
	HorseName          string  `db:"horse_name" json:"horse_name"`
	AccountNumber      *string `db:"account_number" json:"account_number,omitempty"`
	SpeciesID          *int64  `db:"species_id" json:"species_id,omitempty"`
	Breed              *string `db:"breed" json:"breed,omitempty"`
	Color              *string `db:"color" json:"color,omitempty"`
	Sex                *string `db:"sex" json:"sex,omitempty"`
	DateOfBirth        *string `db:"date_of_birth" json:"date_of_birth,omitempty"`
	RegistrationNumber *string `db:"registration_number" json:"registration_number,omitempty"`
	MicrochipID        *string `db:"microchip_id" json:"microchip_id,omitempty"`
	Tattoo             *string `db:"tattoo" json:"tattoo,omitempty"`
	Brand              *string `db:"brand" json:"brand,omitempty"`
	CurrentLocationID  *int64  `db:"current_location_id" json:"current_location_id,omitempty"`
	IsActive           bool    `db:"is_active" json:"is_active"`
	Notes              *string `db:"notes" json:"notes,omitempty"`
	Audit
}

// HorseOwner links a horse to an owner with an ownership share.
type HorseOwner struct {
	HorseID             int64           `db:"horse_id" json:"horse_id"`
	OwnerID             int64           `db:"owner_id" json:"owner_id"`
	OwnershipPercentage decimal.Decimal `db:"ownership_percentage" json:"ownership_percentage"`
	StartDate           string          `db:"start_date" json:"start_date"`
	EndDate             *string         `db:"end_date" json:"end_date,omitempty"`
	Audit
}

// HorseLocation is one row of a horse's movement history. A NULL end_date
// marks the current stay.
type HorseLocation struct {
	HorseLocationID int64   `db:"horse_location_id" json:"horse_location_id"`
	HorseID         int64   `db:"horse_id" json:"horse_id"`
	LocationID      int64   `db:"location_id" json:"location_id"`
	StartDate       string  `db:"start_date" json:"start_date"`
	EndDate         *string `db:"end_date" json:"end_date,omitempty"`
	ReasonForMove   *string `db:"reason_for_move" json:"reason_for_move,omitempty"`
	Audit
}
