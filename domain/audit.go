package domain

// Audit carries the bookkeeping columns present on every table.
type Audit struct {
	CreatedDate  string  `db:"created_date" json:"created_date,omitempty"`
	ModifiedDate string  `db:"modified_date" json:"modified_date,omitempty"`
	CreatedBy    *string `db:"created_by" json:"created_by,omitempty"`
	ModifiedBy   *string `db:"modified_by" json:"modified_by,omitempty"`
}
