package domain

// Appointment statuses.
const (
	AppointmentScheduled = "Scheduled"
	AppointmentCompleted = "Completed"
	AppointmentCancelled = "Cancelled"
)

type Appointment struct {
	AppointmentID       int64   `db:"appointment_id" json:"appointment_id"`
	HorseID             *int64  `db:"horse_id" json:"horse_id,omitempty"`
	OwnerID             *int64  `db:"owner_id" json:"owner_id,omitempty"`
	VetID               *int64  `db:"vet_id" json:"vet_id,omitempty"`
	AppointmentDatetime string  `db:"appointment_datetime" json:"appointment_datetime"`
	DurationMinutes     int64   `db:"duration_minutes" json:"duration_minutes"`
	Reason              *string `db:"reason" json:"reason,omitempty"`
	Notes               *string `db:"notes" json:"notes,omitempty"`
	Status              string  `db:"status" json:"status"`
	Audit
}

type Reminder struct {
	ReminderID    int64   `db:"reminder_id" json:"reminder_id"`
	UserID        string  `db:"user_id" json:"user_id"`
	HorseID       *int64  `db:"horse_id" json:"horse_id,omitempty"`
	ReminderDate  string  `db:"reminder_date" json:"reminder_date"`
	Notes         string  `db:"notes" json:"notes"`
	IsCompleted   bool    `db:"is_completed" json:"is_completed"`
	CompletedDate *string `db:"completed_date" json:"completed_date,omitempty"`
	Audit
}
