package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"edms/m/domain"
)

const apptTimeLayout = "2006-01-02 15:04"

type appointmentRequest struct {
	HorseID             *int64 `json:"horse_id,omitempty"`
	OwnerID             *int64 `json:"owner_id,omitempty"`
	VetID               *int64 `json:"vet_id,omitempty"`
	AppointmentDatetime string `json:"appointment_datetime"`
	DurationMinutes     int64  `json:"duration_minutes,omitempty"`
	Reason              string `json:"reason,omitempty"`
	Notes               string `json:"notes,omitempty"`
	Status              string `json:"status,omitempty"`
}

func (req *appointmentRequest) validate() error {
	req.AppointmentDatetime = strings.TrimSpace(req.AppointmentDatetime)
	if _, err := time.Parse(apptTimeLayout, req.AppointmentDatetime); err != nil {
		return errors.New("appointment_datetime must be in YYYY-MM-DD HH:MM format")
	}
	if req.DurationMinutes == 0 {
		req.DurationMinutes = 30
	}
	if req.DurationMinutes < 0 || req.DurationMinutes > 24*60 {
		return errors.New("duration_minutes must be between 1 and 1440")
	}
	if req.Status == "" {
		req.Status = domain.AppointmentScheduled
	}
	switch req.Status {
	case domain.AppointmentScheduled, domain.AppointmentCompleted, domain.AppointmentCancelled:
	default:
		return errors.New("status must be Scheduled, Completed or Cancelled")
	}
	return nil
}

// vetHasConflict reports whether the vet already has a scheduled
// appointment overlapping the given window, ignoring excludeID.
func (h *Handler) vetHasConflict(vetID int64, start string, minutes int64, excludeID int64) (bool, error) {
	var count int
	err := h.db.Get(&count, `SELECT COUNT(*) FROM appointments
        WHERE vet_id = $1 AND status = $2 AND appointment_id != $3
        AND datetime(appointment_datetime) < datetime($4, '+' || $5 || ' minutes')
        AND datetime(appointment_datetime, '+' || duration_minutes || ' minutes') > datetime($4)`,
		vetID, domain.AppointmentScheduled, excludeID, start, minutes)
	return count > 0, err
}

func (h *Handler) createAppointment(w http.ResponseWriter, r *http.Request) {
	var req appointmentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.VetID != nil {
		conflict, err := h.vetHasConflict(*req.VetID, req.AppointmentDatetime, req.DurationMinutes, 0)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "unable to check schedule")
			return
		}
		if conflict {
			respondError(w, http.StatusConflict, "veterinarian already has an appointment in that time slot")
			return
		}
	}

	uid := currentUser(r)
	var id int64
	err := h.db.QueryRowx(`INSERT INTO appointments (horse_id, owner_id, vet_id, appointment_datetime, duration_minutes, reason, notes, status, created_by, modified_by)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9) RETURNING appointment_id`,
		req.HorseID, req.OwnerID, req.VetID, req.AppointmentDatetime, req.DurationMinutes,
		nullIfEmpty(req.Reason), nullIfEmpty(req.Notes), req.Status, uid).Scan(&id)
	if err != nil {
		respondError(w, http.StatusBadRequest, "unable to create appointment (referenced records must exist)")
		return
	}
	var appt domain.Appointment
	if err := h.db.Get(&appt, `SELECT * FROM appointments WHERE appointment_id = $1`, id); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load created appointment")
		return
	}
	respondJSON(w, http.StatusCreated, appt)
}

func (h *Handler) listAppointments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := `SELECT * FROM appointments`
	var clauses []string
	var args []any
	if vet := q.Get("vet_id"); vet != "" {
		id, err := strconv.ParseInt(vet, 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid vet_id")
			return
		}
		args = append(args, id)
		clauses = append(clauses, fmt.Sprintf("vet_id = $%d", len(args)))
	}
	if horse := q.Get("horse_id"); horse != "" {
		id, err := strconv.ParseInt(horse, 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid horse_id")
			return
		}
		args = append(args, id)
		clauses = append(clauses, fmt.Sprintf("horse_id = $%d", len(args)))
	}
	if status := strings.TrimSpace(q.Get("status")); status != "" {
		args = append(args, status)
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}
	if start := strings.TrimSpace(q.Get("start_date")); start != "" {
		if _, err := parseDate(start); err != nil {
			respondError(w, http.StatusBadRequest, "start_date must be in YYYY-MM-DD format")
			return
		}
		args = append(args, start)
		clauses = append(clauses, fmt.Sprintf("date(appointment_datetime) >= $%d", len(args)))
	}
	if end := strings.TrimSpace(q.Get("end_date")); end != "" {
		if _, err := parseDate(end); err != nil {
			respondError(w, http.StatusBadRequest, "end_date must be in YYYY-MM-DD format")
			return
		}
		args = append(args, end)
		clauses = append(clauses, fmt.Sprintf("date(appointment_datetime) <= $%d", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY appointment_datetime"

	appts := []domain.Appointment{}
	if err := h.db.Select(&appts, query, args...); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list appointments")
		return
	}
	respondJSON(w, http.StatusOK, appts)
}

func (h *Handler) updateAppointment(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid appointment id")
		return
	}
	var req appointmentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.VetID != nil && req.Status == domain.AppointmentScheduled {
		conflict, err := h.vetHasConflict(*req.VetID, req.AppointmentDatetime, req.DurationMinutes, id)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "unable to check schedule")
			return
		}
		if conflict {
			respondError(w, http.StatusConflict, "veterinarian already has an appointment in that time slot")
			return
		}
	}

	res, err := h.db.Exec(`UPDATE appointments SET horse_id = $1, owner_id = $2, vet_id = $3, appointment_datetime = $4, duration_minutes = $5, reason = $6, notes = $7, status = $8, modified_date = CURRENT_TIMESTAMP, modified_by = $9 WHERE appointment_id = $10`,
		req.HorseID, req.OwnerID, req.VetID, req.AppointmentDatetime, req.DurationMinutes,
		nullIfEmpty(req.Reason), nullIfEmpty(req.Notes), req.Status, currentUser(r), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to update appointment")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		respondError(w, http.StatusNotFound, "appointment not found")
		return
	}
	var appt domain.Appointment
	if err := h.db.Get(&appt, `SELECT * FROM appointments WHERE appointment_id = $1`, id); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load updated appointment")
		return
	}
	respondJSON(w, http.StatusOK, appt)
}

func (h *Handler) cancelAppointment(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid appointment id")
		return
	}
	res, err := h.db.Exec(`UPDATE appointments SET status = $1, modified_date = CURRENT_TIMESTAMP, modified_by = $2 WHERE appointment_id = $3 AND status = $4`,
		domain.AppointmentCancelled, currentUser(r), id, domain.AppointmentScheduled)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to cancel appointment")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		respondError(w, http.StatusNotFound, "scheduled appointment not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "appointment cancelled"})
}

// Reminders

type reminderRequest struct {
	UserID       string `json:"user_id,omitempty"`
	HorseID      *int64 `json:"horse_id,omitempty"`
	ReminderDate string `json:"reminder_date"`
	Notes        string `json:"notes"`
}

func (h *Handler) createReminder(w http.ResponseWriter, r *http.Request) {
	var req reminderRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Notes) == "" {
		respondError(w, http.StatusBadRequest, "notes is required")
		return
	}
	if _, err := parseDate(req.ReminderDate); err != nil {
		respondError(w, http.StatusBadRequest, "reminder_date must be in YYYY-MM-DD format")
		return
	}
	uid := currentUser(r)
	target := strings.ToUpper(strings.TrimSpace(req.UserID))
	if target == "" {
		target = uid
	}
	var id int64
	err := h.db.QueryRowx(`INSERT INTO reminders (user_id, horse_id, reminder_date, notes, created_by, modified_by) VALUES ($1, $2, $3, $4, $5, $5) RETURNING reminder_id`,
		target, req.HorseID, strings.TrimSpace(req.ReminderDate), strings.TrimSpace(req.Notes), uid).Scan(&id)
	if err != nil {
		respondError(w, http.StatusBadRequest, "unable to create reminder (user and horse must exist)")
		return
	}
	var reminder domain.Reminder
	if err := h.db.Get(&reminder, `SELECT * FROM reminders WHERE reminder_id = $1`, id); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load created reminder")
		return
	}
	respondJSON(w, http.StatusCreated, reminder)
}

// listReminders returns the caller's reminders, pending only unless
// ?include_completed=true.
func (h *Handler) listReminders(w http.ResponseWriter, r *http.Request) {
	query := `SELECT * FROM reminders WHERE user_id = $1`
	if r.URL.Query().Get("include_completed") != "true" {
		query += " AND is_completed = 0"
	}
	query += " ORDER BY reminder_date"

	reminders := []domain.Reminder{}
	if err := h.db.Select(&reminders, query, currentUser(r)); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list reminders")
		return
	}
	respondJSON(w, http.StatusOK, reminders)
}

func (h *Handler) updateReminder(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid reminder id")
		return
	}
	var req reminderRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Notes) == "" {
		respondError(w, http.StatusBadRequest, "notes is required")
		return
	}
	if _, err := parseDate(req.ReminderDate); err != nil {
		respondError(w, http.StatusBadRequest, "reminder_date must be in YYYY-MM-DD format")
		return
	}
	uid := currentUser(r)
	res, err := h.db.Exec(`UPDATE reminders SET horse_id = $1, reminder_date = $2, notes = $3, modified_date = CURRENT_TIMESTAMP, modified_by = $4 WHERE reminder_id = $5 AND user_id = $4`,
		req.HorseID, strings.TrimSpace(req.ReminderDate), strings.TrimSpace(req.Notes), uid, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to update reminder")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		respondError(w, http.StatusNotFound, "reminder not found")
		return
	}
	var reminder domain.Reminder
	if err := h.db.Get(&reminder, `SELECT * FROM reminders WHERE reminder_id = $1`, id); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load updated reminder")
		return
	}
	respondJSON(w, http.StatusOK, reminder)
}

func (h *Handler) deleteReminder(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid reminder id")
		return
	}
	res, err := h.db.Exec(`DELETE FROM reminders WHERE reminder_id = $1 AND user_id = $2`, id, currentUser(r))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to delete reminder")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		respondError(w, http.StatusNotFound, "reminder not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "reminder deleted"})
}

func (h *Handler) completeReminder(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid reminder id")
		return
	}
	uid := currentUser(r)
	res, err := h.db.Exec(`UPDATE reminders SET is_completed = 1, completed_date = CURRENT_TIMESTAMP, modified_date = CURRENT_TIMESTAMP, modified_by = $1 WHERE reminder_id = $2 AND user_id = $1 AND is_completed = 0`, uid, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to complete reminder")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		respondError(w, http.StatusNotFound, "pending reminder not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "reminder completed"})
}
