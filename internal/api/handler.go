package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jmoiron/sqlx"

	"edms/m/internal/backup"
	"edms/m/internal/config"
)

type ctxKey string

const (
	ctxUserID ctxKey = "userID"
	ctxRole   ctxKey = "role"
)

// User roles.
const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
	RoleVet   = "vet"
)

// Handler bundles dependencies for HTTP handlers.
type Handler struct {
	db      *sqlx.DB
	secret  string
	cfg     config.Config
	backups *backup.Manager
}

// New constructs a Handler.
func New(db *sqlx.DB, cfg config.Config) *Handler {
	return &Handler{
		db:      db,
		secret:  cfg.Secret,
		cfg:     cfg,
		backups: backup.NewManager(cfg),
	}
}

// Router wires up the HTTP API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.health)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.register)
		r.Post("/login", h.login)
		r.Group(func(protected chi.Router) {
			protected.Use(h.authMiddleware)
			protected.Post("/reset-password", h.resetPassword)
		})
	})

	r.Group(func(pr chi.Router) {
		pr.Use(h.authMiddleware)

		pr.Route("/owners", func(r chi.Router) {
			r.Post("/", h.createOwner)
			r.Get("/", h.listOwners)
			r.Get("/{id}", h.getOwner)
			r.Put("/{id}", h.updateOwner)
			r.Post("/{id}/payments", h.recordPayment)
			r.Get("/{id}/payments", h.listPayments)
			r.Get("/{id}/billing-history", h.listBillingHistory)
		})

		pr.Route("/horses", func(r chi.Router) {
			r.Post("/", h.createHorse)
			r.Get("/", h.listHorses)
			r.Get("/{id}", h.getHorse)
			r.Put("/{id}", h.updateHorse)
			r.Post("/{id}/owners", h.linkHorseOwner)
			r.Delete("/{id}/owners/{ownerID}", h.unlinkHorseOwner)
			r.Get("/{id}/owners", h.listHorseOwners)
			r.Post("/{id}/location", h.moveHorse)
			r.Get("/{id}/locations", h.listHorseLocations)
			r.Get("/{id}/transactions", h.listHorseTransactions)
		})

		pr.Route("/charge-codes", func(r chi.Router) {
			r.Post("/", h.createChargeCode)
			r.Get("/", h.listChargeCodes)
			r.Get("/{id}", h.getChargeCode)
			r.Put("/{id}", h.updateChargeCode)
		})

		pr.Route("/locations", func(r chi.Router) {
			r.Post("/", h.createLocation)
			r.Get("/", h.listLocations)
			r.Put("/{id}", h.updateLocation)
		})

		pr.Route("/veterinarians", func(r chi.Router) {
			r.Post("/", h.createVeterinarian)
			r.Get("/", h.listVeterinarians)
			r.Put("/{id}", h.updateVeterinarian)
		})

		pr.Route("/species", func(r chi.Router) {
			r.Post("/", h.createSpecies)
			r.Get("/", h.listSpecies)
		})

		pr.Get("/states", h.listStates)

		pr.Post("/charges/batch", h.addChargeBatch)

		pr.Route("/invoices", func(r chi.Router) {
			r.Post("/", h.createInvoice)
			r.Get("/", h.listInvoices)
			r.Get("/{id}", h.getInvoice)
			r.Post("/{id}/void", h.voidInvoice)
		})

		pr.Route("/appointments", func(r chi.Router) {
			r.Post("/", h.createAppointment)
			r.Get("/", h.listAppointments)
			r.Put("/{id}", h.updateAppointment)
			r.Post("/{id}/cancel", h.cancelAppointment)
		})

		pr.Route("/reminders", func(r chi.Router) {
			r.Post("/", h.createReminder)
			r.Get("/", h.listReminders)
			r.Put("/{id}", h.updateReminder)
			r.Delete("/{id}", h.deleteReminder)
			r.Post("/{id}/complete", h.completeReminder)
		})

		pr.Get("/company-profile", h.getCompanyProfile)
		pr.Put("/company-profile", h.putCompanyProfile)

		pr.Route("/reports", func(r chi.Router) {
			r.Post("/charge-code-usage", h.reportChargeCodeUsage)
			r.Post("/invoice-register", h.reportInvoiceRegister)
			r.Post("/ar-aging", h.reportARAging)
			r.Post("/payment-history", h.reportPaymentHistory)
			r.Post("/owner-statement", h.reportOwnerStatement)
			r.Post("/horse-transaction-history", h.reportHorseHistory)
			r.Post("/invoice/{id}", h.reportInvoiceDocument)
		})

		pr.Route("/backups", func(r chi.Router) {
			r.Post("/", h.createBackup)
			r.Get("/", h.listBackups)
		})
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Authentication helpers

type authClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func (h *Handler) generateToken(userID, role string) (string, error) {
	claims := authClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.secret))
}

func (h *Handler) parseToken(r *http.Request) (*authClaims, error) {
	header := r.Header.Get("Authorization")
	if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return nil, errors.New("missing bearer token")
	}
	tokenString := strings.TrimSpace(header[len("Bearer "):])
	token, err := jwt.ParseWithClaims(tokenString, &authClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(h.secret), nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}
	claims, ok := token.Claims.(*authClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := h.parseToken(r)
		if err != nil {
			respondError(w, http.StatusUnauthorized, err.Error())
			return
		}
		ctx := context.WithValue(r.Context(), ctxUserID, claims.UserID)
		ctx = context.WithValue(ctx, ctxRole, claims.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) requireRole(w http.ResponseWriter, r *http.Request, allowed ...string) bool {
	role := r.Context().Value(ctxRole)
	if role == nil {
		respondError(w, http.StatusUnauthorized, "missing role")
		return false
	}
	current := role.(string)
	for _, allowedRole := range allowed {
		if current == allowedRole {
			return true
		}
	}
	respondError(w, http.StatusForbidden, "insufficient permissions")
	return false
}

func currentUser(r *http.Request) string {
	if v := r.Context().Value(ctxUserID); v != nil {
		return v.(string)
	}
	return ""
}

// Helpers

func nullIfEmpty(val string) *string {
	trimmed := strings.TrimSpace(val)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func decodeJSON(r *http.Request, dest interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", strings.TrimSpace(s))
}

func todayISO() string {
	return time.Now().Format("2006-01-02")
}

// bindIn expands an IN (?) clause for a slice of ids.
func bindIn(query string, ids []int64) (string, []any, error) {
	return sqlx.In(query, ids)
}
