package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"

	"edms/m/domain"
	"edms/m/internal/api"
	"edms/m/internal/config"
	"edms/m/internal/database"
	"edms/m/internal/migrations"
)

type testEnv struct {
	srv *httptest.Server
	db  *sqlx.DB
	cfg config.Config
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Config{
		Secret:        "test_secret",
		DatabasePath:  filepath.Join(dir, "edms.db"),
		HTTPPort:      "0",
		DataDir:       dir,
		InvoicesDir:   filepath.Join(dir, "invoices"),
		StatementsDir: filepath.Join(dir, "statements"),
		ReportsDir:    filepath.Join(dir, "reports"),
		LogDir:        filepath.Join(dir, "logs"),
		BackupDir:     filepath.Join(dir, "backups"),
	}
	if err := cfg.EnsureDirs(); err != nil {
		t.Fatalf("ensure dirs: %v", err)
	}
	db, err := database.Open(database.DSN(cfg.DatabasePath))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	migrations.Run(db)
	if _, err := db.Exec(`INSERT INTO state_provinces (state_code, state_name, country_code) VALUES ('KY', 'Kentucky', 'US')`); err != nil {
		t.Fatalf("seed state: %v", err)
	}

	srv := httptest.NewServer(api.New(db, cfg).Router())
	t.Cleanup(func() {
		srv.Close()
		db.Close()
	})
	return &testEnv{srv: srv, db: db, cfg: cfg}
}

func (e *testEnv) do(t *testing.T, method, path, token string, payload any) (int, []byte) {
	t.Helper()
	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, body)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	out := new(bytes.Buffer)
	if _, err := out.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read response: %v", err)
	}
	return resp.StatusCode, out.Bytes()
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode response %s: %v", raw, err)
	}
	return out
}

type authResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

func registerAdmin(t *testing.T, env *testEnv) string {
	t.Helper()
	status, body := env.do(t, "POST", "/auth/register", "", map[string]any{
		"user_id":   "alpha",
		"user_name": "Alpha Admin",
		"password":  "secret123",
	})
	if status != http.StatusCreated {
		t.Fatalf("register admin: expected 201, got %d body=%s", status, body)
	}
	auth := decode[authResponse](t, body)
	if auth.User.Role != "admin" {
		t.Fatalf("first user should be admin, got %q", auth.User.Role)
	}
	if auth.User.UserID != "ALPHA" {
		t.Fatalf("user_id should be uppercased, got %q", auth.User.UserID)
	}
	return auth.Token
}

func TestHTTPEndToEndBillingFlow(t *testing.T) {
	env := newTestEnv(t)

	// 1) First registration becomes the admin.
	token := registerAdmin(t, env)

	// 2) Anonymous registration is closed afterwards.
	status, _ := env.do(t, "POST", "/auth/register", "", map[string]any{
		"user_id": "eve", "user_name": "Eve", "password": "pw", "role": "staff",
	})
	if status != http.StatusForbidden {
		t.Fatalf("second anonymous register: expected 403, got %d", status)
	}

	// 3) Admin can create staff.
	status, body := env.do(t, "POST", "/auth/register", token, map[string]any{
		"user_id": "bravo", "user_name": "Bravo Staff", "password": "pw123", "role": "staff",
	})
	if status != http.StatusCreated {
		t.Fatalf("register staff: expected 201, got %d body=%s", status, body)
	}

	// 4) Reference data.
	status, body = env.do(t, "POST", "/charge-codes", token, map[string]any{
		"code": "exam", "description": "Routine examination", "standard_charge": "85.00",
	})
	if status != http.StatusCreated {
		t.Fatalf("create charge code: expected 201, got %d body=%s", status, body)
	}
	code := decode[domain.ChargeCode](t, body)
	if code.Code != "EXAM" {
		t.Fatalf("charge code should be uppercased, got %q", code.Code)
	}

	// 5) Owner with a farm name.
	status, body = env.do(t, "POST", "/owners", token, map[string]any{
		"farm_name":     "Bluegrass Farm",
		"address_line1": "100 Paddock Ln",
		"city":          "Lexington",
		"state_code":    "KY",
		"zip_code":      "40502",
		"phone":         "555-0100",
	})
	if status != http.StatusCreated {
		t.Fatalf("create owner: expected 201, got %d body=%s", status, body)
	}
	owner := decode[domain.Owner](t, body)

	// 6) Horse plus full ownership.
	status, body = env.do(t, "POST", "/horses", token, map[string]any{
		"horse_name": "Midnight",
	})
	if status != http.StatusCreated {
		t.Fatalf("create horse: expected 201, got %d body=%s", status, body)
	}
	horse := decode[domain.Horse](t, body)

	status, body = env.do(t, "POST", fmt.Sprintf("/horses/%d/owners", horse.HorseID), token, map[string]any{
		"owner_id": owner.OwnerID,
	})
	if status != http.StatusCreated {
		t.Fatalf("link owner: expected 201, got %d body=%s", status, body)
	}

	// A second full share would push ownership past 100 percent.
	status, _ = env.do(t, "POST", fmt.Sprintf("/horses/%d/owners", horse.HorseID), token, map[string]any{
		"owner_id": owner.OwnerID, "ownership_percentage": "50",
	})
	if status != http.StatusBadRequest {
		t.Fatalf("over-100 ownership: expected 400, got %d", status)
	}

	// 7) A batch with one bad line records nothing.
	status, _ = env.do(t, "POST", "/charges/batch", token, map[string]any{
		"horse_id": horse.HorseID,
		"owner_id": owner.OwnerID,
		"lines": []map[string]any{
			{"charge_code_id": code.ChargeCodeID, "transaction_date": "2026-01-10", "description": "Exam", "quantity": "1", "unit_price": "85.00"},
			{"charge_code_id": code.ChargeCodeID, "transaction_date": "2026-01-10", "description": "Bad line", "quantity": "0", "unit_price": "85.00"},
		},
	})
	if status != http.StatusBadRequest {
		t.Fatalf("invalid batch: expected 400, got %d", status)
	}
	var txnCount int
	if err := env.db.Get(&txnCount, `SELECT COUNT(*) FROM transactions`); err != nil {
		t.Fatalf("count transactions: %v", err)
	}
	if txnCount != 0 {
		t.Fatalf("failed batch should record nothing, found %d rows", txnCount)
	}

	// 8) A valid batch lands in full.
	status, body = env.do(t, "POST", "/charges/batch", token, map[string]any{
		"horse_id": horse.HorseID,
		"owner_id": owner.OwnerID,
		"lines": []map[string]any{
			{"charge_code_id": code.ChargeCodeID, "transaction_date": "2026-01-10", "description": "Exam", "quantity": "1", "unit_price": "85.00"},
			{"charge_code_id": code.ChargeCodeID, "transaction_date": "2026-01-12", "description": "Follow-up", "quantity": "2", "unit_price": "40.00"},
		},
	})
	if status != http.StatusCreated {
		t.Fatalf("valid batch: expected 201, got %d body=%s", status, body)
	}

	// 9) Invoice sweeps the unbilled lines: 85 + 80 = 165.
	status, body = env.do(t, "POST", "/invoices", token, map[string]any{
		"owner_id": owner.OwnerID, "invoice_date": "2026-01-15",
	})
	if status != http.StatusCreated {
		t.Fatalf("create invoice: expected 201, got %d body=%s", status, body)
	}
	invoice := decode[domain.Invoice](t, body)
	if got := invoice.GrandTotal.StringFixed(2); got != "165.00" {
		t.Fatalf("grand total: expected 165.00, got %s", got)
	}
	if invoice.Status != domain.InvoiceUnpaid {
		t.Fatalf("new invoice status: expected Unpaid, got %q", invoice.Status)
	}

	status, body = env.do(t, "GET", fmt.Sprintf("/owners/%d", owner.OwnerID), token, nil)
	if status != http.StatusOK {
		t.Fatalf("get owner: expected 200, got %d", status)
	}
	billed := decode[domain.Owner](t, body)
	if got := billed.Balance.StringFixed(2); got != "165.00" {
		t.Fatalf("owner balance after invoicing: expected 165.00, got %s", got)
	}

	// 10) A partial payment moves the invoice to Partial.
	status, body = env.do(t, "POST", fmt.Sprintf("/owners/%d/payments", owner.OwnerID), token, map[string]any{
		"invoice_id": invoice.InvoiceID, "amount": "65.00", "payment_method": "Check", "payment_date": "2026-01-20",
	})
	if status != http.StatusCreated {
		t.Fatalf("partial payment: expected 201, got %d body=%s", status, body)
	}
	status, body = env.do(t, "GET", fmt.Sprintf("/invoices/%d", invoice.InvoiceID), token, nil)
	if status != http.StatusOK {
		t.Fatalf("get invoice: expected 200, got %d", status)
	}
	afterPartial := decode[domain.Invoice](t, body)
	if afterPartial.Status != domain.InvoicePartial {
		t.Fatalf("invoice status after partial payment: expected Partial, got %q", afterPartial.Status)
	}
	if got := afterPartial.BalanceDue.StringFixed(2); got != "100.00" {
		t.Fatalf("balance due after partial payment: expected 100.00, got %s", got)
	}

	// 11) Paying off the rest closes the invoice and the owner balance.
	status, _ = env.do(t, "POST", fmt.Sprintf("/owners/%d/payments", owner.OwnerID), token, map[string]any{
		"invoice_id": invoice.InvoiceID, "amount": "100.00", "payment_method": "Cash", "payment_date": "2026-01-25",
	})
	if status != http.StatusCreated {
		t.Fatalf("final payment: expected 201, got %d", status)
	}
	status, body = env.do(t, "GET", fmt.Sprintf("/invoices/%d", invoice.InvoiceID), token, nil)
	if status != http.StatusOK {
		t.Fatalf("get invoice: expected 200, got %d", status)
	}
	paid := decode[domain.Invoice](t, body)
	if paid.Status != domain.InvoicePaid {
		t.Fatalf("invoice status after payoff: expected Paid, got %q", paid.Status)
	}

	status, body = env.do(t, "GET", fmt.Sprintf("/owners/%d", owner.OwnerID), token, nil)
	if status != http.StatusOK {
		t.Fatalf("get owner: expected 200, got %d", status)
	}
	settled := decode[domain.Owner](t, body)
	if got := settled.Balance.StringFixed(2); got != "0.00" {
		t.Fatalf("owner balance after payoff: expected 0.00, got %s", got)
	}

	// 12) A paid invoice cannot be voided.
	status, _ = env.do(t, "POST", fmt.Sprintf("/invoices/%d/void", invoice.InvoiceID), token, nil)
	if status != http.StatusConflict {
		t.Fatalf("void paid invoice: expected 409, got %d", status)
	}

	// 13) The statement renders a PDF from the ledger.
	status, body = env.do(t, "POST", "/reports/owner-statement", token, map[string]any{
		"owner_id": owner.OwnerID, "start_date": "2026-01-01", "end_date": "2026-01-31",
	})
	if status != http.StatusOK {
		t.Fatalf("owner statement: expected 200, got %d body=%s", status, body)
	}
	result := decode[struct {
		Files []string `json:"files"`
	}](t, body)
	if len(result.Files) != 1 {
		t.Fatalf("owner statement: expected one file, got %v", result.Files)
	}
	if _, err := os.Stat(result.Files[0]); err != nil {
		t.Fatalf("statement file not written: %v", err)
	}

	// 14) Admin backup produces a folder with the SQL dump.
	status, body = env.do(t, "POST", "/backups", token, nil)
	if status != http.StatusCreated {
		t.Fatalf("create backup: expected 201, got %d body=%s", status, body)
	}
	backupInfo := decode[map[string]any](t, body)
	path, _ := backupInfo["path"].(string)
	if _, err := os.Stat(filepath.Join(path, "edms_database_dump.sql")); err != nil {
		t.Fatalf("backup dump missing: %v", err)
	}
}

func TestAppointmentConflicts(t *testing.T) {
	env := newTestEnv(t)
	token := registerAdmin(t, env)

	status, body := env.do(t, "POST", "/veterinarians", token, map[string]any{
		"first_name": "Dana", "last_name": "Reyes",
	})
	if status != http.StatusCreated {
		t.Fatalf("create vet: expected 201, got %d body=%s", status, body)
	}
	vet := decode[domain.Veterinarian](t, body)

	status, body = env.do(t, "POST", "/appointments", token, map[string]any{
		"vet_id": vet.VetID, "appointment_datetime": "2026-03-02 09:00", "duration_minutes": 60,
	})
	if status != http.StatusCreated {
		t.Fatalf("first appointment: expected 201, got %d body=%s", status, body)
	}
	first := decode[domain.Appointment](t, body)

	// Overlapping slot for the same vet is rejected.
	status, _ = env.do(t, "POST", "/appointments", token, map[string]any{
		"vet_id": vet.VetID, "appointment_datetime": "2026-03-02 09:30", "duration_minutes": 30,
	})
	if status != http.StatusConflict {
		t.Fatalf("overlapping appointment: expected 409, got %d", status)
	}

	// Back-to-back is fine.
	status, _ = env.do(t, "POST", "/appointments", token, map[string]any{
		"vet_id": vet.VetID, "appointment_datetime": "2026-03-02 10:00", "duration_minutes": 30,
	})
	if status != http.StatusCreated {
		t.Fatalf("adjacent appointment: expected 201, got %d", status)
	}

	// Cancelling frees the slot.
	status, _ = env.do(t, "POST", fmt.Sprintf("/appointments/%d/cancel", first.AppointmentID), token, nil)
	if status != http.StatusOK {
		t.Fatalf("cancel appointment: expected 200, got %d", status)
	}
	status, _ = env.do(t, "POST", "/appointments", token, map[string]any{
		"vet_id": vet.VetID, "appointment_datetime": "2026-03-02 09:30", "duration_minutes": 30,
	})
	if status != http.StatusCreated {
		t.Fatalf("slot after cancel: expected 201, got %d", status)
	}
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)
	registerAdmin(t, env)

	status, _ := env.do(t, "GET", "/owners", "", nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("unauthenticated list: expected 401, got %d", status)
	}
	status, _ = env.do(t, "GET", "/owners", "not-a-token", nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("garbage token: expected 401, got %d", status)
	}
}

func TestLoginOmitsPasswordHash(t *testing.T) {
	env := newTestEnv(t)
	registerAdmin(t, env)

	status, body := env.do(t, "POST", "/auth/login", "", map[string]any{
		"user_id": "alpha", "password": "secret123",
	})
	if status != http.StatusOK {
		t.Fatalf("login: expected 200, got %d body=%s", status, body)
	}
	if bytes.Contains(body, []byte("password_hash")) {
		t.Fatalf("login response leaks the password hash: %s", body)
	}

	// The login is stamped even though the hash never leaves the server.
	var lastLogin *string
	if err := env.db.Get(&lastLogin, `SELECT last_login FROM users WHERE user_id = 'ALPHA'`); err != nil {
		t.Fatalf("read last_login: %v", err)
	}
	if lastLogin == nil {
		t.Fatal("last_login should be set after login")
	}
}

func TestStaffCannotRunBackups(t *testing.T) {
	env := newTestEnv(t)
	admin := registerAdmin(t, env)

	status, body := env.do(t, "POST", "/auth/register", admin, map[string]any{
		"user_id": "charlie", "user_name": "Charlie", "password": "pw123", "role": "staff",
	})
	if status != http.StatusCreated {
		t.Fatalf("register staff: expected 201, got %d body=%s", status, body)
	}
	staff := decode[authResponse](t, body).Token

	status, _ = env.do(t, "POST", "/backups", staff, nil)
	if status != http.StatusForbidden {
		t.Fatalf("staff backup: expected 403, got %d", status)
	}
}
