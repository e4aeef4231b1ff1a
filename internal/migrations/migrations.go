package migrations

import (
	"log"

	"github.com/jmoiron/sqlx"
)

// Run creates the database schema required for the practice backend.
func Run(db *sqlx.DB) {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS users (
            user_id TEXT PRIMARY KEY,
            password_hash TEXT NOT NULL,
            user_name TEXT NOT NULL,
            email TEXT UNIQUE,
            role TEXT NOT NULL,
            is_active INTEGER NOT NULL DEFAULT 1,
            last_login DATETIME,
            created_date DATETIME DEFAULT CURRENT_TIMESTAMP,
            modified_date DATETIME DEFAULT CURRENT_TIMESTAMP,
            created_by TEXT,
            modified_by TEXT
        );`,
		`CREATE TABLE IF NOT EXISTS state_provinces (
            state_code TEXT PRIMARY KEY,
            state_name TEXT NOT NULL UNIQUE,
            country_code TEXT,
            is_active INTEGER NOT NULL DEFAULT 1,
            created_date DATETIME DEFAULT CURRENT_TIMESTAMP,
            modified_date DATETIME DEFAULT CURRENT_TIMESTAMP,
            created_by TEXT,
            modified_by TEXT
        );`,
		`CREATE TABLE IF NOT EXISTS species (
            species_id INTEGER PRIMARY KEY AUTOINCREMENT,
            name TEXT NOT NULL UNIQUE,
            description TEXT,
            created_date DATETIME DEFAULT CURRENT_TIMESTAMP,
            modified_date DATETIME DEFAULT CURRENT_TIMESTAMP,
            created_by TEXT,
            modified_by TEXT
        );`,
		`CREATE TABLE IF NOT EXISTS locations (
            location_id INTEGER PRIMARY KEY AUTOINCREMENT,
            location_name TEXT NOT NULL UNIQUE,
            description TEXT,
            is_active INTEGER NOT NULL DEFAULT 1,
            created_date DATETIME DEFAULT CURRENT_TIMESTAMP,
            modified_date DATETIME DEFAULT CURRENT_TIMESTAMP,
            created_by TEXT,
            modified_by TEXT
        );`,
		`CREATE TABLE IF NOT EXISTS veterinarians (
            vet_id INTEGER PRIMARY KEY AUTOINCREMENT,
            first_name TEXT NOT NULL,
            last_name TEXT NOT NULL,
            license_number TEXT UNIQUE,
            phone TEXT,
            email TEXT,
            is_active INTEGER NOT NULL DEFAULT 1,
            created_date DATETIME DEFAULT CURRENT_TIMESTAMP,
            modified_date DATETIME DEFAULT CURRENT_TIMESTAMP,
            created_by TEXT,
            modified_by TEXT
        );`,
		`CREATE TABLE IF NOT EXISTS charge_codes (
            charge_code_id INTEGER PRIMARY KEY AUTOINCREMENT,
            code TEXT NOT NULL UNIQUE,
            alternate_code TEXT,
            description TEXT NOT NULL,
            category TEXT,
            standard_charge NUMERIC NOT NULL DEFAULT 0,
            is_active INTEGER NOT NULL DEFAULT 1,
            created_date DATETIME DEFAULT CURRENT_TIMESTAMP,
            modified_date DATETIME DEFAULT CURRENT_TIMESTAMP,
            created_by TEXT,
            modified_by TEXT
        );`,
		`CREATE TABLE IF NOT EXISTS owners (
            owner_id INTEGER PRIMARY KEY AUTOINCREMENT,
            account_number TEXT UNIQUE,
            farm_name TEXT,
            first_name TEXT,
            last_name TEXT,
            address_line1 TEXT NOT NULL,
            address_line2 TEXT,
            city TEXT NOT NULL,
            state_code TEXT NOT NULL,
            zip_code TEXT NOT NULL,
            phone TEXT NOT NULL,
            mobile_phone TEXT,
            email TEXT,
            is_active INTEGER NOT NULL DEFAULT 1,
            balance NUMERIC NOT NULL DEFAULT 0,
            credit_limit NUMERIC,
            billing_terms TEXT,
            notes TEXT,
            created_date DATETIME DEFAULT CURRENT_TIMESTAMP,
            modified_date DATETIME DEFAULT CURRENT_TIMESTAMP,
            created_by TEXT,
            modified_by TEXT,
            FOREIGN KEY(state_code) REFERENCES state_provinces(state_code)
        );`,
		`CREATE TABLE IF NOT EXISTS horses (
            horse_id INTEGER PRIMARY KEY AUTOINCREMENT,
            horse_name TEXT NOT NULL,
            account_number TEXT,
            species_id INTEGER,
            breed TEXT,
            color TEXT,
            sex TEXT,
            date_of_birth TEXT,
            registration_number TEXT,
            microchip_id TEXT UNIQUE,
            tattoo TEXT,
            brand TEXT,
            current_location_id INTEGER,
            is_active INTEGER NOT NULL DEFAULT 1,
            notes TEXT,
            created_date DATETIME DEFAULT CURRENT_TIMESTAMP,
            modified_date DATETIME DEFAULT CURRENT_TIMESTAMP,
            created_by TEXT,
            modified_by TEXT,
            FOREIGN KEY(species_id) REFERENCES species(species_id),
            FOREIGN KEY(current_location_id) REFERENCES locations(location_id)
        );`,
		`CREATE TABLE IF NOT EXISTS horse_owners (
            horse_id INTEGER NOT NULL,
            owner_id INTEGER NOT NULL,
            ownership_percentage NUMERIC NOT NULL DEFAULT 100,
            start_date TEXT NOT NULL,
            end_date TEXT,
            created_date DATETIME DEFAULT CURRENT_TIMESTAMP,
            modified_date DATETIME DEFAULT CURRENT_TIMESTAMP,
            created_by TEXT,
            modified_by TEXT,
            PRIMARY KEY(horse_id, owner_id),
            FOREIGN KEY(horse_id) REFERENCES horses(horse_id),
            FOREIGN KEY(owner_id) REFERENCES owners(owner_id)
        );`,
		`CREATE TABLE IF NOT EXISTS horse_locations (
            horse_location_id INTEGER PRIMARY KEY AUTOINCREMENT,
            horse_id INTEGER NOT NULL,
            location_id INTEGER NOT NULL,
            start_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
            end_date DATETIME,
            reason_for_move TEXT,
            created_date DATETIME DEFAULT CURRENT_TIMESTAMP,
            modified_date DATETIME DEFAULT CURRENT_TIMESTAMP,
            created_by TEXT,
            modified_by TEXT,
            FOREIGN KEY(horse_id) REFERENCES horses(horse_id),
            FOREIGN KEY(location_id) REFERENCES locations(location_id)
        );`,
		`CREATE TABLE IF NOT EXISTS invoices (
            invoice_id INTEGER PRIMARY KEY AUTOINCREMENT,
            owner_id INTEGER NOT NULL,
            invoice_date TEXT NOT NULL,
            due_date TEXT,
            subtotal NUMERIC NOT NULL DEFAULT 0,
            tax_total NUMERIC,
            grand_total NUMERIC NOT NULL DEFAULT 0,
            amount_paid NUMERIC NOT NULL DEFAULT 0,
            balance_due NUMERIC NOT NULL DEFAULT 0,
            status TEXT NOT NULL DEFAULT 'Unpaid',
            created_date DATETIME DEFAULT CURRENT_TIMESTAMP,
            modified_date DATETIME DEFAULT CURRENT_TIMESTAMP,
            created_by TEXT,
            modified_by TEXT,
            FOREIGN KEY(owner_id) REFERENCES owners(owner_id)
        );`,
		`CREATE TABLE IF NOT EXISTS transactions (
            transaction_id INTEGER PRIMARY KEY AUTOINCREMENT,
            horse_id INTEGER NOT NULL,
            owner_id INTEGER NOT NULL,
            invoice_id INTEGER,
            charge_code_id INTEGER NOT NULL,
            administered_by TEXT,
            transaction_date TEXT NOT NULL,
            description TEXT NOT NULL,
            quantity NUMERIC NOT NULL DEFAULT 1,
            unit_price NUMERIC NOT NULL,
            total_price NUMERIC NOT NULL,
            taxable INTEGER NOT NULL DEFAULT 0,
            item_notes TEXT,
            created_date DATETIME DEFAULT CURRENT_TIMESTAMP,
            modified_date DATETIME DEFAULT CURRENT_TIMESTAMP,
            created_by TEXT,
            modified_by TEXT,
            FOREIGN KEY(horse_id) REFERENCES horses(horse_id),
            FOREIGN KEY(owner_id) REFERENCES owners(owner_id),
            FOREIGN KEY(invoice_id) REFERENCES invoices(invoice_id),
            FOREIGN KEY(charge_code_id) REFERENCES charge_codes(charge_code_id),
            FOREIGN KEY(administered_by) REFERENCES users(user_id)
        );`,
		`CREATE TABLE IF NOT EXISTS owner_payments (
            payment_id INTEGER PRIMARY KEY AUTOINCREMENT,
            owner_id INTEGER NOT NULL,
            invoice_id INTEGER,
            payment_date TEXT NOT NULL,
            amount NUMERIC NOT NULL,
            payment_method TEXT NOT NULL,
            reference_number TEXT,
            notes TEXT,
            created_date DATETIME DEFAULT CURRENT_TIMESTAMP,
            modified_date DATETIME DEFAULT CURRENT_TIMESTAMP,
            created_by TEXT,
            modified_by TEXT,
            FOREIGN KEY(owner_id) REFERENCES owners(owner_id),
            FOREIGN KEY(invoice_id) REFERENCES invoices(invoice_id)
        );`,
		`CREATE TABLE IF NOT EXISTS owner_billing_history (
            history_id INTEGER PRIMARY KEY AUTOINCREMENT,
            owner_id INTEGER NOT NULL,
            entry_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
            description TEXT NOT NULL,
            amount_change NUMERIC NOT NULL DEFAULT 0,
            new_balance NUMERIC NOT NULL DEFAULT 0,
            created_date DATETIME DEFAULT CURRENT_TIMESTAMP,
            modified_date DATETIME DEFAULT CURRENT_TIMESTAMP,
            created_by TEXT,
            modified_by TEXT,
            FOREIGN KEY(owner_id) REFERENCES owners(owner_id)
        );`,
		`CREATE TABLE IF NOT EXISTS appointments (
            appointment_id INTEGER PRIMARY KEY AUTOINCREMENT,
            horse_id INTEGER,
            owner_id INTEGER,
            vet_id INTEGER,
            appointment_datetime TEXT NOT NULL,
            duration_minutes INTEGER NOT NULL DEFAULT 30,
            reason TEXT,
            notes TEXT,
            status TEXT NOT NULL DEFAULT 'Scheduled',
            created_date DATETIME DEFAULT CURRENT_TIMESTAMP,
            modified_date DATETIME DEFAULT CURRENT_TIMESTAMP,
            created_by TEXT,
            modified_by TEXT,
            FOREIGN KEY(horse_id) REFERENCES horses(horse_id),
            FOREIGN KEY(owner_id) REFERENCES owners(owner_id),
            FOREIGN KEY(vet_id) REFERENCES veterinarians(vet_id)
        );`,
		`CREATE TABLE IF NOT EXISTS reminders (
            reminder_id INTEGER PRIMARY KEY AUTOINCREMENT,
            user_id TEXT NOT NULL,
            horse_id INTEGER,
            reminder_date TEXT NOT NULL,
            notes TEXT NOT NULL,
            is_completed INTEGER NOT NULL DEFAULT 0,
            completed_date DATETIME,
            created_date DATETIME DEFAULT CURRENT_TIMESTAMP,
            modified_date DATETIME DEFAULT CURRENT_TIMESTAMP,
            created_by TEXT,
            modified_by TEXT,
            FOREIGN KEY(user_id) REFERENCES users(user_id),
            FOREIGN KEY(horse_id) REFERENCES horses(horse_id)
        );`,
		`CREATE TABLE IF NOT EXISTS company_profile (
            id INTEGER PRIMARY KEY,
            company_name TEXT NOT NULL,
            address_line1 TEXT,
            address_line2 TEXT,
            city TEXT,
            state TEXT,
            zip_code TEXT,
            phone TEXT,
            email TEXT,
            website TEXT,
            notes TEXT,
            created_date DATETIME DEFAULT CURRENT_TIMESTAMP,
            modified_date DATETIME DEFAULT CURRENT_TIMESTAMP,
            created_by TEXT,
            modified_by TEXT
        );`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_horse ON transactions(horse_id);`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_owner ON transactions(owner_id);`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_invoice ON transactions(invoice_id);`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(transaction_date);`,
		`CREATE INDEX IF NOT EXISTS idx_invoices_owner ON invoices(owner_id);`,
		`CREATE INDEX IF NOT EXISTS idx_invoices_date ON invoices(invoice_date);`,
		`CREATE INDEX IF NOT EXISTS idx_payments_owner ON owner_payments(owner_id);`,
		`CREATE INDEX IF NOT EXISTS idx_payments_date ON owner_payments(payment_date);`,
		`CREATE INDEX IF NOT EXISTS idx_appointments_datetime ON appointments(appointment_datetime);`,
		`CREATE INDEX IF NOT EXISTS idx_horse_locations_horse ON horse_locations(horse_id);`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			log.Fatalf("migration failed: %v", err)
		}
	}
}
