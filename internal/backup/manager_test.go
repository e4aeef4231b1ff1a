package backup_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"edms/m/internal/backup"
	"edms/m/internal/config"
	"edms/m/internal/database"
	"edms/m/internal/migrations"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Config{
		DatabasePath:  filepath.Join(dir, "edms.db"),
		DataDir:       dir,
		InvoicesDir:   filepath.Join(dir, "invoices"),
		StatementsDir: filepath.Join(dir, "statements"),
		LogDir:        filepath.Join(dir, "logs"),
		BackupDir:     filepath.Join(dir, "backups"),
	}
	if err := cfg.EnsureDirs(); err != nil {
		t.Fatalf("ensure dirs: %v", err)
	}
	return cfg
}

func TestBackupRestoreRoundTrip(t *testing.T) {
	cfg := testConfig(t)

	db, err := database.Open(database.DSN(cfg.DatabasePath))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	migrations.Run(db)
	_, err = db.Exec(`INSERT INTO species (name, description) VALUES ('Horse', 'Includes a quoted ''note'' to exercise escaping')`)
	if err != nil {
		t.Fatalf("seed species: %v", err)
	}
	invoicePDF := filepath.Join(cfg.InvoicesDir, "invoice_1.pdf")
	if err := os.WriteFile(invoicePDF, []byte("pdf bytes"), 0o644); err != nil {
		t.Fatalf("write invoice file: %v", err)
	}

	mgr := backup.NewManager(cfg)
	info, err := mgr.Create(db)
	if err != nil {
		t.Fatalf("create backup: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close database: %v", err)
	}

	dump, err := os.ReadFile(filepath.Join(info.Path, "edms_database_dump.sql"))
	if err != nil {
		t.Fatalf("read dump: %v", err)
	}
	if !strings.Contains(string(dump), "INSERT INTO \"species\"") {
		t.Fatalf("dump missing species insert:\n%s", dump)
	}
	if !strings.Contains(string(dump), "''note''") {
		t.Fatalf("dump did not escape embedded quote:\n%s", dump)
	}
	if _, err := os.Stat(filepath.Join(info.Path, "invoices", "invoice_1.pdf")); err != nil {
		t.Fatalf("invoice copy missing: %v", err)
	}

	// Wreck the live state, then restore.
	if err := os.Remove(cfg.DatabasePath); err != nil {
		t.Fatalf("remove database: %v", err)
	}
	if err := os.Remove(invoicePDF); err != nil {
		t.Fatalf("remove invoice file: %v", err)
	}

	if err := mgr.Restore(info.Name); err != nil {
		t.Fatalf("restore: %v", err)
	}

	restored, err := database.Open(database.DSN(cfg.DatabasePath))
	if err != nil {
		t.Fatalf("open restored database: %v", err)
	}
	defer restored.Close()
	var name string
	if err := restored.Get(&name, `SELECT name FROM species LIMIT 1`); err != nil {
		t.Fatalf("query restored database: %v", err)
	}
	if name != "Horse" {
		t.Fatalf("restored species: expected Horse, got %q", name)
	}
	if _, err := os.Stat(invoicePDF); err != nil {
		t.Fatalf("invoice file not restored: %v", err)
	}
}

func TestListBackupsNewestFirst(t *testing.T) {
	cfg := testConfig(t)
	for _, name := range []string{"EDMS_Backup_20240101_000000", "EDMS_Backup_20240301_000000", "not_a_backup"} {
		if err := os.MkdirAll(filepath.Join(cfg.BackupDir, name), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}

	infos, err := backup.NewManager(cfg).List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("expected 2 backups, got %d", len(infos))
	}
	if infos[0].Name != "EDMS_Backup_20240301_000000" {
		t.Fatalf("expected newest first, got %q", infos[0].Name)
	}
}

func TestRestoreMissingBackupFails(t *testing.T) {
	cfg := testConfig(t)
	if err := backup.NewManager(cfg).Restore("EDMS_Backup_19990101_000000"); err == nil {
		t.Fatal("expected error restoring a missing backup")
	}
}
