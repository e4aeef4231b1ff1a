package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration values.
type Config struct {
	Secret       string
	DatabasePath string
	HTTPPort     string

	// Data directories. These mirror the configurable paths of the
	// desktop edition: generated documents land here and the backup
	// manager copies them wholesale.
	DataDir       string
	InvoicesDir   string
	StatementsDir string
	ReportsDir    string
	LogDir        string
	BackupDir     string

	// Path of the .env file actually loaded, if any. Backups include it.
	EnvFile string
}

// Load reads configuration from environment variables with reasonable defaults.
func Load() Config {
	envFile := os.Getenv("EDMS_ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Overload(envFile); err != nil {
		envFile = ""
	}

	secret := os.Getenv("SECRET")
	if secret == "" {
		secret = "dev_secret"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}
	// Validate that port is numeric.
	if _, err := strconv.Atoi(port); err != nil {
		log.Printf("invalid HTTP_PORT value %q, defaulting to 8080", port)
		port = "8080"
	}

	dataDir := os.Getenv("EDMS_DATA_DIR")
	if dataDir == "" {
		dataDir = "data"
	}

	return Config{
		Secret:        secret,
		HTTPPort:      port,
		DataDir:       dataDir,
		DatabasePath:  envOr("EDMS_DATABASE_PATH", filepath.Join(dataDir, "edms_database.db")),
		InvoicesDir:   envOr("EDMS_INVOICES_DIR", filepath.Join(dataDir, "invoices")),
		StatementsDir: envOr("EDMS_STATEMENTS_DIR", filepath.Join(dataDir, "statements")),
		ReportsDir:    envOr("EDMS_REPORTS_DIR", filepath.Join(dataDir, "reports")),
		LogDir:        envOr("EDMS_LOG_DIR", filepath.Join(dataDir, "logs")),
		BackupDir:     envOr("EDMS_BACKUP_DIR", filepath.Join(dataDir, "backups")),
		EnvFile:       envFile,
	}
}

// EnsureDirs creates the configured data directories.
func (c Config) EnsureDirs() error {
	for _, dir := range []string{
		c.DataDir, c.InvoicesDir, c.StatementsDir, c.ReportsDir, c.LogDir, c.BackupDir,
		filepath.Dir(c.DatabasePath),
	} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
