package backup

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"edms/m/internal/config"
	"edms/m/internal/database"
)

const (
	folderPrefix = "EDMS_Backup_"
	dumpFileName = "edms_database_dump.sql"
	stampLayout  = "20060102_150405"
)

// Info describes one backup folder.
type Info struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	CreatedAt string `json:"created_at"`
}

// Manager creates and restores full-practice backups. A backup is a
// timestamped folder holding a SQL text dump of the database plus copies
// of the generated-document directories and the loaded config file.
type Manager struct {
	cfg config.Config
}

func NewManager(cfg config.Config) *Manager {
	return &Manager{cfg: cfg}
}

// Create writes a new backup folder. The database dump is mandatory;
// document directories are copied best-effort with warnings.
func (m *Manager) Create(db *sqlx.DB) (Info, error) {
	stamp := time.Now().Format(stampLayout)
	name := folderPrefix + stamp
	dir := filepath.Join(m.cfg.BackupDir, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Info{}, fmt.Errorf("create backup folder: %w", err)
	}

	if err := dumpDatabase(db, filepath.Join(dir, dumpFileName)); err != nil {
		// A backup without its database dump is worthless.
		os.RemoveAll(dir)
		return Info{}, fmt.Errorf("dump database: %w", err)
	}

	for _, sub := range []struct{ src, dst string }{
		{m.cfg.InvoicesDir, "invoices"},
		{m.cfg.StatementsDir, "statements"},
		{m.cfg.LogDir, "logs"},
	} {
		if sub.src == "" {
			continue
		}
		if err := copyDir(sub.src, filepath.Join(dir, sub.dst)); err != nil {
			log.Printf("backup: unable to copy %s: %v", sub.src, err)
		}
	}

	if m.cfg.EnvFile != "" {
		if err := copyFile(m.cfg.EnvFile, filepath.Join(dir, "config.env")); err != nil {
			log.Printf("backup: unable to copy config file: %v", err)
		}
	}

	return Info{Name: name, Path: dir, CreatedAt: stamp}, nil
}

// List returns available backups, newest first.
func (m *Manager) List() ([]Info, error) {
	entries, err := os.ReadDir(m.cfg.BackupDir)
	if errors.Is(err, fs.ErrNotExist) {
		return []Info{}, nil
	}
	if err != nil {
		return nil, err
	}
	infos := []Info{}
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), folderPrefix) {
			continue
		}
		infos = append(infos, Info{
			Name:      entry.Name(),
			Path:      filepath.Join(m.cfg.BackupDir, entry.Name()),
			CreatedAt: strings.TrimPrefix(entry.Name(), folderPrefix),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name > infos[j].Name })
	return infos, nil
}

// Restore rebuilds the database from a backup's SQL dump and copies the
// document directories back. The dump is replayed into a scratch file
// which then replaces the live database in one rename, so a failed
// restore leaves the current database untouched. The server must not be
// running against the database while this happens.
func (m *Manager) Restore(name string) error {
	dir := filepath.Join(m.cfg.BackupDir, name)
	dumpPath := filepath.Join(dir, dumpFileName)
	dump, err := os.ReadFile(dumpPath)
	if err != nil {
		return fmt.Errorf("read dump: %w", err)
	}

	scratch := m.cfg.DatabasePath + ".restore"
	os.Remove(scratch)
	db, err := database.Open("file:" + scratch + "?_pragma=foreign_keys(0)")
	if err != nil {
		return fmt.Errorf("open scratch database: %w", err)
	}
	if _, err := db.Exec(string(dump)); err != nil {
		db.Close()
		os.Remove(scratch)
		return fmt.Errorf("replay dump: %w", err)
	}
	if err := db.Close(); err != nil {
		os.Remove(scratch)
		return fmt.Errorf("close scratch database: %w", err)
	}
	if err := os.Rename(scratch, m.cfg.DatabasePath); err != nil {
		os.Remove(scratch)
		return fmt.Errorf("swap database: %w", err)
	}

	for _, sub := range []struct{ src, dst string }{
		{"invoices", m.cfg.InvoicesDir},
		{"statements", m.cfg.StatementsDir},
		{"logs", m.cfg.LogDir},
	} {
		src := filepath.Join(dir, sub.src)
		if _, err := os.Stat(src); err != nil {
			continue
		}
		if err := copyDir(src, sub.dst); err != nil {
			log.Printf("restore: unable to copy %s: %v", sub.src, err)
		}
	}

	if m.cfg.EnvFile != "" {
		saved := filepath.Join(dir, "config.env")
		if _, err := os.Stat(saved); err == nil {
			if err := copyFile(saved, m.cfg.EnvFile); err != nil {
				log.Printf("restore: unable to copy config file: %v", err)
			}
		}
	}
	return nil
}

// dumpDatabase writes a self-contained SQL text dump, equivalent to the
// sqlite3 shell's .dump output for application tables.
func dumpDatabase(db *sqlx.DB, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	out := bufio.NewWriter(file)

	fmt.Fprintln(out, "PRAGMA foreign_keys=OFF;")
	fmt.Fprintln(out, "BEGIN TRANSACTION;")

	type schemaRow struct {
		Name string  `db:"name"`
		SQL  *string `db:"sql"`
	}
	var tables []schemaRow
	err = db.Select(&tables, `SELECT name, sql FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return err
	}
	for _, table := range tables {
		if table.SQL == nil {
			continue
		}
		fmt.Fprintf(out, "%s;\n", *table.SQL)
		if err := dumpTableRows(db, out, table.Name); err != nil {
			return err
		}
	}

	var extras []schemaRow
	err = db.Select(&extras, `SELECT name, sql FROM sqlite_master WHERE type IN ('index', 'trigger', 'view') AND sql IS NOT NULL ORDER BY name`)
	if err != nil {
		return err
	}
	for _, extra := range extras {
		fmt.Fprintf(out, "%s;\n", *extra.SQL)
	}

	fmt.Fprintln(out, "COMMIT;")
	return out.Flush()
}

func dumpTableRows(db *sqlx.DB, out io.Writer, table string) error {
	rows, err := db.Queryx(fmt.Sprintf("SELECT * FROM %q", table))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return err
		}
		literals := make([]string, len(values))
		for i, v := range values {
			literals[i] = sqlLiteral(v)
		}
		fmt.Fprintf(out, "INSERT INTO %q VALUES(%s);\n", table, strings.Join(literals, ","))
	}
	return rows.Err()
}

func sqlLiteral(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return "X'" + hex.EncodeToString(val) + "'"
	case string:
		return "'" + strings.ReplaceAll(val, "'", "''") + "'"
	case int64:
		return fmt.Sprintf("%d", val)
	case float64:
		return fmt.Sprintf("%g", val)
	case bool:
		if val {
			return "1"
		}
		return "0"
	case time.Time:
		return "'" + val.Format("2006-01-02 15:04:05") + "'"
	default:
		return "'" + strings.ReplaceAll(fmt.Sprint(val), "'", "''") + "'"
	}
}

func copyDir(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
