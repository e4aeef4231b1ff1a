package seed

import (
	"encoding/csv"
	"io"
	"log"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"
)

// LoadStates ingests the state/province reference CSV, ignoring duplicates.
// Expected columns: code, name, country_code.
func LoadStates(db *sqlx.DB, csvPath string) {
	file, err := os.Open(csvPath)
	if err != nil {
		log.Printf("unable to load state catalog %s: %v", csvPath, err)
		return
	}
	defer file.Close()

	reader := csv.NewReader(file)
	// Skip header
	if _, err := reader.Read(); err != nil {
		log.Printf("unable to read state header: %v", err)
		return
	}

	tx, err := db.Beginx()
	if err != nil {
		log.Printf("unable to start state transaction: %v", err)
		return
	}
	stmt, err := tx.Preparex(`INSERT OR IGNORE INTO state_provinces (state_code, state_name, country_code) VALUES (?, ?, ?)`)
	if err != nil {
		log.Printf("unable to prepare state insert: %v", err)
		_ = tx.Rollback()
		return
	}
	defer stmt.Close()

	rows := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Printf("unable to read state row: %v", err)
			continue
		}
		if len(record) < 2 {
			continue
		}
		code := strings.TrimSpace(record[0])
		name := strings.TrimSpace(record[1])
		country := ""
		if len(record) > 2 {
			country = strings.TrimSpace(record[2])
		}
		if code == "" || name == "" {
			continue
		}

		if _, err := stmt.Exec(code, name, country); err != nil {
			log.Printf("unable to insert state %s: %v", code, err)
		} else {
			rows++
		}
	}

	if err := tx.Commit(); err != nil {
		log.Printf("unable to commit state seed: %v", err)
	} else if rows > 0 {
		log.Printf("seeded state catalog with %d rows", rows)
	}
}
