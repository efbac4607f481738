package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// Pragmas set through the DSN apply to every connection the driver opens
var dsnPragmas = []string{
	"journal_mode(WAL)",
	"busy_timeout(5000)",
	"synchronous(NORMAL)",
	"temp_store(MEMORY)",
}

func dsn(path string) string {
	params := lo.Map(dsnPragmas, func(pragma string, _ int) string {
		return "_pragma=" + pragma
	})
	return path + "?" + strings.Join(params, "&")
}

// connection opens the SQLite file holding the record namespaces. Writes are
// serialized on a single connection.
func connection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open error: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxIdleTime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", path, err)
	}

	log.WithFields(log.Fields{
		"path": path,
	}).Debug("Opened record database")

	return db, nil
}
