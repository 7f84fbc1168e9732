package dbclient

import (
	_ "modernc.org/sqlite"

	"pagebuilder/internal/domain"
)

// newSQLiteConnector opens an external SQLite file read-mostly, in WAL mode
// with a busy timeout so it can sit next to a live writer.
func newSQLiteConnector(src domain.DataSource) (*sqlConnector, error) {
	dsn := src.Host + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	return newSQLConnector("sqlite", dsn, questionMarks)
}
