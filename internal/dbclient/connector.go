package dbclient

import (
	"context"
	"fmt"
	"regexp"

	"pagebuilder/internal/domain"
)

// Record is one row or document keyed by column or field name.
type Record = map[string]any

// Query is a read against one table or collection. Where holds equality
// conditions. Sorts name columns, prefixed with "-" for descending order.
type Query struct {
	Table  string
	Where  map[string]any
	Sorts  []string
	Limit  int
	Offset int
}

// SchemaInfo contains the tables of a source.
type SchemaInfo struct {
	Tables []TableInfo `json:"tables"`
}

// TableInfo describes a table/collection.
type TableInfo struct {
	Name    string       `json:"name"`
	Columns []ColumnInfo `json:"columns"`
}

// ColumnInfo describes a column/field.
type ColumnInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Connector abstracts reads from an external database.
type Connector interface {
	// TestConnection verifies connectivity.
	TestConnection(ctx context.Context) error

	// FindOne returns the first matching record, or nil when nothing matches.
	FindOne(ctx context.Context, q Query) (Record, error)

	// FindMany returns every matching record in the requested order.
	FindMany(ctx context.Context, q Query) ([]Record, error)

	// Introspect returns the tables and columns of the source.
	Introspect(ctx context.Context) (*SchemaInfo, error)

	// Close closes the connection.
	Close() error
}

// NewConnector creates a Connector for the given source.
// The password must be provided separately (from SecretStore).
func NewConnector(src domain.DataSource, password string) (Connector, error) {
	switch src.Driver {
	case domain.DatabaseDriverSQLite:
		return newSQLiteConnector(src)
	case domain.DatabaseDriverMySQL:
		return newSQLConnector("mysql", buildMySQLDSN(src, password), questionMarks)
	case domain.DatabaseDriverPostgres:
		return newSQLConnector("postgres", buildPostgresDSN(src, password), dollarNumbers)
	case domain.DatabaseDriverMongoDB:
		return newMongoConnector(src, password)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", src.Driver)
	}
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// validIdent reports whether name is safe to splice into a statement.
func validIdent(name string) bool {
	return identPattern.MatchString(name)
}
