package domain

// DatabaseDriver represents the type of database engine.
type DatabaseDriver string

const (
	DatabaseDriverMySQL    DatabaseDriver = "mysql"
	DatabaseDriverPostgres DatabaseDriver = "postgres"
	DatabaseDriverMongoDB  DatabaseDriver = "mongodb"
	DatabaseDriverSQLite   DatabaseDriver = "sqlite"
)

// DataSource holds the metadata for connecting to an external database that
// backs one or more contexts. The password is resolved separately through a
// secret store.
type DataSource struct {
	Name     string            `json:"name"`
	Driver   DatabaseDriver    `json:"driver"`
	Host     string            `json:"host"`     // hostname, URI or file path (sqlite)
	Port     int               `json:"port"`     // 0 for sqlite
	Database string            `json:"database"` // db name or empty for sqlite
	Username string            `json:"username"`
	SSLMode  string            `json:"sslMode"`
	Extra    map[string]string `json:"extra"` // driver-specific options
}
