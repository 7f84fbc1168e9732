package dbclient

import (
	"fmt"
	"maps"
	"slices"

	_ "github.com/go-sql-driver/mysql"

	"pagebuilder/internal/domain"
)

// buildMySQLDSN constructs a MySQL DSN from a DataSource.
func buildMySQLDSN(src domain.DataSource, password string) string {
	port := src.Port
	if port == 0 {
		port = 3306
	}
	// Format: user:password@tcp(host:port)/dbname?parseTime=true
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4",
		src.Username, password, src.Host, port, src.Database,
	)
	if src.SSLMode == "require" {
		dsn += "&tls=true"
	}
	for _, k := range slices.Sorted(maps.Keys(src.Extra)) {
		dsn += "&" + k + "=" + src.Extra[k]
	}
	return dsn
}
