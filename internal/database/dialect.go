package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/citydb/pkg/types"
)

// Dialect hides the differences between the supported SQL databases. It is
// limited to what the batch writers and the schema DDL need.
type Dialect interface {
	Name() string
	// DriverName is the database/sql driver to open.
	DriverName() string
	// DSN returns the connection string for cfg, creating local
	// directories when needed.
	DSN(cfg types.DatabaseConfig) (string, error)
	// Placeholder returns the bind parameter for the n-th argument,
	// starting at 1.
	Placeholder(n int) string
	// BinaryType is the column type for byte payloads.
	BinaryType() string
	// MaxBatchSize is the default number of rows per batch.
	MaxBatchSize() int
	// VersionQuery returns the product version.
	VersionQuery() string
}

// DialectFor returns the dialect named name.
func DialectFor(name string) (Dialect, error) {
	switch name {
	case types.DialectSQLite:
		return sqliteDialect{}, nil
	case types.DialectPostgres:
		return postgresDialect{}, nil
	}
	return nil, fmt.Errorf("%w: %q", types.ErrDialectUnknown, name)
}

// sqliteFile is the database file created inside the data directory.
const sqliteFile = "citydb.db"

const sqlitePragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)"

type sqliteDialect struct{}

func (sqliteDialect) Name() string { return types.DialectSQLite }
func (sqliteDialect) DriverName() string { return "sqlite" }
func (sqliteDialect) Placeholder(int) string { return "?" }
func (sqliteDialect) BinaryType() string { return "BLOB" }
func (sqliteDialect) MaxBatchSize() int { return 1000 }
func (sqliteDialect) VersionQuery() string { return "SELECT 'SQLite ' || sqlite_version()" }

// DSN opens the file with foreign keys enforced and a busy timeout so that
// concurrent persist workers wait for each other instead of failing.
func (sqliteDialect) DSN(cfg types.DatabaseConfig) (string, error) {
	path := cfg.DSN
	if path == "" {
		dataDir := cfg.DataDir
		if dataDir == "" {
			dataDir = "."
		}
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return "", fmt.Errorf("creating data directory %s: %w", dataDir, err)
		}
		path = filepath.Join(dataDir, sqliteFile)
	}
	if strings.Contains(path, "?") {
		return path, nil
	}
	return "file:" + path + "?" + sqlitePragmas, nil
}

type postgresDialect struct{}

func (postgresDialect) Name() string { return types.DialectPostgres }
func (postgresDialect) DriverName() string { return "postgres" }
func (postgresDialect) Placeholder(n int) string { return "$" + strconv.Itoa(n) }
func (postgresDialect) BinaryType() string { return "BYTEA" }
func (postgresDialect) MaxBatchSize() int { return 5000 }
func (postgresDialect) VersionQuery() string { return "SELECT version()" }

func (postgresDialect) DSN(cfg types.DatabaseConfig) (string, error) {
	if cfg.DSN == "" {
		return "", types.ErrDSNEmpty
	}
	return cfg.DSN, nil
}

// placeholders returns n bind parameters starting at from, comma separated.
func placeholders(d Dialect, from, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = d.Placeholder(from + i)
	}
	return strings.Join(parts, ", ")
}

// InsertSQL builds an INSERT statement for columns of table.
func InsertSQL(d Dialect, table string, columns []string) string {
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(columns, ", "), placeholders(d, 1, len(columns)))
}

// UpdateSQL builds an UPDATE statement setting column where key matches.
// The arguments are the new value followed by the key.
func UpdateSQL(d Dialect, table, column, key string) string {
	return fmt.Sprintf("UPDATE %s SET %s = %s WHERE %s = %s",
		table, column, d.Placeholder(1), key, d.Placeholder(2))
}

// InSQL returns "column IN (...)" with n parameters starting at from.
func InSQL(d Dialect, column string, from, n int) string {
	return fmt.Sprintf("%s IN (%s)", column, placeholders(d, from, n))
}
