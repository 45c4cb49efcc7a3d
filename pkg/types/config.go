package types

import "errors"

// Config holds database selection and run parameters for an import or
// export session.
type Config struct {
	Database DatabaseConfig `json:"database" yaml:"database"`
	Threads  int            `json:"threads" yaml:"threads"`
	FailFast bool           `json:"fail_fast" yaml:"fail_fast"`
}

// DatabaseConfig selects the SQL dialect and connection.
// For SQLite, DSN may be empty; the database file is then created as
// citydb.db inside DataDir. SRID is recorded in database_srs when the
// schema is created.
type DatabaseConfig struct {
	Dialect   string `json:"dialect" yaml:"dialect"`
	DSN       string `json:"dsn" yaml:"dsn"`
	DataDir   string `json:"data_dir" yaml:"data_dir"`
	BatchSize int    `json:"batch_size" yaml:"batch_size"`
	SRID      int    `json:"srid" yaml:"srid"`
}

// Supported dialect names.
const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

// Config validation errors.
var (
	ErrDialectEmpty     = errors.New("dialect must not be empty")
	ErrDialectUnknown   = errors.New("unknown dialect")
	ErrDSNEmpty         = errors.New("dsn must not be empty")
	ErrBatchSizeInvalid = errors.New("batch size must not be negative")
	ErrThreadsInvalid   = errors.New("threads must not be negative")
	ErrSRIDInvalid      = errors.New("srid must not be negative")
)

// knownDialects lists the dialects that Validate accepts.
var knownDialects = map[string]bool{
	DialectSQLite:   true,
	DialectPostgres: true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure. Zero BatchSize and Threads select defaults.
func (c Config) Validate() error {
	if c.Threads < 0 {
		return ErrThreadsInvalid
	}
	return c.Database.Validate()
}

// Validate checks the database part of a Config.
func (c DatabaseConfig) Validate() error {
	if c.Dialect == "" {
		return ErrDialectEmpty
	}
	if !knownDialects[c.Dialect] {
		return ErrDialectUnknown
	}
	if c.Dialect == DialectPostgres && c.DSN == "" {
		return ErrDSNEmpty
	}
	if c.BatchSize < 0 {
		return ErrBatchSizeInvalid
	}
	if c.SRID < 0 {
		return ErrSRIDInvalid
	}
	return nil
}
