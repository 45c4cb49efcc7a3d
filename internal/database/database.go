// Package database implements the relational backend of citydb: dialects,
// schema creation, metadata seeding, id sequences, batched statements and
// the feature cursor used by the exporter.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/citydb/internal/schema"
	"github.com/mesh-intelligence/citydb/pkg/types"
)

// ErrClosed is returned by operations on a closed Database.
var ErrClosed = errors.New("database is closed")

// Database is an open connection pool plus the metadata loaded from it.
type Database struct {
	mu      sync.RWMutex
	cfg     types.DatabaseConfig
	dialect Dialect
	db      *sql.DB
	log     *logrus.Entry
	closed  bool

	classes       *schema.ObjectClasses
	namespaces    map[string]int
	namespaceURIs map[int]string

	seqMu     sync.Mutex
	sequences map[schema.Table]*Sequence
}

// Open validates cfg and connects to the database. The schema is not
// touched; call Init to create it.
func Open(ctx context.Context, cfg types.DatabaseConfig, log *logrus.Entry) (*Database, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	d, err := DialectFor(cfg.Dialect)
	if err != nil {
		return nil, err
	}
	dsn, err := d.DSN(cfg)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	db, err := sql.Open(d.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", d.Name(), err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to %s database: %w", d.Name(), err)
	}
	log.WithField("dialect", d.Name()).Debug("database connection established")
	return &Database{
		cfg:       cfg,
		dialect:   d,
		db:        db,
		log:       log,
		sequences: make(map[schema.Table]*Sequence),
	}, nil
}

// Init creates missing tables and indexes, seeds the metadata tables of an
// empty database and loads the object classes. It is safe to call on an
// initialized database.
func (d *Database) Init(ctx context.Context) error {
	db, err := d.handle()
	if err != nil {
		return err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning schema transaction: %w", err)
	}
	defer tx.Rollback()

	for _, ddl := range statementsFor(d.dialect) {
		if _, err := tx.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing schema: %w", err)
	}

	seeded, err := seedMetadata(ctx, db, d.dialect, d.cfg.SRID)
	if err != nil {
		return err
	}
	if seeded {
		d.log.WithField("srid", d.cfg.SRID).Info("seeded metadata tables")
	}
	return d.LoadMetadata(ctx)
}

// LoadMetadata reads object classes and namespaces from the database.
func (d *Database) LoadMetadata(ctx context.Context) error {
	db, err := d.handle()
	if err != nil {
		return err
	}
	namespaces, err := loadNamespaces(ctx, db)
	if err != nil {
		return err
	}
	classes, err := loadObjectClasses(ctx, db, namespaces)
	if err != nil {
		return err
	}
	ids := make(map[string]int, len(namespaces))
	for id, uri := range namespaces {
		ids[uri] = id
	}

	d.mu.Lock()
	d.classes = classes
	d.namespaces = ids
	d.namespaceURIs = namespaces
	d.mu.Unlock()
	return nil
}

// ObjectClasses returns the loaded object classes. Before LoadMetadata it
// returns the default classes.
func (d *Database) ObjectClasses() *schema.ObjectClasses {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.classes == nil {
		return schema.NewObjectClasses(schema.DefaultObjectClasses())
	}
	return d.classes
}

// NamespaceID returns the id of the namespace uri. Unknown namespaces map to
// the core namespace.
func (d *Database) NamespaceID(uri string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if id, ok := d.namespaces[uri]; ok {
		return id
	}
	return d.namespaces[types.NamespaceCore]
}

// Namespace returns the URI of namespace id, or "" if it is unknown.
func (d *Database) Namespace(id int) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.namespaceURIs[id]
}

// Dialect returns the SQL dialect.
func (d *Database) Dialect() Dialect { return d.dialect }

// Config returns the configuration the database was opened with.
func (d *Database) Config() types.DatabaseConfig { return d.cfg }

// BatchSize returns the configured rows per batch or the dialect default.
func (d *Database) BatchSize() int {
	if d.cfg.BatchSize > 0 {
		return d.cfg.BatchSize
	}
	return d.dialect.MaxBatchSize()
}

// DB returns the underlying pool.
func (d *Database) DB() *sql.DB { return d.db }

// Conn returns a dedicated connection. Persist workers each hold one so
// that their statements and transactions do not interleave.
func (d *Database) Conn(ctx context.Context) (*sql.Conn, error) {
	db, err := d.handle()
	if err != nil {
		return nil, err
	}
	return db.Conn(ctx)
}

// Close releases the pool. Closing twice is a no-op.
func (d *Database) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	return d.db.Close()
}

func (d *Database) handle() (*sql.DB, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return nil, ErrClosed
	}
	return d.db, nil
}
