// Package citydb is the public entry point for opening a city database and
// moving feature graphs between JSON Lines files and the relational schema.
//
//	db, err := citydb.Open(ctx, types.DatabaseConfig{
//	    Dialect: types.DialectSQLite,
//	    DataDir: ".citydb-data",
//	}, nil)
//	defer db.Close()
//	summary, err := citydb.Import(ctx, db, []string{"city.jsonl"}, citydb.ImportOptions{}, nil)
package citydb

import (
	"context"
	"runtime"

	"github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/citydb/internal/database"
	"github.com/mesh-intelligence/citydb/pkg/types"
)

// Version is the release of this module.
const Version = "0.1.0"

// ModulePath is the import path of this module.
const ModulePath = "github.com/mesh-intelligence/citydb"

// Database is an open, initialized city database.
type Database = database.Database

// Open connects to the database selected by cfg and creates the schema and
// metadata if they are missing.
func Open(ctx context.Context, cfg types.DatabaseConfig, log *logrus.Entry) (*Database, error) {
	db, err := database.Open(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	if err := db.Init(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func threads(n int) int {
	if n > 0 {
		return n
	}
	return runtime.NumCPU()
}

func entry(log *logrus.Entry) *logrus.Entry {
	if log == nil {
		return logrus.NewEntry(logrus.StandardLogger())
	}
	return log
}
