package database

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/mesh-intelligence/citydb/internal/schema"
)

// Info describes a connected database.
type Info struct {
	Dialect    string
	Version    string
	Connection string
	SRID       int
	SRSName    string
	Tables     []TableCount
}

// TableCount is the number of rows in one table.
type TableCount struct {
	Table schema.Table
	Rows  int64
}

// countedTables are the content tables reported by Info.
var countedTables = []schema.Table{
	schema.Feature,
	schema.Property,
	schema.GeometryData,
	schema.ImplicitGeometry,
	schema.Appearance,
	schema.Address,
}

// Info collects product, connection and content information.
func (d *Database) Info(ctx context.Context) (Info, error) {
	db, err := d.handle()
	if err != nil {
		return Info{}, err
	}
	info := Info{Dialect: d.dialect.Name()}
	if err := db.QueryRowContext(ctx, d.dialect.VersionQuery()).Scan(&info.Version); err != nil {
		return Info{}, fmt.Errorf("reading version: %w", err)
	}
	dsn, err := d.dialect.DSN(d.cfg)
	if err != nil {
		return Info{}, err
	}
	info.Connection = redact(dsn)

	var srsName *string
	err = db.QueryRowContext(ctx, "SELECT srid, srs_name FROM database_srs").Scan(&info.SRID, &srsName)
	if err != nil {
		return Info{}, fmt.Errorf("reading database srs: %w", err)
	}
	if srsName != nil {
		info.SRSName = *srsName
	}

	for _, t := range countedTables {
		var n int64
		if err := db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", t)).Scan(&n); err != nil {
			return Info{}, fmt.Errorf("counting %s: %w", t, err)
		}
		info.Tables = append(info.Tables, TableCount{Table: t, Rows: n})
	}
	return info, nil
}

var passwordParam = regexp.MustCompile(`(?i)(password\s*=\s*)('[^']*'|\S+)`)

// redact hides passwords in URL and key=value connection strings.
func redact(dsn string) string {
	if u, err := url.Parse(dsn); err == nil && u.User != nil {
		return u.Redacted()
	}
	if strings.Contains(strings.ToLower(dsn), "password") {
		return passwordParam.ReplaceAllString(dsn, "${1}xxxxx")
	}
	return dsn
}
