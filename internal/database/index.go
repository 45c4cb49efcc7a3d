package database

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/citydb/internal/schema"
	"github.com/mesh-intelligence/citydb/pkg/types"
)

// Index is one of the secondary indexes created by Init.
type Index struct {
	Name   string
	Table  schema.Table
	Column string
}

// String returns the index as table(column).
func (i Index) String() string { return fmt.Sprintf("%s(%s)", i.Table, i.Column) }

// defaultIndexes are the indexes created by indexDDL.
var defaultIndexes = []Index{
	{"feature_objectid_idx", schema.Feature, "objectid"},
	{"feature_objectclass_idx", schema.Feature, "objectclass_id"},
	{"property_feature_idx", schema.Property, "feature_id"},
	{"property_parent_idx", schema.Property, "parent_id"},
	{"geometry_data_feature_idx", schema.GeometryData, "feature_id"},
	{"appearance_feature_idx", schema.Appearance, "feature_id"},
	{"implicit_geometry_objectid_idx", schema.ImplicitGeometry, "objectid"},
}

// IndexState reports whether an index exists.
type IndexState struct {
	Index
	On bool
}

// indexExistsQuery returns a query counting indexes with a given name.
func indexExistsQuery(d Dialect) string {
	if d.Name() == types.DialectPostgres {
		return "SELECT COUNT(*) FROM pg_indexes WHERE indexname = " + d.Placeholder(1)
	}
	return "SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name = " + d.Placeholder(1)
}

// IndexStatus reports for each default index whether it is present.
func (d *Database) IndexStatus(ctx context.Context) ([]IndexState, error) {
	db, err := d.handle()
	if err != nil {
		return nil, err
	}
	query := indexExistsQuery(d.dialect)
	states := make([]IndexState, 0, len(defaultIndexes))
	for _, idx := range defaultIndexes {
		var n int
		if err := db.QueryRowContext(ctx, query, idx.Name).Scan(&n); err != nil {
			return nil, fmt.Errorf("reading status of index %s: %w", idx.Name, err)
		}
		states = append(states, IndexState{Index: idx, On: n > 0})
	}
	return states, nil
}
