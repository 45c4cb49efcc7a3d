package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/citydb/internal/schema"
	"github.com/mesh-intelligence/citydb/pkg/types"
)

// seedMetadata fills the namespace, objectclass, datatype and database_srs
// tables if objectclass is empty. It reports whether anything was written.
func seedMetadata(ctx context.Context, db *sql.DB, d Dialect, srid int) (bool, error) {
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM objectclass").Scan(&count); err != nil {
		return false, fmt.Errorf("counting object classes: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning seed transaction: %w", err)
	}
	defer tx.Rollback()

	namespaceIDs := make(map[string]int)
	insertNamespace := InsertSQL(d, "namespace", []string{"id", "alias", "namespace"})
	for _, ns := range schema.Namespaces() {
		if _, err := tx.ExecContext(ctx, insertNamespace, ns.ID, ns.Alias, ns.URI); err != nil {
			return false, fmt.Errorf("seeding namespace %s: %w", ns.Alias, err)
		}
		namespaceIDs[ns.URI] = ns.ID
	}

	insertClass := InsertSQL(d, "objectclass",
		[]string{"id", "superclass_id", "classname", "is_abstract", "is_toplevel", "namespace_id"})
	for _, oc := range schema.DefaultObjectClasses() {
		var super any
		if oc.SuperclassID != 0 {
			super = oc.SuperclassID
		}
		_, err := tx.ExecContext(ctx, insertClass,
			oc.ID, super, oc.Name.LocalName, boolInt(oc.IsAbstract), boolInt(oc.IsTopLevel),
			namespaceIDs[oc.Name.Namespace])
		if err != nil {
			return false, fmt.Errorf("seeding object class %s: %w", oc.Name, err)
		}
	}

	insertDatatype := InsertSQL(d, "datatype", []string{"id", "typename", "namespace_id"})
	for _, dt := range schema.DataTypes() {
		if _, err := tx.ExecContext(ctx, insertDatatype, dt.ID, dt.Name, dt.NamespaceID); err != nil {
			return false, fmt.Errorf("seeding datatype %s: %w", dt.Name, err)
		}
	}

	insertSRS := InsertSQL(d, "database_srs", []string{"srid", "srs_name"})
	if _, err := tx.ExecContext(ctx, insertSRS, srid, srsName(srid)); err != nil {
		return false, fmt.Errorf("seeding database srs: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing seed transaction: %w", err)
	}
	return true, nil
}

func srsName(srid int) string {
	if srid == 0 {
		return ""
	}
	return fmt.Sprintf("urn:ogc:def:crs:EPSG::%d", srid)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func loadNamespaces(ctx context.Context, db *sql.DB) (map[int]string, error) {
	rows, err := db.QueryContext(ctx, "SELECT id, namespace FROM namespace")
	if err != nil {
		return nil, fmt.Errorf("querying namespaces: %w", err)
	}
	defer rows.Close()

	out := make(map[int]string)
	for rows.Next() {
		var id int
		var uri string
		if err := rows.Scan(&id, &uri); err != nil {
			return nil, fmt.Errorf("scanning namespace: %w", err)
		}
		out[id] = uri
	}
	return out, rows.Err()
}

func loadObjectClasses(ctx context.Context, db *sql.DB, namespaces map[int]string) (*schema.ObjectClasses, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT id, superclass_id, classname, is_abstract, is_toplevel, namespace_id FROM objectclass ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("querying object classes: %w", err)
	}
	defer rows.Close()

	var classes []schema.ObjectClass
	for rows.Next() {
		var (
			oc                 schema.ObjectClass
			super, namespaceID sql.NullInt64
			name               string
			abstract, topLevel int
		)
		if err := rows.Scan(&oc.ID, &super, &name, &abstract, &topLevel, &namespaceID); err != nil {
			return nil, fmt.Errorf("scanning object class: %w", err)
		}
		oc.SuperclassID = int(super.Int64)
		oc.Name = types.NewName(name, namespaces[int(namespaceID.Int64)])
		oc.IsAbstract = abstract != 0
		oc.IsTopLevel = topLevel != 0
		classes = append(classes, oc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return schema.NewObjectClasses(classes), nil
}
