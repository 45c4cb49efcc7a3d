package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// QueryOptions restricts the features returned by QueryFeatures.
type QueryOptions struct {
	// ObjectClassIDs keeps only features of these classes. Empty keeps all.
	ObjectClassIDs []int
	// RootsOnly skips features contained in another feature, so each
	// feature graph is returned once through its root.
	RootsOnly bool
	Limit     int
}

// FeatureRow is one row of a feature query.
type FeatureRow struct {
	ID            int64
	ObjectClassID int
	ObjectID      string
}

// QueryResult is a forward-only cursor over feature rows.
type QueryResult struct {
	rows *sql.Rows
	cur  FeatureRow
	err  error
}

// QueryFeatures runs a feature query ordered by id.
func (d *Database) QueryFeatures(ctx context.Context, opts QueryOptions) (*QueryResult, error) {
	db, err := d.handle()
	if err != nil {
		return nil, err
	}
	var (
		where []string
		args  []any
	)
	if len(opts.ObjectClassIDs) > 0 {
		where = append(where, InSQL(d.dialect, "f.objectclass_id", 1, len(opts.ObjectClassIDs)))
		for _, id := range opts.ObjectClassIDs {
			args = append(args, id)
		}
	}
	if opts.RootsOnly {
		where = append(where, "NOT EXISTS (SELECT 1 FROM property p WHERE p.val_feature_id = f.id AND p.val_relation_type = 1)")
	}

	var sb strings.Builder
	sb.WriteString("SELECT f.id, f.objectclass_id, f.objectid FROM feature f")
	if len(where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}
	sb.WriteString(" ORDER BY f.id")
	if opts.Limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %d", opts.Limit)
	}

	rows, err := db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying features: %w", err)
	}
	return &QueryResult{rows: rows}, nil
}

// Next advances to the next row. It returns false at the end or on error.
func (r *QueryResult) Next() bool {
	if r.err != nil || !r.rows.Next() {
		return false
	}
	var objectID sql.NullString
	if err := r.rows.Scan(&r.cur.ID, &r.cur.ObjectClassID, &objectID); err != nil {
		r.err = fmt.Errorf("scanning feature row: %w", err)
		return false
	}
	r.cur.ObjectID = objectID.String
	return true
}

// Row returns the current row.
func (r *QueryResult) Row() FeatureRow { return r.cur }

// Err returns the first error met while iterating.
func (r *QueryResult) Err() error {
	if r.err != nil {
		return r.err
	}
	return r.rows.Err()
}

func (r *QueryResult) Close() error { return r.rows.Close() }
