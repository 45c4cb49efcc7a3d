package importer

import (
	"time"

	"github.com/mesh-intelligence/citydb/pkg/types"
)

// propertyRow holds the values of one property row in
// database.PropertyColumns order. Nil pointers become NULL.
type propertyRow struct {
	id          int64
	featureID   int64
	parentID    *int64
	dataType    types.DataType
	namespaceID int
	name        string

	valInt       *int64
	valDouble    *float64
	valString    *string
	valTimestamp *string
	valURI       *string
	valCodespace *string
	valUOM       *string
	valArray     *string
	valLOD       *string

	geometryID   *int64
	implicitID   *int64
	refPoint     *string
	appearanceID *int64
	addressID    *int64
	featureRef   *int64
	relation     *int

	content     *string
	contentMime *string
}

func (r *propertyRow) args() []any {
	return []any{
		r.id, r.featureID, nullable(r.parentID), int(r.dataType), r.namespaceID, r.name,
		nullable(r.valInt), nullable(r.valDouble), nullable(r.valString), nullable(r.valTimestamp),
		nullable(r.valURI), nullable(r.valCodespace), nullable(r.valUOM), nullable(r.valArray),
		nullable(r.valLOD),
		nullable(r.geometryID), nullable(r.implicitID), nullable(r.refPoint),
		nullable(r.appearanceID), nullable(r.addressID), nullable(r.featureRef), nullable(r.relation),
		nullable(r.content), nullable(r.contentMime),
	}
}

// nullable dereferences p, mapping nil to a SQL NULL.
func nullable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

// optional returns nil for the empty string.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func ptr[T any](v T) *T { return &v }

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }
