package exporter

import (
	"database/sql"
	"fmt"
	"time"

	json "github.com/goccy/go-json"

	"github.com/mesh-intelligence/citydb/pkg/geometry"
	"github.com/mesh-intelligence/citydb/pkg/types"
)

// PropertyStub is one property row. Object-valued properties carry the row
// ids of their targets, which are resolved against a Hierarchy when the
// property is built. Zero ids mean "no target".
type PropertyStub struct {
	Descriptor types.PropertyDescriptor
	Name       types.Name
	DataType   types.DataType

	IntValue               *int64
	DoubleValue            *float64
	StringValue            *string
	TimeStamp              *time.Time
	URI                    *string
	CodeSpace              *string
	UOM                    *string
	ArrayValue             types.ArrayValue
	GenericContent         *string
	GenericContentMimeType *string

	LOD                string
	FeatureID          int64
	GeometryID         int64
	ImplicitGeometryID int64
	AppearanceID       int64
	AddressID          int64
	ReferencePoint     *geometry.Point
	Relation           types.RelationType
	// ReferenceType is set for feature properties that relate to, rather
	// than contain, their target.
	ReferenceType types.ReferenceType
}

// rowScanner is satisfied by *sql.Rows and *sql.Row.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanPropertyStub reads a row selected with database.PropertyColumns.
// namespace maps namespace ids to URIs.
func scanPropertyStub(rs rowScanner, namespace func(int) string) (*PropertyStub, error) {
	var (
		s                                      PropertyStub
		parentID, dataType, namespaceID        sql.NullInt64
		name                                   string
		valInt                                 sql.NullInt64
		valDouble                              sql.NullFloat64
		valString, valTimestamp, valURI        sql.NullString
		valCodespace, valUOM, valArray, valLOD sql.NullString
		geometryID, implicitID                 sql.NullInt64
		refPoint                               sql.NullString
		appearanceID, addressID, featureID     sql.NullInt64
		relation                               sql.NullInt64
		content, contentMime                   sql.NullString
	)
	err := rs.Scan(&s.Descriptor.ID, &s.Descriptor.FeatureID, &parentID, &dataType, &namespaceID, &name,
		&valInt, &valDouble, &valString, &valTimestamp, &valURI,
		&valCodespace, &valUOM, &valArray, &valLOD,
		&geometryID, &implicitID, &refPoint,
		&appearanceID, &addressID, &featureID, &relation,
		&content, &contentMime)
	if err != nil {
		return nil, fmt.Errorf("scanning property row: %w", err)
	}

	s.Descriptor.ParentID = parentID.Int64
	s.Name = types.NewName(name, namespace(int(namespaceID.Int64)))
	s.DataType = types.DataType(dataType.Int64)
	if !s.DataType.Valid() {
		s.DataType = types.DataTypeUndefined
	}
	s.IntValue = nullInt(valInt)
	if valDouble.Valid {
		s.DoubleValue = &valDouble.Float64
	}
	s.StringValue = nullString(valString)
	s.URI = nullString(valURI)
	s.CodeSpace = nullString(valCodespace)
	s.UOM = nullString(valUOM)
	s.GenericContent = nullString(content)
	s.GenericContentMimeType = nullString(contentMime)
	s.LOD = valLOD.String
	s.FeatureID = featureID.Int64
	s.GeometryID = geometryID.Int64
	s.ImplicitGeometryID = implicitID.Int64
	s.AppearanceID = appearanceID.Int64
	s.AddressID = addressID.Int64
	s.Relation = types.RelationType(relation.Int64)
	if s.DataType == types.DataTypeFeatureProperty && s.Relation == types.RelationRelates {
		s.ReferenceType = types.ReferenceXLink
	}

	if valTimestamp.Valid {
		ts, err := time.Parse(time.RFC3339Nano, valTimestamp.String)
		if err != nil {
			return nil, fmt.Errorf("%w: property %d: timestamp: %v", types.ErrBuild, s.Descriptor.ID, err)
		}
		s.TimeStamp = &ts
	}
	if valArray.Valid {
		if err := json.Unmarshal([]byte(valArray.String), &s.ArrayValue); err != nil {
			return nil, fmt.Errorf("%w: property %d: array value: %v", types.ErrBuild, s.Descriptor.ID, err)
		}
	}
	if refPoint.Valid {
		g, err := geometry.Parse(refPoint.String)
		if err != nil {
			return nil, fmt.Errorf("%w: property %d: reference point: %v", types.ErrBuild, s.Descriptor.ID, err)
		}
		pt, ok := g.(*geometry.Point)
		if !ok {
			return nil, fmt.Errorf("%w: property %d: reference point is a %s", types.ErrBuild, s.Descriptor.ID, g.Type())
		}
		s.ReferencePoint = pt
	}
	return &s, nil
}

func nullInt(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	return &n.Int64
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}
