package jsonl

import (
	"time"

	"github.com/mesh-intelligence/citydb/pkg/geometry"
	"github.com/mesh-intelligence/citydb/pkg/types"
)

// Record structures of the feature file format. One featureJSON is written
// per line.

// Property kinds as written in the "kind" field.
const (
	kindAttribute        = "attribute"
	kindFeature          = "feature"
	kindGeometry         = "geometry"
	kindImplicitGeometry = "implicitGeometry"
	kindAppearance       = "appearance"
	kindAddress          = "address"
)

// Relation values.
const (
	relationContains = "contains"
	relationRelates  = "relates"
)

type featureJSON struct {
	Type                types.Name     `json:"type"`
	ObjectID            string         `json:"objectId,omitempty"`
	Identifier          string         `json:"identifier,omitempty"`
	IdentifierCodeSpace string         `json:"identifierCodeSpace,omitempty"`
	Envelope            string         `json:"envelope,omitempty"`
	Properties          []propertyJSON `json:"properties,omitempty"`
}

// propertyJSON is the union of all property variants, tagged by Kind.
type propertyJSON struct {
	Kind string     `json:"kind"`
	Name types.Name `json:"name"`

	// attribute
	DataType        string           `json:"dataType,omitempty"`
	Int             *int64           `json:"int,omitempty"`
	Double          *float64         `json:"double,omitempty"`
	String          *string          `json:"string,omitempty"`
	TimeStamp       *time.Time       `json:"timestamp,omitempty"`
	URI             *string          `json:"uri,omitempty"`
	CodeSpace       *string          `json:"codeSpace,omitempty"`
	UOM             *string          `json:"uom,omitempty"`
	Array           types.ArrayValue `json:"array,omitempty"`
	Content         *string          `json:"content,omitempty"`
	ContentMimeType *string          `json:"contentMimeType,omitempty"`
	Children        []propertyJSON   `json:"children,omitempty"`

	// feature, geometry, implicit geometry, appearance and address references
	Relation  string           `json:"relation,omitempty"`
	Feature   *featureJSON     `json:"feature,omitempty"`
	Reference *types.Reference `json:"reference,omitempty"`

	// geometry and implicit geometry
	LOD            string        `json:"lod,omitempty"`
	Geometry       *geometryJSON `json:"geometry,omitempty"`
	Template       *templateJSON `json:"template,omitempty"`
	Matrix         []float64     `json:"matrix,omitempty"`
	ReferencePoint string        `json:"referencePoint,omitempty"`

	Appearance *appearanceJSON `json:"appearance,omitempty"`
	Address    *addressJSON    `json:"address,omitempty"`
}

type geometryJSON struct {
	WKT        string               `json:"wkt"`
	Properties *geometry.Properties `json:"properties,omitempty"`
}

type templateJSON struct {
	ObjectID      string        `json:"objectId,omitempty"`
	MimeType      string        `json:"mimeType,omitempty"`
	LibraryObject []byte        `json:"libraryObject,omitempty"`
	Geometry      *geometryJSON `json:"geometry,omitempty"`
}

type appearanceJSON struct {
	ObjectID   string `json:"objectId,omitempty"`
	Identifier string `json:"identifier,omitempty"`
	Theme      string `json:"theme,omitempty"`
	IsGlobal   bool   `json:"isGlobal,omitempty"`
}

type addressJSON struct {
	ObjectID    string `json:"objectId,omitempty"`
	Identifier  string `json:"identifier,omitempty"`
	Street      string `json:"street,omitempty"`
	HouseNumber string `json:"houseNumber,omitempty"`
	POBox       string `json:"poBox,omitempty"`
	ZipCode     string `json:"zipCode,omitempty"`
	City        string `json:"city,omitempty"`
	State       string `json:"state,omitempty"`
	Country     string `json:"country,omitempty"`
	FreeText    string `json:"freeText,omitempty"`
	MultiPoint  string `json:"multiPoint,omitempty"`
}
