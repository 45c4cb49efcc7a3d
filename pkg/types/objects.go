package types

import "github.com/mesh-intelligence/citydb/pkg/geometry"

// Address is a postal address. ID is the address row id, zero until
// persisted or loaded.
type Address struct {
	ID          int64
	ObjectID    string
	Identifier  string
	Street      string
	HouseNumber string
	POBox       string
	ZipCode     string
	City        string
	State       string
	Country     string
	FreeText    string
	MultiPoint  *geometry.MultiPoint
}

// Appearance groups surface data under a theme. ID is the appearance row id.
type Appearance struct {
	ID         int64
	ObjectID   string
	Identifier string
	Theme      string
	IsGlobal   bool
}

// ImplicitGeometry is a template shape placed by implicit geometry
// properties. The template is either a geometry or an external library
// object. ID is the implicit_geometry row id.
type ImplicitGeometry struct {
	ID            int64
	ObjectID      string
	Geometry      geometry.Geometry
	LibraryObject []byte
	MimeType      string
}
