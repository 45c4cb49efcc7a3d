package geometry

import (
	"fmt"

	"github.com/google/uuid"
)

// Type identifies a geometry variant. The numeric values are the ones stored
// in geometry properties.
type Type uint8

// Geometry types.
const (
	TypePoint               Type = 1
	TypeMultiPoint          Type = 2
	TypeLineString          Type = 3
	TypeMultiLineString     Type = 4
	TypePolygon             Type = 5
	TypeCompositeSurface    Type = 6
	TypeTriangulatedSurface Type = 7
	TypeMultiSurface        Type = 8
	TypeSolid               Type = 9
	TypeCompositeSolid      Type = 10
	TypeMultiSolid          Type = 11
	TypeLinearRing          Type = 12
)

var typeNames = map[Type]string{
	TypePoint:               "Point",
	TypeMultiPoint:          "MultiPoint",
	TypeLineString:          "LineString",
	TypeMultiLineString:     "MultiLineString",
	TypePolygon:             "Polygon",
	TypeCompositeSurface:    "CompositeSurface",
	TypeTriangulatedSurface: "TriangulatedSurface",
	TypeMultiSurface:        "MultiSurface",
	TypeSolid:               "Solid",
	TypeCompositeSolid:      "CompositeSolid",
	TypeMultiSolid:          "MultiSolid",
	TypeLinearRing:          "LinearRing",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Type(%d)", uint8(t))
}

// Coordinate is a 2D or 3D position. Z is ignored for 2D coordinates.
type Coordinate struct {
	X, Y, Z float64
	Is3D    bool
}

// XY returns a 2D coordinate.
func XY(x, y float64) Coordinate { return Coordinate{X: x, Y: y} }

// XYZ returns a 3D coordinate.
func XYZ(x, y, z float64) Coordinate { return Coordinate{X: x, Y: y, Z: z, Is3D: true} }

// Dimension returns 2 or 3.
func (c Coordinate) Dimension() int {
	if c.Is3D {
		return 3
	}
	return 2
}

// Geometry is implemented by every variant of this package.
type Geometry interface {
	Type() Type
	SRID() int
	SetSRID(srid int)
	ObjectID() string
	SetObjectID(id string)
	// VertexDimension is 3 if any coordinate is 3D, otherwise 2.
	VertexDimension() int
	IsEmpty() bool
	// Coordinates returns every coordinate in document order.
	Coordinates() []Coordinate
	sealed()
}

type base struct {
	srid     int
	objectID string
}

func (b *base) SRID() int { return b.srid }
func (b *base) SetSRID(srid int) { b.srid = srid }
func (b *base) ObjectID() string { return b.objectID }
func (b *base) SetObjectID(id string) { b.objectID = id }
func (*base) sealed() {}

// NewObjectID returns a fresh object identifier.
func NewObjectID() string { return "ID_" + uuid.NewString() }

// ObjectIDOrCreate returns the object id of g, assigning a new one first if
// it has none.
func ObjectIDOrCreate(g Geometry) string {
	if g.ObjectID() == "" {
		g.SetObjectID(NewObjectID())
	}
	return g.ObjectID()
}

func dimensionOf(coords []Coordinate) int {
	for _, c := range coords {
		if c.Is3D {
			return 3
		}
	}
	return 2
}
