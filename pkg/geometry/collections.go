package geometry

import "fmt"

// MultiPoint is a collection of points.
type MultiPoint struct {
	base
	points []*Point
}

// NewMultiPoint returns a MultiPoint over points.
func NewMultiPoint(points []*Point) *MultiPoint { return &MultiPoint{points: points} }

func (m *MultiPoint) Type() Type { return TypeMultiPoint }
func (m *MultiPoint) IsEmpty() bool { return len(m.points) == 0 }
func (m *MultiPoint) Points() []*Point { return m.points }
func (m *MultiPoint) VertexDimension() int { return dimensionOf(m.Coordinates()) }

func (m *MultiPoint) Coordinates() []Coordinate {
	var out []Coordinate
	for _, p := range m.points {
		out = append(out, p.Coordinates()...)
	}
	return out
}

// MultiLineString is a collection of line strings.
type MultiLineString struct {
	base
	lines []*LineString
}

// NewMultiLineString returns a MultiLineString over lines.
func NewMultiLineString(lines []*LineString) *MultiLineString {
	return &MultiLineString{lines: lines}
}

func (m *MultiLineString) Type() Type { return TypeMultiLineString }
func (m *MultiLineString) IsEmpty() bool { return len(m.lines) == 0 }
func (m *MultiLineString) LineStrings() []*LineString { return m.lines }
func (m *MultiLineString) VertexDimension() int { return dimensionOf(m.Coordinates()) }

func (m *MultiLineString) Coordinates() []Coordinate {
	var out []Coordinate
	for _, l := range m.lines {
		out = append(out, l.points...)
	}
	return out
}

// SurfaceCollection is a MultiSurface, CompositeSurface or
// TriangulatedSurface.
type SurfaceCollection struct {
	base
	kind     Type
	polygons []*Polygon
}

// NewMultiSurface returns a MultiSurface over polygons.
func NewMultiSurface(polygons []*Polygon) *SurfaceCollection {
	return &SurfaceCollection{kind: TypeMultiSurface, polygons: polygons}
}

// NewCompositeSurface returns a CompositeSurface over polygons.
func NewCompositeSurface(polygons []*Polygon) *SurfaceCollection {
	return &SurfaceCollection{kind: TypeCompositeSurface, polygons: polygons}
}

// NewTriangulatedSurface returns a TriangulatedSurface over polygons.
func NewTriangulatedSurface(polygons []*Polygon) *SurfaceCollection {
	return &SurfaceCollection{kind: TypeTriangulatedSurface, polygons: polygons}
}

func newSurfaceCollection(kind Type, polygons []*Polygon) (*SurfaceCollection, error) {
	switch kind {
	case TypeMultiSurface, TypeCompositeSurface, TypeTriangulatedSurface:
		return &SurfaceCollection{kind: kind, polygons: polygons}, nil
	}
	return nil, fmt.Errorf("%w: %s is not a surface collection", ErrHierarchy, kind)
}

func (s *SurfaceCollection) Type() Type { return s.kind }
func (s *SurfaceCollection) IsEmpty() bool { return len(s.polygons) == 0 }
func (s *SurfaceCollection) Polygons() []*Polygon { return s.polygons }
func (s *SurfaceCollection) VertexDimension() int { return dimensionOf(s.Coordinates()) }

func (s *SurfaceCollection) Coordinates() []Coordinate {
	var out []Coordinate
	for _, p := range s.polygons {
		out = append(out, p.Coordinates()...)
	}
	return out
}

// Solid is a volume bounded by a closed shell.
type Solid struct {
	base
	shell *SurfaceCollection
}

// NewSolid returns a Solid with the given shell.
func NewSolid(shell *SurfaceCollection) *Solid { return &Solid{shell: shell} }

func (s *Solid) Type() Type { return TypeSolid }
func (s *Solid) Shell() *SurfaceCollection { return s.shell }
func (s *Solid) IsEmpty() bool { return s.shell == nil || s.shell.IsEmpty() }
func (s *Solid) VertexDimension() int { return dimensionOf(s.Coordinates()) }

func (s *Solid) Coordinates() []Coordinate {
	if s.shell == nil {
		return nil
	}
	return s.shell.Coordinates()
}

// SolidCollection is a MultiSolid or CompositeSolid.
type SolidCollection struct {
	base
	kind   Type
	solids []*Solid
}

// NewMultiSolid returns a MultiSolid over solids.
func NewMultiSolid(solids []*Solid) *SolidCollection {
	return &SolidCollection{kind: TypeMultiSolid, solids: solids}
}

// NewCompositeSolid returns a CompositeSolid over solids.
func NewCompositeSolid(solids []*Solid) *SolidCollection {
	return &SolidCollection{kind: TypeCompositeSolid, solids: solids}
}

func (s *SolidCollection) Type() Type { return s.kind }
func (s *SolidCollection) IsEmpty() bool { return len(s.solids) == 0 }
func (s *SolidCollection) Solids() []*Solid { return s.solids }
func (s *SolidCollection) VertexDimension() int { return dimensionOf(s.Coordinates()) }

func (s *SolidCollection) Coordinates() []Coordinate {
	var out []Coordinate
	for _, solid := range s.solids {
		out = append(out, solid.Coordinates()...)
	}
	return out
}

// Polygons returns every polygon of g in document order. Point and curve
// geometries yield nil.
func Polygons(g Geometry) []*Polygon {
	switch v := g.(type) {
	case *Polygon:
		return []*Polygon{v}
	case *SurfaceCollection:
		return v.polygons
	case *Solid:
		if v.shell == nil {
			return nil
		}
		return v.shell.polygons
	case *SolidCollection:
		var out []*Polygon
		for _, s := range v.solids {
			out = append(out, Polygons(s)...)
		}
		return out
	}
	return nil
}
