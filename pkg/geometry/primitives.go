package geometry

// Point is a single position. A Point may be empty.
type Point struct {
	base
	coord Coordinate
	empty bool
}

// NewPoint returns a Point at c.
func NewPoint(c Coordinate) *Point { return &Point{coord: c} }

// EmptyPoint returns a Point without a position.
func EmptyPoint() *Point { return &Point{empty: true} }

func (p *Point) Type() Type { return TypePoint }
func (p *Point) IsEmpty() bool { return p.empty }
func (p *Point) Coordinate() Coordinate { return p.coord }
func (p *Point) VertexDimension() int { return dimensionOf(p.Coordinates()) }

func (p *Point) Coordinates() []Coordinate {
	if p.empty {
		return nil
	}
	return []Coordinate{p.coord}
}

// LineString is an ordered list of positions.
type LineString struct {
	base
	points []Coordinate
}

// NewLineString returns a LineString over points.
func NewLineString(points []Coordinate) *LineString { return &LineString{points: points} }

func (l *LineString) Type() Type { return TypeLineString }
func (l *LineString) IsEmpty() bool { return len(l.points) == 0 }
func (l *LineString) Coordinates() []Coordinate { return l.points }
func (l *LineString) VertexDimension() int { return dimensionOf(l.points) }

// LinearRing is a closed LineString bounding a polygon.
type LinearRing struct {
	base
	points []Coordinate
}

// NewLinearRing returns a LinearRing over points. Closure is not enforced
// here; Encode rejects open rings.
func NewLinearRing(points []Coordinate) *LinearRing { return &LinearRing{points: points} }

// IsClosed reports whether the first and last coordinates are equal. Empty
// rings are closed.
func (r *LinearRing) IsClosed() bool {
	if len(r.points) == 0 {
		return true
	}
	return sameCoordinate(r.points[0], r.points[len(r.points)-1])
}

func sameCoordinate(a, b Coordinate) bool {
	return sameFloat(a.X, b.X) && sameFloat(a.Y, b.Y) && (!a.Is3D && !b.Is3D || sameFloat(a.Z, b.Z))
}

// sameFloat treats NaN as equal to NaN.
func sameFloat(a, b float64) bool { return a == b || a != a && b != b }

func (r *LinearRing) Type() Type { return TypeLinearRing }
func (r *LinearRing) IsEmpty() bool { return len(r.points) == 0 }
func (r *LinearRing) Coordinates() []Coordinate { return r.points }
func (r *LinearRing) VertexDimension() int { return dimensionOf(r.points) }

// Polygon is an exterior ring with optional holes. Reversed records that the
// ring orientation was flipped during normalization.
type Polygon struct {
	base
	shell    *LinearRing
	holes    []*LinearRing
	reversed bool
}

// NewPolygon returns a Polygon with the given exterior ring and holes.
func NewPolygon(shell *LinearRing, holes ...*LinearRing) *Polygon {
	return &Polygon{shell: shell, holes: holes}
}

// EmptyPolygon returns a Polygon without rings.
func EmptyPolygon() *Polygon { return &Polygon{} }

func (p *Polygon) Type() Type { return TypePolygon }
func (p *Polygon) IsEmpty() bool { return p.shell == nil }
func (p *Polygon) Shell() *LinearRing { return p.shell }
func (p *Polygon) Holes() []*LinearRing { return p.holes }
func (p *Polygon) IsReversed() bool { return p.reversed }
func (p *Polygon) VertexDimension() int { return dimensionOf(p.Coordinates()) }

// SetReversed sets the orientation flag and returns p.
func (p *Polygon) SetReversed(reversed bool) *Polygon {
	p.reversed = reversed
	return p
}

// Rings returns the exterior ring followed by the holes.
func (p *Polygon) Rings() []*LinearRing {
	if p.shell == nil {
		return nil
	}
	return append([]*LinearRing{p.shell}, p.holes...)
}

func (p *Polygon) Coordinates() []Coordinate {
	var out []Coordinate
	for _, r := range p.Rings() {
		out = append(out, r.points...)
	}
	return out
}
