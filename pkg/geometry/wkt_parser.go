package geometry

import (
	"math"
	"strconv"
	"strings"
)

// WKT keywords.
const (
	wktPoint              = "POINT"
	wktLineString         = "LINESTRING"
	wktPolygon            = "POLYGON"
	wktMultiPoint         = "MULTIPOINT"
	wktMultiLineString    = "MULTILINESTRING"
	wktMultiPolygon       = "MULTIPOLYGON"
	wktPolyhedralSurface  = "POLYHEDRALSURFACE"
	wktGeometryCollection = "GEOMETRYCOLLECTION"
	wktEmpty              = "EMPTY"
	wktSRID               = "SRID"
	wktZ                  = "Z"
	wktM                  = "M"
	wktZM                 = "ZM"
)

// Parse reads a WKT or EWKT string. MULTIPOLYGON, POLYHEDRALSURFACE and
// GEOMETRYCOLLECTION (whose members must be polyhedral surfaces) all yield a
// MultiSurface. EMPTY yields the empty variant of the named type. Failures
// are *ParseError.
func Parse(wkt string) (Geometry, error) {
	p := &parser{lex: &lexer{src: wkt}}
	g, err := p.geometry()
	if err != nil {
		return nil, err
	}
	t, err := p.lex.next()
	if err != nil {
		return nil, err
	}
	if t.kind != tokEOF {
		return nil, p.fail(t, "unexpected trailing input")
	}
	return g, nil
}

type parser struct {
	lex *lexer
}

func (p *parser) fail(t token, msg string) error {
	return &ParseError{Token: t.text, Offset: t.offset, Msg: msg}
}

// word returns the next token uppercased.
func (p *parser) word() (token, error) {
	t, err := p.lex.next()
	if err != nil {
		return t, err
	}
	if t.kind == tokEOF {
		return t, p.fail(t, "unexpected end of input")
	}
	t.text = strings.ToUpper(t.text)
	return t, nil
}

func (p *parser) peekWord() (string, error) {
	t, err := p.lex.lookahead()
	if err != nil {
		return "", err
	}
	return strings.ToUpper(t.text), nil
}

func (p *parser) expect(text string) error {
	t, err := p.word()
	if err != nil {
		return err
	}
	if t.text != text {
		return p.fail(t, "expected "+strconv.Quote(text))
	}
	return nil
}

func (p *parser) geometry() (Geometry, error) {
	g, _, err := p.taggedGeometry()
	return g, err
}

// taggedGeometry parses one geometry and also returns the type keyword
// that introduced it, after any SRID prefix.
func (p *parser) taggedGeometry() (Geometry, token, error) {
	srid, err := p.srid()
	if err != nil {
		return nil, token{}, err
	}
	t, err := p.word()
	if err != nil {
		return nil, t, err
	}
	if t.kind != tokWord {
		return nil, t, p.fail(t, "expected geometry type")
	}
	dim, err := p.dimension()
	if err != nil {
		return nil, t, err
	}

	var g Geometry
	switch t.text {
	case wktPoint:
		g, err = p.point(dim)
	case wktLineString:
		g, err = p.lineString(dim)
	case wktPolygon:
		g, err = p.polygon(dim)
	case wktMultiPoint:
		g, err = p.multiPoint(dim)
	case wktMultiLineString:
		g, err = p.multiLineString(dim)
	case wktMultiPolygon, wktPolyhedralSurface:
		g, err = p.multiPolygon(dim)
	case wktGeometryCollection:
		g, err = p.geometryCollection()
	default:
		return nil, t, p.fail(t, "unsupported geometry type")
	}
	if err != nil {
		return nil, t, err
	}
	g.SetSRID(srid)
	return g, t, nil
}

func (p *parser) srid() (int, error) {
	w, err := p.peekWord()
	if err != nil || w != wktSRID {
		return 0, err
	}
	if _, err := p.lex.next(); err != nil {
		return 0, err
	}
	if err := p.expect("="); err != nil {
		return 0, err
	}
	t, err := p.word()
	if err != nil {
		return 0, err
	}
	srid, convErr := strconv.Atoi(t.text)
	if convErr != nil {
		return 0, p.fail(t, "invalid SRID")
	}
	if err := p.expect(";"); err != nil {
		return 0, err
	}
	return srid, nil
}

func (p *parser) dimension() (int, error) {
	w, err := p.peekWord()
	if err != nil {
		return 0, err
	}
	switch w {
	case wktZ:
		_, err = p.lex.next()
		return 3, err
	case wktM, wktZM:
		t, _ := p.lex.lookahead()
		return 0, p.fail(t, "unsupported coordinate flag")
	}
	return 2, nil
}

// emptyOrOpener consumes EMPTY or '(' and reports whether it was EMPTY.
func (p *parser) emptyOrOpener() (bool, error) {
	t, err := p.word()
	if err != nil {
		return false, err
	}
	switch t.text {
	case wktEmpty:
		return true, nil
	case "(":
		return false, nil
	}
	return false, p.fail(t, "expected EMPTY or '('")
}

// closerOrComma consumes ')' or ',' and reports whether it was a comma.
func (p *parser) closerOrComma() (bool, error) {
	t, err := p.word()
	if err != nil {
		return false, err
	}
	switch t.text {
	case ",":
		return true, nil
	case ")":
		return false, nil
	}
	return false, p.fail(t, "expected ',' or ')'")
}

func (p *parser) number() (float64, error) {
	t, err := p.word()
	if err != nil {
		return 0, err
	}
	if t.kind != tokWord {
		return 0, p.fail(t, "expected number")
	}
	if t.text == "NAN" {
		return math.NaN(), nil
	}
	if !isDecimal(t.text) {
		return 0, p.fail(t, "invalid number")
	}
	f, convErr := strconv.ParseFloat(t.text, 64)
	if convErr != nil {
		return 0, p.fail(t, "invalid number")
	}
	return f, nil
}

func (p *parser) coordinate(dim int) (Coordinate, error) {
	x, err := p.number()
	if err != nil {
		return Coordinate{}, err
	}
	y, err := p.number()
	if err != nil {
		return Coordinate{}, err
	}
	if dim == 2 {
		return XY(x, y), nil
	}
	z, err := p.number()
	if err != nil {
		return Coordinate{}, err
	}
	return XYZ(x, y, z), nil
}

func (p *parser) coordinates(dim int) ([]Coordinate, error) {
	empty, err := p.emptyOrOpener()
	if err != nil || empty {
		return nil, err
	}
	var out []Coordinate
	for {
		c, err := p.coordinate(dim)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
		more, err := p.closerOrComma()
		if err != nil {
			return nil, err
		}
		if !more {
			return out, nil
		}
	}
}

func (p *parser) point(dim int) (*Point, error) {
	t, _ := p.lex.lookahead()
	coords, err := p.coordinates(dim)
	if err != nil {
		return nil, err
	}
	switch len(coords) {
	case 0:
		return EmptyPoint(), nil
	case 1:
		return NewPoint(coords[0]), nil
	}
	return nil, p.fail(t, "point must have a single coordinate")
}

func (p *parser) lineString(dim int) (*LineString, error) {
	coords, err := p.coordinates(dim)
	if err != nil {
		return nil, err
	}
	return NewLineString(coords), nil
}

func (p *parser) polygon(dim int) (*Polygon, error) {
	empty, err := p.emptyOrOpener()
	if err != nil {
		return nil, err
	}
	if empty {
		return EmptyPolygon(), nil
	}
	var rings []*LinearRing
	for {
		coords, err := p.coordinates(dim)
		if err != nil {
			return nil, err
		}
		rings = append(rings, NewLinearRing(coords))
		more, err := p.closerOrComma()
		if err != nil {
			return nil, err
		}
		if !more {
			return NewPolygon(rings[0], rings[1:]...), nil
		}
	}
}

// multiPoint accepts both MULTIPOINT(1 2,3 4) and MULTIPOINT((1 2),(3 4)).
// The form of the first member applies to all members.
func (p *parser) multiPoint(dim int) (*MultiPoint, error) {
	empty, err := p.emptyOrOpener()
	if err != nil {
		return nil, err
	}
	if empty {
		return NewMultiPoint(nil), nil
	}
	w, err := p.peekWord()
	if err != nil {
		return nil, err
	}
	nested := w == "(" || w == wktEmpty
	var points []*Point
	for {
		var pt *Point
		if nested {
			pt, err = p.point(dim)
		} else {
			var c Coordinate
			c, err = p.coordinate(dim)
			pt = NewPoint(c)
		}
		if err != nil {
			return nil, err
		}
		points = append(points, pt)
		more, err := p.closerOrComma()
		if err != nil {
			return nil, err
		}
		if !more {
			return NewMultiPoint(points), nil
		}
	}
}

func (p *parser) multiLineString(dim int) (*MultiLineString, error) {
	empty, err := p.emptyOrOpener()
	if err != nil {
		return nil, err
	}
	if empty {
		return NewMultiLineString(nil), nil
	}
	var lines []*LineString
	for {
		l, err := p.lineString(dim)
		if err != nil {
			return nil, err
		}
		lines = append(lines, l)
		more, err := p.closerOrComma()
		if err != nil {
			return nil, err
		}
		if !more {
			return NewMultiLineString(lines), nil
		}
	}
}

func (p *parser) multiPolygon(dim int) (*SurfaceCollection, error) {
	empty, err := p.emptyOrOpener()
	if err != nil {
		return nil, err
	}
	if empty {
		return NewMultiSurface(nil), nil
	}
	var polygons []*Polygon
	for {
		poly, err := p.polygon(dim)
		if err != nil {
			return nil, err
		}
		polygons = append(polygons, poly)
		more, err := p.closerOrComma()
		if err != nil {
			return nil, err
		}
		if !more {
			return NewMultiSurface(polygons), nil
		}
	}
}

func (p *parser) geometryCollection() (*SurfaceCollection, error) {
	empty, err := p.emptyOrOpener()
	if err != nil {
		return nil, err
	}
	if empty {
		return NewMultiSurface(nil), nil
	}
	var polygons []*Polygon
	for {
		member, tag, err := p.taggedGeometry()
		if err != nil {
			return nil, err
		}
		surfaces, ok := member.(*SurfaceCollection)
		if tag.text != wktPolyhedralSurface || !ok {
			return nil, p.fail(tag, "expected POLYHEDRALSURFACE member")
		}
		polygons = append(polygons, surfaces.polygons...)
		more, err := p.closerOrComma()
		if err != nil {
			return nil, err
		}
		if !more {
			return NewMultiSurface(polygons), nil
		}
	}
}
