package geometry

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Encode writes g as WKT, prefixed with "SRID=n;" when an SRID is set.
// Surface collections are written as MULTIPOLYGON, a Solid as
// POLYHEDRALSURFACE and solid collections as a GEOMETRYCOLLECTION of
// POLYHEDRALSURFACE members. A closed LinearRing is written as LINESTRING
// and parses back as one; open rings fail. Use BuildProperties to keep the
// structure and the ring type that this flattening loses.
func Encode(g Geometry) (string, error) {
	if g == nil {
		return "", fmt.Errorf("%w: nil geometry", ErrEncode)
	}
	for _, c := range g.Coordinates() {
		if math.IsInf(c.X, 0) || math.IsInf(c.Y, 0) || c.Is3D && math.IsInf(c.Z, 0) {
			return "", fmt.Errorf("%w: infinite coordinate", ErrEncode)
		}
	}
	var b strings.Builder
	if g.SRID() != 0 {
		b.WriteString(wktSRID)
		b.WriteByte('=')
		b.WriteString(strconv.Itoa(g.SRID()))
		b.WriteByte(';')
	}
	if err := writeGeometry(&b, g, g.VertexDimension()); err != nil {
		return "", err
	}
	return b.String(), nil
}

func writeGeometry(b *strings.Builder, g Geometry, dim int) error {
	switch v := g.(type) {
	case *Point:
		writeTag(b, wktPoint, dim)
		if v.empty {
			b.WriteString(wktEmpty)
			return nil
		}
		writeCoordinates(b, v.Coordinates(), dim)
	case *LineString:
		writeTag(b, wktLineString, dim)
		writeCoordinatesOrEmpty(b, v.points, dim)
	case *LinearRing:
		if !v.IsClosed() {
			return fmt.Errorf("%w: linear ring is not closed", ErrEncode)
		}
		writeTag(b, wktLineString, dim)
		writeCoordinatesOrEmpty(b, v.points, dim)
	case *Polygon:
		writeTag(b, wktPolygon, dim)
		writePolygonText(b, v, dim)
	case *MultiPoint:
		writeTag(b, wktMultiPoint, dim)
		if v.IsEmpty() {
			b.WriteString(wktEmpty)
			return nil
		}
		b.WriteByte('(')
		for i, p := range v.points {
			if i > 0 {
				b.WriteByte(',')
			}
			if p.empty {
				b.WriteString(wktEmpty)
				continue
			}
			writeCoordinates(b, p.Coordinates(), dim)
		}
		b.WriteByte(')')
	case *MultiLineString:
		writeTag(b, wktMultiLineString, dim)
		if v.IsEmpty() {
			b.WriteString(wktEmpty)
			return nil
		}
		b.WriteByte('(')
		for i, l := range v.lines {
			if i > 0 {
				b.WriteByte(',')
			}
			writeCoordinatesOrEmpty(b, l.points, dim)
		}
		b.WriteByte(')')
	case *SurfaceCollection:
		writeTag(b, wktMultiPolygon, dim)
		writePolygonsText(b, v.polygons, dim)
	case *Solid:
		writeTag(b, wktPolyhedralSurface, dim)
		writePolygonsText(b, Polygons(v), dim)
	case *SolidCollection:
		b.WriteString(wktGeometryCollection)
		b.WriteByte(' ')
		if v.IsEmpty() {
			b.WriteString(wktEmpty)
			return nil
		}
		b.WriteByte('(')
		for i, s := range v.solids {
			if i > 0 {
				b.WriteByte(',')
			}
			writeTag(b, wktPolyhedralSurface, dim)
			writePolygonsText(b, Polygons(s), dim)
		}
		b.WriteByte(')')
	default:
		return fmt.Errorf("%w: unsupported type %T", ErrEncode, g)
	}
	return nil
}

func writeTag(b *strings.Builder, tag string, dim int) {
	b.WriteString(tag)
	b.WriteByte(' ')
	if dim == 3 {
		b.WriteString(wktZ)
		b.WriteByte(' ')
	}
}

func writePolygonsText(b *strings.Builder, polygons []*Polygon, dim int) {
	if len(polygons) == 0 {
		b.WriteString(wktEmpty)
		return
	}
	b.WriteByte('(')
	for i, p := range polygons {
		if i > 0 {
			b.WriteByte(',')
		}
		writePolygonText(b, p, dim)
	}
	b.WriteByte(')')
}

func writePolygonText(b *strings.Builder, p *Polygon, dim int) {
	if p.IsEmpty() {
		b.WriteString(wktEmpty)
		return
	}
	b.WriteByte('(')
	for i, r := range p.Rings() {
		if i > 0 {
			b.WriteByte(',')
		}
		writeCoordinatesOrEmpty(b, r.points, dim)
	}
	b.WriteByte(')')
}

func writeCoordinatesOrEmpty(b *strings.Builder, coords []Coordinate, dim int) {
	if len(coords) == 0 {
		b.WriteString(wktEmpty)
		return
	}
	writeCoordinates(b, coords, dim)
}

func writeCoordinates(b *strings.Builder, coords []Coordinate, dim int) {
	b.WriteByte('(')
	for i, c := range coords {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(formatNumber(c.X))
		b.WriteByte(' ')
		b.WriteString(formatNumber(c.Y))
		if dim == 3 {
			b.WriteByte(' ')
			b.WriteString(formatNumber(c.Z))
		}
	}
	b.WriteByte(')')
}

// formatNumber uses the shortest representation that parses back to f.
func formatNumber(f float64) string {
	if math.IsNaN(f) {
		return "NaN"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
