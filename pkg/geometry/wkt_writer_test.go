// Tests for WKT encoding and the encode/parse round trip.
package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(x, y, z float64) *Polygon {
	return NewPolygon(NewLinearRing([]Coordinate{
		XYZ(x, y, z), XYZ(x+1, y, z), XYZ(x+1, y+1, z), XYZ(x, y+1, z), XYZ(x, y, z),
	}))
}

func TestEncode(t *testing.T) {
	pt := NewPoint(XY(1, 2))
	pt.SetSRID(4326)
	tests := []struct {
		name string
		g    Geometry
		want string
	}{
		{"point", NewPoint(XY(1.5, -2)), "POINT (1.5 -2)"},
		{"point with srid", pt, "SRID=4326;POINT (1 2)"},
		{"empty point", EmptyPoint(), "POINT EMPTY"},
		{"3d line", NewLineString([]Coordinate{XYZ(0, 0, 0), XYZ(1, 1, 1)}), "LINESTRING Z (0 0 0,1 1 1)"},
		{"empty polygon", EmptyPolygon(), "POLYGON EMPTY"},
		{"multipoint", NewMultiPoint([]*Point{NewPoint(XY(1, 2)), NewPoint(XY(3, 4))}), "MULTIPOINT ((1 2),(3 4))"},
		{"empty multisurface", NewMultiSurface(nil), "MULTIPOLYGON EMPTY"},
		{"nan", NewPoint(XY(math.NaN(), 1)), "POINT (NaN 1)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Encode(tt.g)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodeNil(t *testing.T) {
	_, err := Encode(nil)
	assert.ErrorIs(t, err, ErrEncode)
}

func TestEncodeRejectsInfinity(t *testing.T) {
	_, err := Encode(NewPoint(XY(math.Inf(1), 0)))
	assert.ErrorIs(t, err, ErrEncode)
}

func TestEncodeLinearRing(t *testing.T) {
	ring := NewLinearRing([]Coordinate{XY(0, 0), XY(1, 0), XY(1, 1), XY(0, 0)})
	got, err := Encode(ring)
	require.NoError(t, err)
	assert.Equal(t, "LINESTRING (0 0,1 0,1 1,0 0)", got)

	back, err := Parse(got)
	require.NoError(t, err)
	assert.Equal(t, TypeLineString, back.Type(), "WKT has no ring type")

	_, err = Encode(NewLinearRing([]Coordinate{XY(0, 0), XY(1, 0), XY(1, 1)}))
	assert.ErrorIs(t, err, ErrEncode)

	nan := NewLinearRing([]Coordinate{XY(math.NaN(), 0), XY(1, 0), XY(math.NaN(), 0)})
	assert.True(t, nan.IsClosed())
}

func TestEncodeSolidsFlatten(t *testing.T) {
	solid := NewSolid(NewCompositeSurface([]*Polygon{square(0, 0, 0), square(0, 0, 1)}))
	got, err := Encode(solid)
	require.NoError(t, err)
	assert.Contains(t, got, "POLYHEDRALSURFACE Z ")

	multi := NewMultiSolid([]*Solid{solid, NewSolid(NewCompositeSurface([]*Polygon{square(5, 5, 0)}))})
	got, err = Encode(multi)
	require.NoError(t, err)

	g, err := Parse(got)
	require.NoError(t, err)
	assert.Len(t, g.(*SurfaceCollection).Polygons(), 3)
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		g    Geometry
	}{
		{"point 2d", NewPoint(XY(0.1, 1e-300))},
		{"point 3d", NewPoint(XYZ(691036.8437, 5336041.5, 512.125))},
		{"point nan", NewPoint(XYZ(math.NaN(), 2, math.NaN()))},
		{"line", NewLineString([]Coordinate{XY(1.0/3, 2.0/3), XY(1e21, -7)})},
		{"polygon", NewPolygon(
			NewLinearRing([]Coordinate{XY(0, 0), XY(10, 0), XY(10, 10), XY(0, 0)}),
			NewLinearRing([]Coordinate{XY(1, 1), XY(2, 1), XY(2, 2), XY(1, 1)}),
		)},
		{"multipoint", NewMultiPoint([]*Point{NewPoint(XYZ(1, 2, 3)), NewPoint(XYZ(4, 5, math.NaN()))})},
		{"multilinestring", NewMultiLineString([]*LineString{
			NewLineString([]Coordinate{XY(0, 0), XY(1, 1)}),
			NewLineString([]Coordinate{XY(2, 2), XY(3, 3)}),
		})},
		{"multisurface", NewMultiSurface([]*Polygon{square(0, 0, 0), square(2, 2, 2)})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := Encode(tt.g)
			require.NoError(t, err)
			back, err := Parse(text)
			require.NoError(t, err)
			assert.Equal(t, tt.g.Type(), back.Type())
			assert.Equal(t, tt.g.VertexDimension(), back.VertexDimension())
			assertCoordinatesEqual(t, tt.g.Coordinates(), back.Coordinates())
		})
	}
}

func assertCoordinatesEqual(t *testing.T, want, got []Coordinate) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assertNumber(t, want[i].X, got[i].X)
		assertNumber(t, want[i].Y, got[i].Y)
		assert.Equal(t, want[i].Is3D, got[i].Is3D)
		if want[i].Is3D {
			assertNumber(t, want[i].Z, got[i].Z)
		}
	}
}

func assertNumber(t *testing.T, want, got float64) {
	t.Helper()
	if math.IsNaN(want) {
		assert.True(t, math.IsNaN(got), "want NaN, got %v", got)
		return
	}
	assert.Equal(t, want, got)
}
