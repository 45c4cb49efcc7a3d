// Tests for storing geometries as WKT plus properties.
package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoredRoundTripKeepsStructure(t *testing.T) {
	solid := NewSolid(NewCompositeSurface([]*Polygon{square(0, 0, 0), square(0, 0, 1)}))
	solid.SetSRID(25832)

	wkt, props, err := EncodeStored(solid)
	require.NoError(t, err)
	assert.Contains(t, wkt, "POLYHEDRALSURFACE Z")
	assert.NotEmpty(t, solid.ObjectID(), "object ids are assigned")

	got, err := DecodeStored(wkt, props)
	require.NoError(t, err)
	require.Equal(t, TypeSolid, got.Type())
	assert.Equal(t, solid.ObjectID(), got.ObjectID())
	assert.Equal(t, 25832, got.SRID())
	assert.Equal(t, TypeCompositeSurface, got.(*Solid).Shell().Type())
	assert.Equal(t, solid.Coordinates(), got.Coordinates())
}

func TestStoredRoundTripKeepsLinearRing(t *testing.T) {
	ring := NewLinearRing([]Coordinate{XYZ(0, 0, 1), XYZ(1, 0, 1), XYZ(1, 1, 1), XYZ(0, 0, 1)})
	ring.SetObjectID("ring-1")

	wkt, props, err := EncodeStored(ring)
	require.NoError(t, err)
	assert.Equal(t, "LINESTRING Z (0 0 1,1 0 1,1 1 1,0 0 1)", wkt)

	got, err := DecodeStored(wkt, props)
	require.NoError(t, err)
	require.Equal(t, TypeLinearRing, got.Type())
	assert.Equal(t, "ring-1", got.ObjectID())
	assert.Equal(t, ring.Coordinates(), got.Coordinates())

	_, err = DecodeStored("LINESTRING Z (0 0 1,1 0 1,1 1 1)", props)
	assert.ErrorIs(t, err, ErrHierarchy)
}

func TestDecodeStoredWithoutProperties(t *testing.T) {
	got, err := DecodeStored("MULTIPOLYGON (((0 0,1 0,1 1,0 0)))", nil)
	require.NoError(t, err)
	assert.Equal(t, TypeMultiSurface, got.Type())
}

func TestDecodeStoredParseError(t *testing.T) {
	_, err := DecodeStored("POINT (1", nil)
	assert.ErrorIs(t, err, ErrParse)
}
