// Tests for the JSON Lines feature codec.
package jsonl

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/citydb/pkg/geometry"
	"github.com/mesh-intelligence/citydb/pkg/types"
)

func bldg(local string) types.Name { return types.NewName(local, types.NamespaceBuilding) }
func core(local string) types.Name { return types.NewName(local, types.NamespaceCore) }

func cube() *geometry.Solid {
	ring := func(cs ...geometry.Coordinate) *geometry.Polygon {
		return geometry.NewPolygon(geometry.NewLinearRing(cs))
	}
	shell := geometry.NewCompositeSurface([]*geometry.Polygon{
		ring(geometry.XYZ(0, 0, 0), geometry.XYZ(1, 0, 0), geometry.XYZ(1, 1, 0), geometry.XYZ(0, 0, 0)),
		ring(geometry.XYZ(0, 0, 1), geometry.XYZ(1, 0, 1), geometry.XYZ(1, 1, 1), geometry.XYZ(0, 0, 1)),
	})
	return geometry.NewSolid(shell)
}

func richFeature() *types.Feature {
	f := types.NewFeature(bldg("Building"))
	f.ObjectID = "bldg-1"
	f.Identifier = "B1"
	f.IdentifierCodeSpace = "urn:test"
	f.Envelope = geometry.EnvelopeOf(cube())

	f.AddProperty(types.NewMeasure(bldg("height"), 12.5, "m"))
	f.AddProperty(types.NewTimestampAttribute(core("creationDate"), time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)))
	f.AddProperty(types.NewArrayAttribute(core("values"), types.ArrayValue{types.LongValue(1), types.DoubleValue(2), types.StringValue("x")}))
	set := types.NewAttribute(core("genericAttributeSet"), types.DataTypeComplex)
	set.AddChild(types.NewCode(core("function"), "1000", "urn:codes"))
	f.AddProperty(set)

	f.AddProperty(types.NewGeometryProperty(bldg("lod2Solid"), cube(), "2"))

	part := types.NewFeature(bldg("BuildingPart"))
	part.ObjectID = "part-1"
	f.AddProperty(types.NewFeatureProperty(bldg("consistsOfBuildingPart"), part))
	f.AddProperty(types.NewFeatureReference(core("relatedTo"), types.NewReference("road-1", types.ReferenceXLink)))

	ip := types.NewImplicitGeometryProperty(core("lod1ImplicitRepresentation"), &types.ImplicitGeometry{
		ObjectID:      "tree",
		MimeType:      "model/gltf-binary",
		LibraryObject: []byte{0, 1, 2},
	})
	ip.TransformationMatrix = []float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}
	ip.ReferencePoint = geometry.NewPoint(geometry.XYZ(5, 6, 7))
	ip.LOD = "1"
	f.AddProperty(ip)

	f.AddProperty(types.NewGeometryReference(bldg("lod1Solid"), types.NewReference("solid-2", types.ReferenceXLink), "1"))
	f.AddProperty(types.NewAppearanceProperty(core("appearance"), &types.Appearance{ObjectID: "app-1", Theme: "rgb", IsGlobal: true}))
	f.AddProperty(types.NewAppearanceReference(core("appearance"), types.NewReference("app-1", types.ReferenceLocal)))
	f.AddProperty(types.NewAddressProperty(core("address"), &types.Address{
		ObjectID:   "addr-1",
		Street:     "Main",
		City:       "Berlin",
		MultiPoint: geometry.NewMultiPoint([]*geometry.Point{geometry.NewPoint(geometry.XY(1, 2))}),
	}))
	f.AddProperty(types.NewAddressReference(core("address"), types.NewReference("addr-2", types.ReferenceLocal)))
	return f
}

func TestRoundTrip(t *testing.T) {
	want := richFeature()
	data, err := Marshal(want)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "\n")

	got, err := Unmarshal(data)
	require.NoError(t, err)

	assert.Equal(t, want.Type, got.Type)
	assert.Equal(t, want.ObjectID, got.ObjectID)
	assert.Equal(t, want.Identifier, got.Identifier)
	assert.Equal(t, want.IdentifierCodeSpace, got.IdentifierCodeSpace)
	assert.Equal(t, want.Envelope, got.Envelope)

	require.Len(t, got.Attributes, 4)
	assert.Equal(t, want.Attributes[0], got.Attributes[0])
	assert.True(t, want.Attributes[1].TimeStamp.Equal(*got.Attributes[1].TimeStamp))
	assert.Equal(t, want.Attributes[2].ArrayValue, got.Attributes[2].ArrayValue)
	require.Len(t, got.Attributes[3].Children, 1)
	assert.Equal(t, "urn:codes", *got.Attributes[3].Children[0].CodeSpace)

	require.Len(t, got.Geometries, 2)
	solid, ok := got.Geometries[0].Geometry.(*geometry.Solid)
	require.True(t, ok, "solids survive the round trip")
	assert.Equal(t, want.Geometries[0].Geometry.ObjectID(), solid.ObjectID())
	assert.Nil(t, got.Geometries[1].Geometry)
	assert.Equal(t, types.NewReference("solid-2", types.ReferenceXLink), got.Geometries[1].Reference)
	assert.Equal(t, "1", got.Geometries[1].LOD)

	require.Len(t, got.Features, 2)
	assert.Equal(t, "part-1", got.Features[0].Feature.ObjectID)
	assert.Equal(t, types.RelationContains, got.Features[0].Relation)
	assert.Equal(t, types.NewReference("road-1", types.ReferenceXLink), got.Features[1].Reference)
	assert.Equal(t, types.RelationRelates, got.Features[1].Relation)

	require.Len(t, got.ImplicitGeometries, 1)
	ip := got.ImplicitGeometries[0]
	assert.Equal(t, "tree", ip.Object.ObjectID)
	assert.Equal(t, []byte{0, 1, 2}, ip.Object.LibraryObject)
	assert.Equal(t, want.ImplicitGeometries[0].TransformationMatrix, ip.TransformationMatrix)
	assert.Equal(t, geometry.XYZ(5, 6, 7), ip.ReferencePoint.Coordinate())

	require.Len(t, got.Appearances, 2)
	assert.Equal(t, want.Appearances[0].Appearance, got.Appearances[0].Appearance)
	assert.Nil(t, got.Appearances[1].Appearance)
	assert.Equal(t, types.NewReference("app-1", types.ReferenceLocal), got.Appearances[1].Reference)

	require.Len(t, got.Addresses, 2)
	assert.Equal(t, "Berlin", got.Addresses[0].Address.City)
	require.NotNil(t, got.Addresses[0].Address.MultiPoint)
	assert.Len(t, got.Addresses[0].Address.MultiPoint.Points(), 1)
	assert.Equal(t, types.NewReference("addr-2", types.ReferenceLocal), got.Addresses[1].Reference)
}

func TestUnmarshalErrors(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"not json", `{"type":`},
		{"unknown kind", `{"type":"Building","properties":[{"kind":"mystery","name":"x"}]}`},
		{"unknown data type", `{"type":"Building","properties":[{"kind":"attribute","name":"x","dataType":"Blob"}]}`},
		{"empty feature property", `{"type":"Building","properties":[{"kind":"feature","name":"x"}]}`},
		{"bad relation", `{"type":"Building","properties":[{"kind":"feature","name":"x","relation":"owns","reference":{"target":"a","type":"xlink"}}]}`},
		{"empty appearance property", `{"type":"Building","properties":[{"kind":"appearance","name":"x"}]}`},
		{"bad wkt", `{"type":"Building","properties":[{"kind":"geometry","name":"x","geometry":{"wkt":"POINT (1"}}]}`},
		{"reference point not a point", `{"type":"Building","properties":[{"kind":"implicitGeometry","name":"x","reference":{"target":"t","type":"xlink"},"referencePoint":"LINESTRING (0 0,1 1)"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Unmarshal([]byte(tt.line))
			assert.ErrorIs(t, err, types.ErrInvalidData)
		})
	}
}
