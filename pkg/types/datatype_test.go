package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataTypeKind(t *testing.T) {
	want := map[DataType]PropertyKind{
		DataTypeFeatureProperty:          PropertyKindFeature,
		DataTypeGeometryProperty:         PropertyKindGeometry,
		DataTypeImplicitGeometryProperty: PropertyKindImplicitGeometry,
		DataTypeAppearanceProperty:       PropertyKindAppearance,
		DataTypeAddressProperty:          PropertyKindAddress,
	}
	for _, dt := range DataTypes() {
		kind, ok := want[dt]
		if !ok {
			kind = PropertyKindAttribute
		}
		assert.Equal(t, kind, dt.Kind(), dt.String())
	}
}

func TestParseDataType(t *testing.T) {
	for _, dt := range DataTypes() {
		got, err := ParseDataType(dt.String())
		require.NoError(t, err)
		assert.Equal(t, dt, got)
	}
	_, err := ParseDataType("Polygon")
	assert.ErrorIs(t, err, ErrInvalidData)
	assert.False(t, DataType(0).Valid())
	assert.Equal(t, "DataType(99)", DataType(99).String())
}

func TestNameRoundTrip(t *testing.T) {
	n := NewName("Building", NamespaceBuilding)
	assert.Equal(t, "{"+NamespaceBuilding+"}Building", n.String())
	assert.Equal(t, n, ParseName(n.String()))
	assert.Equal(t, Name{LocalName: "height"}, ParseName("height"))
}

func TestFeatureProperties(t *testing.T) {
	f := NewFeature(NewName("Building", NamespaceBuilding))
	child := NewFeature(NewName("BuildingPart", NamespaceBuilding))
	props := []Property{
		NewStringAttribute(NewName("name", NamespaceCore), "town hall"),
		NewFeatureProperty(NewName("buildingPart", NamespaceBuilding), child),
		NewAddressReference(NewName("address", NamespaceCore), NewReference("addr-1", ReferenceXLink)),
	}
	for _, p := range props {
		require.NoError(t, f.AddProperty(p))
	}
	assert.Len(t, f.Attributes, 1)
	assert.Len(t, f.Features, 1)
	assert.Len(t, f.Addresses, 1)
	assert.Equal(t, props, f.Properties())

	var visited []string
	require.NoError(t, f.Walk(func(x *Feature) error {
		visited = append(visited, x.Type.LocalName)
		return nil
	}))
	assert.Equal(t, []string{"Building", "BuildingPart"}, visited)
}

func TestReferenceValidate(t *testing.T) {
	assert.NoError(t, Reference{Target: "a", Type: ReferenceLocal}.Validate())
	assert.ErrorIs(t, Reference{Type: ReferenceLocal}.Validate(), ErrInvalidData)
	assert.ErrorIs(t, Reference{Target: "a", Type: "weak"}.Validate(), ErrInvalidData)
}
