// Tests for the per-export hierarchy cache and export helper.
package exporter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mesh-intelligence/citydb/pkg/geometry"
	"github.com/mesh-intelligence/citydb/pkg/types"
)

func TestHierarchyLookups(t *testing.T) {
	h := NewHierarchy(7, 3)
	assert.Nil(t, h.Root())
	assert.Equal(t, int64(7), h.RootID())

	f := types.NewFeature(types.NewName("Building", types.NamespaceBuilding))
	h.AddFeature(7, f)
	assert.Same(t, f, h.Root())
	assert.Same(t, f, h.Feature(7))
	assert.Nil(t, h.Feature(8))

	g := geometry.NewPoint(geometry.XY(1, 2))
	h.AddGeometry(1, g)
	assert.Equal(t, geometry.Geometry(g), h.Geometry(1))
	assert.Nil(t, h.Geometry(2))

	a := &types.Address{ID: 4}
	h.AddAddress(4, a)
	assert.Same(t, a, h.Address(4))
	assert.Nil(t, h.Appearance(4))
	assert.Nil(t, h.ImplicitGeometry(4))
}

func TestHierarchyInlineFeatures(t *testing.T) {
	h := NewHierarchy(1, 9, 3)
	assert.True(t, h.IsInlineFeature(9))
	assert.False(t, h.IsInlineFeature(1))

	h.MarkInline(1)
	h.MarkInline(3)
	assert.True(t, h.IsInlineFeature(1))
	assert.Equal(t, []int64{1, 3, 9}, h.InlineFeatures())
}

func TestExportHelperLookupAndPut(t *testing.T) {
	helper := NewExportHelper(nil, nil)
	a, b := &types.Address{City: "Berlin"}, &types.Address{City: "Berlin"}

	assert.False(t, helper.LookupAndPut(a), "first occurrence")
	assert.True(t, helper.LookupAndPut(a), "second occurrence")
	assert.False(t, helper.LookupAndPut(b), "equal values are distinct objects")
}

func TestExportHelperGetOrCreateID(t *testing.T) {
	helper := NewExportHelper(nil, nil)

	f := types.NewFeature(types.NewName("Road", types.NamespaceTransportation))
	id := helper.GetOrCreateID(f)
	assert.NotEmpty(t, id)
	assert.Equal(t, id, f.ObjectID)
	assert.Equal(t, id, helper.GetOrCreateID(f), "ids are assigned once")

	a := &types.Address{ObjectID: "addr-1"}
	assert.Equal(t, "addr-1", helper.GetOrCreateID(a))

	g := geometry.NewPoint(geometry.XY(0, 0))
	gid := helper.GetOrCreateID(g)
	assert.NotEmpty(t, gid)
	assert.Equal(t, gid, g.ObjectID())

	assert.Empty(t, helper.GetOrCreateID("not an object"))
}

func TestExportHelperIsTopLevel(t *testing.T) {
	helper := NewExportHelper(nil, func(id int) bool { return id == 901 })

	building := types.NewFeature(types.NewName("Building", types.NamespaceBuilding))
	assert.False(t, helper.IsTopLevel(building), "features without descriptor")

	building.Descriptor = &types.FeatureDescriptor{ID: 1, ObjectClassID: 901}
	assert.True(t, helper.IsTopLevel(building))

	part := types.NewFeature(types.NewName("BuildingPart", types.NamespaceBuilding))
	part.Descriptor = &types.FeatureDescriptor{ID: 2, ObjectClassID: 902}
	assert.False(t, helper.IsTopLevel(part))
}
