// Tests for exporting feature graphs that were written by the importer.
package exporter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/citydb/internal/database"
	"github.com/mesh-intelligence/citydb/internal/importer"
	"github.com/mesh-intelligence/citydb/pkg/geometry"
	"github.com/mesh-intelligence/citydb/pkg/types"
)

func bldg(local string) types.Name { return types.NewName(local, types.NamespaceBuilding) }
func tran(local string) types.Name { return types.NewName(local, types.NamespaceTransportation) }

func square() *geometry.Polygon {
	ring := geometry.NewLinearRing([]geometry.Coordinate{
		geometry.XYZ(0, 0, 0), geometry.XYZ(1, 0, 0), geometry.XYZ(1, 1, 0), geometry.XYZ(0, 0, 0),
	})
	return geometry.NewPolygon(ring)
}

func sampleBuilding() *types.Feature {
	b := types.NewFeature(bldg("Building"))
	b.ObjectID = "bldg-1"
	b.Identifier = "B1"
	b.AddProperty(types.NewMeasure(bldg("height"), 12.5, "m"))
	set := types.NewAttribute(name("genericAttributeSet"), types.DataTypeComplex)
	set.AddChild(types.NewStringAttribute(name("usage"), "residential"))
	set.AddChild(types.NewIntAttribute(name("floors"), 4))
	b.AddProperty(set)
	b.AddProperty(types.NewGeometryProperty(bldg("lod2MultiSurface"),
		geometry.NewMultiSurface([]*geometry.Polygon{square()}), "2"))

	part := types.NewFeature(bldg("BuildingPart"))
	part.ObjectID = "part-1"
	part.AddProperty(types.NewStringAttribute(name("name"), "east wing"))
	b.AddProperty(types.NewFeatureProperty(bldg("consistsOfBuildingPart"), part))

	b.AddProperty(types.NewAppearanceProperty(name("appearance"), &types.Appearance{Theme: "rgb"}))
	b.AddProperty(types.NewAddressProperty(name("address"), &types.Address{ObjectID: "addr-1", City: "Berlin"}))
	return b
}

// importFeatures writes features in one import session and returns their
// row ids.
func importFeatures(t *testing.T, db *database.Database, features ...*types.Feature) []int64 {
	t.Helper()
	ctx := context.Background()
	im, err := importer.New(ctx, db, quietLog())
	require.NoError(t, err)
	w, err := im.NewWorker(ctx)
	require.NoError(t, err)
	for _, f := range features {
		require.NoError(t, w.Import(ctx, f))
	}
	require.NoError(t, w.Flush(ctx))
	require.NoError(t, w.Close())
	_, err = im.Finish(ctx)
	require.NoError(t, err)

	ids := make([]int64, len(features))
	for i, f := range features {
		ids[i] = f.Descriptor.ID
	}
	return ids
}

func openExporter(t *testing.T) (*database.Database, *Exporter) {
	t.Helper()
	ctx := context.Background()
	cfg := types.DatabaseConfig{Dialect: types.DialectSQLite, DataDir: t.TempDir()}
	db, err := database.Open(ctx, cfg, quietLog())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Init(ctx))

	e, err := New(db, Options{ScratchDir: t.TempDir()}, quietLog())
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return db, e
}

func TestExportRoundTrip(t *testing.T) {
	db, e := openExporter(t)
	ids := importFeatures(t, db, sampleBuilding())
	want := sampleBuilding()

	got, err := e.Export(context.Background(), ids[0])
	require.NoError(t, err)
	assert.Equal(t, bldg("Building"), got.Type)
	assert.Equal(t, "bldg-1", got.ObjectID)
	assert.Equal(t, "B1", got.Identifier)
	assert.Equal(t, want.ComputeEnvelope(), got.Envelope)
	require.NotNil(t, got.Descriptor)
	assert.Equal(t, 901, got.Descriptor.ObjectClassID)

	require.Len(t, got.Attributes, 2)
	height := got.Attributes[0]
	assert.Equal(t, bldg("height"), height.Name)
	assert.Equal(t, 12.5, *height.DoubleValue)
	assert.Equal(t, "m", *height.UOM)
	set := got.Attributes[1]
	assert.Equal(t, types.DataTypeComplex, set.DataType)
	require.Len(t, set.Children, 2)
	assert.Equal(t, "residential", *set.Children[0].StringValue)
	assert.Equal(t, int64(4), *set.Children[1].IntValue)

	require.Len(t, got.Geometries, 1)
	wantWKT, err := geometry.Encode(want.Geometries[0].Geometry)
	require.NoError(t, err)
	gotWKT, err := geometry.Encode(got.Geometries[0].Geometry)
	require.NoError(t, err)
	assert.Equal(t, wantWKT, gotWKT)
	assert.Equal(t, "2", got.Geometries[0].LOD)

	require.Len(t, got.Features, 1)
	part := got.Features[0]
	assert.Equal(t, types.RelationContains, part.Relation)
	require.NotNil(t, part.Feature)
	assert.Equal(t, bldg("BuildingPart"), part.Feature.Type)
	require.Len(t, part.Feature.Attributes, 1)
	assert.Equal(t, "east wing", *part.Feature.Attributes[0].StringValue)

	require.Len(t, got.Appearances, 1)
	assert.Equal(t, "rgb", got.Appearances[0].Appearance.Theme)
	require.Len(t, got.Addresses, 1)
	assert.Equal(t, "addr-1", got.Addresses[0].Address.ObjectID)
	assert.Equal(t, "Berlin", got.Addresses[0].Address.City)
	assert.Equal(t, int64(1), e.Exported())
}

func TestExportTopLevelReferenceStaysReference(t *testing.T) {
	db, e := openExporter(t)
	road := types.NewFeature(tran("Road"))
	road.ObjectID = "road-1"
	road.AddProperty(types.NewFeatureReference(name("relatedTo"), types.NewReference("bldg-1", types.ReferenceXLink)))
	ids := importFeatures(t, db, road, sampleBuilding())

	got, err := e.Export(context.Background(), ids[0])
	require.NoError(t, err)
	require.Len(t, got.Features, 1)
	fp := got.Features[0]
	assert.Nil(t, fp.Feature)
	assert.Equal(t, types.NewReference("bldg-1", types.ReferenceXLink), fp.Reference)
	assert.Equal(t, types.RelationRelates, fp.Relation)
}

func TestExportReferencedSubFeatureIsEmbedded(t *testing.T) {
	db, e := openExporter(t)
	road := types.NewFeature(tran("Road"))
	road.ObjectID = "road-1"
	road.AddProperty(types.NewFeatureReference(name("relatedTo"), types.NewReference("part-1", types.ReferenceXLink)))
	ids := importFeatures(t, db, road, sampleBuilding())

	got, err := e.Export(context.Background(), ids[0])
	require.NoError(t, err)
	require.Len(t, got.Features, 1)
	fp := got.Features[0]
	require.NotNil(t, fp.Feature, "parts are not top level")
	assert.Equal(t, "part-1", fp.Feature.ObjectID)
	assert.Equal(t, types.RelationRelates, fp.Relation)
	require.Len(t, fp.Feature.Attributes, 1)
}

func TestExportSharedTemplate(t *testing.T) {
	db, e := openExporter(t)
	template := &types.ImplicitGeometry{ObjectID: "tree", Geometry: geometry.NewMultiSurface([]*geometry.Polygon{square()})}
	var features []*types.Feature
	for _, id := range []string{"t1", "t2"} {
		f := types.NewFeature(types.NewName("GenericOccupiedSpace", types.NamespaceGeneric))
		f.ObjectID = id
		ip := types.NewImplicitGeometryProperty(name("lod1ImplicitRepresentation"), template)
		ip.TransformationMatrix = []float64{1, 0, 0, 5, 0, 1, 0, 6, 0, 0, 1, 0, 0, 0, 0, 1}
		ip.ReferencePoint = geometry.NewPoint(geometry.XYZ(10, 20, 0))
		f.AddProperty(ip)
		features = append(features, f)
	}
	ids := importFeatures(t, db, features...)

	for _, id := range ids {
		got, err := e.Export(context.Background(), id)
		require.NoError(t, err)
		require.Len(t, got.ImplicitGeometries, 1)
		ip := got.ImplicitGeometries[0]
		require.NotNil(t, ip.Object, "each export embeds the template")
		assert.Equal(t, "tree", ip.Object.ObjectID)
		require.NotNil(t, ip.Object.Geometry)
		assert.Equal(t, features[0].ImplicitGeometries[0].TransformationMatrix, ip.TransformationMatrix)
		require.NotNil(t, ip.ReferencePoint)
		assert.Equal(t, geometry.XYZ(10, 20, 0), ip.ReferencePoint.Coordinate())
	}
}

func TestExportMissingFeature(t *testing.T) {
	_, e := openExporter(t)
	_, err := e.Export(context.Background(), 42)
	assert.ErrorIs(t, err, types.ErrExport)
	assert.ErrorIs(t, err, types.ErrNotFound)
}
