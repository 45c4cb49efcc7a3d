// Tests for building properties from property stubs.
package exporter

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/citydb/pkg/geometry"
	"github.com/mesh-intelligence/citydb/pkg/types"
)

// fakeExporter returns prepared features and records its calls.
type fakeExporter struct {
	features map[int64]*types.Feature
	calls    [][]int64
	err      error
}

func (f *fakeExporter) ExportFeature(_ context.Context, id int64, inline []int64) (*types.Feature, error) {
	f.calls = append(f.calls, append([]int64{id}, inline...))
	if f.err != nil {
		return nil, f.err
	}
	return f.features[id], nil
}

func name(local string) types.Name { return types.NewName(local, types.NamespaceCore) }

func feature(id int64, classID int, objectID string) *types.Feature {
	f := types.NewFeature(name("Feature"))
	f.ObjectID = objectID
	f.Descriptor = &types.FeatureDescriptor{ID: id, ObjectClassID: classID}
	return f
}

func newBuilder(fe *fakeExporter) *PropertyBuilder {
	return NewPropertyBuilder(NewExportHelper(fe, func(id int) bool { return id == 901 }))
}

func stub(id int64, dt types.DataType) *PropertyStub {
	return &PropertyStub{
		Descriptor: types.PropertyDescriptor{ID: id, FeatureID: 1},
		Name:       name("p"),
		DataType:   dt,
	}
}

func TestBuildAttribute(t *testing.T) {
	b := newBuilder(&fakeExporter{})
	s := stub(5, types.DataTypeMeasure)
	v, uom := 12.5, "m"
	s.DoubleValue, s.UOM = &v, &uom

	p, err := b.Build(context.Background(), s, NewHierarchy(1))
	require.NoError(t, err)
	a, ok := p.(*types.Attribute)
	require.True(t, ok)
	assert.Equal(t, types.DataTypeMeasure, a.DataType)
	assert.Equal(t, 12.5, *a.DoubleValue)
	assert.Equal(t, "m", *a.UOM)
	require.NotNil(t, a.Descriptor)
	assert.Equal(t, int64(5), a.Descriptor.ID)
}

func TestBuildDropsUnresolvedTargets(t *testing.T) {
	b := newBuilder(&fakeExporter{})
	h := NewHierarchy(1)

	tests := []struct {
		name string
		stub *PropertyStub
	}{
		{"geometry", &PropertyStub{DataType: types.DataTypeGeometryProperty, GeometryID: 9}},
		{"implicit geometry", &PropertyStub{DataType: types.DataTypeImplicitGeometryProperty, ImplicitGeometryID: 9}},
		{"appearance", &PropertyStub{DataType: types.DataTypeAppearanceProperty, AppearanceID: 9}},
		{"address", &PropertyStub{DataType: types.DataTypeAddressProperty, AddressID: 9}},
		{"feature", &PropertyStub{DataType: types.DataTypeFeatureProperty, FeatureID: 9}},
		{"nil stub", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := b.Build(context.Background(), tt.stub, h)
			require.NoError(t, err)
			assert.Nil(t, p)
		})
	}
}

func TestBuildGeometryProperty(t *testing.T) {
	b := newBuilder(&fakeExporter{})
	h := NewHierarchy(1)
	g := geometry.NewPoint(geometry.XYZ(1, 2, 3))
	h.AddGeometry(3, g)

	s := stub(2, types.DataTypeGeometryProperty)
	s.GeometryID, s.LOD = 3, "2"
	p, err := b.Build(context.Background(), s, h)
	require.NoError(t, err)
	gp := p.(*types.GeometryProperty)
	assert.Equal(t, geometry.Geometry(g), gp.Geometry)
	assert.Equal(t, "2", gp.LOD)
}

func TestBuildAddressEmbedsOnce(t *testing.T) {
	b := newBuilder(&fakeExporter{})
	h := NewHierarchy(1)
	h.AddAddress(4, &types.Address{ID: 4, City: "Berlin"})

	s := stub(2, types.DataTypeAddressProperty)
	s.AddressID = 4
	first, err := b.Build(context.Background(), s, h)
	require.NoError(t, err)
	second, err := b.Build(context.Background(), s, h)
	require.NoError(t, err)

	embedded := first.(*types.AddressProperty)
	require.NotNil(t, embedded.Address)
	assert.Nil(t, embedded.Reference)

	ref := second.(*types.AddressProperty)
	assert.Nil(t, ref.Address)
	require.NotNil(t, ref.Reference)
	assert.Equal(t, types.ReferenceLocal, ref.Reference.Type)
	assert.Equal(t, embedded.Address.ObjectID, ref.Reference.Target)
	assert.NotEmpty(t, ref.Reference.Target)
}

func TestBuildAppearanceEmbedsOnce(t *testing.T) {
	b := newBuilder(&fakeExporter{})
	h := NewHierarchy(1)
	h.AddAppearance(5, &types.Appearance{ID: 5, Theme: "summer"})

	s := stub(2, types.DataTypeAppearanceProperty)
	s.AppearanceID = 5
	first, err := b.Build(context.Background(), s, h)
	require.NoError(t, err)
	second, err := b.Build(context.Background(), s, h)
	require.NoError(t, err)

	embedded := first.(*types.AppearanceProperty)
	require.NotNil(t, embedded.Appearance)
	assert.Nil(t, embedded.Reference)
	assert.Equal(t, "summer", embedded.Appearance.Theme)

	ref := second.(*types.AppearanceProperty)
	assert.Nil(t, ref.Appearance)
	require.NotNil(t, ref.Reference)
	assert.Equal(t, types.ReferenceLocal, ref.Reference.Type)
	assert.Equal(t, embedded.Appearance.ObjectID, ref.Reference.Target)
	assert.NotEmpty(t, ref.Reference.Target)
}

func TestBuildImplicitGeometry(t *testing.T) {
	b := newBuilder(&fakeExporter{})
	h := NewHierarchy(1)
	h.AddImplicitGeometry(6, &types.ImplicitGeometry{ID: 6, ObjectID: "tree"})

	s := stub(2, types.DataTypeImplicitGeometryProperty)
	s.ImplicitGeometryID = 6
	s.ArrayValue = types.ArrayValue{types.DoubleValue(1), types.StringValue("skip"), types.LongValue(7), types.DoubleValue(2)}
	s.ReferencePoint = geometry.NewPoint(geometry.XYZ(10, 20, 0))
	s.LOD = "1"

	first, err := b.Build(context.Background(), s, h)
	require.NoError(t, err)
	ip := first.(*types.ImplicitGeometryProperty)
	require.NotNil(t, ip.Object)
	assert.Equal(t, []float64{1, 2}, ip.TransformationMatrix)
	assert.Equal(t, s.ReferencePoint, ip.ReferencePoint)
	assert.Equal(t, "1", ip.LOD)

	second, err := b.Build(context.Background(), s, h)
	require.NoError(t, err)
	ref := second.(*types.ImplicitGeometryProperty)
	assert.Nil(t, ref.Object)
	assert.Equal(t, types.NewReference("tree", types.ReferenceLocal), ref.Reference)
	assert.Equal(t, []float64{1, 2}, ref.TransformationMatrix)
}

func TestBuildContainedFeature(t *testing.T) {
	fe := &fakeExporter{}
	b := newBuilder(fe)
	h := NewHierarchy(1)
	part := feature(2, 902, "part-1")
	h.AddFeature(2, part)

	s := stub(3, types.DataTypeFeatureProperty)
	s.FeatureID, s.Relation = 2, types.RelationContains

	first, err := b.Build(context.Background(), s, h)
	require.NoError(t, err)
	fp := first.(*types.FeatureProperty)
	assert.Same(t, part, fp.Feature)
	assert.Equal(t, types.RelationContains, fp.Relation)

	second, err := b.Build(context.Background(), s, h)
	require.NoError(t, err)
	assert.Equal(t, types.NewReference("part-1", types.ReferenceLocal), second.(*types.FeatureProperty).Reference)
	assert.Empty(t, fe.calls)
}

func TestBuildReferencedFeature(t *testing.T) {
	tests := []struct {
		name       string
		classID    int
		inline     bool
		wantRef    bool
		wantExport bool
	}{
		{name: "top level", classID: 901, wantRef: true},
		{name: "inline", classID: 902, inline: true, wantRef: true},
		{name: "exported recursively", classID: 902, wantExport: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exported := feature(8, tt.classID, "full-8")
			fe := &fakeExporter{features: map[int64]*types.Feature{8: exported}}
			b := newBuilder(fe)
			h := NewHierarchy(1)
			h.MarkInline(1)
			h.AddFeature(8, feature(8, tt.classID, "header-8"))
			if tt.inline {
				h.MarkInline(8)
			}

			s := stub(3, types.DataTypeFeatureProperty)
			s.FeatureID, s.Relation, s.ReferenceType = 8, types.RelationRelates, types.ReferenceXLink
			p, err := b.Build(context.Background(), s, h)
			require.NoError(t, err)
			fp := p.(*types.FeatureProperty)
			assert.Equal(t, types.RelationRelates, fp.Relation)

			if tt.wantRef {
				assert.Equal(t, types.NewReference("header-8", types.ReferenceXLink), fp.Reference)
				assert.Empty(t, fe.calls)
			}
			if tt.wantExport {
				assert.Same(t, exported, fp.Feature)
				assert.Same(t, exported, h.Feature(8))
				assert.Equal(t, [][]int64{{8, 1}}, fe.calls)
			}
		})
	}
}

func TestBuildReferencedFeatureExportError(t *testing.T) {
	fe := &fakeExporter{err: errors.New("boom")}
	b := newBuilder(fe)
	h := NewHierarchy(1)
	h.AddFeature(8, feature(8, 902, "x"))

	s := stub(3, types.DataTypeFeatureProperty)
	s.FeatureID, s.ReferenceType = 8, types.ReferenceXLink
	_, err := b.Build(context.Background(), s, h)
	assert.ErrorIs(t, err, types.ErrBuild)
}
