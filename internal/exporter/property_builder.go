package exporter

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/citydb/pkg/types"
)

// PropertyBuilder turns property stubs into properties, resolving their
// targets against a Hierarchy.
type PropertyBuilder struct {
	helper *ExportHelper
}

// NewPropertyBuilder returns a builder that records emitted objects in
// helper.
func NewPropertyBuilder(helper *ExportHelper) *PropertyBuilder {
	return &PropertyBuilder{helper: helper}
}

// Build returns the property described by stub. It returns nil without an
// error when the property must be dropped because its target is missing.
func (b *PropertyBuilder) Build(ctx context.Context, stub *PropertyStub, h *Hierarchy) (types.Property, error) {
	if stub == nil {
		return nil, nil
	}
	var (
		p   types.Property
		err error
	)
	switch stub.DataType.Kind() {
	case types.PropertyKindFeature:
		p, err = b.featureProperty(ctx, stub, h)
	case types.PropertyKindGeometry:
		p = b.geometryProperty(stub, h)
	case types.PropertyKindImplicitGeometry:
		p = b.implicitGeometryProperty(stub, h)
	case types.PropertyKindAppearance:
		p = b.appearanceProperty(stub, h)
	case types.PropertyKindAddress:
		p = b.addressProperty(stub, h)
	case types.PropertyKindAttribute:
		p = b.attribute(stub)
	default:
		return nil, fmt.Errorf("%w: property %d has unsupported data type %s", types.ErrBuild, stub.Descriptor.ID, stub.DataType)
	}
	if err != nil || isNil(p) {
		return nil, err
	}
	desc := stub.Descriptor
	p.Header().Descriptor = &desc
	return p, nil
}

// isNil reports whether p is nil or a typed nil pointer.
func isNil(p types.Property) bool {
	switch v := p.(type) {
	case nil:
		return true
	case *types.FeatureProperty:
		return v == nil
	case *types.GeometryProperty:
		return v == nil
	case *types.ImplicitGeometryProperty:
		return v == nil
	case *types.AppearanceProperty:
		return v == nil
	case *types.AddressProperty:
		return v == nil
	case *types.Attribute:
		return v == nil
	}
	return false
}

func (b *PropertyBuilder) featureProperty(ctx context.Context, stub *PropertyStub, h *Hierarchy) (*types.FeatureProperty, error) {
	f := h.Feature(stub.FeatureID)
	if f == nil {
		return nil, nil
	}
	if stub.ReferenceType != "" {
		if h.IsInlineFeature(stub.FeatureID) || b.helper.IsTopLevel(f) {
			ref := types.NewReference(b.helper.GetOrCreateID(f), stub.ReferenceType)
			return withRelation(types.NewFeatureReference(stub.Name, ref), stub.Relation), nil
		}
		exported, err := b.helper.exporter.ExportFeature(ctx, stub.FeatureID, h.InlineFeatures())
		if err != nil {
			return nil, fmt.Errorf("%w: exporting referenced feature %d: %v", types.ErrBuild, stub.FeatureID, err)
		}
		if exported == nil {
			return nil, nil
		}
		f = exported
		h.AddFeature(stub.FeatureID, f)
	}

	if b.helper.LookupAndPut(f) {
		ref := types.NewReference(b.helper.GetOrCreateID(f), types.ReferenceLocal)
		return withRelation(types.NewFeatureReference(stub.Name, ref), stub.Relation), nil
	}
	return withRelation(types.NewFeatureProperty(stub.Name, f), stub.Relation), nil
}

func withRelation(p *types.FeatureProperty, r types.RelationType) *types.FeatureProperty {
	p.Relation = r
	return p
}

func (b *PropertyBuilder) geometryProperty(stub *PropertyStub, h *Hierarchy) *types.GeometryProperty {
	g := h.Geometry(stub.GeometryID)
	if g == nil {
		return nil
	}
	return types.NewGeometryProperty(stub.Name, g, stub.LOD)
}

func (b *PropertyBuilder) implicitGeometryProperty(stub *PropertyStub, h *Hierarchy) *types.ImplicitGeometryProperty {
	ig := h.ImplicitGeometry(stub.ImplicitGeometryID)
	if ig == nil {
		return nil
	}
	var p *types.ImplicitGeometryProperty
	if b.helper.LookupAndPut(ig) {
		ref := types.NewReference(b.helper.GetOrCreateID(ig), types.ReferenceLocal)
		p = types.NewImplicitGeometryReference(stub.Name, ref)
	} else {
		p = types.NewImplicitGeometryProperty(stub.Name, ig)
	}
	if stub.ArrayValue != nil {
		p.TransformationMatrix = stub.ArrayValue.Doubles()
	}
	p.ReferencePoint = stub.ReferencePoint
	p.LOD = stub.LOD
	return p
}

func (b *PropertyBuilder) appearanceProperty(stub *PropertyStub, h *Hierarchy) *types.AppearanceProperty {
	a := h.Appearance(stub.AppearanceID)
	if a == nil {
		return nil
	}
	if b.helper.LookupAndPut(a) {
		ref := types.NewReference(b.helper.GetOrCreateID(a), types.ReferenceLocal)
		return types.NewAppearanceReference(stub.Name, ref)
	}
	return types.NewAppearanceProperty(stub.Name, a)
}

func (b *PropertyBuilder) addressProperty(stub *PropertyStub, h *Hierarchy) *types.AddressProperty {
	a := h.Address(stub.AddressID)
	if a == nil {
		return nil
	}
	if b.helper.LookupAndPut(a) {
		ref := types.NewReference(b.helper.GetOrCreateID(a), types.ReferenceLocal)
		return types.NewAddressReference(stub.Name, ref)
	}
	return types.NewAddressProperty(stub.Name, a)
}

func (b *PropertyBuilder) attribute(stub *PropertyStub) *types.Attribute {
	a := types.NewAttribute(stub.Name, stub.DataType)
	a.IntValue = stub.IntValue
	a.DoubleValue = stub.DoubleValue
	a.StringValue = stub.StringValue
	a.ArrayValue = stub.ArrayValue
	a.TimeStamp = stub.TimeStamp
	a.URI = stub.URI
	a.CodeSpace = stub.CodeSpace
	a.UOM = stub.UOM
	a.GenericContent = stub.GenericContent
	a.GenericContentMimeType = stub.GenericContentMimeType
	return a
}
