package types

import (
	"fmt"

	"github.com/mesh-intelligence/citydb/pkg/geometry"
)

// FeatureDescriptor identifies a persisted feature row.
type FeatureDescriptor struct {
	ID            int64
	ObjectClassID int
}

// Feature is a node of the feature graph. Properties are grouped by variant;
// Properties returns them as one list.
type Feature struct {
	Type                Name
	ObjectID            string
	Identifier          string
	IdentifierCodeSpace string
	Envelope            geometry.Envelope
	Descriptor          *FeatureDescriptor

	Attributes         []*Attribute
	Features           []*FeatureProperty
	Geometries         []*GeometryProperty
	ImplicitGeometries []*ImplicitGeometryProperty
	Appearances        []*AppearanceProperty
	Addresses          []*AddressProperty
}

// NewFeature returns an empty feature of the given type.
func NewFeature(typ Name) *Feature {
	return &Feature{Type: typ}
}

// AddProperty appends p to the list matching its variant.
func (f *Feature) AddProperty(p Property) error {
	switch v := p.(type) {
	case *Attribute:
		f.Attributes = append(f.Attributes, v)
	case *FeatureProperty:
		f.Features = append(f.Features, v)
	case *GeometryProperty:
		f.Geometries = append(f.Geometries, v)
	case *ImplicitGeometryProperty:
		f.ImplicitGeometries = append(f.ImplicitGeometries, v)
	case *AppearanceProperty:
		f.Appearances = append(f.Appearances, v)
	case *AddressProperty:
		f.Addresses = append(f.Addresses, v)
	default:
		return fmt.Errorf("%w: unsupported property %T", ErrInvalidData, p)
	}
	return nil
}

// Properties returns all properties: attributes first, then feature,
// geometry, implicit geometry, appearance and address properties.
func (f *Feature) Properties() []Property {
	out := make([]Property, 0, len(f.Attributes)+len(f.Features)+len(f.Geometries)+
		len(f.ImplicitGeometries)+len(f.Appearances)+len(f.Addresses))
	for _, p := range f.Attributes {
		out = append(out, p)
	}
	for _, p := range f.Features {
		out = append(out, p)
	}
	for _, p := range f.Geometries {
		out = append(out, p)
	}
	for _, p := range f.ImplicitGeometries {
		out = append(out, p)
	}
	for _, p := range f.Appearances {
		out = append(out, p)
	}
	for _, p := range f.Addresses {
		out = append(out, p)
	}
	return out
}

// ComputeEnvelope returns the bounding box of the feature's geometries and
// of its contained sub-features.
func (f *Feature) ComputeEnvelope() geometry.Envelope {
	var e geometry.Envelope
	for _, p := range f.Geometries {
		e.Merge(geometry.EnvelopeOf(p.Geometry))
	}
	for _, p := range f.ImplicitGeometries {
		if p.ReferencePoint != nil {
			e.Merge(geometry.EnvelopeOf(p.ReferencePoint))
		}
	}
	for _, p := range f.Features {
		if p.Feature != nil {
			e.Merge(p.Feature.ComputeEnvelope())
		}
	}
	return e
}

// Walk calls fn for f and, depth first, for every contained sub-feature.
// Referenced features are not visited. Walk stops at the first error.
func (f *Feature) Walk(fn func(*Feature) error) error {
	if err := fn(f); err != nil {
		return err
	}
	for _, p := range f.Features {
		if p.Feature == nil {
			continue
		}
		if err := p.Feature.Walk(fn); err != nil {
			return err
		}
	}
	return nil
}
