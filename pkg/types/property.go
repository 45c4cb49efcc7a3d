package types

import (
	"time"

	"github.com/mesh-intelligence/citydb/pkg/geometry"
)

// PropertyDescriptor identifies a persisted property row.
type PropertyDescriptor struct {
	ID        int64
	FeatureID int64
	ParentID  int64 // zero for properties without a parent attribute
	RootID    int64 // zero for top-level properties
}

// Property is the closed set of property variants: *Attribute,
// *FeatureProperty, *GeometryProperty, *ImplicitGeometryProperty,
// *AppearanceProperty and *AddressProperty. Switch on Kind or on the concrete
// type.
type Property interface {
	Kind() PropertyKind
	Header() *PropertyHeader
}

// PropertyHeader holds the fields shared by all property variants.
type PropertyHeader struct {
	Name       Name
	Descriptor *PropertyDescriptor
}

// Header returns h. Variants embed PropertyHeader to satisfy Property.
func (h *PropertyHeader) Header() *PropertyHeader { return h }

// Attribute is a scalar, array or complex property. Only the fields matching
// DataType are set; Children holds the nested attributes of a complex
// attribute.
type Attribute struct {
	PropertyHeader
	DataType               DataType
	IntValue               *int64
	DoubleValue            *float64
	StringValue            *string
	TimeStamp              *time.Time
	URI                    *string
	CodeSpace              *string
	UOM                    *string
	ArrayValue             ArrayValue
	GenericContent         *string
	GenericContentMimeType *string
	Children               []*Attribute
}

func (*Attribute) Kind() PropertyKind { return PropertyKindAttribute }

// NewAttribute returns an attribute without content.
func NewAttribute(name Name, dt DataType) *Attribute {
	return &Attribute{PropertyHeader: PropertyHeader{Name: name}, DataType: dt}
}

// NewStringAttribute returns a String attribute.
func NewStringAttribute(name Name, s string) *Attribute {
	a := NewAttribute(name, DataTypeString)
	a.StringValue = &s
	return a
}

// NewIntAttribute returns an Integer attribute.
func NewIntAttribute(name Name, i int64) *Attribute {
	a := NewAttribute(name, DataTypeInteger)
	a.IntValue = &i
	return a
}

// NewDoubleAttribute returns a Double attribute.
func NewDoubleAttribute(name Name, f float64) *Attribute {
	a := NewAttribute(name, DataTypeDouble)
	a.DoubleValue = &f
	return a
}

// NewBoolAttribute returns a Boolean attribute stored as 0 or 1.
func NewBoolAttribute(name Name, b bool) *Attribute {
	var i int64
	if b {
		i = 1
	}
	a := NewAttribute(name, DataTypeBoolean)
	a.IntValue = &i
	return a
}

// NewMeasure returns a Measure attribute with a unit of measure.
func NewMeasure(name Name, f float64, uom string) *Attribute {
	a := NewAttribute(name, DataTypeMeasure)
	a.DoubleValue = &f
	a.UOM = &uom
	return a
}

// NewCode returns a Code attribute. An empty codeSpace is omitted.
func NewCode(name Name, code, codeSpace string) *Attribute {
	a := NewAttribute(name, DataTypeCode)
	a.StringValue = &code
	if codeSpace != "" {
		a.CodeSpace = &codeSpace
	}
	return a
}

// NewTimestampAttribute returns a Timestamp attribute.
func NewTimestampAttribute(name Name, ts time.Time) *Attribute {
	a := NewAttribute(name, DataTypeTimestamp)
	a.TimeStamp = &ts
	return a
}

// NewURIAttribute returns a URI attribute.
func NewURIAttribute(name Name, uri string) *Attribute {
	a := NewAttribute(name, DataTypeURI)
	a.URI = &uri
	return a
}

// NewArrayAttribute returns an ArrayValue attribute.
func NewArrayAttribute(name Name, values ArrayValue) *Attribute {
	a := NewAttribute(name, DataTypeArrayValue)
	a.ArrayValue = values
	return a
}

// AddChild appends a nested attribute and returns a.
func (a *Attribute) AddChild(child *Attribute) *Attribute {
	a.Children = append(a.Children, child)
	return a
}

// RelationType tells whether a feature property owns its target.
type RelationType int

// Relation types, as stored in property.val_relation_type.
const (
	RelationRelates  RelationType = 0
	RelationContains RelationType = 1
)

// FeatureProperty links to a sub-feature. Exactly one of Feature and
// Reference is set.
type FeatureProperty struct {
	PropertyHeader
	Feature   *Feature
	Reference *Reference
	Relation  RelationType
}

func (*FeatureProperty) Kind() PropertyKind { return PropertyKindFeature }

// NewFeatureProperty returns a property that contains f.
func NewFeatureProperty(name Name, f *Feature) *FeatureProperty {
	return &FeatureProperty{PropertyHeader: PropertyHeader{Name: name}, Feature: f, Relation: RelationContains}
}

// NewFeatureReference returns a property that refers to another feature.
func NewFeatureReference(name Name, ref *Reference) *FeatureProperty {
	return &FeatureProperty{PropertyHeader: PropertyHeader{Name: name}, Reference: ref, Relation: RelationRelates}
}

// GeometryProperty holds a geometry at a level of detail, or refers to a
// geometry stored with another property.
type GeometryProperty struct {
	PropertyHeader
	Geometry  geometry.Geometry
	Reference *Reference
	LOD       string
}

func (*GeometryProperty) Kind() PropertyKind { return PropertyKindGeometry }

// NewGeometryProperty returns a property holding g.
func NewGeometryProperty(name Name, g geometry.Geometry, lod string) *GeometryProperty {
	return &GeometryProperty{PropertyHeader: PropertyHeader{Name: name}, Geometry: g, LOD: lod}
}

// NewGeometryReference returns a property referring to a geometry by its
// object id.
func NewGeometryReference(name Name, ref *Reference, lod string) *GeometryProperty {
	return &GeometryProperty{PropertyHeader: PropertyHeader{Name: name}, Reference: ref, LOD: lod}
}

// ImplicitGeometryProperty places a shared template geometry. Exactly one of
// Object and Reference is set. TransformationMatrix is a row-major 4x4
// matrix.
type ImplicitGeometryProperty struct {
	PropertyHeader
	Object               *ImplicitGeometry
	Reference            *Reference
	TransformationMatrix []float64
	ReferencePoint       *geometry.Point
	LOD                  string
}

func (*ImplicitGeometryProperty) Kind() PropertyKind { return PropertyKindImplicitGeometry }

// NewImplicitGeometryProperty returns a property embedding ig.
func NewImplicitGeometryProperty(name Name, ig *ImplicitGeometry) *ImplicitGeometryProperty {
	return &ImplicitGeometryProperty{PropertyHeader: PropertyHeader{Name: name}, Object: ig}
}

// NewImplicitGeometryReference returns a property referring to a template
// embedded elsewhere.
func NewImplicitGeometryReference(name Name, ref *Reference) *ImplicitGeometryProperty {
	return &ImplicitGeometryProperty{PropertyHeader: PropertyHeader{Name: name}, Reference: ref}
}

// AppearanceProperty embeds or refers to an appearance. Exactly one of
// Appearance and Reference is set.
type AppearanceProperty struct {
	PropertyHeader
	Appearance *Appearance
	Reference  *Reference
}

func (*AppearanceProperty) Kind() PropertyKind { return PropertyKindAppearance }

// NewAppearanceProperty returns a property embedding a.
func NewAppearanceProperty(name Name, a *Appearance) *AppearanceProperty {
	return &AppearanceProperty{PropertyHeader: PropertyHeader{Name: name}, Appearance: a}
}

// NewAppearanceReference returns a property referring to an appearance
// embedded elsewhere.
func NewAppearanceReference(name Name, ref *Reference) *AppearanceProperty {
	return &AppearanceProperty{PropertyHeader: PropertyHeader{Name: name}, Reference: ref}
}

// AddressProperty embeds or refers to an address. Exactly one of Address and
// Reference is set.
type AddressProperty struct {
	PropertyHeader
	Address   *Address
	Reference *Reference
}

func (*AddressProperty) Kind() PropertyKind { return PropertyKindAddress }

// NewAddressProperty returns a property embedding a.
func NewAddressProperty(name Name, a *Address) *AddressProperty {
	return &AddressProperty{PropertyHeader: PropertyHeader{Name: name}, Address: a}
}

// NewAddressReference returns a property referring to an address embedded
// elsewhere.
func NewAddressReference(name Name, ref *Reference) *AddressProperty {
	return &AddressProperty{PropertyHeader: PropertyHeader{Name: name}, Reference: ref}
}
