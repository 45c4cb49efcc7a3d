package types

import "fmt"

// DataType tags the content of a property row. The numeric values are the
// ids of the datatype table.
type DataType int

// Data types.
const (
	DataTypeUndefined DataType = iota + 1
	DataTypeBoolean
	DataTypeInteger
	DataTypeDouble
	DataTypeString
	DataTypeURI
	DataTypeTimestamp
	DataTypeAddressProperty
	DataTypeAppearanceProperty
	DataTypeFeatureProperty
	DataTypeGeometryProperty
	DataTypeImplicitGeometryProperty
	DataTypeMeasure
	DataTypeCode
	DataTypeArrayValue
	DataTypeComplex
)

var dataTypeNames = []string{
	DataTypeUndefined:                "Undefined",
	DataTypeBoolean:                  "Boolean",
	DataTypeInteger:                  "Integer",
	DataTypeDouble:                   "Double",
	DataTypeString:                   "String",
	DataTypeURI:                      "URI",
	DataTypeTimestamp:                "Timestamp",
	DataTypeAddressProperty:          "AddressProperty",
	DataTypeAppearanceProperty:       "AppearanceProperty",
	DataTypeFeatureProperty:          "FeatureProperty",
	DataTypeGeometryProperty:         "GeometryProperty",
	DataTypeImplicitGeometryProperty: "ImplicitGeometryProperty",
	DataTypeMeasure:                  "Measure",
	DataTypeCode:                     "Code",
	DataTypeArrayValue:               "ArrayValue",
	DataTypeComplex:                  "Complex",
}

// DataTypes lists every data type in id order.
func DataTypes() []DataType {
	out := make([]DataType, 0, len(dataTypeNames)-1)
	for dt := DataTypeUndefined; int(dt) < len(dataTypeNames); dt++ {
		out = append(out, dt)
	}
	return out
}

// Valid reports whether dt is a known data type.
func (dt DataType) Valid() bool {
	return dt >= DataTypeUndefined && int(dt) < len(dataTypeNames)
}

func (dt DataType) String() string {
	if dt.Valid() {
		return dataTypeNames[dt]
	}
	return fmt.Sprintf("DataType(%d)", int(dt))
}

// ParseDataType returns the data type named s.
func ParseDataType(s string) (DataType, error) {
	for _, dt := range DataTypes() {
		if dataTypeNames[dt] == s {
			return dt, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown data type %q", ErrInvalidData, s)
}

// PropertyKind is the variant of the Property sum type.
type PropertyKind int

// Property kinds.
const (
	PropertyKindAttribute PropertyKind = iota
	PropertyKindFeature
	PropertyKindGeometry
	PropertyKindImplicitGeometry
	PropertyKindAppearance
	PropertyKindAddress
)

func (k PropertyKind) String() string {
	switch k {
	case PropertyKindAttribute:
		return "attribute"
	case PropertyKindFeature:
		return "feature"
	case PropertyKindGeometry:
		return "geometry"
	case PropertyKindImplicitGeometry:
		return "implicit geometry"
	case PropertyKindAppearance:
		return "appearance"
	case PropertyKindAddress:
		return "address"
	}
	return fmt.Sprintf("PropertyKind(%d)", int(k))
}

// Kind maps the data type to the property variant that carries it. Every
// scalar type maps to an attribute.
func (dt DataType) Kind() PropertyKind {
	switch dt {
	case DataTypeFeatureProperty:
		return PropertyKindFeature
	case DataTypeGeometryProperty:
		return PropertyKindGeometry
	case DataTypeImplicitGeometryProperty:
		return PropertyKindImplicitGeometry
	case DataTypeAppearanceProperty:
		return PropertyKindAppearance
	case DataTypeAddressProperty:
		return PropertyKindAddress
	default:
		return PropertyKindAttribute
	}
}
