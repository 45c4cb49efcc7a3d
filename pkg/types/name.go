package types

import "strings"

// Well-known namespaces of the feature model.
const (
	NamespaceCore           = "http://3dcitydb.org/3dcitydb/core/5.0"
	NamespaceGeneric        = "http://3dcitydb.org/3dcitydb/generics/5.0"
	NamespaceBuilding       = "http://3dcitydb.org/3dcitydb/building/5.0"
	NamespaceTransportation = "http://3dcitydb.org/3dcitydb/transportation/5.0"
	NamespaceWaterBody      = "http://3dcitydb.org/3dcitydb/waterbody/5.0"
	NamespaceAppearance     = "http://3dcitydb.org/3dcitydb/appearance/5.0"
	NamespaceDeprecated     = "http://3dcitydb.org/3dcitydb/deprecated/5.0"
)

// Name is a namespace-qualified name of a feature type or property.
type Name struct {
	LocalName string
	Namespace string
}

// NewName returns the name localName in namespace.
func NewName(localName, namespace string) Name {
	return Name{LocalName: localName, Namespace: namespace}
}

// String formats the name in Clark notation, "{namespace}localName".
func (n Name) String() string {
	if n.Namespace == "" {
		return n.LocalName
	}
	return "{" + n.Namespace + "}" + n.LocalName
}

// ParseName reads a name written by String.
func ParseName(s string) Name {
	if strings.HasPrefix(s, "{") {
		if end := strings.IndexByte(s, '}'); end > 0 {
			return Name{LocalName: s[end+1:], Namespace: s[1:end]}
		}
	}
	return Name{LocalName: s}
}

// MarshalText implements encoding.TextMarshaler.
func (n Name) MarshalText() ([]byte, error) { return []byte(n.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (n *Name) UnmarshalText(text []byte) error {
	*n = ParseName(string(text))
	return nil
}
