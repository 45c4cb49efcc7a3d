package types

import "fmt"

// ReferenceType classifies how a Reference points at its target.
type ReferenceType string

// Reference types.
const (
	// ReferenceXLink points at an object anywhere in the dataset.
	ReferenceXLink ReferenceType = "xlink"
	// ReferenceLocal points at an object embedded elsewhere in the same
	// exported feature.
	ReferenceLocal ReferenceType = "local"
	// ReferenceGlobal points at an object of another dataset.
	ReferenceGlobal ReferenceType = "global"
)

// Reference links a property to an object by its object id.
type Reference struct {
	Target string        `json:"target"`
	Type   ReferenceType `json:"type"`
}

// NewReference returns a reference of type typ to target.
func NewReference(target string, typ ReferenceType) *Reference {
	return &Reference{Target: target, Type: typ}
}

// Validate checks that the reference has a target and a known type.
func (r Reference) Validate() error {
	if r.Target == "" {
		return fmt.Errorf("%w: reference without target", ErrInvalidData)
	}
	switch r.Type {
	case ReferenceXLink, ReferenceLocal, ReferenceGlobal:
		return nil
	}
	return fmt.Errorf("%w: unknown reference type %q", ErrInvalidData, r.Type)
}
