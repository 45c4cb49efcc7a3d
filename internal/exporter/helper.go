package exporter

import (
	"context"

	"github.com/mesh-intelligence/citydb/pkg/geometry"
	"github.com/mesh-intelligence/citydb/pkg/types"
)

// FeatureExporter exports a feature graph whose inline set starts with
// inline.
type FeatureExporter interface {
	ExportFeature(ctx context.Context, id int64, inline []int64) (*types.Feature, error)
}

// ExportHelper holds the state shared by all hierarchies of one export
// unit: the objects already emitted and the object class metadata.
type ExportHelper struct {
	exporter FeatureExporter
	topLevel func(objectClassID int) bool
	seen     map[any]struct{}
}

// NewExportHelper returns a helper that recurses through exporter and
// decides top-level classes with topLevel.
func NewExportHelper(exporter FeatureExporter, topLevel func(objectClassID int) bool) *ExportHelper {
	return &ExportHelper{exporter: exporter, topLevel: topLevel, seen: make(map[any]struct{})}
}

// LookupAndPut records obj as emitted. It reports whether obj had been
// emitted before, in which case the caller writes a local reference
// instead of embedding obj a second time.
func (h *ExportHelper) LookupAndPut(obj any) bool {
	if _, ok := h.seen[obj]; ok {
		return true
	}
	h.seen[obj] = struct{}{}
	return false
}

// GetOrCreateID returns the object id of obj, assigning a new one if it has
// none. Unsupported objects yield "".
func (h *ExportHelper) GetOrCreateID(obj any) string {
	var id *string
	switch v := obj.(type) {
	case *types.Feature:
		id = &v.ObjectID
	case *types.Address:
		id = &v.ObjectID
	case *types.ImplicitGeometry:
		id = &v.ObjectID
	case *types.Appearance:
		id = &v.ObjectID
	case geometry.Geometry:
		return geometry.ObjectIDOrCreate(v)
	default:
		return ""
	}
	if *id == "" {
		*id = geometry.NewObjectID()
	}
	return *id
}

// IsTopLevel reports whether f belongs to a top-level object class.
func (h *ExportHelper) IsTopLevel(f *types.Feature) bool {
	if f.Descriptor == nil || h.topLevel == nil {
		return false
	}
	return h.topLevel(f.Descriptor.ObjectClassID)
}
