package exporter

import (
	"sort"

	"github.com/mesh-intelligence/citydb/pkg/geometry"
	"github.com/mesh-intelligence/citydb/pkg/types"
)

// Hierarchy maps row ids to the entities materialized while one feature
// graph is reconstructed. Each row id maps to a single instance, so
// repeated lookups return the same object. A Hierarchy belongs to one
// export unit and is not safe for concurrent use.
type Hierarchy struct {
	root        int64
	features    map[int64]*types.Feature
	geometries  map[int64]geometry.Geometry
	implicit    map[int64]*types.ImplicitGeometry
	appearances map[int64]*types.Appearance
	addresses   map[int64]*types.Address
	inline      map[int64]struct{}
}

// NewHierarchy returns an empty hierarchy rooted at root. The inline ids
// are features already embedded by an enclosing export.
func NewHierarchy(root int64, inline ...int64) *Hierarchy {
	h := &Hierarchy{
		root:        root,
		features:    make(map[int64]*types.Feature),
		geometries:  make(map[int64]geometry.Geometry),
		implicit:    make(map[int64]*types.ImplicitGeometry),
		appearances: make(map[int64]*types.Appearance),
		addresses:   make(map[int64]*types.Address),
		inline:      make(map[int64]struct{}, len(inline)),
	}
	for _, id := range inline {
		h.inline[id] = struct{}{}
	}
	return h
}

// Root returns the root feature, or nil if it was not added.
func (h *Hierarchy) Root() *types.Feature { return h.features[h.root] }

// RootID returns the row id of the root feature.
func (h *Hierarchy) RootID() int64 { return h.root }

func (h *Hierarchy) Feature(id int64) *types.Feature { return h.features[id] }

func (h *Hierarchy) AddFeature(id int64, f *types.Feature) { h.features[id] = f }

func (h *Hierarchy) Geometry(id int64) geometry.Geometry { return h.geometries[id] }

func (h *Hierarchy) AddGeometry(id int64, g geometry.Geometry) { h.geometries[id] = g }

func (h *Hierarchy) ImplicitGeometry(id int64) *types.ImplicitGeometry { return h.implicit[id] }

func (h *Hierarchy) AddImplicitGeometry(id int64, ig *types.ImplicitGeometry) { h.implicit[id] = ig }

func (h *Hierarchy) Appearance(id int64) *types.Appearance { return h.appearances[id] }

func (h *Hierarchy) AddAppearance(id int64, a *types.Appearance) { h.appearances[id] = a }

func (h *Hierarchy) Address(id int64) *types.Address { return h.addresses[id] }

func (h *Hierarchy) AddAddress(id int64, a *types.Address) { h.addresses[id] = a }

// MarkInline records that feature id is embedded by this export.
func (h *Hierarchy) MarkInline(id int64) { h.inline[id] = struct{}{} }

// IsInlineFeature reports whether feature id is embedded by this export or
// an enclosing one. References to such a feature must not embed it again.
func (h *Hierarchy) IsInlineFeature(id int64) bool {
	_, ok := h.inline[id]
	return ok
}

// InlineFeatures returns the ids of the inline features in ascending order.
func (h *Hierarchy) InlineFeatures() []int64 {
	out := make([]int64, 0, len(h.inline))
	for id := range h.inline {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
