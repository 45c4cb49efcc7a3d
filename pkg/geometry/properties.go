package geometry

import (
	"fmt"

	json "github.com/goccy/go-json"
)

// Properties records the parts of a geometry that WKT cannot carry: the
// object ids, the 2D flag and the nesting of solids, surfaces and reversed
// polygons. It is stored next to the WKT text as JSON.
type Properties struct {
	ObjectID  string `json:"objectId,omitempty"`
	Is2D      bool   `json:"is2D,omitempty"`
	Hierarchy []Node `json:"children,omitempty"`
}

// Node is one entry of a flattened geometry tree. Primitives (points, line
// strings, polygons) carry the index of their member in the flat WKT
// geometry; collections are rebuilt from the nodes whose Parent points at
// them.
type Node struct {
	Type          Type   `json:"type"`
	ObjectID      string `json:"objectId,omitempty"`
	Parent        *int   `json:"parent,omitempty"`
	GeometryIndex *int   `json:"geometryIndex,omitempty"`
	IsReversed    bool   `json:"isReversed,omitempty"`
}

// BuildProperties describes g. Geometries without an object id are assigned
// one. It returns nil for a nil geometry.
func BuildProperties(g Geometry) *Properties {
	if g == nil {
		return nil
	}
	p := &Properties{ObjectID: ObjectIDOrCreate(g), Is2D: g.VertexDimension() == 2}
	h := &hierarchy{}
	switch v := g.(type) {
	case *LinearRing:
		h.add(v, -1)
	case *MultiPoint:
		idx := h.add(v, -1)
		for _, pt := range v.points {
			h.add(pt, idx)
		}
	case *MultiLineString:
		idx := h.add(v, -1)
		for _, l := range v.lines {
			h.add(l, idx)
		}
	case *SurfaceCollection:
		h.addSurfaces(v, -1)
	case *Solid:
		h.addSolid(v, -1)
	case *SolidCollection:
		idx := h.add(v, -1)
		for _, s := range v.solids {
			h.addSolid(s, idx)
		}
	}
	p.Hierarchy = h.nodes
	return p
}

type hierarchy struct {
	nodes     []Node
	primitive int
}

func (h *hierarchy) add(g Geometry, parent int) int {
	n := Node{Type: g.Type(), ObjectID: ObjectIDOrCreate(g)}
	if parent >= 0 {
		n.Parent = intPtr(parent)
	}
	switch g.Type() {
	case TypePoint, TypeLineString, TypePolygon, TypeLinearRing:
		n.GeometryIndex = intPtr(h.primitive)
		h.primitive++
	}
	if p, ok := g.(*Polygon); ok && p.reversed {
		n.IsReversed = true
	}
	h.nodes = append(h.nodes, n)
	return len(h.nodes) - 1
}

func (h *hierarchy) addSurfaces(s *SurfaceCollection, parent int) {
	idx := h.add(s, parent)
	for _, p := range s.polygons {
		h.add(p, idx)
	}
}

func (h *hierarchy) addSolid(s *Solid, parent int) {
	idx := h.add(s, parent)
	if s.shell != nil {
		h.addSurfaces(s.shell, idx)
	}
}

func intPtr(i int) *int { return &i }

// Marshal encodes p as JSON.
func (p *Properties) Marshal() ([]byte, error) {
	return json.Marshal(p)
}

// UnmarshalProperties decodes JSON written by Marshal. Empty input yields
// nil properties.
func UnmarshalProperties(data []byte) (*Properties, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var p Properties
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decoding geometry properties: %w", err)
	}
	return &p, nil
}

// Rebuild restores the structured geometry from a flat geometry read from
// WKT and its properties. Without a hierarchy only the object id is applied.
func Rebuild(flat Geometry, p *Properties) (Geometry, error) {
	if flat == nil || p == nil {
		return flat, nil
	}
	if len(p.Hierarchy) == 0 {
		if p.ObjectID != "" {
			flat.SetObjectID(p.ObjectID)
		}
		return flat, nil
	}

	r := &rebuilder{nodes: p.Hierarchy, primitives: primitivesOf(flat), children: map[int][]int{}}
	root := -1
	for i, n := range p.Hierarchy {
		switch {
		case n.Parent == nil && root >= 0:
			return nil, fmt.Errorf("%w: more than one root", ErrHierarchy)
		case n.Parent == nil:
			root = i
		case *n.Parent < 0 || *n.Parent >= i:
			return nil, fmt.Errorf("%w: node %d has invalid parent %d", ErrHierarchy, i, *n.Parent)
		default:
			r.children[*n.Parent] = append(r.children[*n.Parent], i)
		}
	}
	if root < 0 {
		return nil, fmt.Errorf("%w: missing root", ErrHierarchy)
	}

	g, err := r.build(root)
	if err != nil {
		return nil, err
	}
	if p.ObjectID != "" {
		g.SetObjectID(p.ObjectID)
	}
	g.SetSRID(flat.SRID())
	return g, nil
}

func primitivesOf(g Geometry) []Geometry {
	var out []Geometry
	switch v := g.(type) {
	case *MultiPoint:
		for _, p := range v.points {
			out = append(out, p)
		}
	case *MultiLineString:
		for _, l := range v.lines {
			out = append(out, l)
		}
	case *SurfaceCollection:
		for _, p := range v.polygons {
			out = append(out, p)
		}
	default:
		out = append(out, g)
	}
	return out
}

type rebuilder struct {
	nodes      []Node
	primitives []Geometry
	children   map[int][]int
}

func (r *rebuilder) build(i int) (Geometry, error) {
	n := r.nodes[i]
	var g Geometry
	switch n.Type {
	case TypePoint, TypeLineString, TypePolygon:
		prim, err := r.primitive(n)
		if err != nil {
			return nil, err
		}
		if p, ok := prim.(*Polygon); ok {
			p.reversed = n.IsReversed
		}
		g = prim
	case TypeLinearRing:
		prim, err := r.primitive(Node{Type: TypeLineString, GeometryIndex: n.GeometryIndex})
		if err != nil {
			return nil, err
		}
		ring := NewLinearRing(prim.(*LineString).points)
		if !ring.IsClosed() {
			return nil, fmt.Errorf("%w: linear ring %d is not closed", ErrHierarchy, i)
		}
		g = ring
	case TypeMultiPoint:
		var points []*Point
		for _, c := range r.children[i] {
			child, err := r.typed(c, TypePoint)
			if err != nil {
				return nil, err
			}
			points = append(points, child.(*Point))
		}
		g = NewMultiPoint(points)
	case TypeMultiLineString:
		var lines []*LineString
		for _, c := range r.children[i] {
			child, err := r.typed(c, TypeLineString)
			if err != nil {
				return nil, err
			}
			lines = append(lines, child.(*LineString))
		}
		g = NewMultiLineString(lines)
	case TypeMultiSurface, TypeCompositeSurface, TypeTriangulatedSurface:
		var polygons []*Polygon
		for _, c := range r.children[i] {
			child, err := r.typed(c, TypePolygon)
			if err != nil {
				return nil, err
			}
			polygons = append(polygons, child.(*Polygon))
		}
		s, err := newSurfaceCollection(n.Type, polygons)
		if err != nil {
			return nil, err
		}
		g = s
	case TypeSolid:
		children := r.children[i]
		if len(children) != 1 {
			return nil, fmt.Errorf("%w: solid %d has %d shells", ErrHierarchy, i, len(children))
		}
		shell, err := r.build(children[0])
		if err != nil {
			return nil, err
		}
		s, ok := shell.(*SurfaceCollection)
		if !ok {
			return nil, fmt.Errorf("%w: solid shell is a %s", ErrHierarchy, shell.Type())
		}
		g = NewSolid(s)
	case TypeMultiSolid, TypeCompositeSolid:
		var solids []*Solid
		for _, c := range r.children[i] {
			child, err := r.typed(c, TypeSolid)
			if err != nil {
				return nil, err
			}
			solids = append(solids, child.(*Solid))
		}
		if n.Type == TypeMultiSolid {
			g = NewMultiSolid(solids)
		} else {
			g = NewCompositeSolid(solids)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported node type %s", ErrHierarchy, n.Type)
	}
	if n.ObjectID != "" {
		g.SetObjectID(n.ObjectID)
	}
	return g, nil
}

func (r *rebuilder) typed(i int, want Type) (Geometry, error) {
	g, err := r.build(i)
	if err != nil {
		return nil, err
	}
	if g.Type() != want {
		return nil, fmt.Errorf("%w: expected %s but found %s", ErrHierarchy, want, g.Type())
	}
	return g, nil
}

func (r *rebuilder) primitive(n Node) (Geometry, error) {
	if n.GeometryIndex == nil {
		return nil, fmt.Errorf("%w: %s without geometry index", ErrHierarchy, n.Type)
	}
	idx := *n.GeometryIndex
	if idx < 0 || idx >= len(r.primitives) {
		return nil, fmt.Errorf("%w: geometry index %d out of range", ErrHierarchy, idx)
	}
	g := r.primitives[idx]
	if g.Type() != n.Type {
		return nil, fmt.Errorf("%w: geometry index %d is a %s, not a %s", ErrHierarchy, idx, g.Type(), n.Type)
	}
	return g, nil
}
