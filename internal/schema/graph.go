// Package schema describes the relational schema the engine writes to: the
// storage tables with their commit dependencies, and the object class,
// namespace and data type metadata seeded into every database.
package schema

import (
	"errors"
	"fmt"
	"strings"
)

// Table names a storage table.
type Table string

// Storage tables.
const (
	Address             Table = "address"
	ADE                 Table = "ade"
	Codelist            Table = "codelist"
	DatabaseSRS         Table = "database_srs"
	TexImage            Table = "tex_image"
	CodelistEntry       Table = "codelist_entry"
	Namespace           Table = "namespace"
	Datatype            Table = "datatype"
	Objectclass         Table = "objectclass"
	AggregationInfo     Table = "aggregation_info"
	Feature             Table = "feature"
	GeometryData        Table = "geometry_data"
	ImplicitGeometry    Table = "implicit_geometry"
	Appearance          Table = "appearance"
	Property            Table = "property"
	SurfaceData         Table = "surface_data"
	AppearToSurfaceData Table = "appear_to_surface_data"
	SurfaceDataMapping  Table = "surface_data_mapping"
)

// Declaration lists the tables whose rows a table may reference. Those
// tables must be committed first.
type Declaration struct {
	Table     Table
	DependsOn []Table
}

// declarations is the dependency graph of the storage schema.
var declarations = []Declaration{
	{Address, nil},
	{ADE, nil},
	{Codelist, nil},
	{DatabaseSRS, nil},
	{TexImage, nil},
	{CodelistEntry, []Table{Codelist}},
	{Namespace, []Table{ADE}},
	{Datatype, []Table{ADE, Namespace}},
	{Objectclass, []Table{ADE, Namespace}},
	{AggregationInfo, []Table{Objectclass, Namespace}},
	{Feature, []Table{Objectclass}},
	{GeometryData, []Table{Feature}},
	{ImplicitGeometry, []Table{GeometryData}},
	{Appearance, []Table{Feature, ImplicitGeometry}},
	{Property, []Table{Address, Appearance, Datatype, Feature, GeometryData, ImplicitGeometry, Namespace}},
	{SurfaceData, []Table{Objectclass, TexImage}},
	{AppearToSurfaceData, []Table{Appearance, SurfaceData}},
	{SurfaceDataMapping, []Table{GeometryData, SurfaceData}},
}

// Graph errors.
var (
	ErrCycle           = errors.New("table dependencies form a cycle")
	ErrUndeclaredTable = errors.New("table is not declared")
	ErrDuplicateTable  = errors.New("table is declared twice")
)

// Graph is a validated, immutable table dependency graph.
type Graph struct {
	tables     []Table
	direct     map[Table][]Table
	transitive map[Table][]Table
	order      map[Table][]Table
	global     []Table
}

var defaultGraph = mustGraph(declarations)

func mustGraph(decls []Declaration) *Graph {
	g, err := NewGraph(decls)
	if err != nil {
		panic(err)
	}
	return g
}

// Default returns the graph of the storage schema.
func Default() *Graph { return defaultGraph }

// NewGraph validates decls and precomputes dependency closures and commit
// orders. It fails on duplicate declarations, references to undeclared
// tables and cycles.
func NewGraph(decls []Declaration) (*Graph, error) {
	g := &Graph{
		direct:     make(map[Table][]Table, len(decls)),
		transitive: make(map[Table][]Table, len(decls)),
		order:      make(map[Table][]Table, len(decls)),
	}
	for _, d := range decls {
		if _, ok := g.direct[d.Table]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTable, d.Table)
		}
		g.tables = append(g.tables, d.Table)
		g.direct[d.Table] = append([]Table{}, d.DependsOn...)
	}
	for _, d := range decls {
		for _, dep := range d.DependsOn {
			if _, ok := g.direct[dep]; !ok {
				return nil, fmt.Errorf("%w: %s (referenced by %s)", ErrUndeclaredTable, dep, d.Table)
			}
		}
	}

	seen := make(map[Table]bool)
	for _, t := range g.tables {
		order, err := g.commitOrder(t)
		if err != nil {
			return nil, err
		}
		g.order[t] = order
		g.transitive[t] = order[:len(order)-1]
		for _, o := range order {
			if !seen[o] {
				seen[o] = true
				g.global = append(g.global, o)
			}
		}
	}
	return g, nil
}

// commitOrder walks direct dependencies depth first and emits each table
// after its dependencies.
func (g *Graph) commitOrder(root Table) ([]Table, error) {
	const (
		visiting = 1
		done     = 2
	)
	state := make(map[Table]int)
	var out []Table
	var path []Table
	var visit func(t Table) error
	visit = func(t Table) error {
		switch state[t] {
		case done:
			return nil
		case visiting:
			names := make([]string, 0, len(path)+1)
			for _, p := range path {
				names = append(names, string(p))
			}
			names = append(names, string(t))
			return fmt.Errorf("%w: %s", ErrCycle, strings.Join(names, " -> "))
		}
		state[t] = visiting
		path = append(path, t)
		for _, dep := range g.direct[t] {
			if err := visit(dep); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		state[t] = done
		out = append(out, t)
		return nil
	}
	if err := visit(root); err != nil {
		return nil, err
	}
	return out, nil
}

// Tables returns all tables in an order where every table follows its
// dependencies.
func (g *Graph) Tables() []Table {
	return append([]Table{}, g.global...)
}

// Declared reports whether t is part of the graph.
func (g *Graph) Declared(t Table) bool {
	_, ok := g.direct[t]
	return ok
}

// Dependencies returns the direct dependencies of t, or with transitive set
// every table reachable from t. Transitive results are in commit order.
func (g *Graph) Dependencies(t Table, transitive bool) []Table {
	if transitive {
		return append([]Table{}, g.transitive[t]...)
	}
	return append([]Table{}, g.direct[t]...)
}

// DependsOn reports whether a references b directly or transitively.
func (g *Graph) DependsOn(a, b Table) bool {
	for _, t := range g.transitive[a] {
		if t == b {
			return true
		}
	}
	return false
}

// CommitOrder returns the tables to flush before t, ending with t itself.
// Each table appears once, after all tables it depends on.
func (g *Graph) CommitOrder(t Table) []Table {
	if order, ok := g.order[t]; ok {
		return append([]Table{}, order...)
	}
	return []Table{t}
}
