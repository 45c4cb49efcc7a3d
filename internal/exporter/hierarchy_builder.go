package exporter

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/mesh-intelligence/citydb/internal/database"
	"github.com/mesh-intelligence/citydb/pkg/geometry"
	"github.com/mesh-intelligence/citydb/pkg/types"
)

// maxInParams bounds the parameters of one IN (...) clause.
const maxInParams = 500

// querier is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// hierarchyBuilder loads the rows of one feature graph into a Hierarchy and
// assembles the features from them.
type hierarchyBuilder struct {
	e     *Exporter
	q     querier
	props *PropertyBuilder
	h     *Hierarchy
	stubs map[int64][]*PropertyStub
	order []int64
}

func newHierarchyBuilder(e *Exporter, q querier, props *PropertyBuilder, root int64, inline []int64) *hierarchyBuilder {
	return &hierarchyBuilder{
		e:     e,
		q:     q,
		props: props,
		h:     NewHierarchy(root, inline...),
		stubs: make(map[int64][]*PropertyStub),
	}
}

// build loads the graph and returns the hierarchy. The root is nil when the
// root row does not exist.
func (b *hierarchyBuilder) build(ctx context.Context) (*Hierarchy, error) {
	if err := b.loadContained(ctx); err != nil {
		return nil, err
	}
	if b.h.Root() == nil {
		return b.h, nil
	}
	if err := b.loadReferenced(ctx); err != nil {
		return nil, err
	}
	if err := b.loadTargets(ctx); err != nil {
		return nil, err
	}
	if err := b.assemble(ctx); err != nil {
		return nil, err
	}
	return b.h, nil
}

// loadContained walks contained sub-features breadth first, loading each
// level's feature rows and property rows.
func (b *hierarchyBuilder) loadContained(ctx context.Context) error {
	frontier := []int64{b.h.RootID()}
	for len(frontier) > 0 {
		loaded, err := b.loadFeatures(ctx, frontier)
		if err != nil {
			return err
		}
		for _, id := range loaded {
			b.h.MarkInline(id)
		}
		b.order = append(b.order, loaded...)

		var next []int64
		err = b.selectIn(ctx, "property", database.PropertyColumns, "feature_id", loaded, func(rows *sql.Rows) error {
			stub, err := scanPropertyStub(rows, b.e.db.Namespace)
			if err != nil {
				return err
			}
			fid := stub.Descriptor.FeatureID
			stub.Descriptor.RootID = b.h.RootID()
			b.stubs[fid] = append(b.stubs[fid], stub)
			if stub.DataType == types.DataTypeFeatureProperty && stub.Relation == types.RelationContains &&
				stub.FeatureID != 0 && b.h.Feature(stub.FeatureID) == nil {
				next = append(next, stub.FeatureID)
			}
			return nil
		})
		if err != nil {
			return err
		}
		frontier = unique(next)
	}
	return nil
}

// loadReferenced loads the feature rows of referenced features that are not
// part of this graph. They are resolved by the property builder.
func (b *hierarchyBuilder) loadReferenced(ctx context.Context) error {
	var ids []int64
	for _, fid := range b.order {
		for _, stub := range b.stubs[fid] {
			if stub.DataType == types.DataTypeFeatureProperty && stub.FeatureID != 0 && b.h.Feature(stub.FeatureID) == nil {
				ids = append(ids, stub.FeatureID)
			}
		}
	}
	_, err := b.loadFeatures(ctx, unique(ids))
	return err
}

func (b *hierarchyBuilder) loadFeatures(ctx context.Context, ids []int64) ([]int64, error) {
	var loaded []int64
	err := b.selectIn(ctx, "feature", database.FeatureColumns, "id", ids, func(rows *sql.Rows) error {
		id, f, err := b.scanFeature(rows)
		if err != nil {
			return err
		}
		b.h.AddFeature(id, f)
		loaded = append(loaded, id)
		return nil
	})
	return loaded, err
}

func (b *hierarchyBuilder) scanFeature(rows *sql.Rows) (int64, *types.Feature, error) {
	var (
		id                   int64
		classID              int
		objectID, identifier sql.NullString
		codeSpace, envelope  sql.NullString
		created, modified    sql.NullString
	)
	if err := rows.Scan(&id, &classID, &objectID, &identifier, &codeSpace, &envelope, &created, &modified); err != nil {
		return 0, nil, fmt.Errorf("scanning feature row: %w", err)
	}
	oc, _ := b.e.classes.ByID(classID)
	f := types.NewFeature(oc.Name)
	f.ObjectID = objectID.String
	f.Identifier = identifier.String
	f.IdentifierCodeSpace = codeSpace.String
	f.Descriptor = &types.FeatureDescriptor{ID: id, ObjectClassID: classID}
	if envelope.Valid {
		g, err := geometry.Parse(envelope.String)
		if err != nil {
			return 0, nil, fmt.Errorf("%w: feature %d: envelope: %v", types.ErrBuild, id, err)
		}
		f.Envelope = geometry.EnvelopeOf(g)
	}
	return id, f, nil
}

// loadTargets loads the geometries, templates, appearances and addresses
// the property rows point at.
func (b *hierarchyBuilder) loadTargets(ctx context.Context) error {
	var geometries, templates, appearances, addresses []int64
	for _, fid := range b.order {
		for _, s := range b.stubs[fid] {
			switch {
			case s.GeometryID != 0:
				geometries = append(geometries, s.GeometryID)
			case s.ImplicitGeometryID != 0:
				templates = append(templates, s.ImplicitGeometryID)
			case s.AppearanceID != 0:
				appearances = append(appearances, s.AppearanceID)
			case s.AddressID != 0:
				addresses = append(addresses, s.AddressID)
			}
		}
	}

	err := b.selectIn(ctx, "geometry_data", []string{"id", "geometry", "geometry_properties"}, "id", unique(geometries),
		func(rows *sql.Rows) error {
			var (
				id    int64
				wkt   sql.NullString
				props sql.NullString
			)
			if err := rows.Scan(&id, &wkt, &props); err != nil {
				return fmt.Errorf("scanning geometry row: %w", err)
			}
			if !wkt.Valid {
				return nil
			}
			g, err := geometry.DecodeStored(wkt.String, []byte(props.String))
			if err != nil {
				return fmt.Errorf("%w: geometry %d: %v", types.ErrBuild, id, err)
			}
			b.h.AddGeometry(id, g)
			return nil
		})
	if err != nil {
		return err
	}

	if ids := unique(templates); len(ids) > 0 {
		loaded, err := b.e.templates.Get(ctx, ids)
		if err != nil {
			return err
		}
		for id, ig := range loaded {
			b.h.AddImplicitGeometry(id, ig)
		}
	}

	err = b.selectIn(ctx, "appearance", []string{"id", "objectid", "identifier", "theme", "is_global"}, "id", unique(appearances),
		func(rows *sql.Rows) error {
			var (
				a                           types.Appearance
				objectID, identifier, theme sql.NullString
				global                      int
			)
			if err := rows.Scan(&a.ID, &objectID, &identifier, &theme, &global); err != nil {
				return fmt.Errorf("scanning appearance row: %w", err)
			}
			a.ObjectID, a.Identifier, a.Theme, a.IsGlobal = objectID.String, identifier.String, theme.String, global != 0
			b.h.AddAppearance(a.ID, &a)
			return nil
		})
	if err != nil {
		return err
	}

	return b.selectIn(ctx, "address", database.AddressColumns, "id", unique(addresses), func(rows *sql.Rows) error {
		a, err := scanAddress(rows)
		if err != nil {
			return err
		}
		b.h.AddAddress(a.ID, a)
		return nil
	})
}

func scanAddress(rows *sql.Rows) (*types.Address, error) {
	var (
		a      types.Address
		fields [10]sql.NullString
		mp     sql.NullString
	)
	dest := []any{&a.ID}
	for i := range fields {
		dest = append(dest, &fields[i])
	}
	dest = append(dest, &mp)
	if err := rows.Scan(dest...); err != nil {
		return nil, fmt.Errorf("scanning address row: %w", err)
	}
	a.ObjectID, a.Identifier = fields[0].String, fields[1].String
	a.Street, a.HouseNumber, a.POBox = fields[2].String, fields[3].String, fields[4].String
	a.ZipCode, a.City, a.State = fields[5].String, fields[6].String, fields[7].String
	a.Country, a.FreeText = fields[8].String, fields[9].String
	if mp.Valid {
		g, err := geometry.Parse(mp.String)
		if err != nil {
			return nil, fmt.Errorf("%w: address %d: %v", types.ErrBuild, a.ID, err)
		}
		multi, ok := g.(*geometry.MultiPoint)
		if !ok {
			return nil, fmt.Errorf("%w: address %d: expected MultiPoint, found %s", types.ErrBuild, a.ID, g.Type())
		}
		a.MultiPoint = multi
	}
	return &a, nil
}

// assemble builds the properties of every feature of the graph in
// breadth-first order, so the first occurrence of a shared object is the
// one closest to the root.
func (b *hierarchyBuilder) assemble(ctx context.Context) error {
	for _, fid := range b.order {
		f := b.h.Feature(fid)
		stubs := b.stubs[fid]
		sort.Slice(stubs, func(i, j int) bool { return stubs[i].Descriptor.ID < stubs[j].Descriptor.ID })

		attributes := make(map[int64]*types.Attribute)
		for _, stub := range stubs {
			p, err := b.props.Build(ctx, stub, b.h)
			if err != nil {
				return fmt.Errorf("feature %d: property %d: %w", fid, stub.Descriptor.ID, err)
			}
			if p == nil {
				continue
			}
			if a, ok := p.(*types.Attribute); ok {
				attributes[stub.Descriptor.ID] = a
				if parent := attributes[stub.Descriptor.ParentID]; stub.Descriptor.ParentID != 0 && parent != nil {
					parent.AddChild(a)
					continue
				}
			}
			if err := f.AddProperty(p); err != nil {
				return fmt.Errorf("%w: feature %d: %v", types.ErrBuild, fid, err)
			}
		}
	}
	return nil
}

// selectIn runs "SELECT columns FROM table WHERE key IN (ids) ORDER BY id"
// in chunks and calls scan for every row.
func (b *hierarchyBuilder) selectIn(ctx context.Context, table string, columns []string, key string, ids []int64,
	scan func(*sql.Rows) error) error {
	d := b.e.db.Dialect()
	for start := 0; start < len(ids); start += maxInParams {
		chunk := ids[start:min(start+maxInParams, len(ids))]
		query := "SELECT " + strings.Join(columns, ", ") + " FROM " + table +
			" WHERE " + database.InSQL(d, key, 1, len(chunk)) + " ORDER BY id"
		args := make([]any, len(chunk))
		for i, id := range chunk {
			args[i] = id
		}
		if err := queryRows(ctx, b.q, query, args, scan); err != nil {
			return fmt.Errorf("loading %s rows: %w", table, err)
		}
	}
	return nil
}

func queryRows(ctx context.Context, q querier, query string, args []any, scan func(*sql.Rows) error) error {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

// unique returns ids without duplicates in first-seen order.
func unique(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
