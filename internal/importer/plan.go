package importer

import (
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/mesh-intelligence/citydb/internal/schema"
	"github.com/mesh-intelligence/citydb/pkg/geometry"
	"github.com/mesh-intelligence/citydb/pkg/types"
)

// plan is the decomposition of one feature graph into rows. Building a plan
// has no side effects other than id allocation and the claims on shared
// targets, which release undoes, so a feature that fails to decompose
// leaves nothing behind.
type plan struct {
	im     *Importer
	rootID int64

	rows    []plannedRow
	targets []plannedTarget
	claims  []plannedTarget
	refs    []plannedRef
	assign  []func()

	templates map[string]int64
	addresses map[string]int64
	features  int
	props     int
}

type plannedRow struct {
	table schema.Table
	args  []any
}

type plannedTarget struct {
	cache      CacheType
	externalID string
	rowID      int64
}

type plannedRef struct {
	cache CacheType
	ref   types.Reference
	rowID int64
}

func newPlan(im *Importer) *plan {
	return &plan{
		im:        im,
		templates: make(map[string]int64),
		addresses: make(map[string]int64),
	}
}

func (p *plan) add(table schema.Table, args ...any) {
	p.rows = append(p.rows, plannedRow{table: table, args: args})
}

func (p *plan) next(table schema.Table) int64 { return p.im.seqs[table].Next() }

// claim records rowID as the row of a shared target before the row is
// queued, so that concurrent workers never store the same target twice.
// It reports false if another row owns externalID.
func (p *plan) claim(cache CacheType, externalID string, rowID int64) bool {
	if !p.im.refs.Cache(cache).PutTargetIfAbsent(externalID, rowID) {
		return false
	}
	p.claims = append(p.claims, plannedTarget{cache: cache, externalID: externalID, rowID: rowID})
	return true
}

// release gives up the claims of a plan whose rows are discarded.
func (p *plan) release() {
	for _, c := range p.claims {
		p.im.refs.Cache(c.cache).Release(c.externalID, c.rowID)
	}
	p.claims = nil
}

// feature decomposes f and its contained sub-features.
func (p *plan) feature(f *types.Feature) (int64, error) {
	id := p.next(schema.Feature)
	if p.rootID == 0 {
		p.rootID = id
	}
	classID, err := p.im.classes.Resolve(f.Type)
	if err != nil {
		p.im.log.WithField("type", f.Type.String()).Debug("importing feature as undefined object class")
	}
	objectID := f.ObjectID
	if objectID == "" {
		objectID = geometry.NewObjectID()
	}

	env := f.Envelope
	if env.IsEmpty() {
		env = f.ComputeEnvelope()
	}
	var envelope *string
	if !env.IsEmpty() {
		wkt, err := geometry.Encode(env.Diagonal())
		if err != nil {
			return 0, fmt.Errorf("%w: envelope of %s: %v", types.ErrImport, objectID, err)
		}
		envelope = &wkt
	}

	now := formatTime(p.im.now())
	p.add(schema.Feature, id, classID, objectID, nullable(optional(f.Identifier)),
		nullable(optional(f.IdentifierCodeSpace)), nullable(envelope), now, now)
	p.targets = append(p.targets, plannedTarget{cache: CacheFeature, externalID: objectID, rowID: id})
	p.assign = append(p.assign, func() {
		f.ObjectID = objectID
		f.Descriptor = &types.FeatureDescriptor{ID: id, ObjectClassID: classID}
	})
	p.features++

	for _, prop := range f.Properties() {
		if err := p.property(id, prop); err != nil {
			return 0, fmt.Errorf("feature %s: %w", objectID, err)
		}
	}
	return id, nil
}

func (p *plan) header(featureID int64, parentID *int64, h *types.PropertyHeader, dt types.DataType) *propertyRow {
	row := &propertyRow{
		id:          p.next(schema.Property),
		featureID:   featureID,
		parentID:    parentID,
		dataType:    dt,
		namespaceID: p.im.db.NamespaceID(h.Name.Namespace),
		name:        h.Name.LocalName,
	}
	desc := &types.PropertyDescriptor{ID: row.id, FeatureID: featureID, RootID: p.rootID}
	if parentID != nil {
		desc.ParentID = *parentID
	}
	p.assign = append(p.assign, func() { h.Descriptor = desc })
	p.props++
	return row
}

func (p *plan) property(featureID int64, prop types.Property) error {
	switch v := prop.(type) {
	case *types.Attribute:
		return p.attribute(featureID, nil, v)
	case *types.FeatureProperty:
		return p.featureProperty(featureID, v)
	case *types.GeometryProperty:
		return p.geometryProperty(featureID, v)
	case *types.ImplicitGeometryProperty:
		return p.implicitGeometryProperty(featureID, v)
	case *types.AppearanceProperty:
		return p.appearanceProperty(featureID, v)
	case *types.AddressProperty:
		return p.addressProperty(featureID, v)
	}
	return fmt.Errorf("%w: unsupported property %T", types.ErrImport, prop)
}

func (p *plan) attribute(featureID int64, parentID *int64, a *types.Attribute) error {
	dt := a.DataType
	if !dt.Valid() || dt.Kind() != types.PropertyKindAttribute {
		return fmt.Errorf("%w: attribute %s has data type %s", types.ErrImport, a.Name, dt)
	}
	row := p.header(featureID, parentID, &a.PropertyHeader, dt)
	row.valInt = a.IntValue
	row.valDouble = a.DoubleValue
	row.valString = a.StringValue
	row.valURI = a.URI
	row.valCodespace = a.CodeSpace
	row.valUOM = a.UOM
	row.content = a.GenericContent
	row.contentMime = a.GenericContentMimeType
	if a.TimeStamp != nil {
		row.valTimestamp = ptr(formatTime(*a.TimeStamp))
	}
	if a.ArrayValue != nil {
		data, err := json.Marshal(a.ArrayValue)
		if err != nil {
			return fmt.Errorf("%w: array value of %s: %v", types.ErrImport, a.Name, err)
		}
		row.valArray = ptr(string(data))
	}
	p.add(schema.Property, row.args()...)

	for _, child := range a.Children {
		if err := p.attribute(featureID, &row.id, child); err != nil {
			return err
		}
	}
	return nil
}

func (p *plan) featureProperty(featureID int64, fp *types.FeatureProperty) error {
	row := p.header(featureID, nil, &fp.PropertyHeader, types.DataTypeFeatureProperty)
	row.relation = ptr(int(fp.Relation))
	switch {
	case fp.Feature != nil:
		childID, err := p.feature(fp.Feature)
		if err != nil {
			return err
		}
		row.featureRef = &childID
	case fp.Reference != nil:
		if err := p.reference(CacheFeature, *fp.Reference, row.id); err != nil {
			return fmt.Errorf("property %s: %w", fp.Name, err)
		}
	default:
		return fmt.Errorf("%w: feature property %s has neither feature nor reference", types.ErrImport, fp.Name)
	}
	p.add(schema.Property, row.args()...)
	return nil
}

func (p *plan) geometryProperty(featureID int64, gp *types.GeometryProperty) error {
	if gp.Geometry == nil {
		if gp.Reference == nil {
			return nil
		}
		row := p.header(featureID, nil, &gp.PropertyHeader, types.DataTypeGeometryProperty)
		row.valLOD = optional(gp.LOD)
		if err := p.reference(CacheGeometry, *gp.Reference, row.id); err != nil {
			return fmt.Errorf("property %s: %w", gp.Name, err)
		}
		p.add(schema.Property, row.args()...)
		return nil
	}
	geometryID, err := p.geometry(gp.Geometry, &featureID, false)
	if err != nil {
		return fmt.Errorf("property %s: %w", gp.Name, err)
	}
	row := p.header(featureID, nil, &gp.PropertyHeader, types.DataTypeGeometryProperty)
	row.geometryID = &geometryID
	row.valLOD = optional(gp.LOD)
	p.add(schema.Property, row.args()...)
	return nil
}

// geometry adds a geometry_data row. Template geometries are stored in the
// implicit_geometry column without a feature.
func (p *plan) geometry(g geometry.Geometry, featureID *int64, template bool) (int64, error) {
	id := p.next(schema.GeometryData)
	objectID := geometry.ObjectIDOrCreate(g)
	wkt, props, err := geometry.EncodeStored(g)
	if err != nil {
		return 0, fmt.Errorf("%w: geometry %s: %v", types.ErrImport, objectID, err)
	}
	var explicit, implicit any = wkt, nil
	if template {
		explicit, implicit = nil, wkt
	}
	p.add(schema.GeometryData, id, explicit, implicit, string(props), nullable(featureID))
	p.targets = append(p.targets, plannedTarget{cache: CacheGeometry, externalID: objectID, rowID: id})
	return id, nil
}

func (p *plan) implicitGeometryProperty(featureID int64, ip *types.ImplicitGeometryProperty) error {
	row := p.header(featureID, nil, &ip.PropertyHeader, types.DataTypeImplicitGeometryProperty)
	row.valLOD = optional(ip.LOD)
	if len(ip.TransformationMatrix) > 0 {
		matrix := make(types.ArrayValue, len(ip.TransformationMatrix))
		for i, f := range ip.TransformationMatrix {
			matrix[i] = types.DoubleValue(f)
		}
		data, err := json.Marshal(matrix)
		if err != nil {
			return fmt.Errorf("%w: transformation matrix of %s: %v", types.ErrImport, ip.Name, err)
		}
		row.valArray = ptr(string(data))
	}
	if ip.ReferencePoint != nil {
		wkt, err := geometry.Encode(ip.ReferencePoint)
		if err != nil {
			return fmt.Errorf("%w: reference point of %s: %v", types.ErrImport, ip.Name, err)
		}
		row.refPoint = &wkt
	}

	switch {
	case ip.Object != nil:
		id, ref, err := p.template(ip.Object)
		if err != nil {
			return fmt.Errorf("property %s: %w", ip.Name, err)
		}
		if ref != nil {
			p.refs = append(p.refs, plannedRef{cache: CacheImplicitGeometry, ref: *ref, rowID: row.id})
		} else {
			row.implicitID = &id
		}
	case ip.Reference != nil:
		if err := p.reference(CacheImplicitGeometry, *ip.Reference, row.id); err != nil {
			return fmt.Errorf("property %s: %w", ip.Name, err)
		}
	default:
		return fmt.Errorf("%w: implicit geometry property %s has neither template nor reference", types.ErrImport, ip.Name)
	}
	p.add(schema.Property, row.args()...)
	return nil
}

// template adds the rows of an implicit geometry template. A template
// claimed by another feature of this session is referenced instead,
// because its rows may not be committed yet.
func (p *plan) template(ig *types.ImplicitGeometry) (int64, *types.Reference, error) {
	objectID := ig.ObjectID
	if objectID == "" {
		objectID = geometry.NewObjectID()
	}
	if id, ok := p.templates[objectID]; ok {
		return id, nil, nil
	}
	id := p.next(schema.ImplicitGeometry)
	if !p.claim(CacheImplicitGeometry, objectID, id) {
		return 0, types.NewReference(objectID, types.ReferenceXLink), nil
	}

	var relative *int64
	if ig.Geometry != nil {
		gid, err := p.geometry(ig.Geometry, nil, true)
		if err != nil {
			return 0, nil, err
		}
		relative = &gid
	}
	var library any
	if ig.LibraryObject != nil {
		library = ig.LibraryObject
	}
	p.add(schema.ImplicitGeometry, id, objectID, nullable(optional(ig.MimeType)), library, nullable(relative))
	p.templates[objectID] = id
	p.assign = append(p.assign, func() {
		ig.ID = id
		ig.ObjectID = objectID
	})
	return id, nil, nil
}

func (p *plan) appearanceProperty(featureID int64, ap *types.AppearanceProperty) error {
	a := ap.Appearance
	if a == nil {
		if ap.Reference == nil {
			return nil
		}
		row := p.header(featureID, nil, &ap.PropertyHeader, types.DataTypeAppearanceProperty)
		if err := p.reference(CacheAppearance, *ap.Reference, row.id); err != nil {
			return fmt.Errorf("property %s: %w", ap.Name, err)
		}
		p.add(schema.Property, row.args()...)
		return nil
	}
	id := p.next(schema.Appearance)
	objectID := a.ObjectID
	if objectID == "" {
		objectID = geometry.NewObjectID()
	}
	p.add(schema.Appearance, id, objectID, nullable(optional(a.Identifier)), nullable(optional(a.Theme)),
		boolInt(a.IsGlobal), featureID, nil)
	p.targets = append(p.targets, plannedTarget{cache: CacheAppearance, externalID: objectID, rowID: id})
	p.assign = append(p.assign, func() {
		a.ID = id
		a.ObjectID = objectID
	})

	row := p.header(featureID, nil, &ap.PropertyHeader, types.DataTypeAppearanceProperty)
	row.appearanceID = &id
	p.add(schema.Property, row.args()...)
	return nil
}

func (p *plan) addressProperty(featureID int64, ap *types.AddressProperty) error {
	row := p.header(featureID, nil, &ap.PropertyHeader, types.DataTypeAddressProperty)
	switch {
	case ap.Address != nil:
		id, ref, err := p.address(ap.Address)
		if err != nil {
			return fmt.Errorf("property %s: %w", ap.Name, err)
		}
		if ref != nil {
			p.refs = append(p.refs, plannedRef{cache: CacheAddress, ref: *ref, rowID: row.id})
		} else {
			row.addressID = &id
		}
	case ap.Reference != nil:
		if err := p.reference(CacheAddress, *ap.Reference, row.id); err != nil {
			return fmt.Errorf("property %s: %w", ap.Name, err)
		}
	default:
		return fmt.Errorf("%w: address property %s has neither address nor reference", types.ErrImport, ap.Name)
	}
	p.add(schema.Property, row.args()...)
	return nil
}

// address adds an address row, or references an address with the same
// object id claimed by another feature of this session.
func (p *plan) address(a *types.Address) (int64, *types.Reference, error) {
	objectID := a.ObjectID
	if objectID == "" {
		objectID = geometry.NewObjectID()
	}
	if id, ok := p.addresses[objectID]; ok {
		return id, nil, nil
	}
	id := p.next(schema.Address)
	if !p.claim(CacheAddress, objectID, id) {
		return 0, types.NewReference(objectID, types.ReferenceXLink), nil
	}

	var multiPoint *string
	if a.MultiPoint != nil {
		wkt, err := geometry.Encode(a.MultiPoint)
		if err != nil {
			return 0, nil, fmt.Errorf("%w: address %s: %v", types.ErrImport, objectID, err)
		}
		multiPoint = &wkt
	}
	p.add(schema.Address, id, objectID, nullable(optional(a.Identifier)),
		nullable(optional(a.Street)), nullable(optional(a.HouseNumber)), nullable(optional(a.POBox)),
		nullable(optional(a.ZipCode)), nullable(optional(a.City)), nullable(optional(a.State)),
		nullable(optional(a.Country)), nullable(optional(a.FreeText)), nullable(multiPoint))
	p.addresses[objectID] = id
	p.assign = append(p.assign, func() {
		a.ID = id
		a.ObjectID = objectID
	})
	return id, nil, nil
}

func (p *plan) reference(cache CacheType, ref types.Reference, rowID int64) error {
	if err := ref.Validate(); err != nil {
		return fmt.Errorf("%w: %v", types.ErrImport, err)
	}
	p.refs = append(p.refs, plannedRef{cache: cache, ref: ref, rowID: rowID})
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
