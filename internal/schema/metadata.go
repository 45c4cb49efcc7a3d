package schema

import (
	"fmt"

	"github.com/mesh-intelligence/citydb/pkg/types"
)

// NamespaceInfo is a row of the namespace table.
type NamespaceInfo struct {
	ID    int
	Alias string
	URI   string
}

// ObjectClass is a row of the objectclass table. Top-level classes are
// persisted as standalone features that other features may reference.
type ObjectClass struct {
	ID           int
	SuperclassID int
	Name         types.Name
	IsAbstract   bool
	IsTopLevel   bool
}

// UndefinedObjectClass is used for features whose type is unknown.
const UndefinedObjectClass = 1

// Namespaces returns the namespaces seeded into a new database.
func Namespaces() []NamespaceInfo {
	return []NamespaceInfo{
		{1, "core", types.NamespaceCore},
		{2, "gen", types.NamespaceGeneric},
		{3, "bldg", types.NamespaceBuilding},
		{4, "tran", types.NamespaceTransportation},
		{5, "wtr", types.NamespaceWaterBody},
		{6, "app", types.NamespaceAppearance},
		{7, "depr", types.NamespaceDeprecated},
	}
}

func class(id, super int, local, ns string, abstract, topLevel bool) ObjectClass {
	return ObjectClass{
		ID:           id,
		SuperclassID: super,
		Name:         types.NewName(local, ns),
		IsAbstract:   abstract,
		IsTopLevel:   topLevel,
	}
}

// DefaultObjectClasses returns the object classes seeded into a new
// database.
func DefaultObjectClasses() []ObjectClass {
	core, gen, bldg := types.NamespaceCore, types.NamespaceGeneric, types.NamespaceBuilding
	tran, wtr := types.NamespaceTransportation, types.NamespaceWaterBody
	return []ObjectClass{
		class(1, 0, "Undefined", core, false, false),
		class(2, 0, "AbstractObject", core, true, false),
		class(3, 2, "AbstractFeature", core, true, false),
		class(4, 3, "AbstractCityObject", core, true, false),
		class(5, 4, "AbstractSpace", core, true, false),
		class(6, 4, "AbstractThematicSurface", core, true, false),
		class(7, 3, "CityModel", core, false, false),
		class(8, 3, "Address", core, false, false),
		class(9, 3, "ImplicitGeometry", core, false, false),
		class(10, 3, "Appearance", types.NamespaceAppearance, false, false),

		class(500, 5, "GenericOccupiedSpace", gen, false, true),
		class(501, 5, "GenericUnoccupiedSpace", gen, false, true),
		class(502, 5, "GenericLogicalSpace", gen, false, true),
		class(503, 6, "GenericThematicSurface", gen, false, false),

		class(700, 6, "WallSurface", bldg, false, false),
		class(701, 6, "RoofSurface", bldg, false, false),
		class(702, 6, "GroundSurface", bldg, false, false),
		class(703, 6, "FloorSurface", bldg, false, false),
		class(704, 6, "CeilingSurface", bldg, false, false),
		class(705, 6, "ClosureSurface", core, false, false),
		class(706, 3, "Door", bldg, false, false),
		class(707, 3, "Window", bldg, false, false),

		class(900, 5, "AbstractBuilding", bldg, true, false),
		class(901, 900, "Building", bldg, false, true),
		class(902, 900, "BuildingPart", bldg, false, false),
		class(903, 5, "BuildingInstallation", bldg, false, false),
		class(904, 5, "BuildingConstructiveElement", bldg, false, false),
		class(905, 5, "BuildingRoom", bldg, false, false),
		class(906, 5, "Storey", bldg, false, false),

		class(1100, 5, "AbstractTransportationSpace", tran, true, false),
		class(1101, 1100, "Road", tran, false, true),
		class(1102, 1100, "Railway", tran, false, true),
		class(1103, 1100, "Track", tran, false, true),
		class(1104, 1100, "Square", tran, false, true),
		class(1105, 1100, "Waterway", tran, false, true),
		class(1106, 5, "Section", tran, false, false),
		class(1107, 5, "Intersection", tran, false, false),
		class(1108, 5, "TrafficSpace", tran, false, false),
		class(1109, 5, "AuxiliaryTrafficSpace", tran, false, false),
		class(1110, 5, "ClearanceSpace", tran, false, false),
		class(1111, 6, "TrafficArea", tran, false, false),
		class(1112, 6, "AuxiliaryTrafficArea", tran, false, false),
		class(1113, 6, "Marking", tran, false, false),
		class(1114, 5, "Hole", tran, false, false),

		class(1300, 5, "WaterBody", wtr, false, true),
		class(1301, 6, "WaterSurface", wtr, false, false),
		class(1302, 6, "WaterGroundSurface", wtr, false, false),
	}
}

// ObjectClasses indexes object classes by id and by name.
type ObjectClasses struct {
	byID   map[int]ObjectClass
	byName map[types.Name]ObjectClass
	list   []ObjectClass
}

// NewObjectClasses indexes classes. Later entries replace earlier ones with
// the same id.
func NewObjectClasses(classes []ObjectClass) *ObjectClasses {
	c := &ObjectClasses{
		byID:   make(map[int]ObjectClass, len(classes)),
		byName: make(map[types.Name]ObjectClass, len(classes)),
	}
	for _, oc := range classes {
		if _, ok := c.byID[oc.ID]; !ok {
			c.list = append(c.list, oc)
		}
		c.byID[oc.ID] = oc
		c.byName[oc.Name] = oc
	}
	return c
}

// ByID returns the class with the given id.
func (c *ObjectClasses) ByID(id int) (ObjectClass, bool) {
	oc, ok := c.byID[id]
	return oc, ok
}

// ByName returns the class with the given qualified name.
func (c *ObjectClasses) ByName(name types.Name) (ObjectClass, bool) {
	oc, ok := c.byName[name]
	return oc, ok
}

// IsTopLevel reports whether id is a known top-level class. Unknown ids are
// not top level.
func (c *ObjectClasses) IsTopLevel(id int) bool {
	return c.byID[id].IsTopLevel
}

// Resolve returns the id of the class named name, or UndefinedObjectClass
// with types.ErrUnknownType if there is none or it is abstract.
func (c *ObjectClasses) Resolve(name types.Name) (int, error) {
	oc, ok := c.byName[name]
	if !ok {
		return UndefinedObjectClass, fmt.Errorf("%w: %s", types.ErrUnknownType, name)
	}
	if oc.IsAbstract {
		return UndefinedObjectClass, fmt.Errorf("%w: %s is abstract", types.ErrUnknownType, name)
	}
	return oc.ID, nil
}

// All returns the classes in insertion order.
func (c *ObjectClasses) All() []ObjectClass {
	return append([]ObjectClass{}, c.list...)
}

// DataTypeInfo is a row of the datatype table.
type DataTypeInfo struct {
	ID          int
	Name        string
	NamespaceID int
}

// DataTypes returns the data types seeded into a new database.
func DataTypes() []DataTypeInfo {
	var out []DataTypeInfo
	for _, dt := range types.DataTypes() {
		out = append(out, DataTypeInfo{ID: int(dt), Name: dt.String(), NamespaceID: 1})
	}
	return out
}
