package database

import "strings"

// Schema DDL for the 3D City Database tables, in commit order so that every
// foreign key target exists when it is referenced. The $BINARY marker is
// replaced by the dialect's byte column type.
const (
	createAddress = `CREATE TABLE IF NOT EXISTS address (
    id BIGINT PRIMARY KEY,
    objectid TEXT,
    identifier TEXT,
    street TEXT,
    house_number TEXT,
    po_box TEXT,
    zip_code TEXT,
    city TEXT,
    state TEXT,
    country TEXT,
    free_text TEXT,
    multi_point TEXT
)`

	createADE = `CREATE TABLE IF NOT EXISTS ade (
    id BIGINT PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT,
    version TEXT
)`

	createCodelist = `CREATE TABLE IF NOT EXISTS codelist (
    id BIGINT PRIMARY KEY,
    url TEXT NOT NULL,
    mime_type TEXT
)`

	createDatabaseSRS = `CREATE TABLE IF NOT EXISTS database_srs (
    srid INTEGER PRIMARY KEY,
    srs_name TEXT
)`

	createTexImage = `CREATE TABLE IF NOT EXISTS tex_image (
    id BIGINT PRIMARY KEY,
    image_uri TEXT,
    image_data $BINARY,
    mime_type TEXT
)`

	createCodelistEntry = `CREATE TABLE IF NOT EXISTS codelist_entry (
    id BIGINT PRIMARY KEY,
    codelist_id BIGINT NOT NULL REFERENCES codelist(id),
    code TEXT NOT NULL,
    definition TEXT
)`

	createNamespace = `CREATE TABLE IF NOT EXISTS namespace (
    id INTEGER PRIMARY KEY,
    alias TEXT,
    namespace TEXT NOT NULL UNIQUE,
    ade_id BIGINT REFERENCES ade(id)
)`

	createDatatype = `CREATE TABLE IF NOT EXISTS datatype (
    id INTEGER PRIMARY KEY,
    typename TEXT NOT NULL,
    namespace_id INTEGER REFERENCES namespace(id),
    ade_id BIGINT REFERENCES ade(id)
)`

	createObjectclass = `CREATE TABLE IF NOT EXISTS objectclass (
    id INTEGER PRIMARY KEY,
    superclass_id INTEGER REFERENCES objectclass(id),
    classname TEXT NOT NULL,
    is_abstract INTEGER NOT NULL,
    is_toplevel INTEGER NOT NULL,
    namespace_id INTEGER REFERENCES namespace(id),
    ade_id BIGINT REFERENCES ade(id)
)`

	createAggregationInfo = `CREATE TABLE IF NOT EXISTS aggregation_info (
    child_id INTEGER NOT NULL REFERENCES objectclass(id),
    parent_id INTEGER NOT NULL REFERENCES objectclass(id),
    property_name TEXT NOT NULL,
    namespace_id INTEGER REFERENCES namespace(id),
    is_composite INTEGER NOT NULL
)`

	createFeature = `CREATE TABLE IF NOT EXISTS feature (
    id BIGINT PRIMARY KEY,
    objectclass_id INTEGER NOT NULL REFERENCES objectclass(id),
    objectid TEXT,
    identifier TEXT,
    identifier_codespace TEXT,
    envelope TEXT,
    creation_date TEXT,
    last_modification_date TEXT
)`

	createGeometryData = `CREATE TABLE IF NOT EXISTS geometry_data (
    id BIGINT PRIMARY KEY,
    geometry TEXT,
    implicit_geometry TEXT,
    geometry_properties TEXT,
    feature_id BIGINT REFERENCES feature(id)
)`

	createImplicitGeometry = `CREATE TABLE IF NOT EXISTS implicit_geometry (
    id BIGINT PRIMARY KEY,
    objectid TEXT,
    mime_type TEXT,
    library_object $BINARY,
    relative_geometry_id BIGINT REFERENCES geometry_data(id)
)`

	createAppearance = `CREATE TABLE IF NOT EXISTS appearance (
    id BIGINT PRIMARY KEY,
    objectid TEXT,
    identifier TEXT,
    theme TEXT,
    is_global INTEGER NOT NULL,
    feature_id BIGINT REFERENCES feature(id),
    implicit_geometry_id BIGINT REFERENCES implicit_geometry(id)
)`

	createProperty = `CREATE TABLE IF NOT EXISTS property (
    id BIGINT PRIMARY KEY,
    feature_id BIGINT NOT NULL REFERENCES feature(id),
    parent_id BIGINT,
    datatype_id INTEGER REFERENCES datatype(id),
    namespace_id INTEGER REFERENCES namespace(id),
    name TEXT NOT NULL,
    val_int BIGINT,
    val_double DOUBLE PRECISION,
    val_string TEXT,
    val_timestamp TEXT,
    val_uri TEXT,
    val_codespace TEXT,
    val_uom TEXT,
    val_array TEXT,
    val_lod TEXT,
    val_geometry_id BIGINT REFERENCES geometry_data(id),
    val_implicitgeom_id BIGINT REFERENCES implicit_geometry(id),
    val_implicitgeom_refpoint TEXT,
    val_appearance_id BIGINT REFERENCES appearance(id),
    val_address_id BIGINT REFERENCES address(id),
    val_feature_id BIGINT REFERENCES feature(id),
    val_relation_type INTEGER,
    val_content TEXT,
    val_content_mime_type TEXT
)`

	createSurfaceData = `CREATE TABLE IF NOT EXISTS surface_data (
    id BIGINT PRIMARY KEY,
    objectid TEXT,
    objectclass_id INTEGER NOT NULL REFERENCES objectclass(id),
    tex_image_id BIGINT REFERENCES tex_image(id)
)`

	createAppearToSurfaceData = `CREATE TABLE IF NOT EXISTS appear_to_surface_data (
    appearance_id BIGINT NOT NULL REFERENCES appearance(id),
    surface_data_id BIGINT NOT NULL REFERENCES surface_data(id),
    PRIMARY KEY (appearance_id, surface_data_id)
)`

	createSurfaceDataMapping = `CREATE TABLE IF NOT EXISTS surface_data_mapping (
    surface_data_id BIGINT NOT NULL REFERENCES surface_data(id),
    geometry_data_id BIGINT NOT NULL REFERENCES geometry_data(id),
    material_mapping TEXT,
    texture_mapping TEXT,
    PRIMARY KEY (surface_data_id, geometry_data_id)
)`
)

// Index DDL.
const (
	indexFeatureObjectID       = `CREATE INDEX IF NOT EXISTS feature_objectid_idx ON feature(objectid)`
	indexFeatureObjectclass    = `CREATE INDEX IF NOT EXISTS feature_objectclass_idx ON feature(objectclass_id)`
	indexPropertyFeature       = `CREATE INDEX IF NOT EXISTS property_feature_idx ON property(feature_id)`
	indexPropertyParent        = `CREATE INDEX IF NOT EXISTS property_parent_idx ON property(parent_id)`
	indexGeometryDataFeature   = `CREATE INDEX IF NOT EXISTS geometry_data_feature_idx ON geometry_data(feature_id)`
	indexAppearanceFeature     = `CREATE INDEX IF NOT EXISTS appearance_feature_idx ON appearance(feature_id)`
	indexImplicitGeometryObjID = `CREATE INDEX IF NOT EXISTS implicit_geometry_objectid_idx ON implicit_geometry(objectid)`
)

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createAddress,
	createADE,
	createCodelist,
	createDatabaseSRS,
	createTexImage,
	createCodelistEntry,
	createNamespace,
	createDatatype,
	createObjectclass,
	createAggregationInfo,
	createFeature,
	createGeometryData,
	createImplicitGeometry,
	createAppearance,
	createProperty,
	createSurfaceData,
	createAppearToSurfaceData,
	createSurfaceDataMapping,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	indexFeatureObjectID,
	indexFeatureObjectclass,
	indexPropertyFeature,
	indexPropertyParent,
	indexGeometryDataFeature,
	indexAppearanceFeature,
	indexImplicitGeometryObjID,
}

// statementsFor returns the schema and index DDL for d.
func statementsFor(d Dialect) []string {
	out := make([]string, 0, len(schemaDDL)+len(indexDDL))
	for _, ddl := range schemaDDL {
		out = append(out, strings.ReplaceAll(ddl, "$BINARY", d.BinaryType()))
	}
	return append(out, indexDDL...)
}
