package database

// Column lists shared by the importer's INSERT statements and the
// exporter's SELECT statements.
var (
	FeatureColumns = []string{
		"id", "objectclass_id", "objectid", "identifier", "identifier_codespace",
		"envelope", "creation_date", "last_modification_date",
	}

	GeometryDataColumns = []string{
		"id", "geometry", "implicit_geometry", "geometry_properties", "feature_id",
	}

	ImplicitGeometryColumns = []string{
		"id", "objectid", "mime_type", "library_object", "relative_geometry_id",
	}

	AppearanceColumns = []string{
		"id", "objectid", "identifier", "theme", "is_global", "feature_id", "implicit_geometry_id",
	}

	AddressColumns = []string{
		"id", "objectid", "identifier", "street", "house_number", "po_box", "zip_code",
		"city", "state", "country", "free_text", "multi_point",
	}

	PropertyColumns = []string{
		"id", "feature_id", "parent_id", "datatype_id", "namespace_id", "name",
		"val_int", "val_double", "val_string", "val_timestamp", "val_uri",
		"val_codespace", "val_uom", "val_array", "val_lod",
		"val_geometry_id", "val_implicitgeom_id", "val_implicitgeom_refpoint",
		"val_appearance_id", "val_address_id", "val_feature_id", "val_relation_type",
		"val_content", "val_content_mime_type",
	}
)
