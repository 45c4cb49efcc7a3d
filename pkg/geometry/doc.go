// Package geometry holds the geometry object model shared by the importer and
// exporter together with its WKT codec.
//
// Geometries are built once by a constructor or by Parse and are immutable
// afterwards, except for the SRID and the object id. Structural information
// that WKT cannot express (solids, composite surfaces, reversed polygons) is
// carried separately by Properties and restored with Rebuild.
package geometry
