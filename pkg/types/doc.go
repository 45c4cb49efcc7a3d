// Package types defines the feature graph model exchanged between the
// importer, the exporter and the format readers and writers: features,
// their typed properties, scalar values, references and the engine
// configuration, together with the standard errors of the engine.
package types
