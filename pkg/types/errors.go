package types

import "errors"

// Engine errors. Callers match them with errors.Is; the concrete error
// carries the feature, property or table context.
var (
	ErrImport      = errors.New("import failed")
	ErrExport      = errors.New("export failed")
	ErrBuild       = errors.New("failed to build property")
	ErrPersistence = errors.New("failed to persist batch")
	ErrNotFound    = errors.New("entity not found")
	ErrUnknownType = errors.New("unknown object class")
	ErrInvalidData = errors.New("invalid entity data")
)
