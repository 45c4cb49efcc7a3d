// Package exporter reconstructs feature graphs from the relational schema.
//
// An Exporter loads one feature at a time: a HierarchyBuilder reads the
// feature's rows and those of its contained sub-features into a Hierarchy,
// and a PropertyBuilder turns the property rows into properties. Objects
// shared within one exported graph are embedded once and referenced
// afterwards. Referenced features that are not top level are exported
// recursively; top-level ones become references.
package exporter

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/citydb/internal/database"
	"github.com/mesh-intelligence/citydb/internal/schema"
	"github.com/mesh-intelligence/citydb/internal/scratch"
	"github.com/mesh-intelligence/citydb/pkg/types"
)

// Options configures an Exporter.
type Options struct {
	// TemplateCacheSize is the number of templates kept on the heap. Zero
	// selects DefaultTemplateCacheSize.
	TemplateCacheSize int
	// ScratchDir is where evicted templates are spilled. Empty uses the
	// system temporary directory.
	ScratchDir string
}

// Exporter is an export session against one database. It is safe for
// concurrent use; each Export call owns its own hierarchy state.
type Exporter struct {
	db        *database.Database
	classes   *schema.ObjectClasses
	templates *TemplateCache
	spill     *scratch.Store
	log       *logrus.Entry
	exported  atomic.Int64
}

// New starts an export session. Close releases the scratch store.
func New(db *database.Database, opts Options, log *logrus.Entry) (*Exporter, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	spill, err := scratch.Open(opts.ScratchDir)
	if err != nil {
		return nil, err
	}
	e := &Exporter{
		db:      db,
		classes: db.ObjectClasses(),
		spill:   spill,
		log:     log.WithField("component", "exporter"),
	}
	e.templates, err = NewTemplateCache(opts.TemplateCacheSize, spill, e.loadTemplates, e.log)
	if err != nil {
		spill.Close()
		return nil, err
	}
	return e, nil
}

// Export returns the feature graph rooted at feature row id. A missing row
// yields an error matching types.ErrNotFound.
func (e *Exporter) Export(ctx context.Context, id int64) (*types.Feature, error) {
	u := &unit{e: e}
	u.helper = NewExportHelper(u, e.classes.IsTopLevel)
	u.props = NewPropertyBuilder(u.helper)

	f, err := u.ExportFeature(ctx, id, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: feature %d: %w", types.ErrExport, id, err)
	}
	if f == nil {
		return nil, fmt.Errorf("%w: %w: feature %d", types.ErrExport, types.ErrNotFound, id)
	}
	e.exported.Add(1)
	return f, nil
}

// Exported returns the number of features exported so far.
func (e *Exporter) Exported() int64 { return e.exported.Load() }

// Close removes the scratch store.
func (e *Exporter) Close() error { return e.spill.Close() }

// unit is the state of one Export call: every hierarchy it loads shares
// one helper, so an object is embedded at most once per exported graph.
type unit struct {
	e      *Exporter
	helper *ExportHelper
	props  *PropertyBuilder
}

// ExportFeature loads the graph rooted at id. Features in inline are
// referenced instead of embedded. It returns nil if the row does not exist.
func (u *unit) ExportFeature(ctx context.Context, id int64, inline []int64) (*types.Feature, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h, err := newHierarchyBuilder(u.e, u.e.db.DB(), u.props, id, inline).build(ctx)
	if err != nil {
		return nil, err
	}
	if h.Root() != nil {
		u.e.log.WithFields(logrus.Fields{
			"feature":  id,
			"objectid": h.Root().ObjectID,
		}).Trace("exported feature")
	}
	return h.Root(), nil
}

// loadTemplates reads implicit geometry templates together with their
// relative geometry.
func (e *Exporter) loadTemplates(ctx context.Context, ids []int64) (map[int64]*TemplateRecord, error) {
	out := make(map[int64]*TemplateRecord, len(ids))
	d := e.db.Dialect()
	for start := 0; start < len(ids); start += maxInParams {
		chunk := ids[start:min(start+maxInParams, len(ids))]
		query := "SELECT ig.id, ig.objectid, ig.mime_type, ig.library_object, g.implicit_geometry, g.geometry_properties" +
			" FROM implicit_geometry ig LEFT JOIN geometry_data g ON g.id = ig.relative_geometry_id" +
			" WHERE " + database.InSQL(d, "ig.id", 1, len(chunk))
		args := make([]any, len(chunk))
		for i, id := range chunk {
			args[i] = id
		}
		err := queryRows(ctx, e.db.DB(), query, args, func(rows *sql.Rows) error {
			var (
				id                 int64
				objectID, mimeType sql.NullString
				library            []byte
				wkt, props         sql.NullString
			)
			if err := rows.Scan(&id, &objectID, &mimeType, &library, &wkt, &props); err != nil {
				return fmt.Errorf("scanning template row: %w", err)
			}
			rec := &TemplateRecord{
				ObjectID:      objectID.String,
				MimeType:      mimeType.String,
				LibraryObject: library,
				WKT:           wkt.String,
			}
			if props.Valid {
				rec.Properties = []byte(props.String)
			}
			out[id] = rec
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("loading implicit_geometry rows: %w", err)
		}
	}
	return out, nil
}
