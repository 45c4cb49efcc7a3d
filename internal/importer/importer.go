// Package importer writes feature graphs into the relational schema.
//
// An Importer is one import session. Each persist worker obtains its own
// Worker, which decomposes features into rows and writes them through
// batched, dependency-ordered table writers on a dedicated connection.
// References between objects are collected in a session-wide
// ReferenceCache; link columns that point at rows written by other workers
// or later in the input are filled by Finish in a second pass.
package importer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/citydb/internal/database"
	"github.com/mesh-intelligence/citydb/internal/schema"
	"github.com/mesh-intelligence/citydb/pkg/types"
)

// ErrFinished is returned when a finished session is used.
var ErrFinished = errors.New("import session is finished")

// sequenceTables are the tables whose ids the importer assigns.
var sequenceTables = []schema.Table{
	schema.Feature,
	schema.GeometryData,
	schema.ImplicitGeometry,
	schema.Appearance,
	schema.Address,
	schema.Property,
}

// Importer is an import session against one database.
type Importer struct {
	db      *database.Database
	graph   *schema.Graph
	classes *schema.ObjectClasses
	refs    *ReferenceCache
	seqs    map[schema.Table]*database.Sequence
	log     *logrus.Entry
	now     func() time.Time

	features   atomic.Int64
	properties atomic.Int64

	mu       sync.Mutex
	workers  map[*Worker]struct{}
	finished bool
}

// Summary reports the outcome of an import session.
type Summary struct {
	Features   int64
	Properties int64
	Resolved   int
	Unresolved int
}

// New starts an import session. The database must be initialized.
func New(ctx context.Context, db *database.Database, log *logrus.Entry) (*Importer, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	im := &Importer{
		db:      db,
		graph:   schema.Default(),
		classes: db.ObjectClasses(),
		refs:    NewReferenceCache(),
		seqs:    make(map[schema.Table]*database.Sequence, len(sequenceTables)),
		log:     log.WithField("component", "importer"),
		now:     time.Now,
		workers: make(map[*Worker]struct{}),
	}
	for _, t := range sequenceTables {
		seq, err := db.Sequence(ctx, t)
		if err != nil {
			return nil, err
		}
		im.seqs[t] = seq
	}
	return im, nil
}

// References returns the session's reference cache.
func (im *Importer) References() *ReferenceCache { return im.refs }

// Stats returns the number of features and properties imported so far.
func (im *Importer) Stats() (features, properties int64) {
	return im.features.Load(), im.properties.Load()
}

// insertStatements maps the tables a Worker writes to their INSERT columns,
// in commit order.
var insertStatements = []struct {
	table   schema.Table
	columns []string
}{
	{schema.Address, database.AddressColumns},
	{schema.Feature, database.FeatureColumns},
	{schema.GeometryData, database.GeometryDataColumns},
	{schema.ImplicitGeometry, database.ImplicitGeometryColumns},
	{schema.Appearance, database.AppearanceColumns},
	{schema.Property, database.PropertyColumns},
}

// NewWorker opens a dedicated connection and prepares the table writers.
// A Worker must be used by one goroutine at a time.
func (im *Importer) NewWorker(ctx context.Context) (*Worker, error) {
	im.mu.Lock()
	finished := im.finished
	im.mu.Unlock()
	if finished {
		return nil, ErrFinished
	}

	conn, err := im.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: opening worker connection: %v", types.ErrPersistence, err)
	}
	prepare := func(ctx context.Context, query string) (database.BatchStatement, error) {
		return database.PrepareBatch(ctx, conn, query)
	}
	w := &Worker{
		im:      im,
		conn:    conn,
		writers: make(map[schema.Table]*TableWriter, len(insertStatements)),
		log:     im.log,
	}
	w.helper = NewTableHelper(im.graph, im.db.BatchSize(), prepare, im.log)
	for _, s := range insertStatements {
		tw, err := w.helper.Writer(ctx, s.table, database.InsertSQL(im.db.Dialect(), string(s.table), s.columns))
		if err != nil {
			w.helper.Close()
			conn.Close()
			return nil, fmt.Errorf("%w: %v", types.ErrPersistence, err)
		}
		w.writers[s.table] = tw
	}

	im.mu.Lock()
	im.workers[w] = struct{}{}
	im.mu.Unlock()
	return w, nil
}

// Finish resolves the references recorded by all workers and updates the
// link columns. Every worker must be flushed and closed first. Unresolved
// references are logged and counted; their link columns stay NULL.
func (im *Importer) Finish(ctx context.Context) (Summary, error) {
	im.mu.Lock()
	if im.finished {
		im.mu.Unlock()
		return Summary{}, ErrFinished
	}
	open := len(im.workers)
	im.finished = true
	im.mu.Unlock()
	if open > 0 {
		return Summary{}, fmt.Errorf("%w: %d workers still open", types.ErrPersistence, open)
	}

	summary := Summary{Features: im.features.Load(), Properties: im.properties.Load()}
	for _, t := range cacheTypes {
		cache := im.refs.Cache(t)
		resolved, unresolved := cache.Resolve()
		for _, r := range unresolved {
			im.log.WithFields(logrus.Fields{
				"cache":    t.String(),
				"target":   r.Reference.Target,
				"property": r.RowID,
			}).Warn("unresolved reference")
		}
		summary.Unresolved += len(unresolved)
		if len(resolved) == 0 {
			continue
		}
		if err := im.updateLinks(ctx, t, resolved); err != nil {
			return summary, err
		}
		summary.Resolved += len(resolved)
	}
	im.log.WithFields(logrus.Fields{
		"features":   summary.Features,
		"resolved":   summary.Resolved,
		"unresolved": summary.Unresolved,
	}).Info("import session finished")
	return summary, nil
}

// updateLinks writes resolved links in batches on the shared pool.
func (im *Importer) updateLinks(ctx context.Context, t CacheType, links []Link) error {
	query := database.UpdateSQL(im.db.Dialect(), string(schema.Property), t.linkColumn(), "id")
	stmt, err := database.PrepareBatch(ctx, im.db.DB(), query)
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrPersistence, err)
	}
	defer stmt.Close()

	batchSize := im.db.BatchSize()
	for i, l := range links {
		if err := stmt.AddBatch(l.TargetID, l.RowID); err != nil {
			return fmt.Errorf("%w: %v", types.ErrPersistence, err)
		}
		if (i+1)%batchSize == 0 || i == len(links)-1 {
			if err := stmt.ExecuteBatch(ctx); err != nil {
				return fmt.Errorf("%w: resolving %s references: %v", types.ErrPersistence, t, err)
			}
		}
	}
	return nil
}

func (im *Importer) release(w *Worker) {
	im.mu.Lock()
	delete(im.workers, w)
	im.mu.Unlock()
}
