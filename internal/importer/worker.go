package importer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/citydb/internal/schema"
	"github.com/mesh-intelligence/citydb/pkg/types"
)

// Worker writes features on its own connection. It is confined to one
// goroutine at a time.
type Worker struct {
	im      *Importer
	conn    *sql.Conn
	helper  *TableHelper
	writers map[schema.Table]*TableWriter
	log     *logrus.Entry
	closed  bool
}

// Import decomposes f and its contained sub-features into rows and queues
// them. Decomposition errors wrap types.ErrImport and leave nothing queued;
// write errors wrap types.ErrPersistence. On success the descriptors of f,
// its sub-features and their properties are set.
func (w *Worker) Import(ctx context.Context, f *types.Feature) error {
	if w.closed {
		return fmt.Errorf("%w: worker is closed", types.ErrPersistence)
	}
	p := newPlan(w.im)
	if _, err := p.feature(f); err != nil {
		p.release()
		if errors.Is(err, types.ErrImport) {
			return err
		}
		return fmt.Errorf("%w: %v", types.ErrImport, err)
	}

	for _, r := range p.rows {
		if err := w.writers[r.table].AddRow(ctx, r.args...); err != nil {
			return err
		}
	}
	for _, t := range p.targets {
		w.im.refs.Cache(t.cache).PutTarget(t.externalID, t.rowID)
	}
	for _, r := range p.refs {
		w.im.refs.Cache(r.cache).PutReference(r.ref, r.rowID)
	}
	for _, assign := range p.assign {
		assign()
	}

	w.im.features.Add(int64(p.features))
	w.im.properties.Add(int64(p.props))
	w.log.WithFields(logrus.Fields{"objectid": f.ObjectID, "rows": len(p.rows)}).Trace("queued feature")
	return nil
}

// Flush writes all queued rows.
func (w *Worker) Flush(ctx context.Context) error {
	return w.helper.FlushAll(ctx)
}

// Close releases the statements and the connection. Rows that were not
// flushed are discarded and reported by ErrUnflushedRows.
func (w *Worker) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	err := errors.Join(w.helper.Close(), w.conn.Close())
	w.im.release(w)
	return err
}
