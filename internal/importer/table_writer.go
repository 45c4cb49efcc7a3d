package importer

import (
	"context"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/citydb/internal/database"
	"github.com/mesh-intelligence/citydb/internal/schema"
	"github.com/mesh-intelligence/citydb/pkg/types"
)

// ErrUnflushedRows is returned by Close when rows were added after the last
// flush. The rows are discarded.
var ErrUnflushedRows = errors.New("table writer closed with unflushed rows")

// TableWriter accumulates rows for one table. When the number of pending
// rows reaches the batch size, the writer flushes its own table together
// with every table it depends on, dependencies first. A TableWriter belongs
// to one persist worker and is not safe for concurrent use.
type TableWriter struct {
	table        schema.Table
	stmt         database.BatchStatement
	helper       *TableHelper
	maxBatchSize int
	count        int
}

// Table returns the table the writer inserts into.
func (w *TableWriter) Table() schema.Table { return w.table }

// Pending returns the number of rows added since the last flush.
func (w *TableWriter) Pending() int { return w.count }

// AddRow queues one row. It may flush this and other tables.
func (w *TableWriter) AddRow(ctx context.Context, values ...any) error {
	if err := w.stmt.AddBatch(values...); err != nil {
		return fmt.Errorf("%w: adding row to %s: %v", types.ErrPersistence, w.table, err)
	}
	w.count++
	if w.count >= w.maxBatchSize {
		return w.helper.FlushCascade(ctx, w.table)
	}
	return nil
}

// Flush executes the pending rows. It does nothing when no rows are
// pending.
func (w *TableWriter) Flush(ctx context.Context) error {
	if w.count == 0 {
		return nil
	}
	n := w.count
	w.count = 0
	if err := w.stmt.ExecuteBatch(ctx); err != nil {
		return fmt.Errorf("%w: flushing %d rows into %s: %v", types.ErrPersistence, n, w.table, err)
	}
	w.helper.flushed(w.table, n)
	return nil
}

// Close releases the statement. Pending rows are not written; Close then
// returns ErrUnflushedRows.
func (w *TableWriter) Close() error {
	err := w.stmt.Close()
	if w.count > 0 {
		n := w.count
		w.count = 0
		return errors.Join(fmt.Errorf("%w: %d rows for %s", ErrUnflushedRows, n, w.table), err)
	}
	return err
}
