package importer

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/citydb/internal/database"
	"github.com/mesh-intelligence/citydb/internal/schema"
)

// StatementFactory prepares a batch statement for query.
type StatementFactory func(ctx context.Context, query string) (database.BatchStatement, error)

// TableHelper owns the table writers of one persist worker and runs the
// cascading flushes between them.
type TableHelper struct {
	graph        *schema.Graph
	prepare      StatementFactory
	maxBatchSize int
	log          *logrus.Entry

	writers map[schema.Table][]*TableWriter
	all     []*TableWriter
}

// NewTableHelper returns a helper whose writers flush after maxBatchSize
// rows. A non-positive maxBatchSize is treated as 1.
func NewTableHelper(graph *schema.Graph, maxBatchSize int, prepare StatementFactory, log *logrus.Entry) *TableHelper {
	if maxBatchSize < 1 {
		maxBatchSize = 1
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &TableHelper{
		graph:        graph,
		prepare:      prepare,
		maxBatchSize: maxBatchSize,
		log:          log,
		writers:      make(map[schema.Table][]*TableWriter),
	}
}

// Writer prepares query and registers a new writer for table.
func (h *TableHelper) Writer(ctx context.Context, table schema.Table, query string) (*TableWriter, error) {
	stmt, err := h.prepare(ctx, query)
	if err != nil {
		return nil, err
	}
	w := &TableWriter{table: table, stmt: stmt, helper: h, maxBatchSize: h.maxBatchSize}
	h.writers[table] = append(h.writers[table], w)
	h.all = append(h.all, w)
	return w, nil
}

// FlushCascade flushes every writer of every table in the commit order of
// table, ending with table itself. It stops at the first error.
func (h *TableHelper) FlushCascade(ctx context.Context, table schema.Table) error {
	for _, t := range h.graph.CommitOrder(table) {
		for _, w := range h.writers[t] {
			if err := w.Flush(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

// FlushAll flushes every writer in global commit order.
func (h *TableHelper) FlushAll(ctx context.Context) error {
	for _, t := range h.graph.Tables() {
		for _, w := range h.writers[t] {
			if err := w.Flush(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

// Pending returns the number of unflushed rows across all writers.
func (h *TableHelper) Pending() int {
	n := 0
	for _, w := range h.all {
		n += w.count
	}
	return n
}

// Close closes every writer and joins their errors.
func (h *TableHelper) Close() error {
	var errs []error
	for _, w := range h.all {
		errs = append(errs, w.Close())
	}
	h.writers = make(map[schema.Table][]*TableWriter)
	h.all = nil
	return errors.Join(errs...)
}

func (h *TableHelper) flushed(table schema.Table, rows int) {
	h.log.WithFields(logrus.Fields{"table": string(table), "rows": rows}).Trace("flushed batch")
}
