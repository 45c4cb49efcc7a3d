// Tests for batched table writers and cascading flushes.
package importer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/citydb/internal/database"
	"github.com/mesh-intelligence/citydb/internal/schema"
	"github.com/mesh-intelligence/citydb/pkg/types"
)

// fakeStatement records batches instead of executing them.
type fakeStatement struct {
	query    string
	log      *[]string
	pending  int
	executed []int
	closed   bool
	failWith error
}

func (s *fakeStatement) AddBatch(args ...any) error {
	s.pending++
	return nil
}

func (s *fakeStatement) ExecuteBatch(ctx context.Context) error {
	n := s.pending
	s.pending = 0
	if s.failWith != nil {
		return s.failWith
	}
	s.executed = append(s.executed, n)
	*s.log = append(*s.log, s.query)
	return nil
}

func (s *fakeStatement) Close() error {
	s.closed = true
	return nil
}

// fakeFactory hands out fakeStatements keyed by query and logs the order in
// which they execute.
type fakeFactory struct {
	stmts map[string]*fakeStatement
	order []string
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{stmts: make(map[string]*fakeStatement)}
}

func (f *fakeFactory) prepare(ctx context.Context, query string) (database.BatchStatement, error) {
	s := &fakeStatement{query: query, log: &f.order}
	f.stmts[query] = s
	return s, nil
}

func newHelper(t *testing.T, maxBatchSize int) (*TableHelper, *fakeFactory) {
	t.Helper()
	f := newFakeFactory()
	return NewTableHelper(schema.Default(), maxBatchSize, f.prepare, nil), f
}

func TestAddRowBelowBatchSizeDoesNotFlush(t *testing.T) {
	ctx := context.Background()
	h, f := newHelper(t, 4)
	feature, err := h.Writer(ctx, schema.Feature, "feature")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, feature.AddRow(ctx, i))
	}
	assert.Empty(t, f.stmts["feature"].executed)
	assert.Equal(t, 3, feature.Pending())
}

func TestAddRowAtBatchSizeCascadesOnce(t *testing.T) {
	ctx := context.Background()
	h, f := newHelper(t, 3)
	property, err := h.Writer(ctx, schema.Property, "property")
	require.NoError(t, err)
	feature, err := h.Writer(ctx, schema.Feature, "feature")
	require.NoError(t, err)
	geometry, err := h.Writer(ctx, schema.GeometryData, "geometry_data")
	require.NoError(t, err)
	address, err := h.Writer(ctx, schema.Address, "address")
	require.NoError(t, err)

	require.NoError(t, feature.AddRow(ctx, 1))
	require.NoError(t, geometry.AddRow(ctx, 1))
	require.NoError(t, address.AddRow(ctx, 1))
	for i := 0; i < 3; i++ {
		require.NoError(t, property.AddRow(ctx, i))
	}

	assert.Equal(t, []string{"address", "feature", "geometry_data", "property"}, f.order)
	assert.Equal(t, []int{3}, f.stmts["property"].executed)
	assert.Equal(t, []int{1}, f.stmts["feature"].executed)
	assert.Equal(t, []int{1}, f.stmts["geometry_data"].executed)
	assert.Equal(t, []int{1}, f.stmts["address"].executed)
	assert.Zero(t, h.Pending())
}

func TestCascadeSkipsTablesOutsideCommitOrder(t *testing.T) {
	ctx := context.Background()
	h, f := newHelper(t, 1)
	feature, err := h.Writer(ctx, schema.Feature, "feature")
	require.NoError(t, err)
	property, err := h.Writer(ctx, schema.Property, "property")
	require.NoError(t, err)

	property.maxBatchSize = 10
	require.NoError(t, property.AddRow(ctx, 1))

	require.NoError(t, feature.AddRow(ctx, 1))
	assert.Equal(t, []string{"feature"}, f.order, "feature does not depend on property")
	assert.Equal(t, 1, property.Pending())
}

func TestCascadeFlushesEveryWriterOfATable(t *testing.T) {
	ctx := context.Background()
	h, f := newHelper(t, 2)
	first, err := h.Writer(ctx, schema.Feature, "feature-a")
	require.NoError(t, err)
	second, err := h.Writer(ctx, schema.Feature, "feature-b")
	require.NoError(t, err)

	require.NoError(t, second.AddRow(ctx, 1))
	require.NoError(t, first.AddRow(ctx, 1))
	require.NoError(t, first.AddRow(ctx, 2))

	assert.ElementsMatch(t, []string{"feature-a", "feature-b"}, f.order)
	assert.Zero(t, second.Pending())
}

func TestFlushIsIdempotent(t *testing.T) {
	ctx := context.Background()
	h, f := newHelper(t, 10)
	w, err := h.Writer(ctx, schema.Address, "address")
	require.NoError(t, err)

	require.NoError(t, w.Flush(ctx))
	require.NoError(t, w.AddRow(ctx, 1))
	require.NoError(t, w.Flush(ctx))
	require.NoError(t, w.Flush(ctx))
	assert.Equal(t, []int{1}, f.stmts["address"].executed)
}

func TestFlushFailureWrapsPersistenceError(t *testing.T) {
	ctx := context.Background()
	h, f := newHelper(t, 10)
	w, err := h.Writer(ctx, schema.Address, "address")
	require.NoError(t, err)
	boom := errors.New("constraint violation")
	f.stmts["address"].failWith = boom

	require.NoError(t, w.AddRow(ctx, 1))
	err = w.Flush(ctx)
	assert.ErrorIs(t, err, types.ErrPersistence)
	assert.Contains(t, err.Error(), "constraint violation")
	assert.Zero(t, w.Pending())
}

func TestCloseWithPendingRows(t *testing.T) {
	ctx := context.Background()
	h, f := newHelper(t, 10)
	w, err := h.Writer(ctx, schema.Address, "address")
	require.NoError(t, err)

	require.NoError(t, w.AddRow(ctx, 1))
	err = h.Close()
	assert.ErrorIs(t, err, ErrUnflushedRows)
	assert.True(t, f.stmts["address"].closed, "statement is released anyway")
	assert.Empty(t, f.stmts["address"].executed, "close never flushes")
}

func TestFlushAllUsesGlobalOrder(t *testing.T) {
	ctx := context.Background()
	h, f := newHelper(t, 100)
	for _, tbl := range []schema.Table{schema.Property, schema.Appearance, schema.Feature} {
		w, err := h.Writer(ctx, tbl, string(tbl))
		require.NoError(t, err)
		require.NoError(t, w.AddRow(ctx, 1))
	}

	require.NoError(t, h.FlushAll(ctx))
	assert.Equal(t, []string{"feature", "appearance", "property"}, f.order)
	require.NoError(t, h.Close())
}
