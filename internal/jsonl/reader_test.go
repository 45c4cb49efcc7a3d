// Tests for reading and writing JSON Lines streams.
package jsonl

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/citydb/pkg/types"
)

func TestReaderSkipsEmptyLines(t *testing.T) {
	r := NewReader(strings.NewReader("{\"a\":1}\n\n{\"b\":2}\n"), "input")
	ctx := context.Background()

	first, err := r.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, Line{Number: 1, Data: []byte(`{"a":1}`)}, first)

	second, err := r.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, second.Number)

	_, err = r.Next(ctx)
	assert.ErrorIs(t, err, io.EOF)
	assert.NoError(t, r.Close())
}

func TestReaderStopsOnCancelledContext(t *testing.T) {
	r := NewReader(strings.NewReader("{}\n"), "input")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriterAndReader(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	for _, id := range []string{"a", "b"} {
		f := types.NewFeature(bldg("Building"))
		f.ObjectID = id
		require.NoError(t, w.Write(f))
	}
	require.NoError(t, w.Close())
	assert.Equal(t, int64(2), w.Count())
	assert.ErrorIs(t, w.Write(types.NewFeature(bldg("Building"))), ErrWriterClosed)

	r := NewReader(&buf, "buffer")
	var ids []string
	for {
		line, err := r.Next(context.Background())
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		f, err := Unmarshal(line.Data)
		require.NoError(t, err)
		ids = append(ids, f.ObjectID)
	}
	assert.Equal(t, []string{"a", "b"}, ids)
}

func TestCreateIsAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "features.jsonl")

	w, err := Create(path)
	require.NoError(t, err)
	require.NoError(t, w.Write(richFeature()))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "nothing is visible before Close")

	require.NoError(t, w.Close())
	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()
	line, err := r.Next(context.Background())
	require.NoError(t, err)
	f, err := Unmarshal(line.Data)
	require.NoError(t, err)
	assert.Equal(t, "bldg-1", f.ObjectID)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "the temp file was renamed")
}

func TestAbortRemovesTempFile(t *testing.T) {
	dir := t.TempDir()
	w, err := Create(filepath.Join(dir, "features.jsonl"))
	require.NoError(t, err)
	require.NoError(t, w.Write(richFeature()))
	w.Abort()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NoError(t, w.Close())
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.jsonl"))
	assert.Error(t, err)
}
