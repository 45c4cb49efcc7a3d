package jsonl

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/mesh-intelligence/citydb/pkg/types"
)

// ErrWriterClosed is returned by Write after Close or Abort.
var ErrWriterClosed = errors.New("feature writer is closed")

// Writer appends features to a JSON Lines stream. It is safe for
// concurrent use; lines are written in call order.
type Writer struct {
	mu     sync.Mutex
	w      *bufio.Writer
	tmp    *os.File
	path   string
	count  int64
	closed bool
}

// NewWriter writes lines to w. Close flushes but does not close w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Create writes lines to a temporary file next to path. Close syncs the
// file and renames it to path, so readers never observe a partial file;
// Abort removes it.
func Create(path string) (*Writer, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".jsonl-*.tmp")
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}
	return &Writer{w: bufio.NewWriter(tmp), tmp: tmp, path: path}, nil
}

// Write encodes f as one line.
func (w *Writer) Write(f *types.Feature) error {
	data, err := Marshal(f)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrWriterClosed
	}
	if _, err := w.w.Write(data); err != nil {
		return fmt.Errorf("writing record: %w", err)
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return fmt.Errorf("writing newline: %w", err)
	}
	w.count++
	return nil
}

// Count returns the number of features written.
func (w *Writer) Count() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

// Close flushes buffered lines and, for writers from Create, moves the file
// into place. Closing twice is a no-op.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	if err := w.w.Flush(); err != nil {
		w.discard()
		return fmt.Errorf("flushing buffer: %w", err)
	}
	if w.tmp == nil {
		return nil
	}
	if err := w.tmp.Sync(); err != nil {
		w.discard()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := w.tmp.Close(); err != nil {
		os.Remove(w.tmp.Name())
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(w.tmp.Name(), w.path); err != nil {
		os.Remove(w.tmp.Name())
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// Abort drops the output of a writer from Create.
func (w *Writer) Abort() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.closed = true
	w.discard()
}

func (w *Writer) discard() {
	if w.tmp != nil {
		w.tmp.Close()
		os.Remove(w.tmp.Name())
	}
}
