package jsonl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
)

// maxLineSize bounds one feature line.
const maxLineSize = 64 << 20

// Line is one raw record with its 1-based line number.
type Line struct {
	Number int
	Data   []byte
}

// Reader yields the non-empty lines of a JSON Lines stream. Lines are not
// decoded, so that decoding can run in parallel.
type Reader struct {
	name    string
	scanner *bufio.Scanner
	closer  io.Closer
	line    int
}

// NewReader reads lines from r. name labels errors.
func NewReader(r io.Reader, name string) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Reader{name: name, scanner: scanner}
}

// Open reads lines from the file at path. Close releases the file.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	r := NewReader(f, path)
	r.closer = f
	return r, nil
}

// Next returns the next non-empty line, or io.EOF at the end of the stream.
func (r *Reader) Next(ctx context.Context) (Line, error) {
	for r.scanner.Scan() {
		r.line++
		if err := ctx.Err(); err != nil {
			return Line{}, err
		}
		data := r.scanner.Bytes()
		if len(data) == 0 {
			continue
		}
		return Line{Number: r.line, Data: append([]byte(nil), data...)}, nil
	}
	if err := r.scanner.Err(); err != nil {
		return Line{}, fmt.Errorf("scanning %s: %w", r.name, err)
	}
	return Line{}, io.EOF
}

// Name returns the name the reader was created with.
func (r *Reader) Name() string { return r.name }

// Close releases the underlying file, if any.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}
