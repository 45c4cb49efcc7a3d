// Package scratch provides a disk-backed key-value store for payloads that
// should not stay on the heap during long exports, such as implicit
// geometry templates. The store lives in a private temporary directory that
// is removed on Close.
package scratch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

// ErrClosed is returned by operations on a closed Store.
var ErrClosed = errors.New("scratch store is closed")

var bucket = []byte("scratch")

// Store is a bbolt database in a temporary directory. It is safe for
// concurrent use.
type Store struct {
	mu     sync.RWMutex
	dir    string
	db     *bolt.DB
	closed bool
}

// Open creates a store below parent. An empty parent uses the system
// temporary directory.
func Open(parent string) (*Store, error) {
	dir, err := os.MkdirTemp(parent, "citydb-scratch-")
	if err != nil {
		return nil, fmt.Errorf("creating scratch directory: %w", err)
	}
	db, err := bolt.Open(filepath.Join(dir, "scratch.db"), 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("opening scratch store: %w", err)
	}
	db.NoSync = true
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	})
	if err != nil {
		db.Close()
		os.RemoveAll(dir)
		return nil, fmt.Errorf("creating scratch bucket: %w", err)
	}
	return &Store{dir: dir, db: db}, nil
}

// Get returns a copy of the value stored under key.
func (s *Store) Get(key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, false, ErrClosed
	}
	var value []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucket).Get([]byte(key)); v != nil {
			value = append([]byte{}, v...)
		}
		return nil
	})
	return value, value != nil, err
}

// Put stores value under key, replacing any previous value.
func (s *Store) Put(key string, value []byte) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Put([]byte(key), value)
	})
}

// Dir returns the directory holding the store.
func (s *Store) Dir() string { return s.dir }

// Close closes the database and removes its directory. Closing twice is a
// no-op.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return errors.Join(s.db.Close(), os.RemoveAll(s.dir))
}
