package database

import (
	"context"
	"fmt"
	"sync"

	"github.com/mesh-intelligence/citydb/internal/schema"
)

// Sequence hands out row ids for one table. It starts after the largest id
// present when it was created and is safe for concurrent use.
type Sequence struct {
	mu   sync.Mutex
	last int64
}

// Next returns the next id.
func (s *Sequence) Next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last++
	return s.last
}

// Sequence returns the id sequence of table, creating it on first use.
// All callers of one Database share the same sequence per table.
func (d *Database) Sequence(ctx context.Context, table schema.Table) (*Sequence, error) {
	d.seqMu.Lock()
	defer d.seqMu.Unlock()
	if s, ok := d.sequences[table]; ok {
		return s, nil
	}
	db, err := d.handle()
	if err != nil {
		return nil, err
	}
	var maxID int64
	query := fmt.Sprintf("SELECT COALESCE(MAX(id), 0) FROM %s", table)
	if err := db.QueryRowContext(ctx, query).Scan(&maxID); err != nil {
		return nil, fmt.Errorf("reading max id of %s: %w", table, err)
	}
	s := &Sequence{last: maxID}
	d.sequences[table] = s
	return s, nil
}
