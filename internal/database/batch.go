package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrStatementClosed is returned when a closed BatchStatement is used.
var ErrStatementClosed = errors.New("batch statement is closed")

// BatchStatement accumulates parameter rows for one SQL statement and
// executes them together.
type BatchStatement interface {
	// AddBatch queues one row of arguments.
	AddBatch(args ...any) error
	// ExecuteBatch runs every queued row and clears the queue, whether or
	// not execution succeeded.
	ExecuteBatch(ctx context.Context) error
	Close() error
}

// Preparer is satisfied by *sql.DB and *sql.Conn.
type Preparer interface {
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// stmtBatch executes its queued rows in one transaction per ExecuteBatch so
// that a batch is applied completely or not at all.
type stmtBatch struct {
	p     Preparer
	query string
	stmt  *sql.Stmt
	rows  [][]any
}

// PrepareBatch prepares query on p and returns a BatchStatement for it.
func PrepareBatch(ctx context.Context, p Preparer, query string) (BatchStatement, error) {
	stmt, err := p.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("preparing %q: %w", query, err)
	}
	return &stmtBatch{p: p, query: query, stmt: stmt}, nil
}

func (b *stmtBatch) AddBatch(args ...any) error {
	if b.stmt == nil {
		return ErrStatementClosed
	}
	b.rows = append(b.rows, append([]any(nil), args...))
	return nil
}

func (b *stmtBatch) ExecuteBatch(ctx context.Context) error {
	if b.stmt == nil {
		return ErrStatementClosed
	}
	if len(b.rows) == 0 {
		return nil
	}
	rows := b.rows
	b.rows = nil

	tx, err := b.p.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning batch transaction: %w", err)
	}
	defer tx.Rollback()

	stmt := tx.StmtContext(ctx, b.stmt)
	defer stmt.Close()
	for i, args := range rows {
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("executing row %d of %d: %w", i+1, len(rows), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing batch: %w", err)
	}
	return nil
}

// Close releases the prepared statement and drops queued rows.
func (b *stmtBatch) Close() error {
	if b.stmt == nil {
		return nil
	}
	err := b.stmt.Close()
	b.stmt = nil
	b.rows = nil
	return err
}
