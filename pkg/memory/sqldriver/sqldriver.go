// Package sqldriver implements memory.Driver over database/sql. The sqlite and
// postgres packages open a connection and pick a Dialect.
package sqldriver

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/papercomputeco/parley/pkg/memory"
)

// Dialect holds the statements that differ between SQL engines.
type Dialect struct {
	Name   string
	Schema string
	Insert string
	List   string
	ListN  string
	Count  string
}

// SQLite is the dialect for github.com/mattn/go-sqlite3.
var SQLite = Dialect{
	Name: "sqlite",
	Schema: `CREATE TABLE IF NOT EXISTS memory_records (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	question TEXT NOT NULL,
	answer TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
)`,
	Insert: `INSERT INTO memory_records (question, answer, created_at) VALUES (?, ?, ?) RETURNING id`,
	List:   `SELECT id, question, answer, created_at FROM memory_records ORDER BY id DESC`,
	ListN:  `SELECT id, question, answer, created_at FROM memory_records ORDER BY id DESC LIMIT ?`,
	Count:  `SELECT COUNT(*) FROM memory_records`,
}

// Postgres is the dialect for github.com/jackc/pgx/v5/stdlib.
var Postgres = Dialect{
	Name: "postgres",
	Schema: `CREATE TABLE IF NOT EXISTS memory_records (
	id BIGSERIAL PRIMARY KEY,
	question TEXT NOT NULL,
	answer TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
)`,
	Insert: `INSERT INTO memory_records (question, answer, created_at) VALUES ($1, $2, $3) RETURNING id`,
	List:   `SELECT id, question, answer, created_at FROM memory_records ORDER BY id DESC`,
	ListN:  `SELECT id, question, answer, created_at FROM memory_records ORDER BY id DESC LIMIT $1`,
	Count:  `SELECT COUNT(*) FROM memory_records`,
}

// Driver implements memory.Driver on a *sql.DB.
type Driver struct {
	DB      *sql.DB
	Dialect Dialect
}

// New creates the memory_records table if needed and returns a Driver.
// The Driver owns db and closes it on Close.
func New(ctx context.Context, db *sql.DB, dialect Dialect) (*Driver, error) {
	if _, err := db.ExecContext(ctx, dialect.Schema); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Driver{DB: db, Dialect: dialect}, nil
}

// Append inserts rec.
func (d *Driver) Append(ctx context.Context, rec memory.Record) (memory.Record, error) {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	err := d.DB.QueryRowContext(ctx, d.Dialect.Insert, rec.Question, rec.Answer, rec.CreatedAt).Scan(&rec.ID)
	if err != nil {
		return memory.Record{}, fmt.Errorf("inserting memory record: %w", err)
	}

	return rec, nil
}

// List returns records newest first.
func (d *Driver) List(ctx context.Context, limit int) ([]memory.Record, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if limit > 0 {
		rows, err = d.DB.QueryContext(ctx, d.Dialect.ListN, limit)
	} else {
		rows, err = d.DB.QueryContext(ctx, d.Dialect.List)
	}
	if err != nil {
		return nil, fmt.Errorf("listing memory records: %w", err)
	}
	defer rows.Close()

	var result []memory.Record
	for rows.Next() {
		var rec memory.Record
		if err := rows.Scan(&rec.ID, &rec.Question, &rec.Answer, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning memory record: %w", err)
		}
		result = append(result, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing memory records: %w", err)
	}

	return result, nil
}

// Count returns the number of stored records.
func (d *Driver) Count(ctx context.Context) (int, error) {
	var n int
	if err := d.DB.QueryRowContext(ctx, d.Dialect.Count).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting memory records: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (d *Driver) Close() error {
	return d.DB.Close()
}

// Ensure Driver implements memory.Driver
var _ memory.Driver = (*Driver)(nil)
