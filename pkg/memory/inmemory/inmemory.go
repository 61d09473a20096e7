// Package inmemory provides an in-memory memory.Driver for tests and
// ephemeral sessions.
package inmemory

import (
	"context"
	"sync"
	"time"

	"github.com/papercomputeco/parley/pkg/memory"
)

// Driver implements memory.Driver using a slice.
type Driver struct {
	// mu guards records, nextID and closed
	mu sync.RWMutex

	records []memory.Record
	nextID  int64
	closed  bool
}

// NewDriver creates a new in-memory driver.
func NewDriver() *Driver {
	return &Driver{nextID: 1}
}

// Append stores a copy of rec.
func (d *Driver) Append(_ context.Context, rec memory.Record) (memory.Record, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return memory.Record{}, memory.ErrClosed
	}

	rec.ID = d.nextID
	d.nextID++
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	d.records = append(d.records, rec)
	return rec, nil
}

// List returns records newest first.
func (d *Driver) List(_ context.Context, limit int) ([]memory.Record, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return nil, memory.ErrClosed
	}

	n := len(d.records)
	if limit > 0 && limit < n {
		n = limit
	}

	result := make([]memory.Record, 0, n)
	for i := len(d.records) - 1; i >= 0 && len(result) < n; i-- {
		result = append(result, d.records[i])
	}

	return result, nil
}

// Count returns the number of stored records.
func (d *Driver) Count(_ context.Context) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return 0, memory.ErrClosed
	}

	return len(d.records), nil
}

// Close marks the driver closed. Stored records are discarded.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closed = true
	d.records = nil
	return nil
}

// Ensure Driver implements memory.Driver
var _ memory.Driver = (*Driver)(nil)
