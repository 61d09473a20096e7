// Package memory provides the append-only question/answer log for parley.
//
// Every successful conversation turn appends exactly one [Record]. Records are
// never updated or deleted and duplicates are allowed. The log is a write path
// for the chat surfaces and a read path for operators only: nothing in a turn
// reads it back into a prompt.
//
// Drivers are pluggable via configuration:
//
//	[storage]
//	provider = "sqlite"   # or "postgres", "memory"
package memory

import (
	"context"
	"time"
)

// Driver persists memory records.
// Implementations must be safe for concurrent use.
type Driver interface {
	// Append stores a record and returns it with ID and CreatedAt assigned.
	Append(ctx context.Context, rec Record) (Record, error)

	// List returns up to limit records, newest first. A non-positive limit
	// returns every record.
	List(ctx context.Context, limit int) ([]Record, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)

	// Close releases driver resources.
	Close() error
}

// Record is one remembered exchange.
type Record struct {
	// ID is assigned by the driver, increasing with insertion order.
	ID int64 `json:"id"`

	// Question is the user's text exactly as submitted.
	Question string `json:"question"`

	// Answer is the model's reply.
	Answer string `json:"answer"`

	// CreatedAt is assigned by the driver when zero.
	CreatedAt time.Time `json:"created_at"`
}

// NewRecord builds a record for a question and answer.
func NewRecord(question, answer string) Record {
	return Record{
		Question: question,
		Answer:   answer,
	}
}
