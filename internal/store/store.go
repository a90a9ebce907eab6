package store

import (
	"context"
	"fmt"

	"github.com/nhle/seminar-digest/internal/model"
)

// UpsertResult counts how an upsert batch was applied. The counts are for
// reporting only.
type UpsertResult struct {
	Inserted int
	Updated  int
}

// Store defines the persistence interface for events.
type Store interface {
	// Upsert inserts each event, or updates the row sharing its identity
	// key (sender, position, time_begin, time_end).
	Upsert(ctx context.Context, events []model.Event) (UpsertResult, error)

	// SearchByTimeBegin returns events whose time_begin contains substring
	// (case-sensitive), ordered by time_begin then id.
	SearchByTimeBegin(ctx context.Context, substring string) ([]model.Event, error)

	GetEvent(ctx context.Context, id int64) (*model.Event, error)
	CountEvents(ctx context.Context) (int, error)
	Close() error
}

// IOError reports a failure of the underlying database: opening, schema
// changes, or a statement that could not run.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

func ioErr(op string, err error) error {
	return &IOError{Op: op, Err: err}
}
