// Package store persists digital parchis behind a single interface with
// SQLite and Postgres implementations. Records are keyed by parchi ID;
// callers own retry and backoff policy.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/mandi-setu/parchi-cli/internal/model"
)

// ParchiFilter specifies criteria for listing parchis. Zero values mean
// "no constraint"; results are newest-first.
type ParchiFilter struct {
	Status model.ParchiStatus `json:"status,omitempty"`
	Since  *time.Time         `json:"since,omitempty"`
	Until  *time.Time         `json:"until,omitempty"`
	Limit  int                `json:"limit,omitempty"`
	Offset int                `json:"offset,omitempty"`
}

// ParchiUpdate carries the mutable parchi fields. Nil means "leave as is".
type ParchiUpdate struct {
	Status   *model.ParchiStatus `json:"status,omitempty"`
	VendorID *string             `json:"vendor_id,omitempty"`
}

// Store defines the persistence interface for digital parchis.
type Store interface {
	// SaveParchi inserts the parchi and returns its ID.
	SaveParchi(ctx context.Context, parchi *model.DigitalParchi) (string, error)

	// GetParchi returns the parchi, or (nil, nil) when no record exists.
	GetParchi(ctx context.Context, id string) (*model.DigitalParchi, error)

	// ListParchis returns parchis matching the filter, newest first.
	ListParchis(ctx context.Context, filter ParchiFilter) ([]model.DigitalParchi, error)

	// UpdateParchi applies the update. The bool reports whether a record
	// was found.
	UpdateParchi(ctx context.Context, id string, update ParchiUpdate) (bool, error)

	// DeleteParchi removes the record. The bool reports whether a record
	// was found.
	DeleteParchi(ctx context.Context, id string) (bool, error)

	// CountParchis returns the number of stored parchis.
	CountParchis(ctx context.Context) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// New opens a store for the configured driver.
func New(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "sqlite", "":
		if dsn == "" {
			dsn = "parchi.db"
		}
		return NewSQLite(dsn)
	case "postgres":
		return NewPostgres(ctx, dsn, nil)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
}
