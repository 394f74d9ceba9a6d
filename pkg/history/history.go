// Package history records install runs.
//
// Every `bonnie install` appends one [Record]. Two backends exist:
//   - [FileStore]: one JSON file per run under the user's config directory
//   - [MongoStore]: a MongoDB collection, for CI fleets that want a shared log
package history

import (
	"context"
	"time"
)

// DefaultLimit is how many records List returns when limit <= 0.
const DefaultLimit = 20

// Record describes one install run.
type Record struct {
	ID          string          `json:"id" bson:"_id"`
	StartedAt   time.Time       `json:"started_at" bson:"started_at"`
	Duration    time.Duration   `json:"duration" bson:"duration"`
	ConfigPath  string          `json:"config_path" bson:"config_path"`
	Seeds       []string        `json:"seeds" bson:"seeds"`
	Packages    []PackageRecord `json:"packages" bson:"packages"`
	WrittenBack []string        `json:"written_back,omitempty" bson:"written_back,omitempty"`
	Error       string          `json:"error,omitempty" bson:"error,omitempty"`
}

// PackageRecord is the outcome for one package in a run.
type PackageRecord struct {
	Name    string `json:"name" bson:"name"`
	Version string `json:"version" bson:"version"`
	Path    string `json:"path,omitempty" bson:"path,omitempty"`
	Error   string `json:"error,omitempty" bson:"error,omitempty"`
}

// Failed returns the number of packages that did not download.
func (r *Record) Failed() int {
	n := 0
	for _, p := range r.Packages {
		if p.Error != "" {
			n++
		}
	}
	return n
}

// Store persists records.
type Store interface {
	// Append stores a record. Records are immutable once stored.
	Append(ctx context.Context, rec *Record) error
	// List returns the most recent records, newest first.
	List(ctx context.Context, limit int) ([]*Record, error)
	// Close releases backend resources.
	Close() error
}

// NullStore discards records. Used when history is disabled.
type NullStore struct{}

func (NullStore) Append(context.Context, *Record) error        { return nil }
func (NullStore) List(context.Context, int) ([]*Record, error) { return nil, nil }
func (NullStore) Close() error                                 { return nil }

var _ Store = NullStore{}
