// Package storage keeps computed report snapshots so that a report can be
// fetched again by ID after the run that produced it.
//
// Backends:
//   - [MemoryStore]: process-local, for tests and `widetable serve` without
//     a database
//   - [FileStore]: one JSON file per snapshot, for the CLI
//   - [MongoStore]: shared store for server deployments
//
// Snapshots carry the report as opaque JSON; this package does not depend
// on the pipeline that produces it.
package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	errs "github.com/matzehuels/widetable/pkg/errors"
)

// DefaultListLimit caps [Store.ListReports] when no limit is given.
const DefaultListLimit = 50

// Snapshot is one stored report.
type Snapshot struct {
	ID         string          `json:"id" bson:"_id"`
	CreatedAt  time.Time       `json:"created_at" bson:"created_at"`
	Source     string          `json:"source" bson:"source"`
	SourceHash string          `json:"source_hash" bson:"source_hash"`
	Views      []string        `json:"views" bson:"views"`
	Report     json.RawMessage `json:"report,omitempty" bson:"report,omitempty"`
}

// NewSnapshot wraps an encoded report with a fresh ID and timestamp.
func NewSnapshot(source, sourceHash string, views []string, report json.RawMessage) *Snapshot {
	return &Snapshot{
		ID:         uuid.NewString(),
		CreatedAt:  time.Now().UTC(),
		Source:     source,
		SourceHash: sourceHash,
		Views:      views,
		Report:     report,
	}
}

// Summary drops the report body, as returned by [Store.ListReports].
func (s *Snapshot) Summary() *Snapshot {
	c := *s
	c.Report = nil
	return &c
}

// Store persists snapshots.
type Store interface {
	// SaveReport inserts or replaces the snapshot with s.ID.
	SaveReport(ctx context.Context, s *Snapshot) error

	// GetReport returns the snapshot with id, or a NOT_FOUND error.
	GetReport(ctx context.Context, id string) (*Snapshot, error)

	// ListReports returns summaries, newest first. A limit of zero or
	// less means [DefaultListLimit].
	ListReports(ctx context.Context, limit int) ([]*Snapshot, error)

	// DeleteReport removes a snapshot. Missing IDs are not an error.
	DeleteReport(ctx context.Context, id string) error

	Close() error
}

// ValidateID rejects IDs that are not UUIDs. IDs end up in file names and
// URLs, so anything else is refused early.
func ValidateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errs.New(errs.ErrCodeInvalidInput, "invalid report id %q", id)
	}
	return nil
}

func validateSnapshot(s *Snapshot) error {
	if s == nil {
		return errs.New(errs.ErrCodeInvalidInput, "nil snapshot")
	}
	return ValidateID(s.ID)
}

func notFound(id string) error {
	return errs.New(errs.ErrCodeNotFound, "report %s not found", id)
}

func listLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}
