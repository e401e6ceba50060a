// Package resultstore persists one clustering record per cluster count.
//
// Records are self-describing: an outer plain-JSON header names the codec
// and compression used for the inner payload, so readers never depend on
// the writer's configuration. Two backends exist — blob (object store or
// local filesystem) and badger (embedded KV) — selected at wiring time.
package resultstore

import (
	"context"
	"errors"
	"time"

	"github.com/fleetsense/clusterkit/kmeans"
)

// ErrNotFound is returned when no record exists for the requested k.
var ErrNotFound = errors.New("resultstore: no record for cluster count")

// Envelope wraps a clustering result with the provenance needed for
// freshness checks against the source dataset.
type Envelope struct {
	// DatasetTag is the content hash of the dataset the result was
	// computed from.
	DatasetTag string `json:"dataset_tag"`
	// WrittenAt is the record's last-write time. Backends that track
	// modification time natively (blob stores) overwrite it on Stat/Load
	// so the freshness rule sees storage truth.
	WrittenAt time.Time      `json:"written_at"`
	Result    *kmeans.Result `json:"result"`
}

// Meta describes a record without loading its payload.
type Meta struct {
	Exists    bool
	WrittenAt time.Time
}

// Store is a durable per-k record store.
// Implementations must be safe for concurrent use.
type Store interface {
	// Stat describes the record for k without loading the result.
	Stat(ctx context.Context, k int) (Meta, error)
	// Load returns the record for k, or ErrNotFound.
	Load(ctx context.Context, k int) (*Envelope, error)
	// Save writes the record for k, replacing any previous one.
	// A zero env.WrittenAt is stamped with the current time.
	Save(ctx context.Context, k int, env *Envelope) error
	// Delete removes the record for k. Missing records are not an error.
	Delete(ctx context.Context, k int) error
}
