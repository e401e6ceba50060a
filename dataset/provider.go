// Package dataset loads and caches the dimensionality-reduced telemetry
// projection produced by the offline reduction job.
//
// The provider never fabricates data: if the artifact is missing, callers
// get ErrNotFound and must surface it, not mask it with an empty projection.
package dataset

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fleetsense/clusterkit/blobstore"
	"github.com/fleetsense/clusterkit/codec"
)

// ErrNotFound is returned when the reduced-dataset artifact does not exist
// in durable storage.
var ErrNotFound = errors.New("dataset: reduced dataset artifact not found")

// Freshness describes the durable artifact without loading its payload.
type Freshness struct {
	Exists       bool
	LastModified time.Time
}

// Provider lazily loads the reduced dataset and caches it in memory with a
// content-hash freshness tag. Safe for concurrent use.
type Provider struct {
	store blobstore.Store
	name  string
	codec codec.Codec

	mu     sync.Mutex
	cached *ReducedDataset
}

// NewProvider creates a provider reading the named artifact from store.
// If c is nil, codec.Default is used.
func NewProvider(store blobstore.Store, name string, c codec.Codec) *Provider {
	if name == "" {
		name = DefaultArtifactName
	}
	if c == nil {
		c = codec.Default
	}
	return &Provider{store: store, name: name, codec: c}
}

// Get returns the cached dataset, loading it from durable storage on first
// access or after Invalidate.
func (p *Provider) Get(ctx context.Context) (*ReducedDataset, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cached != nil {
		return p.cached, nil
	}

	ds, err := p.load(ctx)
	if err != nil {
		return nil, err
	}
	p.cached = ds
	return ds, nil
}

// Invalidate drops the memory-held value so the next Get reloads from
// durable storage. Idempotent.
func (p *Provider) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cached = nil
}

// CheckFreshness inspects durable storage without loading the payload.
func (p *Provider) CheckFreshness(ctx context.Context) (Freshness, error) {
	info, err := p.store.Stat(ctx, p.name)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return Freshness{}, nil
		}
		return Freshness{}, err
	}
	return Freshness{Exists: true, LastModified: info.LastModified}, nil
}

func (p *Provider) load(ctx context.Context) (*ReducedDataset, error) {
	info, err := p.store.Stat(ctx, p.name)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, fmt.Errorf("%w: %q is missing, run the offline reduction job first", ErrNotFound, p.name)
		}
		return nil, err
	}

	raw, err := p.store.ReadAll(ctx, p.name)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, fmt.Errorf("%w: %q is missing, run the offline reduction job first", ErrNotFound, p.name)
		}
		return nil, err
	}

	var pl payload
	if err := p.codec.Unmarshal(raw, &pl); err != nil {
		return nil, fmt.Errorf("dataset: decode %q: %w", p.name, err)
	}
	if err := pl.validate(); err != nil {
		return nil, err
	}

	sum := sha256.Sum256(raw)

	samples := make([]Sample, pl.SampleCount)
	for i := range samples {
		samples[i].Device = pl.Devices[i]
		if len(pl.Categories) == pl.SampleCount {
			samples[i].Category = pl.Categories[i]
		}
	}

	return &ReducedDataset{
		Tag:                hex.EncodeToString(sum[:]),
		LastModified:       info.LastModified,
		SchemaVersion:      pl.Version,
		SampleCount:        pl.SampleCount,
		MaxComponents:      pl.MaxComponents,
		Components:         pl.Components,
		VarianceRatios:     pl.VarianceRatios,
		VarianceCumulative: pl.VarianceCumulative,
		Samples:            samples,
	}, nil
}
