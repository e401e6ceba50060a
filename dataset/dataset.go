package dataset

import (
	"fmt"
	"time"
)

// DefaultArtifactName is the blob name the offline reduction job writes.
const DefaultArtifactName = "pca_full.json"

// Sample identifies one row of the projection.
type Sample struct {
	Device   string
	Category string // optional, e.g. vehicle model; empty when untagged
}

// ReducedDataset is the dimensionality-reduced projection of the full
// telemetry dataset: one row per sample, components ordered by explained
// variance. It is immutable once loaded; invalidation replaces the whole
// value.
type ReducedDataset struct {
	// Tag is the content hash of the raw artifact bytes, used for change
	// detection across cache tiers.
	Tag string
	// LastModified is the artifact's last-write time in durable storage.
	LastModified time.Time

	SchemaVersion int
	SampleCount   int
	MaxComponents int

	// Components holds SampleCount rows of MaxComponents values each.
	Components [][]float64
	// VarianceRatios and VarianceCumulative hold one value per component.
	VarianceRatios     []float64
	VarianceCumulative []float64

	Samples []Sample
}

// Slice returns per-sample vectors truncated to the first dims components.
// Rows reference fresh slices; mutating them does not affect the dataset.
func (d *ReducedDataset) Slice(dims int) [][]float64 {
	if dims > d.MaxComponents {
		dims = d.MaxComponents
	}
	out := make([][]float64, d.SampleCount)
	for i, row := range d.Components {
		v := make([]float64, dims)
		copy(v, row[:dims])
		out[i] = v
	}
	return out
}

// payload mirrors the JSON artifact produced by the offline reduction job.
type payload struct {
	Version            int         `json:"version"`
	MaxComponents      int         `json:"max_components"`
	SampleCount        int         `json:"n_samples"`
	Components         [][]float64 `json:"components"`
	VarianceRatios     []float64   `json:"explained_variance_ratio"`
	VarianceCumulative []float64   `json:"explained_variance_cumsum"`
	Devices            []string    `json:"devices"`
	Categories         []string    `json:"categories"`
}

func (p *payload) validate() error {
	if p.SampleCount != len(p.Components) {
		return fmt.Errorf("dataset: n_samples=%d but %d component rows", p.SampleCount, len(p.Components))
	}
	for i, row := range p.Components {
		if len(row) != p.MaxComponents {
			return fmt.Errorf("dataset: row %d has %d components, want %d", i, len(row), p.MaxComponents)
		}
	}
	if len(p.VarianceRatios) != p.MaxComponents {
		return fmt.Errorf("dataset: %d variance ratios for %d components", len(p.VarianceRatios), p.MaxComponents)
	}
	if len(p.VarianceCumulative) != p.MaxComponents {
		return fmt.Errorf("dataset: %d cumulative variances for %d components", len(p.VarianceCumulative), p.MaxComponents)
	}
	if len(p.Devices) != p.SampleCount {
		return fmt.Errorf("dataset: %d device labels for %d samples", len(p.Devices), p.SampleCount)
	}
	if len(p.Categories) != 0 && len(p.Categories) != p.SampleCount {
		return fmt.Errorf("dataset: %d category tags for %d samples", len(p.Categories), p.SampleCount)
	}
	return nil
}
