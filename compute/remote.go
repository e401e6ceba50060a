package compute

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/fleetsense/clusterkit/codec"
	"github.com/fleetsense/clusterkit/dataset"
	"github.com/fleetsense/clusterkit/kmeans"
)

// Remote delegates clustering to an external HTTP service. The service
// receives the component matrix and the cluster count and returns the
// result in the same shape Local produces, so callers cannot tell the
// two apart. Deadlines come from the caller's context.
type Remote struct {
	// Endpoint is the full URL of the clustering endpoint.
	Endpoint string
	// Client defaults to http.DefaultClient.
	Client *http.Client
	// Codec defaults to codec.Default.
	Codec codec.Codec
}

type remoteRequest struct {
	K      int         `json:"k"`
	Seed   int64       `json:"seed"`
	Points [][]float64 `json:"points"`
}

// Compute posts the clustering job and decodes the response.
func (r Remote) Compute(ctx context.Context, ds *dataset.ReducedDataset, k int) (*kmeans.Result, error) {
	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	c := r.Codec
	if c == nil {
		c = codec.Default
	}

	body, err := c.Marshal(remoteRequest{
		K:      k,
		Seed:   DefaultSeed,
		Points: ds.Slice(WorkingDims),
	})
	if err != nil {
		return nil, fmt.Errorf("compute: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("compute: remote call: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("compute: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("compute: remote returned %s: %s", resp.Status, bytes.TrimSpace(raw))
	}

	var result kmeans.Result
	if err := c.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("compute: decode response: %w", err)
	}
	return &result, nil
}
