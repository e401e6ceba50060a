package clusterkit

import (
	"errors"
	"fmt"

	"github.com/fleetsense/clusterkit/dataset"
	"github.com/fleetsense/clusterkit/kmeans"
)

var (
	// ErrInvalidK is returned when the requested cluster count is outside
	// 1..min(MaxClusterCount, sample count).
	ErrInvalidK = errors.New("invalid cluster count")

	// ErrDatasetNotFound is returned when the reduced-dataset artifact is
	// missing from durable storage.
	ErrDatasetNotFound = errors.New("reduced dataset not found")

	// ErrComputeFailure is returned when the clustering computation
	// itself fails (as opposed to invalid input).
	ErrComputeFailure = errors.New("clustering computation failed")

	// ErrClosed is returned for operations on a closed Service.
	ErrClosed = errors.New("service is closed")
)

// ErrKOutOfRange indicates a cluster count outside the admissible range.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrKOutOfRange struct {
	K     int
	Max   int
	cause error
}

func (e *ErrKOutOfRange) Error() string {
	return fmt.Sprintf("cluster count out of range: k=%d, admissible 1..%d", e.K, e.Max)
}

func (e *ErrKOutOfRange) Unwrap() error {
	if e.cause != nil {
		return e.cause
	}
	return ErrInvalidK
}

func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, dataset.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrDatasetNotFound, err)
	}
	if errors.Is(err, kmeans.ErrInvalidK) {
		return fmt.Errorf("%w: %w", ErrInvalidK, err)
	}
	var dm *kmeans.ErrDimensionMismatch
	if errors.As(err, &dm) {
		return fmt.Errorf("%w: %w", ErrComputeFailure, err)
	}

	return err
}
