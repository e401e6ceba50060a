package blobstore

import "context"

// IOLimiter admits byte transfers against a shared budget, blocking
// until capacity is available.
type IOLimiter interface {
	AcquireIO(ctx context.Context, bytes int) error
}

// rateLimitedStore charges payload bytes against an IOLimiter on the
// transfer-heavy operations. Metadata operations pass through.
type rateLimitedStore struct {
	inner   Store
	limiter IOLimiter
}

// NewRateLimitedStore wraps inner so ReadAll and Put charge their payload
// size against limiter. The limiter must not be nil.
func NewRateLimitedStore(inner Store, limiter IOLimiter) Store {
	return &rateLimitedStore{inner: inner, limiter: limiter}
}

func (s *rateLimitedStore) ReadAll(ctx context.Context, name string) ([]byte, error) {
	data, err := s.inner.ReadAll(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := s.limiter.AcquireIO(ctx, len(data)); err != nil {
		return nil, err
	}
	return data, nil
}

func (s *rateLimitedStore) Put(ctx context.Context, name string, data []byte) error {
	if err := s.limiter.AcquireIO(ctx, len(data)); err != nil {
		return err
	}
	return s.inner.Put(ctx, name, data)
}

func (s *rateLimitedStore) Stat(ctx context.Context, name string) (Info, error) {
	return s.inner.Stat(ctx, name)
}

func (s *rateLimitedStore) Delete(ctx context.Context, name string) error {
	return s.inner.Delete(ctx, name)
}

func (s *rateLimitedStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}
