package resultstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fleetsense/clusterkit/blobstore"
	"github.com/fleetsense/clusterkit/codec"
)

// record is the outer, always-plain-JSON header around the encoded payload.
type record struct {
	Codec       string `json:"codec"`
	Compression string `json:"compression"`
	Data        []byte `json:"data"`
}

// BlobStore persists one blob per cluster count, named like the artifacts
// the offline pipeline produced ("kmeans_result_k7.json"). The blob's
// LastModified is the record's write time for freshness purposes.
type BlobStore struct {
	store      blobstore.Store
	codec      codec.Codec
	compressor Compressor
}

// NewBlobStore creates a blob-backed result store.
// A nil codec falls back to codec.Default; a nil compressor to Zstd.
func NewBlobStore(store blobstore.Store, c codec.Codec, comp Compressor) *BlobStore {
	if c == nil {
		c = codec.Default
	}
	if comp == nil {
		comp = Zstd{}
	}
	return &BlobStore{store: store, codec: c, compressor: comp}
}

func blobName(k int) string {
	return fmt.Sprintf("kmeans_result_k%d.json", k)
}

// Stat describes the record via a blob stat only; no payload read.
func (s *BlobStore) Stat(ctx context.Context, k int) (Meta, error) {
	info, err := s.store.Stat(ctx, blobName(k))
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return Meta{}, nil
		}
		return Meta{}, err
	}
	return Meta{Exists: true, WrittenAt: info.LastModified}, nil
}

// Load reads and decodes the record for k.
func (s *BlobStore) Load(ctx context.Context, k int) (*Envelope, error) {
	name := blobName(k)

	info, err := s.store.Stat(ctx, name)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, fmt.Errorf("%w: k=%d", ErrNotFound, k)
		}
		return nil, err
	}

	raw, err := s.store.ReadAll(ctx, name)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, fmt.Errorf("%w: k=%d", ErrNotFound, k)
		}
		return nil, err
	}

	env, err := decodeRecord(raw)
	if err != nil {
		return nil, fmt.Errorf("resultstore: record k=%d: %w", k, err)
	}

	// Storage mtime is authoritative for the freshness rule.
	env.WrittenAt = info.LastModified
	return env, nil
}

// Save encodes and writes the record for k.
func (s *BlobStore) Save(ctx context.Context, k int, env *Envelope) error {
	raw, err := encodeRecord(env, s.codec, s.compressor)
	if err != nil {
		return err
	}
	return s.store.Put(ctx, blobName(k), raw)
}

// Delete removes the record for k.
func (s *BlobStore) Delete(ctx context.Context, k int) error {
	return s.store.Delete(ctx, blobName(k))
}

func encodeRecord(env *Envelope, c codec.Codec, comp Compressor) ([]byte, error) {
	if env.WrittenAt.IsZero() {
		stamped := *env
		stamped.WrittenAt = time.Now()
		env = &stamped
	}

	payload, err := c.Marshal(env)
	if err != nil {
		return nil, err
	}
	compressed, err := comp.Compress(payload)
	if err != nil {
		return nil, err
	}

	return json.Marshal(record{
		Codec:       c.Name(),
		Compression: comp.Name(),
		Data:        compressed,
	})
}

func decodeRecord(raw []byte) (*Envelope, error) {
	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}

	c, ok := codec.ByName(rec.Codec)
	if !ok {
		return nil, fmt.Errorf("unknown codec %q", rec.Codec)
	}
	comp, ok := CompressorByName(rec.Compression)
	if !ok {
		return nil, fmt.Errorf("unknown compression %q", rec.Compression)
	}

	payload, err := comp.Decompress(rec.Data)
	if err != nil {
		return nil, err
	}

	var env Envelope
	if err := c.Unmarshal(payload, &env); err != nil {
		return nil, err
	}
	return &env, nil
}
