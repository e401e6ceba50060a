package resultstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetsense/clusterkit/blobstore"
	"github.com/fleetsense/clusterkit/codec"
	"github.com/fleetsense/clusterkit/kmeans"
)

func sampleEnvelope() *Envelope {
	return &Envelope{
		DatasetTag: "3f2a",
		Result: &kmeans.Result{
			K:           2,
			EffectiveK:  2,
			Assignments: []int{0, 0, 1, 1},
			Centers:     [][]float64{{0, 0.5}, {10, 0.5}},
		},
	}
}

func TestBlobStoreRoundtrip(t *testing.T) {
	ctx := context.Background()
	mem := blobstore.NewMemoryStore()
	store := NewBlobStore(mem, nil, nil)

	meta, err := store.Stat(ctx, 2)
	require.NoError(t, err)
	assert.False(t, meta.Exists)

	_, err = store.Load(ctx, 2)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Save(ctx, 2, sampleEnvelope()))

	meta, err = store.Stat(ctx, 2)
	require.NoError(t, err)
	assert.True(t, meta.Exists)
	assert.False(t, meta.WrittenAt.IsZero())

	env, err := store.Load(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "3f2a", env.DatasetTag)
	assert.Equal(t, []int{0, 0, 1, 1}, env.Result.Assignments)
	assert.Equal(t, meta.WrittenAt, env.WrittenAt)
}

func TestBlobStoreWrittenAtTracksStorageTime(t *testing.T) {
	ctx := context.Background()
	mem := blobstore.NewMemoryStore()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	mem.SetClock(func() time.Time { return now })

	store := NewBlobStore(mem, nil, nil)
	env := sampleEnvelope()
	env.WrittenAt = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save(ctx, 3, env))

	// Blob mtime wins over whatever the envelope carried.
	loaded, err := store.Load(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, now, loaded.WrittenAt)

	meta, err := store.Stat(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, now, meta.WrittenAt)
}

func TestBlobStoreReadsAnyHeaderCombination(t *testing.T) {
	ctx := context.Background()
	mem := blobstore.NewMemoryStore()

	writers := []*BlobStore{
		NewBlobStore(mem, codec.JSON{}, None{}),
		NewBlobStore(mem, codec.JSON{}, LZ4{}),
		NewBlobStore(mem, codec.GoJSON{}, Zstd{}),
	}
	// A reader with a different configuration must still decode every
	// record, because the header names the codec and compression.
	reader := NewBlobStore(mem, codec.GoJSON{}, None{})

	for i, w := range writers {
		k := i + 2
		require.NoError(t, w.Save(ctx, k, sampleEnvelope()))

		env, err := reader.Load(ctx, k)
		require.NoError(t, err, "k=%d", k)
		assert.Equal(t, 2, env.Result.EffectiveK)
	}
}

func TestBlobStoreDelete(t *testing.T) {
	ctx := context.Background()
	store := NewBlobStore(blobstore.NewMemoryStore(), nil, nil)

	require.NoError(t, store.Save(ctx, 4, sampleEnvelope()))
	require.NoError(t, store.Delete(ctx, 4))

	_, err := store.Load(ctx, 4)
	assert.ErrorIs(t, err, ErrNotFound)
}

func newTestBadgerStore(t *testing.T) *BadgerStore {
	t.Helper()
	store, err := NewBadgerStore(BadgerOptions{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestBadgerStoreRoundtrip(t *testing.T) {
	ctx := context.Background()
	store := newTestBadgerStore(t)

	meta, err := store.Stat(ctx, 7)
	require.NoError(t, err)
	assert.False(t, meta.Exists)

	_, err = store.Load(ctx, 7)
	require.ErrorIs(t, err, ErrNotFound)

	before := time.Now()
	require.NoError(t, store.Save(ctx, 7, sampleEnvelope()))

	meta, err = store.Stat(ctx, 7)
	require.NoError(t, err)
	assert.True(t, meta.Exists)
	assert.False(t, meta.WrittenAt.Before(before))

	env, err := store.Load(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "3f2a", env.DatasetTag)
	assert.Equal(t, [][]float64{{0, 0.5}, {10, 0.5}}, env.Result.Centers)
}

func TestBadgerStorePreservesExplicitWrittenAt(t *testing.T) {
	ctx := context.Background()
	store := newTestBadgerStore(t)

	at := time.Date(2025, 3, 10, 8, 30, 0, 0, time.UTC)
	env := sampleEnvelope()
	env.WrittenAt = at
	require.NoError(t, store.Save(ctx, 5, env))

	meta, err := store.Stat(ctx, 5)
	require.NoError(t, err)
	assert.True(t, meta.WrittenAt.Equal(at))
}

func TestBadgerStoreDeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newTestBadgerStore(t)

	require.NoError(t, store.Save(ctx, 9, sampleEnvelope()))
	require.NoError(t, store.Delete(ctx, 9))
	require.NoError(t, store.Delete(ctx, 9))

	meta, err := store.Stat(ctx, 9)
	require.NoError(t, err)
	assert.False(t, meta.Exists)
}

func TestCompressorRoundtrip(t *testing.T) {
	payload := []byte(`{"centroids":[[0,0.5],[10,0.5]],"labels":[0,0,1,1]}`)

	for _, name := range []string{"none", "zstd", "lz4"} {
		comp, ok := CompressorByName(name)
		require.True(t, ok, name)

		compressed, err := comp.Compress(payload)
		require.NoError(t, err, name)

		out, err := comp.Decompress(compressed)
		require.NoError(t, err, name)
		assert.Equal(t, payload, out, name)
	}

	_, ok := CompressorByName("brotli")
	assert.False(t, ok)
}
