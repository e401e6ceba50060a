package minio

import (
	"context"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMinioStore_Integration requires a running MinIO instance.
// Skip if not available.
func TestMinioStore_Integration(t *testing.T) {
	endpoint := "localhost:9000"
	accessKey := "minioadmin"
	secretKey := "minioadmin"
	bucket := "test-clusterkit"

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: false,
	})
	if err != nil {
		t.Skipf("MinIO client creation failed: %v", err)
	}

	ctx := context.Background()

	if _, err = client.ListBuckets(ctx); err != nil {
		t.Skipf("MinIO not available: %v", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	require.NoError(t, err)
	if !exists {
		require.NoError(t, client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}))
	}

	store := NewStore(client, bucket, "test-prefix/")

	data := []byte(`{"k":4,"labels":[0,1,2,3]}`)
	require.NoError(t, store.Put(ctx, "results/k4.json", data))

	got, err := store.ReadAll(ctx, "results/k4.json")
	require.NoError(t, err)
	assert.Equal(t, data, got)

	info, err := store.Stat(ctx, "results/k4.json")
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), info.Size)
	assert.False(t, info.LastModified.IsZero())

	names, err := store.List(ctx, "results/")
	require.NoError(t, err)
	assert.Contains(t, names, "results/k4.json")

	require.NoError(t, store.Delete(ctx, "results/k4.json"))
	_, err = store.ReadAll(ctx, "results/k4.json")
	require.Error(t, err)

	// Deleting again is not an error.
	assert.NoError(t, store.Delete(ctx, "results/k4.json"))
}
