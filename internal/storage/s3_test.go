package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/minio"
)

const (
	minioUsername = "minioadmin"
	minioPassword = "minioadmin"
)

func setupMinioContainer(t *testing.T, ctx context.Context) string {
	t.Helper()

	minioContainer, err := minio.Run(
		ctx,
		"minio/minio:RELEASE.2024-01-16T16-07-38Z",
		minio.WithUsername(minioUsername),
		minio.WithPassword(minioPassword),
	)
	require.NoError(t, err, "Failed to start MinIO container")

	t.Cleanup(func() {
		err := minioContainer.Terminate(context.Background())
		require.NoError(t, err, "Failed to terminate MinIO container")
	})

	connStr, err := minioContainer.ConnectionString(ctx)
	require.NoError(t, err, "Failed to get MinIO connection string")

	return "http://" + connStr
}

func setupTestS3Store(t *testing.T, ctx context.Context) *S3Store {
	t.Helper()

	endpoint := setupMinioContainer(t, ctx)

	store, err := NewS3Store(S3ClientConfig{
		Endpoint:        endpoint,
		Region:          "us-east-1",
		AccessKeyID:     minioUsername,
		SecretAccessKey: minioPassword,
	})
	require.NoError(t, err)

	require.NoError(t, store.CreateBucket(ctx, "test-bucket"))

	return store
}

func TestS3Store_PutAndGetObject(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	store := setupTestS3Store(t, ctx)

	content := []byte("Test content")
	require.NoError(t, store.PutObject(ctx, "test-bucket", "dir/file.txt", bytes.NewReader(content)))

	r, err := store.GetObject(ctx, "test-bucket", "dir/file.txt")
	require.NoError(t, err)
	defer r.Close()

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, content, data)
}

func TestS3Store_CreateBucket_Idempotent(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	store := setupTestS3Store(t, ctx)

	require.NoError(t, store.CreateBucket(ctx, "test-bucket"))

	exists, err := store.BucketExists(ctx, "test-bucket")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = store.BucketExists(ctx, "missing-bucket")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestS3Store_UploadFile_SkipsExisting(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	store := setupTestS3Store(t, ctx)

	src := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(src, []byte("content"), os.ModePerm))

	url, err := store.UploadFile(ctx, "test-bucket", src, UploadOptions{Prefix: "uploads"})
	require.NoError(t, err)
	assert.Contains(t, url, "/test-bucket/uploads/file.txt")

	_, err = store.UploadFile(ctx, "test-bucket", src, UploadOptions{Prefix: "uploads"})
	require.ErrorIs(t, err, ErrObjectExists)
}

func TestS3Store_DeleteAllFiles(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	store := setupTestS3Store(t, ctx)

	files := []string{"drop/file1.txt", "drop/sub/file2.txt", "keep/file3.txt"}
	for _, file := range files {
		require.NoError(t, store.PutObject(ctx, "test-bucket", file, bytes.NewReader([]byte("content: "+file))))
	}

	names, err := store.ListFiles(ctx, "test-bucket", "drop/")
	require.NoError(t, err)
	assert.Len(t, names, 2)

	require.NoError(t, store.DeleteAllFiles(ctx, "test-bucket", "drop/"))

	names, err = store.ListFiles(ctx, "test-bucket", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"keep/file3.txt"}, names)
}

func TestS3Store_DownloadFile(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	store := setupTestS3Store(t, ctx)

	content := []byte("download me")
	require.NoError(t, store.PutObject(ctx, "test-bucket", "file.txt", bytes.NewReader(content)))

	dest := filepath.Join(t.TempDir(), "nested", "copy.txt")
	require.NoError(t, store.DownloadFile(ctx, "test-bucket", "file.txt", dest))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, content, data)
}
