package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLocalStore(t *testing.T) (*LocalStore, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := NewLocalStore(dir)
	require.NoError(t, err)
	return store, dir
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "source.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), os.ModePerm))
	return path
}

func TestLocalStore_PutAndGetObject(t *testing.T) {
	store, baseDir := setupTestLocalStore(t)

	bucket := "test-bucket"
	key := "dir/test-file.txt"
	content := []byte("Test content")

	err := store.PutObject(context.Background(), bucket, key, bytes.NewReader(content))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(baseDir, bucket, "dir", "test-file.txt"))
	require.NoError(t, err)
	assert.Equal(t, content, data)

	r, err := store.GetObject(context.Background(), bucket, key)
	require.NoError(t, err)
	defer r.Close()

	data, err = io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, content, data)
}

func TestLocalStore_UploadFile(t *testing.T) {
	store, _ := setupTestLocalStore(t)

	bucket := "test-bucket"
	require.NoError(t, store.CreateBucket(context.Background(), bucket))

	src := writeTempFile(t, "hello")

	url, err := store.UploadFile(context.Background(), bucket, src, UploadOptions{Prefix: "uploads"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "file://"))
	assert.True(t, strings.HasSuffix(url, "/uploads/source.txt"))

	names, err := store.ListFiles(context.Background(), bucket, "uploads/")
	require.NoError(t, err)
	assert.Equal(t, []string{"uploads/source.txt"}, names)
}

func TestLocalStore_UploadFile_SkipsExisting(t *testing.T) {
	store, _ := setupTestLocalStore(t)

	bucket := "test-bucket"
	require.NoError(t, store.CreateBucket(context.Background(), bucket))

	src := writeTempFile(t, "hello")

	_, err := store.UploadFile(context.Background(), bucket, src, UploadOptions{})
	require.NoError(t, err)

	_, err = store.UploadFile(context.Background(), bucket, src, UploadOptions{})
	require.ErrorIs(t, err, ErrObjectExists)
}

func TestLocalStore_UploadFile_MissingLocalFile(t *testing.T) {
	store, _ := setupTestLocalStore(t)

	_, err := store.UploadFile(context.Background(), "test-bucket", filepath.Join(t.TempDir(), "nope.txt"), UploadOptions{})
	require.Error(t, err)
}

func TestLocalStore_ListFiles_PrefixFilter(t *testing.T) {
	store, _ := setupTestLocalStore(t)

	bucket := "test-bucket"
	files := []string{"images/a.png", "images/b.png", "docs/readme.md"}
	for _, file := range files {
		require.NoError(t, store.PutObject(context.Background(), bucket, file, bytes.NewReader([]byte("content"))))
	}

	names, err := store.ListFiles(context.Background(), bucket, "images/")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"images/a.png", "images/b.png"}, names)

	all, err := store.ListFiles(context.Background(), bucket, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestLocalStore_DownloadFile(t *testing.T) {
	store, _ := setupTestLocalStore(t)

	bucket := "test-bucket"
	key := "file.txt"
	content := []byte("download me")
	require.NoError(t, store.PutObject(context.Background(), bucket, key, bytes.NewReader(content)))

	dest := filepath.Join(t.TempDir(), "nested", "copy.txt")
	require.NoError(t, store.DownloadFile(context.Background(), bucket, key, dest))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, content, data)
}

func TestLocalStore_DeleteFile(t *testing.T) {
	store, baseDir := setupTestLocalStore(t)

	bucket := "test-bucket"
	key := "file.txt"
	require.NoError(t, store.PutObject(context.Background(), bucket, key, bytes.NewReader([]byte("content"))))

	require.NoError(t, store.DeleteFile(context.Background(), bucket, key))

	_, err := os.Stat(filepath.Join(baseDir, bucket, key))
	assert.True(t, os.IsNotExist(err))

	require.Error(t, store.DeleteFile(context.Background(), bucket, key))
}

func TestLocalStore_DeleteAllFiles(t *testing.T) {
	store, _ := setupTestLocalStore(t)

	bucket := "test-bucket"
	files := []string{"keep/file.txt", "drop/file1.txt", "drop/file2.txt"}
	for _, file := range files {
		require.NoError(t, store.PutObject(context.Background(), bucket, file, bytes.NewReader([]byte("content"))))
	}

	require.NoError(t, store.DeleteAllFiles(context.Background(), bucket, "drop/"))

	names, err := store.ListFiles(context.Background(), bucket, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"keep/file.txt"}, names)
}

func TestLocalStore_DeleteBucket(t *testing.T) {
	store, _ := setupTestLocalStore(t)

	bucket := "test-bucket"
	require.NoError(t, store.CreateBucket(context.Background(), bucket))
	require.NoError(t, store.PutObject(context.Background(), bucket, "file.txt", bytes.NewReader([]byte("content"))))

	// Non-empty buckets cannot be deleted.
	require.Error(t, store.DeleteBucket(context.Background(), bucket))

	require.NoError(t, store.DeleteAllFiles(context.Background(), bucket, ""))
	require.NoError(t, store.DeleteBucket(context.Background(), bucket))

	exists, err := store.BucketExists(context.Background(), bucket)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "name.txt", ObjectKey("", "name.txt"))
	assert.Equal(t, "prefix/name.txt", ObjectKey("prefix", "name.txt"))
	assert.Equal(t, "prefix/name.txt", ObjectKey("prefix/", "name.txt"))
	assert.Equal(t, "a/b/name.txt", ObjectKey("a/b", "name.txt"))
	assert.Equal(t, "name.txt", ObjectKey("", "/name.txt"))
	assert.Equal(t, "prefix/name.txt", ObjectKey("prefix", "/name.txt"))
}
