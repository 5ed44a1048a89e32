package storage

import (
	"context"
	"errors"
	"io"
	"strings"
)

var (
	// ErrBucketNotFound is returned when an operation targets a bucket that
	// does not exist.
	ErrBucketNotFound = errors.New("bucket not found")

	// ErrObjectExists is returned by UploadFile when the destination object
	// already exists; the upload is skipped rather than overwritten.
	ErrObjectExists = errors.New("object already exists")
)

type Object struct {
	Name string
	Size int64
}

type ObjectIterator func(yield func(obj Object, err error) bool)

// UploadOptions shape the destination of an UploadFile call.
type UploadOptions struct {
	// Name is the destination object name. Defaults to the base name of the
	// uploaded file.
	Name string

	// Prefix is joined with Name using "/" to form the object key.
	Prefix string

	// Public marks the uploaded object as publicly readable, on backends
	// that support per-object ACLs.
	Public bool
}

// ObjectStore is the backend-neutral surface over bucket and object CRUD.
type ObjectStore interface {
	CreateBucket(ctx context.Context, bucket string) error

	BucketExists(ctx context.Context, bucket string) (bool, error)

	// UploadFile uploads a local file and returns the object's public URL.
	// Returns ErrObjectExists if the destination object is already present.
	UploadFile(ctx context.Context, bucket, path string, opts UploadOptions) (string, error)

	PutObject(ctx context.Context, bucket, key string, data io.Reader) error

	GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error)

	DownloadFile(ctx context.Context, bucket, key, filename string) error

	ListFiles(ctx context.Context, bucket, prefix string) ([]string, error)

	IterObjects(ctx context.Context, bucket, prefix string) ObjectIterator

	DeleteFile(ctx context.Context, bucket, key string) error

	DeleteAllFiles(ctx context.Context, bucket, prefix string) error

	// DeleteBucket removes a bucket. The bucket must be empty.
	DeleteBucket(ctx context.Context, bucket string) error

	ObjectURL(bucket, key string) string
}

// ObjectKey joins an optional prefix and an object name. An empty prefix
// yields the bare name, never a leading "/".
func ObjectKey(prefix, name string) string {
	prefix = strings.Trim(prefix, "/")
	name = strings.TrimPrefix(name, "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}
