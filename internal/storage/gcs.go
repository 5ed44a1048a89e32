package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/MonumentoSoftware/monugstore/internal/creds"
)

const DefaultBucketLocation = "US"

// GCSManager wraps a Google Cloud Storage client with bucket and object
// conveniences. The project id is taken from the service account key used to
// build the client.
type GCSManager struct {
	client    *gcs.Client
	projectID string
	location  string
}

var _ ObjectStore = (*GCSManager)(nil)

func NewGCSManager(client *gcs.Client, projectID string) *GCSManager {
	return &GCSManager{client: client, projectID: projectID, location: DefaultBucketLocation}
}

// NewGCSManagerFromJSON builds a manager from a service account JSON key.
func NewGCSManagerFromJSON(ctx context.Context, data []byte) (*GCSManager, error) {
	cred, err := creds.FromJSON(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse service account key: %w", err)
	}

	client, err := gcs.NewClient(ctx, option.WithCredentials(cred))
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return NewGCSManager(client, cred.ProjectID), nil
}

// NewGCSManagerFromEnv builds a manager from a service account JSON key held
// in the named environment variable.
func NewGCSManagerFromEnv(ctx context.Context, envVar string) (*GCSManager, error) {
	raw, ok := os.LookupEnv(envVar)
	if !ok || raw == "" {
		return nil, fmt.Errorf("environment variable %s not set", envVar)
	}
	return NewGCSManagerFromJSON(ctx, []byte(raw))
}

// NewGCSManagerFromFile builds a manager from a service account JSON key file.
func NewGCSManagerFromFile(ctx context.Context, path string) (*GCSManager, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read service account key file %s: %w", path, err)
	}
	return NewGCSManagerFromJSON(ctx, data)
}

// SetBucketLocation overrides the location used when creating buckets.
func (m *GCSManager) SetBucketLocation(location string) {
	if location != "" {
		m.location = location
	}
}

func (m *GCSManager) Close() error {
	return m.client.Close()
}

type CreateBucketOptions struct {
	Location string
	Public   bool
}

func (m *GCSManager) CreateBucket(ctx context.Context, bucket string) error {
	return m.CreateBucketWithOptions(ctx, bucket, CreateBucketOptions{})
}

// CreateBucketWithOptions creates a bucket in the given location. Creating a
// bucket that already exists is not an error.
func (m *GCSManager) CreateBucketWithOptions(ctx context.Context, bucket string, opts CreateBucketOptions) error {
	handle := m.client.Bucket(bucket)

	_, err := handle.Attrs(ctx)
	if err == nil {
		slog.Info("Bucket already exists", "bucket", bucket)
		return nil
	}
	if !errors.Is(err, gcs.ErrBucketNotExist) {
		return fmt.Errorf("failed to look up bucket %s: %w", bucket, err)
	}

	location := opts.Location
	if location == "" {
		location = m.location
	}

	if err := handle.Create(ctx, m.projectID, &gcs.BucketAttrs{Location: location}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
	}

	if opts.Public {
		if err := m.MakePublic(ctx, bucket, false); err != nil {
			return err
		}
	}

	slog.Info("Bucket created successfully", "bucket", bucket, "location", location)

	return nil
}

func (m *GCSManager) BucketExists(ctx context.Context, bucket string) (bool, error) {
	_, err := m.client.Bucket(bucket).Attrs(ctx)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gcs.ErrBucketNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("failed to look up bucket %s: %w", bucket, err)
}

// Bucket returns a handle for an existing bucket, or ErrBucketNotFound.
func (m *GCSManager) Bucket(ctx context.Context, bucket string) (*gcs.BucketHandle, error) {
	exists, err := m.BucketExists(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrBucketNotFound, bucket)
	}
	return m.client.Bucket(bucket), nil
}

// MakePublic grants allUsers read access on the bucket and on objects created
// in the future. With recursive set, existing objects are updated as well.
func (m *GCSManager) MakePublic(ctx context.Context, bucket string, recursive bool) error {
	handle := m.client.Bucket(bucket)

	_, err := handle.Update(ctx, gcs.BucketAttrsToUpdate{
		PredefinedACL:              "publicRead",
		PredefinedDefaultObjectACL: "publicRead",
	})
	if err != nil {
		return fmt.Errorf("failed to make bucket %s public: %w", bucket, err)
	}

	if recursive {
		it := handle.Objects(ctx, nil)
		for {
			attrs, err := it.Next()
			if err == iterator.Done {
				break
			}
			if err != nil {
				return fmt.Errorf("failed to list objects in bucket %s: %w", bucket, err)
			}
			if err := handle.Object(attrs.Name).ACL().Set(ctx, gcs.AllUsers, gcs.RoleReader); err != nil {
				return fmt.Errorf("failed to set object ACL on %s/%s: %w", bucket, attrs.Name, err)
			}
		}
	}

	slog.Info("Bucket is now public", "bucket", bucket, "recursive", recursive)

	return nil
}

func (m *GCSManager) UploadFile(ctx context.Context, bucket, path string, opts UploadOptions) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("local file %s not found: %w", path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("local path %s is a directory", path)
	}

	name := opts.Name
	if name == "" {
		name = filepath.Base(path)
	}
	key := ObjectKey(opts.Prefix, name)

	obj := m.client.Bucket(bucket).Object(key)

	_, err = obj.Attrs(ctx)
	if err == nil {
		slog.Info("Object already exists, skipping upload", "bucket", bucket, "key", key)
		return "", fmt.Errorf("%w: %s/%s", ErrObjectExists, bucket, key)
	}
	if !errors.Is(err, gcs.ErrObjectNotExist) {
		return "", fmt.Errorf("failed to look up object %s/%s: %w", bucket, key, err)
	}

	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer file.Close()

	w := obj.NewWriter(ctx)
	if _, err := io.Copy(w, file); err != nil {
		w.Close() //nolint:errcheck
		return "", fmt.Errorf("failed to upload object %s to gs://%s/%s: %w", path, bucket, key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to upload object %s to gs://%s/%s: %w", path, bucket, key, err)
	}

	if opts.Public {
		if err := obj.ACL().Set(ctx, gcs.AllUsers, gcs.RoleReader); err != nil {
			return "", fmt.Errorf("failed to set object ACL on %s/%s: %w", bucket, key, err)
		}
	}

	slog.Info("Object uploaded successfully", "bucket", bucket, "key", key, "size", info.Size())

	return m.ObjectURL(bucket, key), nil
}

func (m *GCSManager) PutObject(ctx context.Context, bucket, key string, data io.Reader) error {
	w := m.client.Bucket(bucket).Object(key).NewWriter(ctx)
	if _, err := io.Copy(w, data); err != nil {
		w.Close() //nolint:errcheck
		return fmt.Errorf("failed to upload object to gs://%s/%s: %w", bucket, key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to upload object to gs://%s/%s: %w", bucket, key, err)
	}
	return nil
}

func (m *GCSManager) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	r, err := m.client.Bucket(bucket).Object(key).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read object gs://%s/%s: %w", bucket, key, err)
	}
	return r, nil
}

func (m *GCSManager) DownloadFile(ctx context.Context, bucket, key, filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), os.ModePerm); err != nil {
		return fmt.Errorf("failed to create directory for download %s: %w", filepath.Dir(filename), err)
	}

	r, err := m.GetObject(ctx, bucket, key)
	if err != nil {
		return err
	}
	defer r.Close()

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", filename, err)
	}
	defer file.Close()

	if _, err := io.Copy(file, r); err != nil {
		return fmt.Errorf("failed to download object gs://%s/%s to %s: %w", bucket, key, filename, err)
	}
	slog.Info("Object downloaded successfully", "bucket", bucket, "key", key, "filename", filename)

	return nil
}

func (m *GCSManager) ListFiles(ctx context.Context, bucket, prefix string) ([]string, error) {
	var names []string
	for obj, err := range m.IterObjects(ctx, bucket, prefix) {
		if err != nil {
			return nil, fmt.Errorf("failed to list objects in bucket %s with prefix %s: %w", bucket, prefix, err)
		}
		names = append(names, obj.Name)
	}
	return names, nil
}

func (m *GCSManager) IterObjects(ctx context.Context, bucket, prefix string) ObjectIterator {
	return func(yield func(obj Object, err error) bool) {
		it := m.client.Bucket(bucket).Objects(ctx, &gcs.Query{Prefix: prefix})
		for {
			attrs, err := it.Next()
			if err == iterator.Done {
				return
			}
			if err != nil {
				yield(Object{}, err)
				return
			}
			if !yield(Object{Name: attrs.Name, Size: attrs.Size}, nil) {
				return
			}
		}
	}
}

func (m *GCSManager) DeleteFile(ctx context.Context, bucket, key string) error {
	if err := m.client.Bucket(bucket).Object(key).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete object gs://%s/%s: %w", bucket, key, err)
	}
	slog.Info("Object deleted successfully", "bucket", bucket, "key", key)
	return nil
}

func (m *GCSManager) DeleteAllFiles(ctx context.Context, bucket, prefix string) error {
	for obj, err := range m.IterObjects(ctx, bucket, prefix) {
		if err != nil {
			return fmt.Errorf("failed to iterate objects in bucket %s with prefix %s: %w", bucket, prefix, err)
		}
		if err := m.client.Bucket(bucket).Object(obj.Name).Delete(ctx); err != nil {
			return fmt.Errorf("failed to delete object gs://%s/%s: %w", bucket, obj.Name, err)
		}
	}

	slog.Info("Objects deleted successfully", "bucket", bucket, "prefix", prefix)

	return nil
}

func (m *GCSManager) DeleteBucket(ctx context.Context, bucket string) error {
	if err := m.client.Bucket(bucket).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete bucket %s: %w", bucket, err)
	}
	slog.Info("Bucket deleted successfully", "bucket", bucket)
	return nil
}

func (m *GCSManager) ObjectURL(bucket, key string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, key)
}
