package storage

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore is a filesystem twin of the remote backends, used for local
// development and tests. A bucket is a directory under the base directory.
type LocalStore struct {
	baseDir string
}

var _ ObjectStore = (*LocalStore)(nil)

func NewLocalStore(dir string) (*LocalStore, error) {
	baseDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for %s: %w", dir, err)
	}

	if err := os.MkdirAll(baseDir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("failed to create base directory %s: %w", baseDir, err)
	}

	return &LocalStore{baseDir: baseDir}, nil
}

// fullPath resolves a bucket/key pair below the base dir. Cleaning the key
// keeps "../" segments from escaping the store.
func (s *LocalStore) fullPath(bucket, key string) string {
	cleaned := filepath.Clean("/" + filepath.FromSlash(key))
	return filepath.Join(s.baseDir, bucket, cleaned)
}

func (s *LocalStore) CreateBucket(ctx context.Context, bucket string) error {
	if err := os.MkdirAll(filepath.Join(s.baseDir, bucket), os.ModePerm); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
	}
	slog.Info("Bucket created successfully", "bucket", bucket)
	return nil
}

func (s *LocalStore) BucketExists(ctx context.Context, bucket string) (bool, error) {
	info, err := os.Stat(filepath.Join(s.baseDir, bucket))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to look up bucket %s: %w", bucket, err)
	}
	return info.IsDir(), nil
}

func (s *LocalStore) UploadFile(ctx context.Context, bucket, path string, opts UploadOptions) (string, error) {
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

	if _, err := os.Stat(s.fullPath(bucket, key)); err == nil {
		slog.Info("Object already exists, skipping upload", "bucket", bucket, "key", key)
		return "", fmt.Errorf("%w: %s/%s", ErrObjectExists, bucket, key)
	}

	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer file.Close()

	if err := s.PutObject(ctx, bucket, key, file); err != nil {
		return "", err
	}

	slog.Info("Object uploaded successfully", "bucket", bucket, "key", key, "size", info.Size())

	return s.ObjectURL(bucket, key), nil
}

func (s *LocalStore) PutObject(ctx context.Context, bucket, key string, data io.Reader) error {
	path := s.fullPath(bucket, key)
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return fmt.Errorf("failed to create directory for %s/%s: %w", bucket, key, err)
	}

	dst, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file %s/%s: %w", bucket, key, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, data); err != nil {
		return fmt.Errorf("failed to write file %s/%s: %w", bucket, key, err)
	}

	return nil
}

func (s *LocalStore) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	file, err := os.Open(s.fullPath(bucket, key))
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s/%s: %w", bucket, key, err)
	}
	return file, nil
}

func (s *LocalStore) DownloadFile(ctx context.Context, bucket, key, filename string) error {
	r, err := s.GetObject(ctx, bucket, key)
	if err != nil {
		return err
	}
	defer r.Close()

	if err := os.MkdirAll(filepath.Dir(filename), os.ModePerm); err != nil {
		return fmt.Errorf("failed to create directory for download %s: %w", filepath.Dir(filename), err)
	}

	dst, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", filename, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, r); err != nil {
		return fmt.Errorf("failed to download object %s/%s to %s: %w", bucket, key, filename, err)
	}

	return nil
}

func (s *LocalStore) ListFiles(ctx context.Context, bucket, prefix string) ([]string, error) {
	var names []string
	for obj, err := range s.IterObjects(ctx, bucket, prefix) {
		if err != nil {
			return nil, fmt.Errorf("failed to list objects in bucket %s with prefix %s: %w", bucket, prefix, err)
		}
		names = append(names, obj.Name)
	}
	return names, nil
}

func (s *LocalStore) IterObjects(ctx context.Context, bucket, prefix string) ObjectIterator {
	bucketDir := filepath.Join(s.baseDir, bucket)

	return func(yield func(obj Object, err error) bool) {
		err := filepath.WalkDir(bucketDir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}

			rel, err := filepath.Rel(bucketDir, path)
			if err != nil {
				return err
			}
			key := filepath.ToSlash(rel)
			if !strings.HasPrefix(key, prefix) {
				return nil
			}

			info, err := d.Info()
			if err != nil {
				return err
			}

			if !yield(Object{Name: key, Size: info.Size()}, nil) {
				return filepath.SkipAll
			}
			return nil
		})
		if err != nil {
			yield(Object{}, err)
		}
	}
}

func (s *LocalStore) DeleteFile(ctx context.Context, bucket, key string) error {
	if err := os.Remove(s.fullPath(bucket, key)); err != nil {
		return fmt.Errorf("failed to delete object %s/%s: %w", bucket, key, err)
	}
	return nil
}

func (s *LocalStore) DeleteAllFiles(ctx context.Context, bucket, prefix string) error {
	for obj, err := range s.IterObjects(ctx, bucket, prefix) {
		if err != nil {
			return fmt.Errorf("failed to iterate objects in bucket %s with prefix %s: %w", bucket, prefix, err)
		}
		if err := s.DeleteFile(ctx, bucket, obj.Name); err != nil {
			return err
		}
	}
	return nil
}

func (s *LocalStore) DeleteBucket(ctx context.Context, bucket string) error {
	names, err := s.ListFiles(ctx, bucket, "")
	if err != nil {
		return err
	}
	if len(names) > 0 {
		return fmt.Errorf("bucket %s is not empty", bucket)
	}

	if err := os.RemoveAll(filepath.Join(s.baseDir, bucket)); err != nil {
		return fmt.Errorf("failed to delete bucket %s: %w", bucket, err)
	}
	slog.Info("Bucket deleted successfully", "bucket", bucket)
	return nil
}

func (s *LocalStore) ObjectURL(bucket, key string) string {
	return "file://" + filepath.ToSlash(s.fullPath(bucket, key))
}
