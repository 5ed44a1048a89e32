package storage

import (
	"context"
	"fmt"

	gcs "cloud.google.com/go/storage"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"

	"github.com/MonumentoSoftware/monugstore/internal/config"
	"github.com/MonumentoSoftware/monugstore/internal/creds"
)

type Backend string

const (
	BackendGCS   Backend = "gcs"
	BackendS3    Backend = "s3"
	BackendLocal Backend = "local"
)

// NewObjectStore builds the object store selected by the configuration.
func NewObjectStore(ctx context.Context, cfg *config.Config) (ObjectStore, error) {
	switch Backend(cfg.Backend) {
	case BackendGCS, "":
		return NewGCSManagerFromConfig(ctx, cfg)
	case BackendS3:
		return NewS3Store(S3ClientConfig{
			Endpoint:        cfg.S3EndpointURL,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		})
	case BackendLocal:
		return NewLocalStore(cfg.LocalStorageDir)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// NewGCSManagerFromConfig dispatches between the credential sources: a JSON
// key string, a key file path, or application default credentials.
func NewGCSManagerFromConfig(ctx context.Context, cfg *config.Config) (*GCSManager, error) {
	var (
		manager *GCSManager
		err     error
	)

	switch {
	case cfg.CredentialsJSON != "":
		manager, err = NewGCSManagerFromJSON(ctx, []byte(cfg.CredentialsJSON))
	case cfg.CredentialsFile != "":
		manager, err = NewGCSManagerFromFile(ctx, cfg.CredentialsFile)
	default:
		manager, err = newGCSManagerFromDefaultCredentials(ctx)
	}
	if err != nil {
		return nil, err
	}

	manager.SetBucketLocation(cfg.BucketLocation)

	return manager, nil
}

func newGCSManagerFromDefaultCredentials(ctx context.Context) (*GCSManager, error) {
	cred, err := google.FindDefaultCredentials(ctx, creds.StorageFullControlScope)
	if err != nil {
		return nil, fmt.Errorf("failed to find default credentials: %w", err)
	}

	client, err := gcs.NewClient(ctx, option.WithCredentials(cred))
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return NewGCSManager(client, cred.ProjectID), nil
}
