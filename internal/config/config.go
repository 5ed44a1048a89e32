package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	// Backend selects the object-store implementation: gcs, s3 or local.
	Backend string `env:"STORAGE_BACKEND" envDefault:"gcs"`

	// CredentialsJSON holds a full service account JSON key. Takes
	// precedence over CredentialsFile.
	CredentialsJSON string `env:"GOOGLE_CREDENTIALS_JSON"`
	CredentialsFile string `env:"GOOGLE_APPLICATION_CREDENTIALS"`

	BucketLocation string `env:"BUCKET_LOCATION" envDefault:"US"`
	PublicBuckets  bool   `env:"PUBLIC_BUCKETS" envDefault:"false"`

	S3EndpointURL     string `env:"S3_ENDPOINT_URL"`
	S3AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	S3Region          string `env:"AWS_REGION" envDefault:"us-east-1"`

	LocalStorageDir string `env:"LOCAL_STORAGE_DIR" envDefault:"gstore-data"`

	// DatabaseURL enables the upload catalog when set. A postgres:// URL or
	// a sqlite file path.
	DatabaseURL string `env:"DATABASE_URL"`
}

// Load reads configuration from the environment, optionally loading a dotenv
// file first.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("error loading env file %s: %w", envFile, err)
		}
	} else if err := godotenv.Load(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
		log.Println("No .env file found, continuing with environment variables")
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return &cfg, nil
}
