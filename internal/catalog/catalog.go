// Package catalog keeps a database record of uploaded objects, so deployments
// can answer "what did we push where" without listing every bucket.
package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type Upload struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Bucket    string    `gorm:"index:idx_uploads_bucket_key"`
	Key       string    `gorm:"index:idx_uploads_bucket_key"`
	Size      int64
	PublicURL string
	CreatedAt time.Time
}

// NewDatabase opens the catalog database. A postgres:// URL selects the
// postgres driver; anything else is treated as a sqlite path.
func NewDatabase(databaseURL string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") {
		dialector = postgres.Open(databaseURL)
	} else {
		dialector = sqlite.Open(databaseURL)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&Upload{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

func RecordUpload(ctx context.Context, db *gorm.DB, bucket, key string, size int64, publicURL string) (*Upload, error) {
	upload := Upload{
		Id:        uuid.New(),
		Bucket:    bucket,
		Key:       key,
		Size:      size,
		PublicURL: publicURL,
		CreatedAt: time.Now().UTC(),
	}

	if err := db.WithContext(ctx).Create(&upload).Error; err != nil {
		return nil, fmt.Errorf("failed to record upload %s/%s: %w", bucket, key, err)
	}

	return &upload, nil
}

func ListUploads(ctx context.Context, db *gorm.DB, bucket, prefix string) ([]Upload, error) {
	var uploads []Upload

	query := db.WithContext(ctx).Where("bucket = ?", bucket)
	if prefix != "" {
		query = query.Where("key LIKE ?", prefix+"%")
	}

	if err := query.Order("created_at").Find(&uploads).Error; err != nil {
		return nil, fmt.Errorf("failed to list uploads for bucket %s: %w", bucket, err)
	}

	return uploads, nil
}

func DeleteUpload(ctx context.Context, db *gorm.DB, bucket, key string) error {
	if err := db.WithContext(ctx).Where("bucket = ? AND key = ?", bucket, key).Delete(&Upload{}).Error; err != nil {
		return fmt.Errorf("failed to delete upload record %s/%s: %w", bucket, key, err)
	}
	return nil
}
