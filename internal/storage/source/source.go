// Package source provides the storage measurement backends.
package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/smallbiznis/factorylicense/internal/config"
	storagedomain "github.com/smallbiznis/factorylicense/internal/storage/domain"
	"github.com/smallbiznis/factorylicense/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrMissingBucket = errors.New("storage source s3 requires S3_BUCKET")

// New selects the backend named by STORAGE_SOURCE.
func New(cfg config.Config, dbCfg db.Config, conn *gorm.DB, log *zap.Logger) (storagedomain.Source, error) {
	switch cfg.Storage.Source {
	case "", "db":
		return NewDBSource(conn, dbCfg.Timeout), nil
	case "s3":
		if cfg.Storage.Bucket == "" {
			return nil, ErrMissingBucket
		}
		client, err := NewS3Client(context.Background(), cfg.Storage)
		if err != nil {
			return nil, err
		}
		log.Named("storage.source").Info("measuring storage from s3",
			zap.String("bucket", cfg.Storage.Bucket),
			zap.String("region", cfg.Storage.Region))
		return NewS3Source(client, cfg.Storage.Bucket), nil
	default:
		return nil, fmt.Errorf("unknown storage source %q", cfg.Storage.Source)
	}
}
