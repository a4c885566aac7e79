package source

import (
	"context"
	"time"

	storagedomain "github.com/smallbiznis/factorylicense/internal/storage/domain"
	"github.com/smallbiznis/factorylicense/pkg/db"
	"gorm.io/gorm"
)

// DBSource sums document rows.
type DBSource struct {
	db      *gorm.DB
	timeout time.Duration
}

func NewDBSource(conn *gorm.DB, timeout time.Duration) *DBSource {
	return &DBSource{db: conn, timeout: timeout}
}

func (s *DBSource) Name() string { return "db" }

func (s *DBSource) FactoryUsage(ctx context.Context, factoryID string) (int64, int64, error) {
	ctx, cancel := db.WithTimeout(ctx, s.timeout)
	defer cancel()

	var row struct {
		Bytes int64
		Count int64
	}
	err := s.db.WithContext(ctx).
		Model(&storagedomain.Document{}).
		Select("COALESCE(SUM(file_size), 0) AS bytes, COUNT(*) AS count").
		Where("factory_id = ?", factoryID).
		Scan(&row).Error
	if err != nil {
		return 0, 0, db.Wrap("documents.sum", err)
	}
	return row.Bytes, row.Count, nil
}
