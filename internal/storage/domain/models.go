// Package domain describes stored documents and how their footprint is measured.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Document is one uploaded file attributed to a factory.
type Document struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	FactoryID string       `gorm:"type:text;not null;index"`
	FileName  string       `gorm:"type:text;not null"`
	FileSize  int64        `gorm:"not null"`
	CreatedAt time.Time    `gorm:"not null"`
}

// TableName sets the database table name.
func (Document) TableName() string { return "documents" }

// StorageUsage is the measured footprint of a factory.
type StorageUsage struct {
	FactoryID      string  `json:"factoryId"`
	StorageMB      float64 `json:"storageMB"`
	TotalDocuments int64   `json:"totalDocuments"`
	// CounterMB is the whole-megabyte value written to license counters.
	CounterMB       int64    `json:"counterMB"`
	UpdatedLicenses []string `json:"updatedLicenses"`
}

// Source measures the bytes and object count stored for a factory.
type Source interface {
	Name() string
	FactoryUsage(ctx context.Context, factoryID string) (bytes int64, count int64, err error)
}

type Service interface {
	CalculateStorageUsage(ctx context.Context, factoryID string) (StorageUsage, error)
}

var ErrInvalidFactory = errors.New("invalid_factory")
