package repository

import (
	"context"
	"errors"
	"time"

	licensedomain "github.com/smallbiznis/factorylicense/internal/license/domain"
	usagedomain "github.com/smallbiznis/factorylicense/internal/usage/domain"
	"github.com/smallbiznis/factorylicense/pkg/db"
	"gorm.io/gorm"
)

type repo struct {
	db      *gorm.DB
	timeout time.Duration
}

func Provide(conn *gorm.DB, cfg db.Config) licensedomain.Repository {
	return New(conn, cfg.Timeout)
}

func New(conn *gorm.DB, timeout time.Duration) licensedomain.Repository {
	return &repo{db: conn, timeout: timeout}
}

func (r *repo) Create(ctx context.Context, license *licensedomain.License) error {
	ctx, cancel := db.WithTimeout(ctx, r.timeout)
	defer cancel()

	err := r.db.WithContext(ctx).Create(license).Error
	if db.IsDuplicateKeyErr(err) {
		return licensedomain.ErrDuplicateLicense
	}
	return db.Wrap("licenses.create", err)
}

func (r *repo) Get(ctx context.Context, licenseID string) (*licensedomain.License, error) {
	ctx, cancel := db.WithTimeout(ctx, r.timeout)
	defer cancel()

	var license licensedomain.License
	err := r.db.WithContext(ctx).Where("id = ?", licenseID).First(&license).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, licensedomain.ErrLicenseNotFound
	}
	if err != nil {
		return nil, db.Wrap("licenses.get", err)
	}
	return &license, nil
}

func (r *repo) List(ctx context.Context, req licensedomain.ListLicensesRequest) ([]licensedomain.License, error) {
	ctx, cancel := db.WithTimeout(ctx, r.timeout)
	defer cancel()

	stmt := r.db.WithContext(ctx).Model(&licensedomain.License{})
	if req.FactoryID != "" {
		stmt = stmt.Where("factory_id = ?", req.FactoryID)
	}
	if req.OrganizationID != "" {
		stmt = stmt.Where("organization_id = ?", req.OrganizationID)
	}
	if req.Status != "" {
		stmt = stmt.Where("status = ?", req.Status)
	}

	var licenses []licensedomain.License
	if err := stmt.Order("created_at ASC, id ASC").Find(&licenses).Error; err != nil {
		return nil, db.Wrap("licenses.list", err)
	}
	return licenses, nil
}

func (r *repo) Save(ctx context.Context, license *licensedomain.License, expectedVersion int64, events ...*usagedomain.UsageEvent) error {
	ctx, cancel := db.WithTimeout(ctx, r.timeout)
	defer cancel()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&licensedomain.License{}).
			Where("id = ? AND version = ?", license.ID, expectedVersion).
			Updates(map[string]any{
				"status":            license.Status,
				"end_date":          license.EndDate,
				"usage_workers":     license.Usage.Workers,
				"usage_storage":     license.Usage.Storage,
				"usage_documents":   license.Usage.Documents,
				"usage_ai_requests": license.Usage.AIRequests,
				"usage_users":       license.Usage.Users,
				"cancelled_at":      license.CancelledAt,
				"renewed_at":        license.RenewedAt,
				"version":           license.Version,
				"updated_at":        license.UpdatedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return licensedomain.ErrVersionConflict
		}
		for _, ev := range events {
			if err := tx.Create(ev).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, licensedomain.ErrVersionConflict) {
		return err
	}
	return db.Wrap("licenses.save", err)
}
