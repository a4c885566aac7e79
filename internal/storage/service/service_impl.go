package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	licensedomain "github.com/smallbiznis/factorylicense/internal/license/domain"
	storagedomain "github.com/smallbiznis/factorylicense/internal/storage/domain"
	usagedomain "github.com/smallbiznis/factorylicense/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var bytesPerMB = decimal.NewFromInt(1024 * 1024)

type ServiceParam struct {
	fx.In

	Log      *zap.Logger
	Source   storagedomain.Source
	Licenses licensedomain.Service
}

type Service struct {
	log      *zap.Logger
	source   storagedomain.Source
	licenses licensedomain.Service
}

func NewService(p ServiceParam) storagedomain.Service {
	return &Service{
		log:      p.Log.Named("storage.service"),
		source:   p.Source,
		licenses: p.Licenses,
	}
}

// CalculateStorageUsage measures the factory and overwrites the storage
// counter of each of its active licenses with the result. Running it again
// without new uploads changes nothing. A license that fails to update does
// not stop the others; the failures are joined into the returned error.
func (s *Service) CalculateStorageUsage(ctx context.Context, factoryID string) (storagedomain.StorageUsage, error) {
	factoryID = strings.TrimSpace(factoryID)
	if factoryID == "" {
		return storagedomain.StorageUsage{}, storagedomain.ErrInvalidFactory
	}

	bytes, count, err := s.source.FactoryUsage(ctx, factoryID)
	if err != nil {
		s.log.Error("failed to measure storage",
			zap.String("factory_id", factoryID),
			zap.String("source", s.source.Name()),
			zap.Error(err))
		return storagedomain.StorageUsage{}, err
	}

	mb := decimal.NewFromInt(bytes).Div(bytesPerMB)
	usage := storagedomain.StorageUsage{
		FactoryID:      factoryID,
		StorageMB:      mb.Round(2).InexactFloat64(),
		TotalDocuments: count,
		CounterMB:      mb.Ceil().IntPart(),
	}

	licenses, err := s.licenses.ListLicenses(ctx, licensedomain.ListLicensesRequest{
		FactoryID: factoryID,
		Status:    licensedomain.StatusActive,
	})
	if err != nil {
		return storagedomain.StorageUsage{}, err
	}

	var errs []error
	for _, l := range licenses {
		if _, err := s.licenses.SetUsage(ctx, l.ID, usagedomain.UsageStorage, usage.CounterMB); err != nil {
			s.log.Error("failed to record storage usage",
				zap.String("factory_id", factoryID),
				zap.String("license_id", l.ID),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("license %s: %w", l.ID, err))
			continue
		}
		usage.UpdatedLicenses = append(usage.UpdatedLicenses, l.ID)
	}
	if len(errs) > 0 {
		return usage, errors.Join(errs...)
	}

	s.log.Debug("storage usage recalculated",
		zap.String("factory_id", factoryID),
		zap.Float64("storage_mb", usage.StorageMB),
		zap.Int64("documents", count),
		zap.Int("licenses", len(usage.UpdatedLicenses)))
	return usage, nil
}
