package domain

import (
	"context"
	"time"

	usagedomain "github.com/smallbiznis/factorylicense/internal/usage/domain"
)

type CreateLicenseRequest struct {
	FactoryID      string `json:"factoryId"`
	PlanID         string `json:"planId"`
	OrganizationID string `json:"organizationId"`
}

type ListLicensesRequest struct {
	FactoryID      string
	OrganizationID string
	Status         Status
}

type Service interface {
	CreateLicense(ctx context.Context, req CreateLicenseRequest) (License, error)
	GetLicense(ctx context.Context, licenseID string) (License, error)
	ListLicenses(ctx context.Context, req ListLicensesRequest) ([]License, error)
	RenewLicense(ctx context.Context, licenseID string) (time.Time, error)
	CancelLicense(ctx context.Context, licenseID string) error

	// TrackUsage adds amount to a counter and fails with
	// *UsageLimitExceededError without mutating state when the plan forbids it.
	TrackUsage(ctx context.Context, licenseID string, usageType usagedomain.UsageType, amount int64) (int64, error)
	// SetUsage overwrites a counter with a freshly measured absolute value.
	SetUsage(ctx context.Context, licenseID string, usageType usagedomain.UsageType, value int64) (int64, error)

	IsLicenseActive(ctx context.Context, licenseID string) (bool, error)
	CheckUsageLimit(ctx context.Context, licenseID string, usageType usagedomain.UsageType, amount int64) (bool, error)
	ActiveLicenses() []License
}

type Repository interface {
	Create(ctx context.Context, license *License) error
	Get(ctx context.Context, licenseID string) (*License, error)
	List(ctx context.Context, req ListLicensesRequest) ([]License, error)
	// Save writes every mutable column when the stored version still equals
	// expectedVersion and appends events in the same transaction.
	Save(ctx context.Context, license *License, expectedVersion int64, events ...*usagedomain.UsageEvent) error
}
