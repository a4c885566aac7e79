package domain

import (
	"errors"
	"fmt"

	usagedomain "github.com/smallbiznis/factorylicense/internal/usage/domain"
)

var (
	ErrLicenseNotFound     = errors.New("license_not_found")
	ErrInvalidPlan         = errors.New("invalid_plan")
	ErrInvalidFactory      = errors.New("invalid_factory")
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidUsageType    = errors.New("invalid_usage_type")
	ErrInvalidAmount       = errors.New("invalid_amount")
	ErrLicenseCancelled    = errors.New("license_cancelled")
	ErrVersionConflict     = errors.New("license_version_conflict")
	ErrDuplicateLicense    = errors.New("license_already_exists")
)

// UsageLimitExceededError is returned when metering would push a counter
// past its plan limit. Callers block the originating action.
type UsageLimitExceededError struct {
	UsageType usagedomain.UsageType
	Attempted int64
	Limit     int64
}

func (e *UsageLimitExceededError) Error() string {
	return fmt.Sprintf("usage_limit_exceeded: %s attempted=%d limit=%d", e.UsageType, e.Attempted, e.Limit)
}

func IsUsageLimitExceeded(err error) bool {
	var target *UsageLimitExceededError
	return errors.As(err, &target)
}
