package domain

import (
	"math"
	"testing"
	"time"

	plandomain "github.com/smallbiznis/factorylicense/internal/plan/domain"
	usagedomain "github.com/smallbiznis/factorylicense/internal/usage/domain"
	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
)

func licenseWith(limits map[string]int64, usage usagedomain.Counters) License {
	return License{
		Status:  StatusActive,
		EndDate: time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
		Plan:    datatypes.NewJSONType(PlanSnapshot{Limits: limits}),
		Usage:   usage,
	}
}

func TestNewLicenseID(t *testing.T) {
	at := time.UnixMilli(1767225600123).UTC()
	assert.Equal(t, "f-9_1767225600123", NewLicenseID(" f-9 ", at))
}

func TestAllows(t *testing.T) {
	l := licenseWith(map[string]int64{"documents": 1000, "workers": plandomain.Unlimited}, usagedomain.Counters{Documents: 999, Workers: 5000})

	attempted, limit, ok := l.Allows(usagedomain.UsageDocuments, 1)
	assert.True(t, ok)
	assert.Equal(t, int64(1000), attempted)
	assert.Equal(t, int64(1000), limit)

	attempted, limit, ok = l.Allows(usagedomain.UsageDocuments, 2)
	assert.False(t, ok)
	assert.Equal(t, int64(1001), attempted)
	assert.Equal(t, int64(1000), limit)

	_, limit, ok = l.Allows(usagedomain.UsageWorkers, 1)
	assert.True(t, ok)
	assert.Equal(t, plandomain.Unlimited, limit)

	_, _, ok = l.Allows(usagedomain.UsageUsers, 1_000_000)
	assert.True(t, ok, "missing limit means no cap")
}

func TestAllowsOverflow(t *testing.T) {
	l := licenseWith(map[string]int64{"documents": 1000, "workers": plandomain.Unlimited}, usagedomain.Counters{Documents: 999, Workers: 10})

	attempted, limit, ok := l.Allows(usagedomain.UsageDocuments, math.MaxInt64)
	assert.False(t, ok)
	assert.Equal(t, int64(math.MaxInt64), attempted)
	assert.Equal(t, int64(1000), limit)

	_, limit, ok = l.Allows(usagedomain.UsageWorkers, math.MaxInt64)
	assert.False(t, ok, "uncapped counters still cannot wrap")
	assert.Equal(t, plandomain.Unlimited, limit)

	attempted, _, ok = l.Allows(usagedomain.UsageWorkers, math.MaxInt64-10)
	assert.True(t, ok)
	assert.Equal(t, int64(math.MaxInt64), attempted)
}

func TestNormalizeAmount(t *testing.T) {
	n, err := NormalizeAmount(0)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = NormalizeAmount(7)
	assert.NoError(t, err)
	assert.Equal(t, int64(7), n)

	_, err = NormalizeAmount(-1)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestLimitForPrefersMonthlyDocuments(t *testing.T) {
	l := licenseWith(map[string]int64{"documents": 1000, plandomain.LimitDocumentsPerMonth: 200}, usagedomain.Counters{})

	limit, ok := l.LimitFor(usagedomain.UsageDocuments)
	assert.True(t, ok)
	assert.Equal(t, int64(200), limit)
}

func TestIsActiveAt(t *testing.T) {
	l := licenseWith(nil, usagedomain.Counters{})

	assert.True(t, l.IsActiveAt(l.EndDate.Add(-time.Second)))
	assert.False(t, l.IsActiveAt(l.EndDate), "term end is exclusive")

	l.Status = StatusCancelled
	assert.False(t, l.IsActiveAt(l.EndDate.Add(-time.Hour)))
}

func TestIsUsageLimitExceeded(t *testing.T) {
	err := error(&UsageLimitExceededError{UsageType: usagedomain.UsageStorage, Attempted: 11, Limit: 10})
	assert.True(t, IsUsageLimitExceeded(err))
	assert.Contains(t, err.Error(), "storage attempted=11 limit=10")
	assert.False(t, IsUsageLimitExceeded(ErrInvalidAmount))
}
