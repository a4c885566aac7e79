// Package domain contains the license model and its metering rules.
package domain

import (
	"math"
	"strconv"
	"strings"
	"time"

	plandomain "github.com/smallbiznis/factorylicense/internal/plan/domain"
	usagedomain "github.com/smallbiznis/factorylicense/internal/usage/domain"
	"gorm.io/datatypes"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
)

// Term is the length of one license period.
const Term = 365 * 24 * time.Hour

// PlanSnapshot freezes the sold plan so later catalog edits never alter an
// existing license.
type PlanSnapshot struct {
	Name          string                   `json:"name"`
	Price         float64                  `json:"price"`
	Currency      string                   `json:"currency"`
	BillingPeriod plandomain.BillingPeriod `json:"billingPeriod"`
	Features      map[string]any           `json:"features"`
	Limits        map[string]int64         `json:"limits"`
}

func SnapshotOf(p plandomain.Plan) PlanSnapshot {
	c := p.Clone()
	return PlanSnapshot{
		Name:          c.Name,
		Price:         c.Price,
		Currency:      c.Currency,
		BillingPeriod: c.BillingPeriod,
		Features:      c.Features,
		Limits:        c.Limits,
	}
}

// License binds one factory to a factory_license plan snapshot. Licenses are
// never deleted; they only move between statuses.
type License struct {
	ID             string                           `gorm:"primaryKey;type:text"`
	FactoryID      string                           `gorm:"type:text;not null;index"`
	OrganizationID string                           `gorm:"type:text;not null;index"`
	PlanID         string                           `gorm:"type:text;not null"`
	Plan           datatypes.JSONType[PlanSnapshot] `gorm:"type:json;not null"`
	Status         Status                           `gorm:"type:text;not null;index"`
	StartDate      time.Time                        `gorm:"not null"`
	EndDate        time.Time                        `gorm:"not null"`
	Usage          usagedomain.Counters             `gorm:"embedded;embeddedPrefix:usage_"`
	Version        int64                            `gorm:"not null;default:1"`
	CancelledAt    *time.Time                       `gorm:""`
	RenewedAt      *time.Time                       `gorm:""`
	CreatedAt      time.Time                        `gorm:"not null"`
	UpdatedAt      time.Time                        `gorm:"not null"`
}

// TableName sets the database table name.
func (License) TableName() string { return "licenses" }

// NewLicenseID derives the id from the factory and creation instant.
func NewLicenseID(factoryID string, createdAt time.Time) string {
	return strings.TrimSpace(factoryID) + "_" + strconv.FormatInt(createdAt.UnixMilli(), 10)
}

// LimitFor resolves the cap for usageType. Documents are capped monthly when
// the plan says so. ok is false when the plan defines no cap at all.
func (l License) LimitFor(usageType usagedomain.UsageType) (limit int64, ok bool) {
	limits := l.Plan.Data().Limits
	if usageType == usagedomain.UsageDocuments {
		if v, found := limits[plandomain.LimitDocumentsPerMonth]; found {
			return v, true
		}
	}
	v, found := limits[string(usageType)]
	return v, found
}

// Allows reports whether adding amount to usageType stays within the plan.
// It returns the would-be total and the applicable limit. A total that would
// overflow int64 is never allowed; attempted saturates at math.MaxInt64.
func (l License) Allows(usageType usagedomain.UsageType, amount int64) (attempted int64, limit int64, ok bool) {
	current := l.Usage.Get(usageType)
	limit, defined := l.LimitFor(usageType)
	if !defined {
		limit = plandomain.Unlimited
	}
	if amount > math.MaxInt64-current {
		return math.MaxInt64, limit, false
	}
	attempted = current + amount
	if limit == plandomain.Unlimited {
		return attempted, limit, true
	}
	return attempted, limit, attempted <= limit
}

// NormalizeAmount applies the metering amount rules: zero counts as one and
// negative amounts are invalid.
func NormalizeAmount(amount int64) (int64, error) {
	switch {
	case amount < 0:
		return 0, ErrInvalidAmount
	case amount == 0:
		return 1, nil
	default:
		return amount, nil
	}
}

// IsActiveAt is true for an active license whose term has not ended.
func (l License) IsActiveAt(now time.Time) bool {
	return l.Status == StatusActive && l.EndDate.After(now)
}
