// Package domain contains the plan catalog model.
package domain

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

type Category string

const (
	CategoryFactoryLicense Category = "factory_license"
	CategoryStorage        Category = "storage"
	CategoryAIAssistant    Category = "ai_assistant"
	CategoryAddons         Category = "addons"
)

type BillingPeriod string

const (
	BillingPeriodAnnual  BillingPeriod = "annual"
	BillingPeriodMonthly BillingPeriod = "monthly"
	BillingPeriodOneTime BillingPeriod = "one_time"
)

// Unlimited is the sentinel for limits and numeric features without a cap.
const Unlimited int64 = -1

// Limit keys metered against licenses.
const (
	LimitWorkers           = "workers"
	LimitStorage           = "storage"
	LimitDocuments         = "documents"
	LimitDocumentsPerMonth = "documentsPerMonth"
	LimitAIRequests        = "aiRequests"
	LimitUsers             = "users"
)

// Plan is an immutable catalog entry.
type Plan struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Category      Category         `json:"category"`
	Price         float64          `json:"price"`
	Currency      string           `json:"currency"`
	BillingPeriod BillingPeriod    `json:"billingPeriod"`
	Features      map[string]any   `json:"features"`
	Limits        map[string]int64 `json:"limits"`
}

// Limit returns the cap for key and whether the plan defines one.
func (p Plan) Limit(key string) (int64, bool) {
	v, ok := p.Limits[key]
	return v, ok
}

// Clone returns a deep copy so snapshots never share maps with the catalog.
func (p Plan) Clone() Plan {
	out := p
	out.Features = make(map[string]any, len(p.Features))
	for k, v := range p.Features {
		out.Features[k] = v
	}
	out.Limits = make(map[string]int64, len(p.Limits))
	for k, v := range p.Limits {
		out.Limits[k] = v
	}
	return out
}

// PlanOverride is a persisted partial plan definition.
type PlanOverride struct {
	ID        uint                                 `gorm:"primaryKey"`
	Category  string                               `gorm:"type:text;not null;uniqueIndex:ux_plan_override"`
	PlanID    string                               `gorm:"type:text;not null;uniqueIndex:ux_plan_override"`
	Name      string                               `gorm:"type:text"`
	Price     *float64                             `gorm:""`
	Currency  string                               `gorm:"type:text"`
	Period    string                               `gorm:"type:text"`
	Features  datatypes.JSONMap                    `gorm:"type:json"`
	Limits    datatypes.JSONType[map[string]int64] `gorm:"type:json"`
	CreatedAt time.Time                            `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time                            `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (PlanOverride) TableName() string { return "plan_overrides" }

func ParseCategory(raw string) (Category, bool) {
	switch Category(strings.ToLower(strings.TrimSpace(raw))) {
	case CategoryFactoryLicense:
		return CategoryFactoryLicense, true
	case CategoryStorage:
		return CategoryStorage, true
	case CategoryAIAssistant:
		return CategoryAIAssistant, true
	case CategoryAddons:
		return CategoryAddons, true
	default:
		return "", false
	}
}

func ParseBillingPeriod(raw string) (BillingPeriod, bool) {
	switch BillingPeriod(strings.ToLower(strings.TrimSpace(raw))) {
	case BillingPeriodAnnual:
		return BillingPeriodAnnual, true
	case BillingPeriodMonthly:
		return BillingPeriodMonthly, true
	case BillingPeriodOneTime, "one-time", "onetime":
		return BillingPeriodOneTime, true
	default:
		return "", false
	}
}
