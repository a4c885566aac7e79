package domain

import (
	"context"
	"errors"
)

type Service interface {
	GetPlan(category Category, planID string) (Plan, error)
	ListPlans(category Category) []Plan
	Categories() []Category
}

// OverrideRepository reads persisted catalog overrides.
type OverrideRepository interface {
	List(ctx context.Context) ([]PlanOverride, error)
	Upsert(ctx context.Context, override *PlanOverride) error
}

var (
	ErrPlanNotFound    = errors.New("plan_not_found")
	ErrInvalidCategory = errors.New("invalid_category")
)
