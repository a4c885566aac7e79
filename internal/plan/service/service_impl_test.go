package service

import (
	"context"
	"errors"
	"testing"

	"github.com/smallbiznis/factorylicense/internal/config"
	plandomain "github.com/smallbiznis/factorylicense/internal/plan/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type overrideRepoStub struct {
	rows []plandomain.PlanOverride
	err  error
}

func (r *overrideRepoStub) List(context.Context) ([]plandomain.PlanOverride, error) {
	return r.rows, r.err
}

func (r *overrideRepoStub) Upsert(context.Context, *plandomain.PlanOverride) error {
	return r.err
}

func price(v float64) *float64 { return &v }

func TestGetPlan(t *testing.T) {
	svc := NewStatic(DefaultCatalog())

	plan, err := svc.GetPlan(plandomain.CategoryFactoryLicense, "professional")
	require.NoError(t, err)
	assert.Equal(t, float64(500), plan.Price)
	assert.Equal(t, plandomain.BillingPeriodAnnual, plan.BillingPeriod)
	assert.Equal(t, int64(1000), plan.Limits[plandomain.LimitAIRequests])

	_, err = svc.GetPlan(plandomain.CategoryFactoryLicense, "platinum")
	assert.ErrorIs(t, err, plandomain.ErrPlanNotFound)

	_, err = svc.GetPlan(plandomain.Category("bogus"), "starter")
	assert.ErrorIs(t, err, plandomain.ErrInvalidCategory)
}

func TestGetPlanReturnsCopy(t *testing.T) {
	svc := NewStatic(DefaultCatalog())

	plan, err := svc.GetPlan(plandomain.CategoryFactoryLicense, "starter")
	require.NoError(t, err)
	plan.Limits[plandomain.LimitDocumentsPerMonth] = 1

	again, err := svc.GetPlan(plandomain.CategoryFactoryLicense, "starter")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), again.Limits[plandomain.LimitDocumentsPerMonth])
}

func TestListPlansSortedByPrice(t *testing.T) {
	svc := NewStatic(DefaultCatalog())
	plans := svc.ListPlans(plandomain.CategoryFactoryLicense)
	require.Len(t, plans, 3)
	assert.Equal(t, []string{"starter", "professional", "enterprise"}, []string{plans[0].ID, plans[1].ID, plans[2].ID})
	assert.Len(t, svc.Categories(), 4)
}

func TestMergeIsAdditivePerCategory(t *testing.T) {
	layer := Layer{
		"factory_license": {
			"starter": {Price: price(349), Limits: map[string]int64{"documentspermonth": 1500}},
			"growth":  {Name: "Growth", Price: price(799), Limits: map[string]int64{"workers": 120}},
		},
	}

	merged, err := Merge(DefaultCatalog(), layer)
	require.NoError(t, err)

	assert.Len(t, merged, 4, "no category may be dropped")
	assert.Len(t, merged[plandomain.CategoryAddons], 3)

	starter := merged[plandomain.CategoryFactoryLicense]["starter"]
	assert.Equal(t, float64(349), starter.Price)
	assert.Equal(t, int64(1500), starter.Limits[plandomain.LimitDocumentsPerMonth])
	assert.NotContains(t, starter.Limits, "documentspermonth")
	assert.Equal(t, int64(50), starter.Limits[plandomain.LimitWorkers])

	growth := merged[plandomain.CategoryFactoryLicense]["growth"]
	assert.Equal(t, "Growth", growth.Name)
	assert.Equal(t, plandomain.BillingPeriodAnnual, growth.BillingPeriod)
	assert.Equal(t, "USD", growth.Currency)

	base := DefaultCatalog()
	assert.Equal(t, float64(299), base[plandomain.CategoryFactoryLicense]["starter"].Price)
}

func TestMergeRejectsUnknownCategory(t *testing.T) {
	_, err := Merge(DefaultCatalog(), Layer{"hardware": {"x": {}}})
	assert.True(t, errors.Is(err, plandomain.ErrInvalidCategory))
}

func TestMergeRejectsInvalidLimit(t *testing.T) {
	_, err := Merge(DefaultCatalog(), Layer{"factory_license": {"starter": {Limits: map[string]int64{"users": -5}}}})
	assert.Error(t, err)
}

func TestNewServiceLayersPersistedOverFile(t *testing.T) {
	repo := &overrideRepoStub{rows: []plandomain.PlanOverride{{
		Category: "factory_license",
		PlanID:   "starter",
		Price:    price(399),
		Limits:   datatypes.NewJSONType(map[string]int64{"users": 10}),
	}}}
	overrides := config.PlanOverrides{
		"factory_license": {"starter": {Price: price(349), Currency: "eur"}},
	}

	svc, err := NewService(ServiceParam{Log: zap.NewNop(), Overrides: overrides, Repo: repo})
	require.NoError(t, err)

	plan, err := svc.GetPlan(plandomain.CategoryFactoryLicense, "starter")
	require.NoError(t, err)
	assert.Equal(t, float64(399), plan.Price)
	assert.Equal(t, "EUR", plan.Currency)
	assert.Equal(t, int64(10), plan.Limits[plandomain.LimitUsers])
}

func TestNewServiceSurfacesRepositoryError(t *testing.T) {
	_, err := NewService(ServiceParam{Log: zap.NewNop(), Repo: &overrideRepoStub{err: errors.New("down")}})
	assert.Error(t, err)
}
