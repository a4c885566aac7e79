package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/smallbiznis/factorylicense/internal/config"
	plandomain "github.com/smallbiznis/factorylicense/internal/plan/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type ServiceParam struct {
	fx.In

	Log       *zap.Logger
	Overrides config.PlanOverrides          `optional:"true"`
	Repo      plandomain.OverrideRepository `optional:"true"`
}

// Service is the read-mostly plan catalog. It is built once at startup and
// never mutated afterwards, so lookups need no locking.
type Service struct {
	log     *zap.Logger
	catalog map[plandomain.Category]map[string]plandomain.Plan
}

func NewService(p ServiceParam) (plandomain.Service, error) {
	log := p.Log.Named("plan.service")

	layers := []Layer{FileLayer(p.Overrides)}
	if p.Repo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		rows, err := p.Repo.List(ctx)
		cancel()
		if err != nil {
			return nil, err
		}
		layers = append(layers, PersistedLayer(rows))
	}

	catalog, err := Merge(DefaultCatalog(), layers...)
	if err != nil {
		return nil, err
	}

	for category, plans := range catalog {
		log.Info("plan catalog loaded", zap.String("category", string(category)), zap.Int("plans", len(plans)))
	}
	return &Service{log: log, catalog: catalog}, nil
}

// NewStatic builds a catalog without persisted overrides.
func NewStatic(catalog map[plandomain.Category]map[string]plandomain.Plan) *Service {
	return &Service{log: zap.NewNop(), catalog: catalog}
}

func (s *Service) GetPlan(category plandomain.Category, planID string) (plandomain.Plan, error) {
	plans, ok := s.catalog[category]
	if !ok {
		return plandomain.Plan{}, plandomain.ErrInvalidCategory
	}
	plan, ok := plans[strings.TrimSpace(planID)]
	if !ok {
		return plandomain.Plan{}, plandomain.ErrPlanNotFound
	}
	return plan.Clone(), nil
}

func (s *Service) ListPlans(category plandomain.Category) []plandomain.Plan {
	plans := s.catalog[category]
	out := make([]plandomain.Plan, 0, len(plans))
	for _, p := range plans {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Price != out[j].Price {
			return out[i].Price < out[j].Price
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Service) Categories() []plandomain.Category {
	out := make([]plandomain.Category, 0, len(s.catalog))
	for c := range s.catalog {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
