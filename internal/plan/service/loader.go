package service

import (
	"fmt"
	"strings"

	"github.com/smallbiznis/factorylicense/internal/config"
	plandomain "github.com/smallbiznis/factorylicense/internal/plan/domain"
)

// Patch is a partial plan. Nil or empty fields keep the lower layer's value.
type Patch struct {
	Name          string
	Price         *float64
	Currency      string
	BillingPeriod string
	Features      map[string]any
	Limits        map[string]int64
}

// Layer is one source of overrides, keyed by category then plan id.
type Layer map[string]map[string]Patch

// Merge applies layers over base in order. Merging is additive per category:
// a layer can patch or add plans but never removes a category or a plan.
func Merge(base map[plandomain.Category]map[string]plandomain.Plan, layers ...Layer) (map[plandomain.Category]map[string]plandomain.Plan, error) {
	out := make(map[plandomain.Category]map[string]plandomain.Plan, len(base))
	for category, plans := range base {
		copied := make(map[string]plandomain.Plan, len(plans))
		for id, p := range plans {
			copied[id] = p.Clone()
		}
		out[category] = copied
	}

	for _, layer := range layers {
		for rawCategory, patches := range layer {
			category, ok := plandomain.ParseCategory(rawCategory)
			if !ok {
				return nil, fmt.Errorf("%w: %q", plandomain.ErrInvalidCategory, rawCategory)
			}
			plans, ok := out[category]
			if !ok {
				plans = map[string]plandomain.Plan{}
				out[category] = plans
			}
			for rawID, patch := range patches {
				id := strings.TrimSpace(rawID)
				current, exists := plans[id]
				if !exists {
					current = plandomain.Plan{
						ID:            id,
						Name:          id,
						Category:      category,
						Currency:      "USD",
						BillingPeriod: defaultPeriod(category),
						Features:      map[string]any{},
						Limits:        map[string]int64{},
					}
				}
				updated, err := apply(current, patch)
				if err != nil {
					return nil, fmt.Errorf("%s.%s: %w", category, id, err)
				}
				plans[id] = updated
			}
		}
	}
	return out, nil
}

func apply(p plandomain.Plan, patch Patch) (plandomain.Plan, error) {
	if name := strings.TrimSpace(patch.Name); name != "" {
		p.Name = name
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if currency := strings.TrimSpace(patch.Currency); currency != "" {
		p.Currency = strings.ToUpper(currency)
	}
	if patch.BillingPeriod != "" {
		period, ok := plandomain.ParseBillingPeriod(patch.BillingPeriod)
		if !ok {
			return p, fmt.Errorf("invalid billing period %q", patch.BillingPeriod)
		}
		p.BillingPeriod = period
	}
	for k, v := range patch.Features {
		p.Features[canonicalKey(p.Features, k)] = v
	}
	for k, v := range patch.Limits {
		if v < plandomain.Unlimited {
			return p, fmt.Errorf("invalid limit %s=%d", k, v)
		}
		p.Limits[canonicalKey(p.Limits, k)] = v
	}
	return p, nil
}

// canonicalKey maps a case-folded key (viper lowercases map keys) back onto
// the spelling already present in the plan.
func canonicalKey[V any](existing map[string]V, key string) string {
	if _, ok := existing[key]; ok {
		return key
	}
	for k := range existing {
		if strings.EqualFold(k, key) {
			return k
		}
	}
	return key
}

func defaultPeriod(category plandomain.Category) plandomain.BillingPeriod {
	switch category {
	case plandomain.CategoryFactoryLicense:
		return plandomain.BillingPeriodAnnual
	case plandomain.CategoryAIAssistant:
		return plandomain.BillingPeriodOneTime
	default:
		return plandomain.BillingPeriodMonthly
	}
}

// FileLayer converts overrides read from plans.yml.
func FileLayer(overrides config.PlanOverrides) Layer {
	layer := Layer{}
	for category, plans := range overrides {
		patches := make(map[string]Patch, len(plans))
		for id, o := range plans {
			patches[id] = Patch{
				Name:          o.Name,
				Price:         o.Price,
				Currency:      o.Currency,
				BillingPeriod: o.BillingPeriod,
				Features:      o.Features,
				Limits:        o.Limits,
			}
		}
		layer[category] = patches
	}
	return layer
}

// PersistedLayer converts rows of the plan_overrides table.
func PersistedLayer(rows []plandomain.PlanOverride) Layer {
	layer := Layer{}
	for _, row := range rows {
		patches, ok := layer[row.Category]
		if !ok {
			patches = map[string]Patch{}
			layer[row.Category] = patches
		}
		patches[row.PlanID] = Patch{
			Name:          row.Name,
			Price:         row.Price,
			Currency:      row.Currency,
			BillingPeriod: row.Period,
			Features:      row.Features,
			Limits:        row.Limits.Data(),
		}
	}
	return layer
}
