package service

import plandomain "github.com/smallbiznis/factorylicense/internal/plan/domain"

const unlimited = plandomain.Unlimited

// DefaultCatalog returns the built-in catalog. Callers receive fresh maps.
func DefaultCatalog() map[plandomain.Category]map[string]plandomain.Plan {
	return map[plandomain.Category]map[string]plandomain.Plan{
		plandomain.CategoryFactoryLicense: {
			"starter": {
				ID:            "starter",
				Name:          "Starter",
				Category:      plandomain.CategoryFactoryLicense,
				Price:         299,
				Currency:      "USD",
				BillingPeriod: plandomain.BillingPeriodAnnual,
				Features: map[string]any{
					"maxWorkers":        int64(50),
					"documentsPerMonth": int64(1000),
					"aiAssistant":       false,
					"advancedAnalytics": false,
					"apiAccess":         false,
					"customBranding":    false,
					"support":           "email",
				},
				Limits: map[string]int64{
					plandomain.LimitWorkers:           50,
					plandomain.LimitStorage:           1024,
					plandomain.LimitDocumentsPerMonth: 1000,
					plandomain.LimitAIRequests:        100,
					plandomain.LimitUsers:             5,
				},
			},
			"professional": {
				ID:            "professional",
				Name:          "Professional",
				Category:      plandomain.CategoryFactoryLicense,
				Price:         500,
				Currency:      "USD",
				BillingPeriod: plandomain.BillingPeriodAnnual,
				Features: map[string]any{
					"maxWorkers":        int64(250),
					"documentsPerMonth": int64(10000),
					"aiAssistant":       true,
					"advancedAnalytics": true,
					"apiAccess":         false,
					"customBranding":    false,
					"support":           "priority",
				},
				Limits: map[string]int64{
					plandomain.LimitWorkers:           250,
					plandomain.LimitStorage:           10240,
					plandomain.LimitDocumentsPerMonth: 10000,
					plandomain.LimitAIRequests:        1000,
					plandomain.LimitUsers:             25,
				},
			},
			"enterprise": {
				ID:            "enterprise",
				Name:          "Enterprise",
				Category:      plandomain.CategoryFactoryLicense,
				Price:         1999,
				Currency:      "USD",
				BillingPeriod: plandomain.BillingPeriodAnnual,
				Features: map[string]any{
					"maxWorkers":        unlimited,
					"documentsPerMonth": unlimited,
					"aiAssistant":       true,
					"advancedAnalytics": true,
					"apiAccess":         true,
					"customBranding":    true,
					"support":           "dedicated",
				},
				Limits: map[string]int64{
					plandomain.LimitWorkers:           unlimited,
					plandomain.LimitStorage:           unlimited,
					plandomain.LimitDocumentsPerMonth: unlimited,
					plandomain.LimitAIRequests:        unlimited,
					plandomain.LimitUsers:             unlimited,
				},
			},
		},
		plandomain.CategoryStorage: {
			"pay_as_you_go": {
				ID:            "pay_as_you_go",
				Name:          "Storage (pay as you go)",
				Category:      plandomain.CategoryStorage,
				Price:         0.01,
				Currency:      "USD",
				BillingPeriod: plandomain.BillingPeriodMonthly,
				Features:      map[string]any{"unit": "MB"},
				Limits:        map[string]int64{},
			},
		},
		plandomain.CategoryAIAssistant: {
			"tokens_100k": {
				ID:            "tokens_100k",
				Name:          "AI Assistant 100K tokens",
				Category:      plandomain.CategoryAIAssistant,
				Price:         10,
				Currency:      "USD",
				BillingPeriod: plandomain.BillingPeriodOneTime,
				Features:      map[string]any{"tokens": int64(100_000)},
				Limits:        map[string]int64{},
			},
			"tokens_1m": {
				ID:            "tokens_1m",
				Name:          "AI Assistant 1M tokens",
				Category:      plandomain.CategoryAIAssistant,
				Price:         80,
				Currency:      "USD",
				BillingPeriod: plandomain.BillingPeriodOneTime,
				Features:      map[string]any{"tokens": int64(1_000_000)},
				Limits:        map[string]int64{},
			},
		},
		plandomain.CategoryAddons: {
			"advanced_analytics": addon("advanced_analytics", "Advanced Analytics", 49),
			"api_access":         addon("api_access", "API Access", 99),
			"priority_support":   addon("priority_support", "Priority Support", 199),
		},
	}
}

func addon(id, name string, price float64) plandomain.Plan {
	return plandomain.Plan{
		ID:            id,
		Name:          name,
		Category:      plandomain.CategoryAddons,
		Price:         price,
		Currency:      "USD",
		BillingPeriod: plandomain.BillingPeriodMonthly,
		Features:      map[string]any{id: true},
		Limits:        map[string]int64{},
	}
}
