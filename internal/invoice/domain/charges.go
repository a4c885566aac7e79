package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
	licensedomain "github.com/smallbiznis/factorylicense/internal/license/domain"
	plandomain "github.com/smallbiznis/factorylicense/internal/plan/domain"
	usagedomain "github.com/smallbiznis/factorylicense/internal/usage/domain"
)

var (
	StorageOverageRate = decimal.RequireFromString("0.01")
	AIOverageRate      = decimal.RequireFromString("0.001")
	TaxRate            = decimal.RequireFromString("0.10")
)

type Charges struct {
	Currency string
	Items    []InvoiceItem
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// CalculateCharges prices one billing period from the license's plan snapshot
// and the live counters in report. Monetary values are rounded half away from
// zero at the cent.
func CalculateCharges(license licensedomain.License, report usagedomain.Report) Charges {
	plan := license.Plan.Data()
	usage := report.CurrentUsage
	var items []InvoiceItem

	if plan.BillingPeriod == plandomain.BillingPeriodAnnual {
		price := decimal.NewFromFloat(plan.Price)
		items = append(items, InvoiceItem{
			Type:        ItemTypeBase,
			Description: fmt.Sprintf("%s plan (annual)", plan.Name),
			Quantity:    1,
			UnitPrice:   price,
			Total:       round2(price),
		})
	}

	if over, ok := overage(plan.Limits, string(usagedomain.UsageStorage), usage.Storage); ok {
		items = append(items, InvoiceItem{
			Type:        ItemTypeStorageOverage,
			Description: fmt.Sprintf("Storage overage (%d MB)", over),
			Quantity:    over,
			UnitPrice:   StorageOverageRate,
			Total:       round2(StorageOverageRate.Mul(decimal.NewFromInt(over))),
		})
	}

	if over, ok := overage(plan.Limits, string(usagedomain.UsageAIRequests), usage.AIRequests); ok {
		items = append(items, InvoiceItem{
			Type:        ItemTypeAIOverage,
			Description: fmt.Sprintf("AI request overage (%d requests)", over),
			Quantity:    over,
			UnitPrice:   AIOverageRate,
			Total:       round2(AIOverageRate.Mul(decimal.NewFromInt(over))),
		})
	}

	subtotal := decimal.Zero
	for i := range items {
		items[i].Position = i + 1
		subtotal = subtotal.Add(items[i].Total)
	}
	subtotal = round2(subtotal)
	tax := round2(subtotal.Mul(TaxRate))

	return Charges{
		Currency: plan.Currency,
		Items:    items,
		Subtotal: subtotal,
		Tax:      tax,
		Total:    round2(subtotal.Add(tax)),
	}
}

func overage(limits map[string]int64, key string, used int64) (int64, bool) {
	limit, ok := limits[key]
	if !ok || limit == plandomain.Unlimited || used <= limit {
		return 0, false
	}
	return used - limit, true
}

// decimal.Round rounds half away from zero.
func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
