package domain

import (
	"context"
	"errors"
	"time"
)

// Report is a period-scoped view of the usage log next to the live counters.
type Report struct {
	LicenseID    string              `json:"licenseId"`
	Period       Period              `json:"period"`
	StartDate    time.Time           `json:"startDate"`
	Events       []UsageEvent        `json:"usage"`
	Totals       map[UsageType]int64 `json:"totals"`
	CurrentUsage Counters            `json:"currentUsage"`
}

type AISummary struct {
	LicenseID  string    `json:"licenseId"`
	StartDate  time.Time `json:"startDate"`
	Requests   int64     `json:"requests"`
	TokensUsed int64     `json:"tokensUsed"`
	Cost       float64   `json:"cost"`
}

type Service interface {
	GetUsageReport(ctx context.Context, licenseID string, period Period) (Report, error)
	TrackAIUsage(ctx context.Context, licenseID string, tokensUsed int64, cost float64) error
	AIUsageSummary(ctx context.Context, licenseID string, period Period) (AISummary, error)
}

type Repository interface {
	ListEvents(ctx context.Context, licenseID string, since time.Time) ([]UsageEvent, error)
	CreateAILog(ctx context.Context, log *AIUsageLog) error
	ListAILogs(ctx context.Context, licenseID string, since time.Time) ([]AIUsageLog, error)
}

var (
	ErrInvalidPeriod     = errors.New("invalid_period")
	ErrInvalidTokenCount = errors.New("invalid_token_count")
	ErrInvalidCost       = errors.New("invalid_cost")
)
