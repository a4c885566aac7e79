package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/factorylicense/internal/clock"
	licensedomain "github.com/smallbiznis/factorylicense/internal/license/domain"
	usagedomain "github.com/smallbiznis/factorylicense/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type ServiceParam struct {
	fx.In

	Log      *zap.Logger
	Repo     usagedomain.Repository
	Licenses licensedomain.Service
	Clock    clock.Clock
	GenID    *snowflake.Node
}

type Service struct {
	log      *zap.Logger
	repo     usagedomain.Repository
	licenses licensedomain.Service
	clock    clock.Clock
	genID    *snowflake.Node
}

func NewService(p ServiceParam) usagedomain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.New()
	}
	return &Service{
		log:      p.Log.Named("usage.service"),
		repo:     p.Repo,
		licenses: p.Licenses,
		clock:    clk,
		genID:    p.GenID,
	}
}

func (s *Service) GetUsageReport(ctx context.Context, licenseID string, period usagedomain.Period) (usagedomain.Report, error) {
	start, err := period.Start(s.clock.Now())
	if err != nil {
		return usagedomain.Report{}, err
	}

	license, err := s.licenses.GetLicense(ctx, licenseID)
	if err != nil {
		return usagedomain.Report{}, err
	}

	events, err := s.repo.ListEvents(ctx, license.ID, start)
	if err != nil {
		s.log.Error("failed to list usage events",
			zap.String("license_id", license.ID),
			zap.String("period", string(period)),
			zap.Error(err))
		return usagedomain.Report{}, err
	}

	totals := make(map[usagedomain.UsageType]int64, len(usagedomain.UsageTypes))
	for _, t := range usagedomain.UsageTypes {
		totals[t] = 0
	}
	for _, ev := range events {
		totals[ev.UsageType] += ev.Amount
	}

	return usagedomain.Report{
		LicenseID:    license.ID,
		Period:       period,
		StartDate:    start,
		Events:       events,
		Totals:       totals,
		CurrentUsage: license.Usage,
	}, nil
}

func (s *Service) TrackAIUsage(ctx context.Context, licenseID string, tokensUsed int64, cost float64) error {
	if tokensUsed < 0 {
		return usagedomain.ErrInvalidTokenCount
	}
	if cost < 0 {
		return usagedomain.ErrInvalidCost
	}
	licenseID = strings.TrimSpace(licenseID)

	if _, err := s.licenses.TrackUsage(ctx, licenseID, usagedomain.UsageAIRequests, 1); err != nil {
		return err
	}

	entry := &usagedomain.AIUsageLog{
		ID:         s.genID.Generate(),
		LicenseID:  licenseID,
		TokensUsed: tokensUsed,
		Cost:       cost,
		Timestamp:  s.clock.Now(),
	}
	if err := s.repo.CreateAILog(ctx, entry); err != nil {
		// The quota increment already committed; the detail row is lost.
		s.log.Error("failed to record ai usage log",
			zap.String("license_id", licenseID),
			zap.Int64("tokens_used", tokensUsed),
			zap.Error(err))
		return err
	}
	return nil
}

func (s *Service) AIUsageSummary(ctx context.Context, licenseID string, period usagedomain.Period) (usagedomain.AISummary, error) {
	start, err := period.Start(s.clock.Now())
	if err != nil {
		return usagedomain.AISummary{}, err
	}
	license, err := s.licenses.GetLicense(ctx, licenseID)
	if err != nil {
		return usagedomain.AISummary{}, err
	}

	logs, err := s.repo.ListAILogs(ctx, license.ID, start)
	if err != nil {
		return usagedomain.AISummary{}, err
	}

	summary := usagedomain.AISummary{LicenseID: license.ID, StartDate: start}
	cost := decimal.Zero
	for _, l := range logs {
		summary.Requests++
		summary.TokensUsed += l.TokensUsed
		cost = cost.Add(decimal.NewFromFloat(l.Cost))
	}
	summary.Cost = cost.Round(6).InexactFloat64()
	return summary, nil
}
