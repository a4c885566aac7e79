package repository

import (
	"context"
	"time"

	usagedomain "github.com/smallbiznis/factorylicense/internal/usage/domain"
	"github.com/smallbiznis/factorylicense/pkg/db"
	"github.com/smallbiznis/factorylicense/pkg/db/option"
	"github.com/smallbiznis/factorylicense/pkg/repository"
	"gorm.io/gorm"
)

type repo struct {
	events  repository.Repository[usagedomain.UsageEvent]
	aiLogs  repository.Repository[usagedomain.AIUsageLog]
	timeout time.Duration
}

func Provide(conn *gorm.DB, cfg db.Config) usagedomain.Repository {
	return New(conn, cfg.Timeout)
}

func New(conn *gorm.DB, timeout time.Duration) usagedomain.Repository {
	return &repo{
		events:  repository.ProvideStore[usagedomain.UsageEvent](conn),
		aiLogs:  repository.ProvideStore[usagedomain.AIUsageLog](conn),
		timeout: timeout,
	}
}

func (r *repo) ListEvents(ctx context.Context, licenseID string, since time.Time) ([]usagedomain.UsageEvent, error) {
	ctx, cancel := db.WithTimeout(ctx, r.timeout)
	defer cancel()

	events, err := r.events.Find(ctx,
		&usagedomain.UsageEvent{LicenseID: licenseID},
		option.ApplyOperator(option.Condition{Field: "timestamp", Operator: option.GTE, Value: since}),
		option.WithSortBy(option.QuerySortBy{Field: "timestamp"}),
		option.WithSortBy(option.QuerySortBy{Field: "id"}),
	)
	if err != nil {
		return nil, db.Wrap("usage_events.list", err)
	}
	return derefAll(events), nil
}

func (r *repo) CreateAILog(ctx context.Context, log *usagedomain.AIUsageLog) error {
	ctx, cancel := db.WithTimeout(ctx, r.timeout)
	defer cancel()
	return db.Wrap("ai_usage_logs.create", r.aiLogs.Create(ctx, log))
}

func (r *repo) ListAILogs(ctx context.Context, licenseID string, since time.Time) ([]usagedomain.AIUsageLog, error) {
	ctx, cancel := db.WithTimeout(ctx, r.timeout)
	defer cancel()

	logs, err := r.aiLogs.Find(ctx,
		&usagedomain.AIUsageLog{LicenseID: licenseID},
		option.ApplyOperator(option.Condition{Field: "timestamp", Operator: option.GTE, Value: since}),
		option.WithSortBy(option.QuerySortBy{Field: "timestamp"}),
	)
	if err != nil {
		return nil, db.Wrap("ai_usage_logs.list", err)
	}
	return derefAll(logs), nil
}

func derefAll[T any](in []*T) []T {
	out := make([]T, 0, len(in))
	for _, v := range in {
		out = append(out, *v)
	}
	return out
}
