package repository

import (
	"context"

	plandomain "github.com/smallbiznis/factorylicense/internal/plan/domain"
	"github.com/smallbiznis/factorylicense/pkg/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct {
	db *gorm.DB
}

func Provide(conn *gorm.DB) plandomain.OverrideRepository {
	return &repo{db: conn}
}

func (r *repo) List(ctx context.Context) ([]plandomain.PlanOverride, error) {
	var rows []plandomain.PlanOverride
	err := r.db.WithContext(ctx).Order("category ASC, plan_id ASC").Find(&rows).Error
	return rows, db.Wrap("plan_overrides.list", err)
}

func (r *repo) Upsert(ctx context.Context, override *plandomain.PlanOverride) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "category"}, {Name: "plan_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "price", "currency", "period", "features", "limits", "updated_at"}),
	}).Create(override).Error
	return db.Wrap("plan_overrides.upsert", err)
}
