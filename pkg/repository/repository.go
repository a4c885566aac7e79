package repository

import (
	"context"

	"github.com/smallbiznis/factorylicense/pkg/db/option"
	"gorm.io/gorm"
)

// Repository is a generic gorm-backed store for one model type. Non-zero
// fields of the query struct become equality filters.
type Repository[T any] interface {
	WithTrx(tx *gorm.DB) Repository[T]
	Find(ctx context.Context, query *T, opts ...option.QueryOption) ([]*T, error)
	Create(ctx context.Context, resource *T) error
	Count(ctx context.Context, query *T) (int64, error)
}
