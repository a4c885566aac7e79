// Package option holds composable gorm query modifiers used by the generic store.
package option

import (
	"fmt"

	"gorm.io/gorm"
)

type QueryOption interface {
	Apply(*gorm.DB) *gorm.DB
}

type queryFunc func(*gorm.DB) *gorm.DB

func (f queryFunc) Apply(db *gorm.DB) *gorm.DB { return f(db) }

type Operator string

const (
	EQ  Operator = "="
	GTE Operator = ">="
	LTE Operator = "<="
	GT  Operator = ">"
	LT  Operator = "<"
	IN  Operator = "IN"
)

// Condition is a single column predicate.
type Condition struct {
	Field    string
	Operator Operator
	Value    any
}

// ApplyOperator filters on field using op.
func ApplyOperator(cond Condition) QueryOption {
	return queryFunc(func(db *gorm.DB) *gorm.DB {
		if cond.Operator == IN {
			return db.Where(fmt.Sprintf("%s IN ?", cond.Field), cond.Value)
		}
		return db.Where(fmt.Sprintf("%s %s ?", cond.Field, cond.Operator), cond.Value)
	})
}

type QuerySortBy struct {
	Field string
	Desc  bool
}

func WithSortBy(sort QuerySortBy) QueryOption {
	return queryFunc(func(db *gorm.DB) *gorm.DB {
		dir := "ASC"
		if sort.Desc {
			dir = "DESC"
		}
		return db.Order(fmt.Sprintf("%s %s", sort.Field, dir))
	})
}

func WithLimit(limit int) QueryOption {
	return queryFunc(func(db *gorm.DB) *gorm.DB {
		if limit <= 0 {
			return db
		}
		return db.Limit(limit)
	})
}
