package repository

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/factorylicense/pkg/db/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type sample struct {
	ID        int64 `gorm:"primaryKey"`
	LicenseID string
	Amount    int64
	At        time.Time
}

func TestStoreFindCountAndTrx(t *testing.T) {
	ctx := context.Background()
	conn, err := gorm.Open(sqlite.Open("file:repository_store?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&sample{}))

	s := ProvideStore[sample](conn)
	base := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	for i, lic := range []string{"a", "a", "b", "a"} {
		require.NoError(t, s.Create(ctx, &sample{ID: int64(i + 1), LicenseID: lic, Amount: int64(i), At: base.Add(time.Duration(i) * time.Hour)}))
	}

	rows, err := s.Find(ctx, &sample{LicenseID: "a"},
		option.ApplyOperator(option.Condition{Field: "at", Operator: option.GTE, Value: base.Add(time.Hour)}),
		option.WithSortBy(option.QuerySortBy{Field: "at", Desc: true}),
		option.WithLimit(5),
	)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(4), rows[0].ID)
	assert.Equal(t, int64(2), rows[1].ID)

	n, err := s.Count(ctx, &sample{LicenseID: "a"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	err = conn.Transaction(func(tx *gorm.DB) error {
		require.NoError(t, s.WithTrx(tx).Create(ctx, &sample{ID: 9, LicenseID: "b"}))
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
	n, err = s.Count(ctx, &sample{LicenseID: "b"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "rolled back insert is not visible")
}
