package repository

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	licensedomain "github.com/smallbiznis/factorylicense/internal/license/domain"
	usagedomain "github.com/smallbiznis/factorylicense/internal/usage/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func setupDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, conn.AutoMigrate(&licensedomain.License{}, &usagedomain.UsageEvent{}))
	return conn
}

func newLicense(id, factoryID string, createdAt time.Time) *licensedomain.License {
	return &licensedomain.License{
		ID:             id,
		FactoryID:      factoryID,
		OrganizationID: "org-1",
		PlanID:         "basic",
		Plan:           datatypes.NewJSONType(licensedomain.PlanSnapshot{Name: "Basic", Limits: map[string]int64{"workers": 50}}),
		Status:         licensedomain.StatusActive,
		StartDate:      createdAt,
		EndDate:        createdAt.Add(licensedomain.Term),
		Version:        1,
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
	}
}

func TestCreateGetAndDuplicate(t *testing.T) {
	ctx := context.Background()
	r := New(setupDB(t, "license_repo_create"), time.Second)
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, r.Create(ctx, newLicense("f1_1", "f1", now)))
	assert.ErrorIs(t, r.Create(ctx, newLicense("f1_1", "f1", now)), licensedomain.ErrDuplicateLicense)

	got, err := r.Get(ctx, "f1_1")
	require.NoError(t, err)
	assert.Equal(t, "Basic", got.Plan.Data().Name)
	assert.Equal(t, int64(50), got.Plan.Data().Limits["workers"])

	_, err = r.Get(ctx, "missing")
	assert.ErrorIs(t, err, licensedomain.ErrLicenseNotFound)
}

func TestSaveChecksVersionAndWritesEvents(t *testing.T) {
	ctx := context.Background()
	conn := setupDB(t, "license_repo_save")
	r := New(conn, time.Second)
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	l := newLicense("f1_1", "f1", now)
	require.NoError(t, r.Create(ctx, l))

	l.Usage.Workers = 3
	l.Version = 2
	ev := &usagedomain.UsageEvent{ID: node.Generate(), LicenseID: l.ID, UsageType: usagedomain.UsageWorkers, Amount: 3, Kind: usagedomain.EventKindTrack, Timestamp: now}
	require.NoError(t, r.Save(ctx, l, 1, ev))

	stale := *l
	stale.Usage.Workers = 99
	stale.Version = 2
	assert.ErrorIs(t, r.Save(ctx, &stale, 1, &usagedomain.UsageEvent{ID: node.Generate(), LicenseID: l.ID, UsageType: usagedomain.UsageWorkers, Amount: 96, Timestamp: now}), licensedomain.ErrVersionConflict)

	got, err := r.Get(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.Usage.Workers)
	assert.Equal(t, int64(2), got.Version)

	var events int64
	require.NoError(t, conn.Model(&usagedomain.UsageEvent{}).Count(&events).Error)
	assert.Equal(t, int64(1), events, "conflicting save must not leave events behind")
}

func TestListFilters(t *testing.T) {
	ctx := context.Background()
	r := New(setupDB(t, "license_repo_list"), time.Second)
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, r.Create(ctx, newLicense("f1_2", "f1", now.Add(time.Hour))))
	require.NoError(t, r.Create(ctx, newLicense("f1_1", "f1", now)))
	cancelled := newLicense("f2_1", "f2", now)
	cancelled.Status = licensedomain.StatusCancelled
	require.NoError(t, r.Create(ctx, cancelled))

	byFactory, err := r.List(ctx, licensedomain.ListLicensesRequest{FactoryID: "f1"})
	require.NoError(t, err)
	require.Len(t, byFactory, 2)
	assert.Equal(t, "f1_1", byFactory[0].ID)

	active, err := r.List(ctx, licensedomain.ListLicensesRequest{Status: licensedomain.StatusActive})
	require.NoError(t, err)
	assert.Len(t, active, 2)
}
