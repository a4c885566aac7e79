package source

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	storagedomain "github.com/smallbiznis/factorylicense/internal/storage/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestDBSourceSumsFactoryDocuments(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file:db_source?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	defer sqlDB.Close()
	require.NoError(t, conn.AutoMigrate(&storagedomain.Document{}))

	now := time.Now().UTC()
	require.NoError(t, conn.Create([]storagedomain.Document{
		{ID: 1, FactoryID: "factory-a", FileName: "a.pdf", FileSize: 700, CreatedAt: now},
		{ID: 2, FactoryID: "factory-a", FileName: "b.pdf", FileSize: 300, CreatedAt: now},
		{ID: 3, FactoryID: "factory-b", FileName: "c.pdf", FileSize: 9000, CreatedAt: now},
	}).Error)

	src := NewDBSource(conn, time.Second)
	bytes, count, err := src.FactoryUsage(context.Background(), "factory-a")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), bytes)
	assert.Equal(t, int64(2), count)

	bytes, count, err = src.FactoryUsage(context.Background(), "factory-empty")
	require.NoError(t, err)
	assert.Zero(t, bytes)
	assert.Zero(t, count)
}
