package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func TestOperationFromSQL(t *testing.T) {
	cases := map[string]string{
		"SELECT * FROM licenses":                   "SELECT",
		"  insert into usage_events values (1)":    "INSERT",
		"WITH x AS (SELECT 1) UPDATE licenses SET": "SELECT",
		"":       "UNKNOWN",
		"VACUUM": "UNKNOWN",
	}
	for sql, want := range cases {
		assert.Equal(t, want, operationFromSQL(sql), sql)
	}
}

func TestGormLoggerTraceLevels(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := NewGormLogger(zap.New(core), DefaultGormLoggerConfig())

	query := func() (string, int64) { return "UPDATE licenses SET status = 'cancelled'", 1 }

	l.Trace(context.Background(), time.Now(), query, nil)
	assert.Equal(t, 0, logs.Len(), "fast query below warn level must not log")

	l.Trace(context.Background(), time.Now(), query, errors.New("boom"))
	assert.Equal(t, 1, logs.FilterMessage("gorm.query").FilterLevelExact(zap.ErrorLevel).Len())

	l.Trace(context.Background(), time.Now(), query, gormlogger.ErrRecordNotFound)
	assert.Equal(t, 1, logs.Len(), "record not found is ignored by default")

	l.Trace(context.Background(), time.Now().Add(-time.Second), query, nil)
	assert.Equal(t, 1, logs.FilterLevelExact(zap.WarnLevel).Len())
}

func TestTableFromSQL(t *testing.T) {
	cases := map[string]string{
		`SELECT * FROM "licenses" WHERE id = $1`:                 "licenses",
		"INSERT INTO `usage_events` (`id`) VALUES (?)":           "usage_events",
		`UPDATE "licenses" SET "version"=$1`:                     "licenses",
		"SELECT count(*) FROM (SELECT 1) AS x":                   "unknown",
		"SELECT COALESCE(SUM(file_size),0) FROM documents WHERE": "documents",
	}
	for sql, want := range cases {
		assert.Equal(t, want, tableFromSQL(sql), sql)
	}
}
