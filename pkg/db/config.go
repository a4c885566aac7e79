package db

import (
	"time"

	"github.com/smallbiznis/factorylicense/internal/config"
)

type Config struct {
	Type            string
	MaxIdleConn     int
	MaxOpenConn     int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	// Timeout bounds every store call made through WithTimeout.
	Timeout   time.Duration
	SlowQuery time.Duration
}

func ConfigFrom(cfg config.Config) Config {
	return Config{
		Type:            cfg.DBType,
		MaxIdleConn:     cfg.DBMaxIdleConn,
		MaxOpenConn:     cfg.DBMaxOpenConn,
		ConnMaxLifetime: time.Duration(cfg.DBConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.DBConnMaxIdleTime) * time.Second,
		Timeout:         cfg.Billing.PersistenceTimeout,
		SlowQuery:       cfg.DBSlowQuery,
	}
}
