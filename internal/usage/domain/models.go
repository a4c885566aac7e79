// Package domain contains the append-only usage log models.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type UsageType string

const (
	UsageWorkers    UsageType = "workers"
	UsageStorage    UsageType = "storage"
	UsageDocuments  UsageType = "documents"
	UsageAIRequests UsageType = "aiRequests"
	UsageUsers      UsageType = "users"
)

// UsageTypes lists every metered counter in a stable order.
var UsageTypes = []UsageType{UsageWorkers, UsageStorage, UsageDocuments, UsageAIRequests, UsageUsers}

func ParseUsageType(raw string) (UsageType, bool) {
	for _, t := range UsageTypes {
		if string(t) == raw {
			return t, true
		}
	}
	return "", false
}

// EventKind distinguishes metered increments from absolute corrections.
type EventKind string

const (
	EventKindTrack EventKind = "track"
	EventKindSet   EventKind = "set"
)

// UsageEvent records one change to a license counter. Rows are never updated.
// For EventKindSet the Amount is the delta the correction applied.
type UsageEvent struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	LicenseID string       `gorm:"type:text;not null;index:ix_usage_events_license_ts,priority:1"`
	UsageType UsageType    `gorm:"type:text;not null"`
	Amount    int64        `gorm:"not null"`
	Kind      EventKind    `gorm:"type:text;not null;default:'track'"`
	Timestamp time.Time    `gorm:"not null;index:ix_usage_events_license_ts,priority:2"`
}

// TableName sets the database table name.
func (UsageEvent) TableName() string { return "usage_events" }

// AIUsageLog is the detailed, non-quota record of an AI assistant call.
type AIUsageLog struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	LicenseID  string       `gorm:"type:text;not null;index"`
	TokensUsed int64        `gorm:"not null"`
	Cost       float64      `gorm:"not null"`
	Timestamp  time.Time    `gorm:"not null;index"`
}

// TableName sets the database table name.
func (AIUsageLog) TableName() string { return "ai_usage_logs" }

// Counters are the running usage totals carried on a license.
type Counters struct {
	Workers    int64 `gorm:"column:workers;not null;default:0" json:"workers"`
	Storage    int64 `gorm:"column:storage;not null;default:0" json:"storage"`
	Documents  int64 `gorm:"column:documents;not null;default:0" json:"documents"`
	AIRequests int64 `gorm:"column:ai_requests;not null;default:0" json:"aiRequests"`
	Users      int64 `gorm:"column:users;not null;default:0" json:"users"`
}

func (c Counters) Get(t UsageType) int64 {
	switch t {
	case UsageWorkers:
		return c.Workers
	case UsageStorage:
		return c.Storage
	case UsageDocuments:
		return c.Documents
	case UsageAIRequests:
		return c.AIRequests
	case UsageUsers:
		return c.Users
	}
	return 0
}

func (c *Counters) Set(t UsageType, v int64) {
	switch t {
	case UsageWorkers:
		c.Workers = v
	case UsageStorage:
		c.Storage = v
	case UsageDocuments:
		c.Documents = v
	case UsageAIRequests:
		c.AIRequests = v
	case UsageUsers:
		c.Users = v
	}
}

func (c Counters) Map() map[string]int64 {
	out := make(map[string]int64, len(UsageTypes))
	for _, t := range UsageTypes {
		out[string(t)] = c.Get(t)
	}
	return out
}
