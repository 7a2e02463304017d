package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Record types for history entries.
const (
	RecordTypeInitial = "initial"
	RecordTypeUpdate  = "update"
)

// HistoryMetadata carries versioning info for a history entry. Version is a
// decimal string ("1.0", "2.0", ...) strictly increasing per user.
type HistoryMetadata struct {
	RecordType     string                      `gorm:"size:20;not null" json:"recordType"`
	Version        string                      `gorm:"size:20;not null" json:"version"`
	Tags           datatypes.JSONSlice[string] `json:"tags"`
	LastUpdateTime time.Time                   `json:"lastUpdateTime"`
}

// HealthHistory is an immutable snapshot of a profile state. Entries are
// append-only: never updated or deleted after creation.
type HealthHistory struct {
	ID         uuid.UUID                       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID                       `gorm:"type:uuid;not null;index" json:"userId"`
	UserEmail  string                          `gorm:"size:255;not null" json:"userEmail"`
	UserName   string                          `gorm:"size:255" json:"userName"`
	HealthData datatypes.JSONType[HealthData]  `json:"healthData"`
	Metadata   HistoryMetadata                 `gorm:"embedded;embeddedPrefix:meta_" json:"metadata"`
	RecordDate time.Time                       `gorm:"not null;index" json:"recordDate"`
}
