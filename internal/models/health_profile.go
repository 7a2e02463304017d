package models

import (
	"time"

	"github.com/google/uuid"
)

// HealthData holds the domain fields of a health submission. It is embedded
// in the active profile, snapshotted into history entries, and rendered to
// text for the similarity index.
type HealthData struct {
	Weight            float64 `json:"weight"`
	Height            float64 `json:"height"`
	Age               int     `json:"age"`
	DietType          string  `gorm:"size:50" json:"dietType"`
	ActivityLevel     string  `gorm:"size:50" json:"activityLevel"`
	FitnessExperience string  `gorm:"size:50" json:"fitnessExperience"`
	MealFrequency     string  `gorm:"size:50" json:"mealFrequency"`
	SleepHours        float64 `json:"sleepHours"`
	Goal              string  `gorm:"type:text" json:"goal"`
}

// HealthProfile is the user's single active health record. At most one row
// exists per user; updates archive the old row into HealthHistory and insert
// a fresh one.
type HealthProfile struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex" json:"userId"`
	UserEmail  string     `gorm:"size:255;not null" json:"userEmail"`
	UserName   string     `gorm:"size:255" json:"userName"`
	HealthData `gorm:"embedded"`
	UpdatedAt  time.Time `json:"updatedAt"`
	CreatedAt  time.Time `json:"createdAt"`
}
