package dto

import (
	"time"

	"github.com/kuk1song/fitness-advisor/internal/models"
)

// SubmitHealthRequest carries the domain fields of a submission. Identity
// fields are deliberately absent: userId/userEmail/userName always come from
// the authenticated session, so a spoofed body cannot move data across users.
type SubmitHealthRequest struct {
	Weight            float64 `json:"weight"`
	Height            float64 `json:"height"`
	Age               int     `json:"age"`
	DietType          string  `json:"dietType"`
	ActivityLevel     string  `json:"activityLevel"`
	FitnessExperience string  `json:"fitnessExperience"`
	MealFrequency     string  `json:"mealFrequency"`
	SleepHours        float64 `json:"sleepHours"`
	Goal              string  `json:"goal"`
}

// Data converts the request into the domain value used by the pipeline.
func (r *SubmitHealthRequest) Data() models.HealthData {
	return models.HealthData{
		Weight:            r.Weight,
		Height:            r.Height,
		Age:               r.Age,
		DietType:          r.DietType,
		ActivityLevel:     r.ActivityLevel,
		FitnessExperience: r.FitnessExperience,
		MealFrequency:     r.MealFrequency,
		SleepHours:        r.SleepHours,
		Goal:              r.Goal,
	}
}

type SubmitHealthResponse struct {
	Success      bool                  `json:"success"`
	Data         *models.HealthProfile `json:"data"`
	Version      string                `json:"version"`
	SimilarCases []string              `json:"similarCases"`
	Advice       string                `json:"advice"`
}

type ProfileResponse struct {
	Success bool                  `json:"success"`
	Data    *models.HealthProfile `json:"data"`
}

type HistoryResponse struct {
	Success bool                   `json:"success"`
	Data    []models.HealthHistory `json:"data"`
}

// VersionInfo is the trimmed projection served by GET /health/versions.
type VersionInfo struct {
	Version        string    `json:"version"`
	RecordType     string    `json:"recordType"`
	LastUpdateTime time.Time `json:"lastUpdateTime"`
	RecordDate     time.Time `json:"recordDate"`
}

type VersionsResponse struct {
	Success bool          `json:"success"`
	Data    []VersionInfo `json:"data"`
}
