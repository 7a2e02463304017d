// Package vectorstore manages the similarity index: one embedded text
// rendering of each user's profile, stored in Postgres with pgvector and
// queried by cosine distance.
package vectorstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kuk1song/fitness-advisor/internal/models"
)

// Embedder turns text into an embedding vector. Satisfied by the gemini
// client in production and by fakes in tests.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Store is the similarity index client. Safe for concurrent use: upserts for
// the same user resolve through ON CONFLICT on user_id.
type Store struct {
	db       *gorm.DB
	embedder Embedder
	topK     int
}

func New(db *gorm.DB, embedder Embedder, topK int) *Store {
	if topK <= 0 {
		topK = 5
	}
	return &Store{db: db, embedder: embedder, topK: topK}
}

// Render produces the canonical text form of a profile. The same rendering
// is used for indexing and for similarity queries, so distances compare
// like with like.
func Render(d models.HealthData) string {
	return fmt.Sprintf(
		"Weight: %.1f kg. Height: %.1f cm. Age: %d. Diet type: %s. Activity level: %s. "+
			"Fitness experience: %s. Meal frequency: %s. Sleep hours: %.1f. Goal: %s.",
		d.Weight, d.Height, d.Age, d.DietType, d.ActivityLevel,
		d.FitnessExperience, d.MealFrequency, d.SleepHours, d.Goal,
	)
}

// Upsert embeds the profile rendering and installs it as the user's single
// index entry, replacing any previous one.
func (s *Store) Upsert(ctx context.Context, userID uuid.UUID, data models.HealthData) error {
	content := Render(data)

	vec, err := s.embedder.Embed(ctx, content)
	if err != nil {
		return fmt.Errorf("failed to embed profile: %w", err)
	}

	row := models.ProfileVector{
		ID:        uuid.New(),
		UserID:    userID,
		Content:   content,
		Embedding: pgvector.NewVector(vec),
	}

	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"content", "embedding", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to store profile vector: %w", err)
	}
	return nil
}

// Search returns up to topK profile summaries nearest to the given profile,
// ordered by ascending cosine distance.
func (s *Store) Search(ctx context.Context, data models.HealthData) ([]string, error) {
	vec, err := s.embedder.Embed(ctx, Render(data))
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	var rows []models.ProfileVector
	err = s.db.WithContext(ctx).Model(&models.ProfileVector{}).
		Clauses(clause.OrderBy{
			Expression: clause.Expr{SQL: "embedding <=> ?", Vars: []interface{}{pgvector.NewVector(vec)}},
		}).
		Limit(s.topK).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("similarity query failed: %w", err)
	}

	summaries := make([]string, 0, len(rows))
	for _, r := range rows {
		summaries = append(summaries, r.Content)
	}
	return summaries, nil
}

// Stats describes the state of the index.
type Stats struct {
	TotalRecords int64      `json:"totalRecords"`
	LastUpdated  *time.Time `json:"lastUpdated"`
}

func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	if err := s.db.WithContext(ctx).Model(&models.ProfileVector{}).Count(&stats.TotalRecords).Error; err != nil {
		return Stats{}, fmt.Errorf("failed to count vector records: %w", err)
	}

	if stats.TotalRecords > 0 {
		var last models.ProfileVector
		if err := s.db.WithContext(ctx).Order("updated_at DESC").First(&last).Error; err != nil {
			return Stats{}, fmt.Errorf("failed to read latest vector record: %w", err)
		}
		stats.LastUpdated = &last.UpdatedAt
	}
	return stats, nil
}

// Records returns the caller's index entries, or every entry when all is set
// (admin view).
func (s *Store) Records(ctx context.Context, userID uuid.UUID, all bool) ([]models.ProfileVector, error) {
	q := s.db.WithContext(ctx).Order("updated_at DESC")
	if !all {
		q = q.Where("user_id = ?", userID)
	}

	var rows []models.ProfileVector
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list vector records: %w", err)
	}
	return rows, nil
}
