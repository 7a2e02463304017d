package vectorstore

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kuk1song/fitness-advisor/internal/models"
)

type failingEmbedder struct {
	err error
}

func (f *failingEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return nil, f.err
}

func sampleData() models.HealthData {
	return models.HealthData{
		Weight:            70,
		Height:            175,
		Age:               30,
		DietType:          "Keto",
		ActivityLevel:     "Sedentary",
		FitnessExperience: "Advanced",
		MealFrequency:     "2-3 meals",
		SleepHours:        8,
		Goal:              "gain muscle",
	}
}

func TestRender_ContainsAllDomainFields(t *testing.T) {
	text := Render(sampleData())

	assert.Contains(t, text, "70.0 kg")
	assert.Contains(t, text, "175.0 cm")
	assert.Contains(t, text, "Age: 30")
	assert.Contains(t, text, "Keto")
	assert.Contains(t, text, "Sedentary")
	assert.Contains(t, text, "Advanced")
	assert.Contains(t, text, "2-3 meals")
	assert.Contains(t, text, "8.0")
	assert.Contains(t, text, "gain muscle")
}

func TestRender_Deterministic(t *testing.T) {
	// Index writes and similarity queries must embed identical text for
	// identical profiles.
	assert.Equal(t, Render(sampleData()), Render(sampleData()))
}

func TestUpsert_EmbedderFailurePropagates(t *testing.T) {
	s := New(nil, &failingEmbedder{err: errors.New("quota exceeded")}, 5)

	err := s.Upsert(context.Background(), uuid.New(), sampleData())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestSearch_EmbedderFailurePropagates(t *testing.T) {
	s := New(nil, &failingEmbedder{err: errors.New("quota exceeded")}, 5)

	_, err := s.Search(context.Background(), sampleData())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}
