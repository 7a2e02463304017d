package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "gemini-2.0-flash", cfg.GeminiModel)
	assert.Equal(t, "text-embedding-004", cfg.EmbeddingModel)
	assert.Equal(t, 768, cfg.EmbeddingDim)
	assert.Equal(t, 5, cfg.SimilarTopK)
	assert.Equal(t, 60*time.Second, cfg.AITimeout)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SIMILAR_TOP_K", "10")
	t.Setenv("AI_TIMEOUT", "30s")
	t.Setenv("GEMINI_MODEL", "gemini-1.5-pro")

	cfg := Load()
	assert.Equal(t, 10, cfg.SimilarTopK)
	assert.Equal(t, 30*time.Second, cfg.AITimeout)
	assert.Equal(t, "gemini-1.5-pro", cfg.GeminiModel)
}

func TestParseInt_InvalidFallsBack(t *testing.T) {
	t.Setenv("SIMILAR_TOP_K", "not-a-number")
	t.Setenv("EMBEDDING_DIM", "-3")

	cfg := Load()
	assert.Equal(t, 5, cfg.SimilarTopK)
	assert.Equal(t, 768, cfg.EmbeddingDim)
}

func TestDSN(t *testing.T) {
	cfg := &Config{
		DBHost: "db", DBPort: "5433", DBUser: "app",
		DBPassword: "secret", DBName: "fitness", DBSSLMode: "require",
	}
	assert.Equal(t,
		"host=db user=app password=secret dbname=fitness port=5433 sslmode=require TimeZone=UTC",
		cfg.DSN())
}
