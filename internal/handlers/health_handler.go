package handlers

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kuk1song/fitness-advisor/internal/config"
	"github.com/kuk1song/fitness-advisor/internal/dto"
	"github.com/kuk1song/fitness-advisor/internal/middleware"
	"github.com/kuk1song/fitness-advisor/internal/models"
	"github.com/kuk1song/fitness-advisor/internal/services"
	"github.com/kuk1song/fitness-advisor/internal/vectorstore"
)

// VectorIndex is the pass-through surface of the similarity index exposed at
// /health/vector-db. Implemented by vectorstore.Store.
type VectorIndex interface {
	Stats(ctx context.Context) (vectorstore.Stats, error)
	Records(ctx context.Context, userID uuid.UUID, all bool) ([]models.ProfileVector, error)
}

// HealthHandler serves the /health route family: the active profile, the
// submission pipeline, version history and the vector index pass-throughs.
type HealthHandler struct {
	service *services.HealthService
	vectors VectorIndex
	db      *gorm.DB
	cfg     *config.Config
}

func NewHealthHandler(service *services.HealthService, vectors VectorIndex, db *gorm.DB, cfg *config.Config) *HealthHandler {
	return &HealthHandler{service: service, vectors: vectors, db: db, cfg: cfg}
}

// GetProfile handles GET /api/health
func (h *HealthHandler) GetProfile(c *fiber.Ctx) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return unauthorized(c)
	}

	profile, err := h.service.Profile(c.Context(), user.ID)
	if errors.Is(err, services.ErrProfileNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Success: false, Message: "no health profile found",
		})
	}
	if err != nil {
		return pipelineError(c, err)
	}

	return c.JSON(dto.ProfileResponse{Success: true, Data: profile})
}

// Submit handles POST /api/health
func (h *HealthHandler) Submit(c *fiber.Ctx) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.SubmitHealthRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Success: false, Message: "Invalid request body",
		})
	}

	result, err := h.service.Submit(c.Context(), user, req.Data())
	if err != nil {
		slog.Error("health submission failed", "user_id", user.ID.String(), "error", err)
		return pipelineError(c, err)
	}

	return c.JSON(dto.SubmitHealthResponse{
		Success:      true,
		Data:         result.Profile,
		Version:      result.Version,
		SimilarCases: result.SimilarCases,
		Advice:       result.Advice,
	})
}

// GetHistory handles GET /api/health/history
func (h *HealthHandler) GetHistory(c *fiber.Ctx) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return unauthorized(c)
	}

	entries, err := h.service.History(c.Context(), user.ID)
	if err != nil {
		return pipelineError(c, err)
	}

	return c.JSON(dto.HistoryResponse{Success: true, Data: entries})
}

// GetVersions handles GET /api/health/versions
func (h *HealthHandler) GetVersions(c *fiber.Ctx) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return unauthorized(c)
	}

	versions, err := h.service.Versions(c.Context(), user.ID)
	if err != nil {
		return pipelineError(c, err)
	}

	return c.JSON(dto.VersionsResponse{Success: true, Data: versions})
}

// VectorStats handles GET /api/health/vector-db/stats
func (h *HealthHandler) VectorStats(c *fiber.Ctx) error {
	if _, err := middleware.CurrentUser(c); err != nil {
		return unauthorized(c)
	}

	stats, err := h.vectors.Stats(c.Context())
	if err != nil {
		return pipelineError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "data": stats})
}

// VectorRecords handles GET /api/health/vector-db/records. Admins see every
// record, everyone else only their own.
func (h *HealthHandler) VectorRecords(c *fiber.Ctx) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return unauthorized(c)
	}

	all := middleware.IsAdmin(c, h.db, h.cfg)
	records, err := h.vectors.Records(c.Context(), user.ID, all)
	if err != nil {
		return pipelineError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "data": records})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Success: false, Message: "Authentication required",
	})
}

// pipelineError reports the first failure's message to the caller. Pipeline
// steps are never retried; partial writes before the failing step stay
// committed.
func pipelineError(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Success: false, Message: err.Error(),
	})
}
