package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/kuk1song/fitness-advisor/internal/database"
	"github.com/kuk1song/fitness-advisor/internal/dto"
)

type StatusHandler struct{}

func NewStatusHandler() *StatusHandler {
	return &StatusHandler{}
}

// Check handles GET /api/status: liveness plus a DB ping.
func (h *StatusHandler) Check(c *fiber.Ctx) error {
	dbStatus := "ok"
	if err := database.Ping(); err != nil {
		dbStatus = "unhealthy: " + err.Error()
	}

	return c.JSON(dto.StatusResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		DB:        dbStatus,
	})
}
