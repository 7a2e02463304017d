package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kuk1song/fitness-advisor/internal/config"
	"github.com/kuk1song/fitness-advisor/internal/models"
)

// IsAdmin reports whether the authenticated caller has admin privileges,
// checking in order: the X-Admin-Token header, the configured admin email
// list, and the user's Role column.
func IsAdmin(c *fiber.Ctx, db *gorm.DB, cfg *config.Config) bool {
	if cfg.AdminToken != "" && c.Get("X-Admin-Token") == cfg.AdminToken {
		return true
	}

	token, ok := c.Locals("user").(*jwt.Token)
	if !ok || token == nil {
		return false
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return false
	}

	email, _ := claims["email"].(string)
	if contains(parseCSV(cfg.AdminEmails), email) {
		return true
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return false
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return false
	}

	var user models.User
	if err := db.First(&user, "id = ?", userID).Error; err != nil {
		return false
	}
	return user.Role == "admin"
}

func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func contains(list []string, val string) bool {
	for _, item := range list {
		if item == val {
			return true
		}
	}
	return false
}
