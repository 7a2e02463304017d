package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/kuk1song/fitness-advisor/internal/services"
)

// CurrentUser resolves the authenticated identity from the verified JWT in
// the Fiber context. The sub, email and name claims are set at token
// issuance, so no database lookup is needed per request.
func CurrentUser(c *fiber.Ctx) (services.Identity, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return services.Identity{}, errors.New("invalid token in context")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return services.Identity{}, errors.New("invalid claims")
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return services.Identity{}, errors.New("missing sub claim")
	}

	id, err := uuid.Parse(sub)
	if err != nil {
		return services.Identity{}, errors.New("malformed sub claim")
	}

	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)

	return services.Identity{ID: id, Email: email, Name: name}, nil
}
