package handlers

import (
	"net/http"

	"dataset-service/utils"

	"github.com/gofiber/fiber/v3"
)

// ownerIDKey is where CallerIdentity stores the resolved caller id.
const ownerIDKey = "owner_id"

// CallerIdentity requires the X-User-ID header set by the upstream auth
// component. This service never resolves credentials itself; it only
// refuses to run owner-scoped operations without a resolved identity.
func CallerIdentity() fiber.Handler {
	return func(c fiber.Ctx) error {
		userID := c.Get("X-User-ID")
		if userID == "" {
			return c.Status(http.StatusUnauthorized).JSON(
				utils.CreateErrorResponse("MISSING_IDENTITY", "caller identity header required"))
		}
		c.Locals(ownerIDKey, userID)
		return c.Next()
	}
}

func callerID(c fiber.Ctx) string {
	if id, ok := c.Locals(ownerIDKey).(string); ok {
		return id
	}
	return ""
}
