package transport

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/kursadbilgin/ekyc-engine/internal/observability"
)

// RequestContext tags every request with a correlation ID, honoring an
// incoming X-Request-ID header when present. The ID rides the user context
// so service logs and audit events can carry it.
func RequestContext() fiber.Handler {
	return func(c *fiber.Ctx) error {
		correlationID := strings.TrimSpace(c.Get(fiber.HeaderXRequestID))
		if correlationID == "" {
			correlationID = uuid.NewString()
		}

		c.SetUserContext(observability.WithCorrelationID(c.UserContext(), correlationID))
		c.Set(fiber.HeaderXRequestID, correlationID)

		return c.Next()
	}
}
