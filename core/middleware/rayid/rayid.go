package rayid

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// HeaderName is the response header carrying the ray id.
const HeaderName = "X-Ray-ID"

// New returns middleware that tags every request with a unique ray id.
// The id is stored in c.Locals("ray_id") for log correlation and echoed
// in the response header so callers can quote it when filing issues.
func New() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := uuid.NewString()
		c.Locals("ray_id", id)
		c.Set(HeaderName, id)
		return c.Next()
	}
}
