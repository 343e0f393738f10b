package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// RateLimit allows max requests per minute per client IP. Counters are keyed
// under scope so limiters sharing one storage stay independent. A nil storage
// keeps counters in process memory.
func RateLimit(scope string, max int, storage fiber.Storage) fiber.Handler {
	prefix := scope + ":"
	return limiter.New(limiter.Config{
		Max:               max,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return prefix + c.IP() },
		Storage:           storage,
		LimitReached: func(c *fiber.Ctx) error {
			return fiber.NewError(fiber.StatusTooManyRequests, "Too many requests")
		},
	})
}
