package middleware

import (
	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/config"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// CORS allows credentialed requests only when origins are listed explicitly,
// since the session cookie must not be sent to a wildcard origin.
func CORS(cfg *config.Config) fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowHeaders:     "Origin, Content-Type, Authorization, Accept",
		AllowMethods:     "GET, POST, PATCH, OPTIONS",
		AllowCredentials: cfg.CORSOrigins != "*",
	})
}
