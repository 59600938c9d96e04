package middlewares

import (
	"github.com/gofiber/fiber/v2"

	"ujianku_backend/internals/middlewares/logger"
)

// SetupMiddlewares memasang middleware global dengan urutan:
// recovery → cors → logger → rate limiter → token identity (opsional)
func SetupMiddlewares(app *fiber.App) {
	app.Use(RecoveryMiddleware())
	app.Use(CorsMiddleware())
	app.Use(logger.LoggerMiddleware())
	app.Use(GlobalRateLimiter())
	app.Use(TokenIdentityMiddleware())
}
