// file: internals/middlewares/recovery_middleware.go
package middlewares

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// RecoveryMiddleware menangkap panic di luar pipeline submit
// (pipeline punya recover boundary sendiri → emergency fallback).
func RecoveryMiddleware() fiber.Handler {
	return recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c *fiber.Ctx, e interface{}) {
			reqid, _ := c.Locals("reqid").(string)
			log.Printf("[RECOVER] 🚨 req=%s %s %s panic: %v", reqid, c.Method(), c.Path(), e)
		},
	})
}
