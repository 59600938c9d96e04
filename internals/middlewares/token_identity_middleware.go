package middlewares

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"

	"ujianku_backend/internals/configs"
)

// TokenIdentityMiddleware mengambil student_id dari Bearer token KALAU ada.
// Autentikasi penuh hidup di gateway; di sini token hanya dipakai supaya
// controller bisa memprioritaskan identitas dari token di atas body payload.
// Token invalid tidak menolak request — hanya di-skip (dan dicatat).
func TokenIdentityMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if configs.JWTSecret == "" {
			return c.Next()
		}

		auth := c.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			return c.Next()
		}

		raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
		token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(configs.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			log.Printf("[AUTH] token tidak valid, lanjut tanpa identitas: %v", err)
			return c.Next()
		}

		if claims, ok := token.Claims.(jwt.MapClaims); ok {
			if sid, ok := claims["student_id"].(string); ok && sid != "" {
				c.Locals("student_id", sid)
			}
		}
		return c.Next()
	}
}
