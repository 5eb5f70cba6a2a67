// Package middleware содержит промежуточное ПО сервера-заглушки.
package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"gemshop/internal/stubapi/tokens"
	"gemshop/pkg/logger"
)

// Ключи Locals для данных аутентификации.
const (
	LocalUserID = "userID"
	LocalRole   = "role"
)

// Константы для логирования.
const (
	LogAuthMiddleware = "auth middleware"

	ErrorNoAuthHeader       = "no authorization header provided"
	ErrorInvalidTokenFormat = "invalid token format"
	ErrorInvalidToken       = "invalid or expired token"
	ErrorForbidden          = "admin role required"
)

// NewAuthMiddleware создает промежуточное ПО для проверки access токена.
func NewAuthMiddleware(issuer *tokens.Issuer) fiber.Handler {
	return func(ctx fiber.Ctx) error {
		requestCtx := ctx.Context()
		log := logger.Log(requestCtx).With(zap.String("middleware", "auth"))
		log.Debug(requestCtx, LogAuthMiddleware)

		authHeader := ctx.Get("Authorization")
		if authHeader == "" {
			log.Debug(requestCtx, ErrorNoAuthHeader)
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": ErrorNoAuthHeader,
			})
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			log.Debug(requestCtx, ErrorInvalidTokenFormat)
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": ErrorInvalidTokenFormat,
			})
		}

		claims, err := issuer.Parse(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			log.Debug(requestCtx, ErrorInvalidToken, zap.Error(err))
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": ErrorInvalidToken,
			})
		}

		ctx.Locals(LocalUserID, claims.UserID)
		ctx.Locals(LocalRole, claims.Role)

		return ctx.Next()
	}
}

// NewAdminMiddleware создает промежуточное ПО, пропускающее только
// администраторов. Применяется после NewAuthMiddleware.
func NewAdminMiddleware(adminRole string) fiber.Handler {
	return func(ctx fiber.Ctx) error {
		role, _ := ctx.Locals(LocalRole).(string)
		if role != adminRole {
			return ctx.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": ErrorForbidden,
			})
		}
		return ctx.Next()
	}
}
