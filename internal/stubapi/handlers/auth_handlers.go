// Package handlers содержит HTTP обработчики сервера-заглушки.
package handlers

import (
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"gemshop/internal/shop/app/dto"
	"gemshop/internal/shop/domain/entities"
	"gemshop/internal/stubapi/state"
	"gemshop/internal/stubapi/tokens"
	"gemshop/pkg/logger"
)

// Константы для логирования.
const (
	LogHandlerLogin   = "auth handler: login"
	LogHandlerRefresh = "auth handler: refresh tokens" // #nosec G101 - not a credential
	LogHandlerLogout  = "auth handler: logout"

	ErrorInvalidRequest = "invalid request"
	ErrorIssuingToken   = "failed to issue token"
)

// Вспомогательная функция для обработки ошибок HTTP.
func sendErrorResponse(ctx fiber.Ctx, statusCode int, message string) error {
	if err := ctx.Status(statusCode).JSON(fiber.Map{
		"error": message,
	}); err != nil {
		return fmt.Errorf("error sending response: %w", err)
	}
	return nil
}

// AuthHandler содержит HTTP обработчики аутентификации.
type AuthHandler struct {
	state  *state.State
	issuer *tokens.Issuer
}

// NewAuthHandler создает новый экземпляр обработчика аутентификации.
func NewAuthHandler(st *state.State, issuer *tokens.Issuer) *AuthHandler {
	return &AuthHandler{state: st, issuer: issuer}
}

// Login обрабатывает запрос на вход пользователя.
func (h *AuthHandler) Login(ctx fiber.Ctx) error {
	requestCtx := ctx.Context()
	log := logger.Log(requestCtx)
	log.Info(requestCtx, LogHandlerLogin)

	var req dto.LoginRequest
	if err := ctx.Bind().JSON(&req); err != nil {
		log.Error(requestCtx, ErrorInvalidRequest, zap.Error(err))
		return sendErrorResponse(ctx, http.StatusBadRequest, ErrorInvalidRequest)
	}

	if req.Email == "" || req.Password == "" {
		return sendErrorResponse(ctx, http.StatusBadRequest, "email and password are required")
	}

	user, err := h.state.Authenticate(req.Email, req.Password)
	if err != nil {
		log.Warn(requestCtx, "login rejected", zap.String("email", req.Email))
		return sendErrorResponse(ctx, http.StatusUnauthorized, err.Error())
	}

	accessToken, err := h.issuer.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		log.Error(requestCtx, ErrorIssuingToken, zap.Error(err))
		return sendErrorResponse(ctx, http.StatusInternalServerError, ErrorIssuingToken)
	}

	response := dto.SessionResponse{
		AccessToken:  accessToken,
		RefreshToken: h.state.CreateSession(user.ID),
		User: &entities.UserProfile{
			ID:    user.ID,
			Email: user.Email,
			Name:  user.Name,
			Role:  user.Role,
		},
	}

	if err := ctx.Status(http.StatusOK).JSON(response); err != nil {
		return fmt.Errorf("sending response: %w", err)
	}
	return nil
}

// Refresh обрабатывает запрос на обновление токенов. Refresh токен
// ротируется: прежний отзывается, в ответе возвращается новый.
func (h *AuthHandler) Refresh(ctx fiber.Ctx) error {
	requestCtx := ctx.Context()
	log := logger.Log(requestCtx)
	log.Info(requestCtx, LogHandlerRefresh)

	var req dto.RefreshRequest
	if err := ctx.Bind().JSON(&req); err != nil {
		log.Error(requestCtx, ErrorInvalidRequest, zap.Error(err))
		return sendErrorResponse(ctx, http.StatusBadRequest, ErrorInvalidRequest)
	}

	if req.RefreshToken == "" {
		return sendErrorResponse(ctx, http.StatusBadRequest, "refresh token is required")
	}

	user, newRefreshToken, err := h.state.RotateSession(req.RefreshToken)
	if err != nil {
		log.Warn(requestCtx, "refresh rejected", zap.Error(err))
		return sendErrorResponse(ctx, http.StatusUnauthorized, err.Error())
	}

	accessToken, err := h.issuer.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		log.Error(requestCtx, ErrorIssuingToken, zap.Error(err))
		return sendErrorResponse(ctx, http.StatusInternalServerError, ErrorIssuingToken)
	}

	response := dto.RefreshResponse{
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
	}

	if err := ctx.Status(http.StatusOK).JSON(response); err != nil {
		return fmt.Errorf("sending response: %w", err)
	}
	return nil
}

// Logout обрабатывает запрос на выход пользователя.
func (h *AuthHandler) Logout(ctx fiber.Ctx) error {
	requestCtx := ctx.Context()
	log := logger.Log(requestCtx)
	log.Info(requestCtx, LogHandlerLogout)

	var req dto.LogoutRequest
	if err := ctx.Bind().JSON(&req); err != nil {
		log.Error(requestCtx, ErrorInvalidRequest, zap.Error(err))
		return sendErrorResponse(ctx, http.StatusBadRequest, ErrorInvalidRequest)
	}

	h.state.RevokeSession(req.RefreshToken)

	if err := ctx.Status(http.StatusOK).JSON(fiber.Map{"status": "ok"}); err != nil {
		return fmt.Errorf("sending response: %w", err)
	}
	return nil
}
