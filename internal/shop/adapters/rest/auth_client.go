package rest

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"gemshop/internal/shop/app/dto"
	restPorts "gemshop/internal/shop/ports/rest"
	"gemshop/pkg/logger"
)

// Константы для логирования.
const (
	LogAuthLogin  = "auth client: login"
	LogAuthLogout = "auth client: logout"
)

// Маршруты аутентификации удаленного API.
const (
	pathLogin  = "/api/auth/login"
	pathLogout = "/api/auth/logout"
)

// AuthClient реализует интерфейс AuthAPI.
type AuthClient struct {
	client *Client
}

// NewAuthClient создает клиент операций аутентификации.
func NewAuthClient(client *Client) restPorts.AuthAPI {
	return &AuthClient{client: client}
}

// Login выполняет вход и возвращает созданную сессию.
func (a *AuthClient) Login(ctx context.Context, req *dto.LoginRequest) (*dto.SessionResponse, error) {
	log := logger.Log(ctx)
	log.Info(ctx, LogAuthLogin, zap.String("email", req.Email))

	var session dto.SessionResponse
	if err := a.client.do(ctx, http.MethodPost, pathLogin, req, &session); err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	return &session, nil
}

// Logout сообщает серверу о завершении сессии.
func (a *AuthClient) Logout(ctx context.Context, refreshToken string) error {
	log := logger.Log(ctx)
	log.Info(ctx, LogAuthLogout)

	req := dto.LogoutRequest{RefreshToken: refreshToken}
	if err := a.client.do(ctx, http.MethodPost, pathLogout, &req, nil); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}
	return nil
}
