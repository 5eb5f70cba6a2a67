package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"gemshop/internal/shop/app/dto"
	"gemshop/internal/shop/domain/entities"
	restPorts "gemshop/internal/shop/ports/rest"
	svcPorts "gemshop/internal/shop/ports/services"
	tokensPorts "gemshop/internal/shop/ports/tokens"
	"gemshop/pkg/logger"
)

// Константы для логирования.
const (
	LogLoginAttempt  = "auth service: login attempt"
	LogLoginSuccess  = "auth service: login successful"
	LogLogoutAttempt = "auth service: logout"
	LogLogoutServer  = "server-side logout failed, clearing local session anyway"
)

// AuthServiceImpl реализует интерфейс AuthService.
type AuthServiceImpl struct {
	api   restPorts.AuthAPI
	store tokensPorts.Store
}

// NewAuthService создает новый экземпляр сервиса аутентификации.
func NewAuthService(api restPorts.AuthAPI, store tokensPorts.Store) svcPorts.AuthService {
	return &AuthServiceImpl{api: api, store: store}
}

// Login выполняет вход и сохраняет пару токенов и профиль пользователя.
func (s *AuthServiceImpl) Login(ctx context.Context, req *dto.LoginRequest) (*dto.SessionResponse, error) {
	log := logger.Log(ctx)
	log.Info(ctx, LogLoginAttempt, zap.String("email", req.Email))

	resp, err := s.api.Login(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}

	pair := entities.TokenPair{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
	}
	if err := s.store.SavePair(ctx, pair); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	if resp.User != nil {
		if err := s.store.SaveProfile(ctx, resp.User); err != nil {
			return nil, fmt.Errorf("failed to persist profile: %w", err)
		}
	}

	log.Info(ctx, LogLoginSuccess, zap.String("email", req.Email))
	return resp, nil
}

// Logout завершает сессию. Серверный вызов выполняется по мере
// возможности; локальное хранилище очищается в любом случае.
func (s *AuthServiceImpl) Logout(ctx context.Context) error {
	log := logger.Log(ctx)
	log.Info(ctx, LogLogoutAttempt)

	pair, err := s.store.Pair(ctx)
	if err == nil && pair.RefreshToken != "" {
		if err := s.api.Logout(ctx, pair.RefreshToken); err != nil {
			log.Warn(ctx, LogLogoutServer, zap.Error(err))
		}
	}

	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// Profile возвращает сохраненный профиль пользователя.
func (s *AuthServiceImpl) Profile(ctx context.Context) (*entities.UserProfile, error) {
	profile, err := s.store.Profile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}
	return profile, nil
}

// HasSession сообщает, есть ли у пользователя активная сессия.
func (s *AuthServiceImpl) HasSession(ctx context.Context) bool {
	pair, err := s.store.Pair(ctx)
	return err == nil && pair.RefreshToken != ""
}
