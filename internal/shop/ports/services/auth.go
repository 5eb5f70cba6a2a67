// Package services определяет интерфейсы прикладных сервисов клиента.
package services

import (
	"context"

	"gemshop/internal/shop/app/dto"
	"gemshop/internal/shop/domain/entities"
)

// AuthService определяет интерфейс для управления сессией пользователя.
type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.SessionResponse, error)

	Logout(ctx context.Context) error

	Profile(ctx context.Context) (*entities.UserProfile, error)

	HasSession(ctx context.Context) bool
}
