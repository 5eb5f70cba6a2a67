// Package dto содержит объекты передачи данных клиента магазина.
package dto

import (
	"gemshop/internal/shop/domain/entities"
)

// LoginRequest содержит данные для входа пользователя.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SessionResponse содержит данные созданной сессии.
type SessionResponse struct {
	AccessToken  string                `json:"access_token"`
	RefreshToken string                `json:"refresh_token"`
	User         *entities.UserProfile `json:"user,omitempty"`
}

// RefreshRequest содержит данные для обновления токенов.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshResponse содержит обновленные токены. RefreshToken может
// отсутствовать - в этом случае прежний refresh токен остается в силе.
type RefreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// LogoutRequest содержит данные для выхода пользователя.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}
