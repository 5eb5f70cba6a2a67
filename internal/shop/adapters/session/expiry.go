package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoExpiryClaim возвращается, когда в токене отсутствует claim exp.
var ErrNoExpiryClaim = errors.New("token has no exp claim")

// Expiry извлекает время истечения access токена без проверки подписи.
// Токен непрозрачен для транспорта, но самоописываем: exp читается
// локально, без обращения к серверу. Результат носит справочный
// характер - авторитетом по истечению остается сервер.
func Expiry(token string) (time.Time, error) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, fmt.Errorf("parsing token claims: %w", err)
	}

	if claims.ExpiresAt == nil {
		return time.Time{}, ErrNoExpiryClaim
	}

	return claims.ExpiresAt.Time, nil
}
