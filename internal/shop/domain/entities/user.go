package entities

import "time"

// Роли пользователей магазина.
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// UserProfile представляет кэшируемый профиль пользователя.
type UserProfile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}
