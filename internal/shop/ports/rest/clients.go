// Package rest определяет интерфейсы клиентов удаленного REST API.
package rest

import (
	"context"

	"gemshop/internal/shop/app/dto"
	"gemshop/internal/shop/domain/entities"
)

// AuthAPI определяет операции аутентификации удаленного API.
type AuthAPI interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.SessionResponse, error)

	Logout(ctx context.Context, refreshToken string) error
}

// CartAPI определяет операции серверной корзины.
type CartAPI interface {
	Fetch(ctx context.Context) ([]entities.CartItem, error)

	Add(ctx context.Context, req *dto.AddCartItemRequest) (*entities.CartItem, error)

	UpdateQuantity(ctx context.Context, itemID string, quantity int) error

	Remove(ctx context.Context, itemID string) error

	Clear(ctx context.Context) error
}

// CatalogAPI определяет операции каталога, включая административные.
type CatalogAPI interface {
	List(ctx context.Context) ([]entities.Product, error)

	Get(ctx context.Context, productID string) (*entities.Product, error)

	Create(ctx context.Context, req *dto.ProductRequest) (*entities.Product, error)

	Update(ctx context.Context, productID string, req *dto.ProductRequest) (*entities.Product, error)

	Delete(ctx context.Context, productID string) error
}
