package services

import (
	"context"

	"gemshop/internal/shop/app/dto"
	"gemshop/internal/shop/domain/entities"
)

// CatalogService определяет интерфейс для работы с каталогом.
// Операции записи доступны только административной поверхности.
type CatalogService interface {
	List(ctx context.Context) ([]entities.Product, error)

	Get(ctx context.Context, productID string) (*entities.Product, error)

	Create(ctx context.Context, req *dto.ProductRequest) (*entities.Product, error)

	Update(ctx context.Context, productID string, req *dto.ProductRequest) (*entities.Product, error)

	Delete(ctx context.Context, productID string) error
}
