package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"gemshop/internal/shop/adapters/rest"
	"gemshop/internal/shop/app/dto"
	"gemshop/internal/shop/domain/entities"
	restPorts "gemshop/internal/shop/ports/rest"
	svcPorts "gemshop/internal/shop/ports/services"
	"gemshop/internal/shop/resilience"
	"gemshop/pkg/logger"
)

// Константы для логирования.
const (
	LogCatalogList   = "catalog service: list products"
	LogCatalogGet    = "catalog service: get product"
	LogCatalogCreate = "catalog service: create product"
	LogCatalogUpdate = "catalog service: update product"
	LogCatalogDelete = "catalog service: delete product"
)

// CatalogServiceImpl реализует интерфейс CatalogService. Чтения
// обернуты в отказоустойчивость, записи выполняются напрямую:
// повтор неидемпотентной записи может задвоить изделие.
type CatalogServiceImpl struct {
	api        restPorts.CatalogAPI
	resilience *resilience.ServiceResilience
}

// NewCatalogService создает новый экземпляр сервиса каталога.
func NewCatalogService(api restPorts.CatalogAPI) svcPorts.CatalogService {
	return &CatalogServiceImpl{
		api:        api,
		resilience: resilience.NewServiceResilience("catalog", shouldRetryCatalog),
	}
}

// shouldRetryCatalog исключает из повторов ошибки, которые сервер
// воспроизведет детерминированно.
func shouldRetryCatalog(err error) bool {
	switch {
	case errors.Is(err, rest.ErrUnauthorized),
		errors.Is(err, rest.ErrNotFound),
		errors.Is(err, rest.ErrValidation):
		return false
	}
	return true
}

// List возвращает список изделий каталога.
func (s *CatalogServiceImpl) List(ctx context.Context) ([]entities.Product, error) {
	logger.Log(ctx).Debug(ctx, LogCatalogList)

	products, err := resilience.ExecuteWithResult(ctx, s.resilience, "List", func() ([]entities.Product, error) {
		return s.api.List(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("catalog list failed: %w", err)
	}
	return products, nil
}

// Get возвращает изделие по идентификатору.
func (s *CatalogServiceImpl) Get(ctx context.Context, productID string) (*entities.Product, error) {
	logger.Log(ctx).Debug(ctx, LogCatalogGet, zap.String("product_id", productID))

	product, err := resilience.ExecuteWithResult(ctx, s.resilience, "Get", func() (*entities.Product, error) {
		return s.api.Get(ctx, productID)
	})
	if err != nil {
		return nil, fmt.Errorf("catalog get failed: %w", err)
	}
	return product, nil
}

// Create создает новое изделие. Операция административная.
func (s *CatalogServiceImpl) Create(ctx context.Context, req *dto.ProductRequest) (*entities.Product, error) {
	logger.Log(ctx).Info(ctx, LogCatalogCreate, zap.String("title", req.Title))

	product, err := s.api.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("catalog create failed: %w", err)
	}
	return product, nil
}

// Update обновляет изделие. Операция административная.
func (s *CatalogServiceImpl) Update(ctx context.Context, productID string, req *dto.ProductRequest) (*entities.Product, error) {
	logger.Log(ctx).Info(ctx, LogCatalogUpdate, zap.String("product_id", productID))

	product, err := s.api.Update(ctx, productID, req)
	if err != nil {
		return nil, fmt.Errorf("catalog update failed: %w", err)
	}
	return product, nil
}

// Delete удаляет изделие. Операция административная.
func (s *CatalogServiceImpl) Delete(ctx context.Context, productID string) error {
	logger.Log(ctx).Info(ctx, LogCatalogDelete, zap.String("product_id", productID))

	if err := s.api.Delete(ctx, productID); err != nil {
		return fmt.Errorf("catalog delete failed: %w", err)
	}
	return nil
}
