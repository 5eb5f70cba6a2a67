package rest

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"gemshop/internal/shop/app/dto"
	"gemshop/internal/shop/domain/entities"
	restPorts "gemshop/internal/shop/ports/rest"
	"gemshop/pkg/logger"
)

// Константы для логирования.
const (
	LogCatalogList   = "catalog client: list products"
	LogCatalogGet    = "catalog client: get product"
	LogCatalogCreate = "catalog client: create product"
	LogCatalogUpdate = "catalog client: update product"
	LogCatalogDelete = "catalog client: delete product"
)

const pathProducts = "/products"

// CatalogClient реализует интерфейс CatalogAPI.
type CatalogClient struct {
	client *Client
}

// NewCatalogClient создает клиент каталога.
func NewCatalogClient(client *Client) restPorts.CatalogAPI {
	return &CatalogClient{client: client}
}

// List возвращает позиции каталога.
func (c *CatalogClient) List(ctx context.Context) ([]entities.Product, error) {
	log := logger.Log(ctx)
	log.Debug(ctx, LogCatalogList)

	var payload dto.ProductListResponse
	if err := c.client.do(ctx, http.MethodGet, pathProducts, nil, &payload); err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return payload.Products, nil
}

// Get возвращает одну позицию каталога.
func (c *CatalogClient) Get(ctx context.Context, productID string) (*entities.Product, error) {
	log := logger.Log(ctx)
	log.Debug(ctx, LogCatalogGet, zap.String("product_id", productID))

	var product entities.Product
	if err := c.client.do(ctx, http.MethodGet, pathProducts+"/"+productID, nil, &product); err != nil {
		return nil, fmt.Errorf("getting product %s: %w", productID, err)
	}
	return &product, nil
}

// Create создает позицию каталога (административная операция).
func (c *CatalogClient) Create(ctx context.Context, req *dto.ProductRequest) (*entities.Product, error) {
	log := logger.Log(ctx)
	log.Info(ctx, LogCatalogCreate, zap.String("sku", req.SKU))

	var product entities.Product
	if err := c.client.do(ctx, http.MethodPost, pathProducts, req, &product); err != nil {
		return nil, fmt.Errorf("creating product: %w", err)
	}
	return &product, nil
}

// Update изменяет позицию каталога (административная операция).
func (c *CatalogClient) Update(ctx context.Context, productID string, req *dto.ProductRequest) (*entities.Product, error) {
	log := logger.Log(ctx)
	log.Info(ctx, LogCatalogUpdate, zap.String("product_id", productID))

	var product entities.Product
	if err := c.client.do(ctx, http.MethodPut, pathProducts+"/"+productID, req, &product); err != nil {
		return nil, fmt.Errorf("updating product %s: %w", productID, err)
	}
	return &product, nil
}

// Delete удаляет позицию каталога (административная операция).
func (c *CatalogClient) Delete(ctx context.Context, productID string) error {
	log := logger.Log(ctx)
	log.Info(ctx, LogCatalogDelete, zap.String("product_id", productID))

	if err := c.client.do(ctx, http.MethodDelete, pathProducts+"/"+productID, nil, nil); err != nil {
		return fmt.Errorf("deleting product %s: %w", productID, err)
	}
	return nil
}
