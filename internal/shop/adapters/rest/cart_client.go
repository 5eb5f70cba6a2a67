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
	LogCartFetch  = "cart client: fetch"
	LogCartAdd    = "cart client: add item"
	LogCartUpdate = "cart client: update quantity"
	LogCartRemove = "cart client: remove item"
	LogCartClear  = "cart client: clear"
)

const pathCart = "/cart"

// CartClient реализует интерфейс CartAPI.
type CartClient struct {
	client *Client
}

// NewCartClient создает клиент серверной корзины.
func NewCartClient(client *Client) restPorts.CartAPI {
	return &CartClient{client: client}
}

// cartListPayload описывает ответ списка корзины.
type cartListPayload struct {
	Items []dto.CartItemPayload `json:"items"`
}

// Fetch возвращает текущее серверное представление корзины.
// Позиции нормализуются в каноническую форму сразу после декодирования.
func (c *CartClient) Fetch(ctx context.Context) ([]entities.CartItem, error) {
	log := logger.Log(ctx)
	log.Debug(ctx, LogCartFetch)

	var payload cartListPayload
	if err := c.client.do(ctx, http.MethodGet, pathCart, nil, &payload); err != nil {
		return nil, fmt.Errorf("fetching cart: %w", err)
	}

	items := make([]entities.CartItem, 0, len(payload.Items))
	for i := range payload.Items {
		items = append(items, payload.Items[i].ToEntity())
	}
	return items, nil
}

// Add добавляет изделие в серверную корзину. Сервер отклоняет дубликаты
// по идентичности изделия.
func (c *CartClient) Add(ctx context.Context, req *dto.AddCartItemRequest) (*entities.CartItem, error) {
	log := logger.Log(ctx)
	log.Debug(ctx, LogCartAdd, zap.String("product_id", req.ProductID))

	var payload dto.CartItemPayload
	if err := c.client.do(ctx, http.MethodPost, pathCart, req, &payload); err != nil {
		return nil, fmt.Errorf("adding cart item: %w", err)
	}

	item := payload.ToEntity()
	return &item, nil
}

// UpdateQuantity устанавливает серверное количество позиции.
func (c *CartClient) UpdateQuantity(ctx context.Context, itemID string, quantity int) error {
	log := logger.Log(ctx)
	log.Debug(ctx, LogCartUpdate,
		zap.String("item_id", itemID),
		zap.Int("quantity", quantity))

	req := dto.UpdateCartItemRequest{Quantity: quantity}
	if err := c.client.do(ctx, http.MethodPut, pathCart+"/"+itemID, &req, nil); err != nil {
		return fmt.Errorf("updating cart item %s: %w", itemID, err)
	}
	return nil
}

// Remove удаляет одну позицию серверной корзины.
func (c *CartClient) Remove(ctx context.Context, itemID string) error {
	log := logger.Log(ctx)
	log.Debug(ctx, LogCartRemove, zap.String("item_id", itemID))

	if err := c.client.do(ctx, http.MethodDelete, pathCart+"/"+itemID, nil, nil); err != nil {
		return fmt.Errorf("removing cart item %s: %w", itemID, err)
	}
	return nil
}

// Clear удаляет все позиции серверной корзины.
func (c *CartClient) Clear(ctx context.Context) error {
	log := logger.Log(ctx)
	log.Debug(ctx, LogCartClear)

	if err := c.client.do(ctx, http.MethodDelete, pathCart, nil, nil); err != nil {
		return fmt.Errorf("clearing cart: %w", err)
	}
	return nil
}
