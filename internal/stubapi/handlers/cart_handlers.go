package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"gemshop/internal/shop/app/dto"
	"gemshop/internal/shop/domain/entities"
	"gemshop/internal/stubapi/middleware"
	"gemshop/internal/stubapi/state"
	"gemshop/pkg/logger"
)

// Константы для логирования.
const (
	LogHandlerCartList   = "cart handler: list"
	LogHandlerCartAdd    = "cart handler: add item"
	LogHandlerCartUpdate = "cart handler: update quantity"
	LogHandlerCartRemove = "cart handler: remove item"
	LogHandlerCartClear  = "cart handler: clear"
)

// CartHandler содержит HTTP обработчики серверной корзины.
type CartHandler struct {
	state *state.State
}

// NewCartHandler создает новый экземпляр обработчика корзины.
func NewCartHandler(st *state.State) *CartHandler {
	return &CartHandler{state: st}
}

// itemPayload сериализует позицию корзины во вложенной форме: атрибуты
// изделия упакованы в объект product, как это делает боевой API.
func itemPayload(item entities.CartItem) dto.CartItemPayload {
	return dto.CartItemPayload{
		ID: item.ID,
		Product: &dto.ProductPayload{
			ID:        item.ProductID,
			Title:     item.Title,
			ImageURL:  item.ImageURL,
			BasePrice: item.BasePrice,
		},
		Quantity:          item.Quantity,
		CalculatedPrice:   item.CalculatedPrice,
		Metal:             item.Selection.Metal,
		MetalMultiplierBP: item.Selection.MetalMultiplierBP,
		Stone:             item.Selection.Stone,
		StoneSurcharge:    item.Selection.StoneSurcharge,
		RingSize:          item.Selection.RingSize,
	}
}

func userID(ctx fiber.Ctx) string {
	id, _ := ctx.Locals(middleware.LocalUserID).(string)
	return id
}

// List возвращает корзину пользователя.
func (h *CartHandler) List(ctx fiber.Ctx) error {
	requestCtx := ctx.Context()
	logger.Log(requestCtx).Info(requestCtx, LogHandlerCartList)

	items := h.state.CartItems(userID(ctx))
	payload := make([]dto.CartItemPayload, 0, len(items))
	for _, item := range items {
		payload = append(payload, itemPayload(item))
	}

	if err := ctx.Status(http.StatusOK).JSON(fiber.Map{"items": payload}); err != nil {
		return fmt.Errorf("sending response: %w", err)
	}
	return nil
}

// Add добавляет изделие в корзину пользователя.
func (h *CartHandler) Add(ctx fiber.Ctx) error {
	requestCtx := ctx.Context()
	log := logger.Log(requestCtx)
	log.Info(requestCtx, LogHandlerCartAdd)

	var req dto.AddCartItemRequest
	if err := ctx.Bind().JSON(&req); err != nil {
		log.Error(requestCtx, ErrorInvalidRequest, zap.Error(err))
		return sendErrorResponse(ctx, http.StatusBadRequest, ErrorInvalidRequest)
	}

	if req.ProductID == "" {
		return sendErrorResponse(ctx, http.StatusBadRequest, "product_id is required")
	}
	if req.Quantity < entities.MinQuantity {
		return sendErrorResponse(ctx, http.StatusUnprocessableEntity, "quantity must be at least 1")
	}

	item, err := h.state.AddCartItem(userID(ctx), req.ProductID, req.Quantity, req.Metal, req.Stone, req.RingSize)
	if err != nil {
		log.Warn(requestCtx, "add to cart rejected", zap.Error(err))
		return sendErrorResponse(ctx, cartErrorStatus(err), err.Error())
	}

	if err := ctx.Status(http.StatusCreated).JSON(itemPayload(*item)); err != nil {
		return fmt.Errorf("sending response: %w", err)
	}
	return nil
}

// UpdateQuantity устанавливает количество позиции.
func (h *CartHandler) UpdateQuantity(ctx fiber.Ctx) error {
	requestCtx := ctx.Context()
	log := logger.Log(requestCtx)
	log.Info(requestCtx, LogHandlerCartUpdate, zap.String("item_id", ctx.Params("item_id")))

	var req dto.UpdateCartItemRequest
	if err := ctx.Bind().JSON(&req); err != nil {
		log.Error(requestCtx, ErrorInvalidRequest, zap.Error(err))
		return sendErrorResponse(ctx, http.StatusBadRequest, ErrorInvalidRequest)
	}

	if req.Quantity < entities.MinQuantity {
		return sendErrorResponse(ctx, http.StatusUnprocessableEntity, "quantity must be at least 1")
	}

	if err := h.state.UpdateCartQuantity(userID(ctx), ctx.Params("item_id"), req.Quantity); err != nil {
		return sendErrorResponse(ctx, cartErrorStatus(err), err.Error())
	}

	if err := ctx.Status(http.StatusOK).JSON(fiber.Map{"status": "ok"}); err != nil {
		return fmt.Errorf("sending response: %w", err)
	}
	return nil
}

// Remove удаляет позицию корзины.
func (h *CartHandler) Remove(ctx fiber.Ctx) error {
	requestCtx := ctx.Context()
	logger.Log(requestCtx).Info(requestCtx, LogHandlerCartRemove, zap.String("item_id", ctx.Params("item_id")))

	if err := h.state.RemoveCartItem(userID(ctx), ctx.Params("item_id")); err != nil {
		return sendErrorResponse(ctx, cartErrorStatus(err), err.Error())
	}

	if err := ctx.Status(http.StatusOK).JSON(fiber.Map{"status": "ok"}); err != nil {
		return fmt.Errorf("sending response: %w", err)
	}
	return nil
}

// Clear очищает корзину пользователя.
func (h *CartHandler) Clear(ctx fiber.Ctx) error {
	requestCtx := ctx.Context()
	logger.Log(requestCtx).Info(requestCtx, LogHandlerCartClear)

	h.state.ClearCart(userID(ctx))

	if err := ctx.Status(http.StatusOK).JSON(fiber.Map{"status": "ok"}); err != nil {
		return fmt.Errorf("sending response: %w", err)
	}
	return nil
}

// cartErrorStatus сопоставляет ошибку состояния со статусом HTTP.
func cartErrorStatus(err error) int {
	switch {
	case errors.Is(err, state.ErrDuplicateCartItem):
		return http.StatusConflict
	case errors.Is(err, state.ErrCartItemNotFound), errors.Is(err, state.ErrProductNotFound):
		return http.StatusNotFound
	case errors.Is(err, state.ErrUnknownOption):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
