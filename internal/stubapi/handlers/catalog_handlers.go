package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"gemshop/internal/shop/app/dto"
	"gemshop/internal/shop/domain/entities"
	"gemshop/internal/stubapi/state"
	"gemshop/pkg/logger"
)

// Константы для логирования.
const (
	LogHandlerProductList   = "catalog handler: list"
	LogHandlerProductGet    = "catalog handler: get"
	LogHandlerProductCreate = "catalog handler: create"
	LogHandlerProductUpdate = "catalog handler: update"
	LogHandlerProductDelete = "catalog handler: delete"
)

// CatalogHandler содержит HTTP обработчики каталога.
type CatalogHandler struct {
	state *state.State
}

// NewCatalogHandler создает новый экземпляр обработчика каталога.
func NewCatalogHandler(st *state.State) *CatalogHandler {
	return &CatalogHandler{state: st}
}

// List возвращает весь каталог.
func (h *CatalogHandler) List(ctx fiber.Ctx) error {
	requestCtx := ctx.Context()
	logger.Log(requestCtx).Info(requestCtx, LogHandlerProductList)

	response := dto.ProductListResponse{Products: h.state.Products()}
	if err := ctx.Status(http.StatusOK).JSON(response); err != nil {
		return fmt.Errorf("sending response: %w", err)
	}
	return nil
}

// Get возвращает изделие по идентификатору.
func (h *CatalogHandler) Get(ctx fiber.Ctx) error {
	requestCtx := ctx.Context()
	logger.Log(requestCtx).Info(requestCtx, LogHandlerProductGet, zap.String("product_id", ctx.Params("product_id")))

	product, err := h.state.Product(ctx.Params("product_id"))
	if err != nil {
		return sendErrorResponse(ctx, catalogErrorStatus(err), err.Error())
	}

	if err := ctx.Status(http.StatusOK).JSON(product); err != nil {
		return fmt.Errorf("sending response: %w", err)
	}
	return nil
}

// Create добавляет изделие в каталог.
func (h *CatalogHandler) Create(ctx fiber.Ctx) error {
	requestCtx := ctx.Context()
	log := logger.Log(requestCtx)
	log.Info(requestCtx, LogHandlerProductCreate)

	req, err := decodeProductRequest(ctx)
	if err != nil {
		log.Error(requestCtx, ErrorInvalidRequest, zap.Error(err))
		return sendErrorResponse(ctx, http.StatusBadRequest, err.Error())
	}

	product, err := h.state.CreateProduct(productFromRequest(req))
	if err != nil {
		return sendErrorResponse(ctx, catalogErrorStatus(err), err.Error())
	}

	if err := ctx.Status(http.StatusCreated).JSON(product); err != nil {
		return fmt.Errorf("sending response: %w", err)
	}
	return nil
}

// Update заменяет атрибуты изделия.
func (h *CatalogHandler) Update(ctx fiber.Ctx) error {
	requestCtx := ctx.Context()
	log := logger.Log(requestCtx)
	log.Info(requestCtx, LogHandlerProductUpdate, zap.String("product_id", ctx.Params("product_id")))

	req, err := decodeProductRequest(ctx)
	if err != nil {
		log.Error(requestCtx, ErrorInvalidRequest, zap.Error(err))
		return sendErrorResponse(ctx, http.StatusBadRequest, err.Error())
	}

	product, err := h.state.UpdateProduct(ctx.Params("product_id"), productFromRequest(req))
	if err != nil {
		return sendErrorResponse(ctx, catalogErrorStatus(err), err.Error())
	}

	if err := ctx.Status(http.StatusOK).JSON(product); err != nil {
		return fmt.Errorf("sending response: %w", err)
	}
	return nil
}

// Delete удаляет изделие из каталога.
func (h *CatalogHandler) Delete(ctx fiber.Ctx) error {
	requestCtx := ctx.Context()
	logger.Log(requestCtx).Info(requestCtx, LogHandlerProductDelete, zap.String("product_id", ctx.Params("product_id")))

	if err := h.state.DeleteProduct(ctx.Params("product_id")); err != nil {
		return sendErrorResponse(ctx, catalogErrorStatus(err), err.Error())
	}

	if err := ctx.Status(http.StatusOK).JSON(fiber.Map{"status": "ok"}); err != nil {
		return fmt.Errorf("sending response: %w", err)
	}
	return nil
}

func decodeProductRequest(ctx fiber.Ctx) (*dto.ProductRequest, error) {
	var req dto.ProductRequest
	if err := ctx.Bind().JSON(&req); err != nil {
		return nil, errors.New(ErrorInvalidRequest)
	}
	if req.SKU == "" || req.Title == "" {
		return nil, errors.New("sku and title are required")
	}
	if req.BasePrice < 0 {
		return nil, errors.New("base_price must not be negative")
	}
	return &req, nil
}

func productFromRequest(req *dto.ProductRequest) entities.Product {
	return entities.Product{
		SKU:         req.SKU,
		Title:       req.Title,
		Description: req.Description,
		BasePrice:   req.BasePrice,
		ImageURL:    req.ImageURL,
		Metals:      req.Metals,
		Stones:      req.Stones,
		RingSizes:   req.RingSizes,
	}
}

// catalogErrorStatus сопоставляет ошибку состояния со статусом HTTP.
func catalogErrorStatus(err error) int {
	switch {
	case errors.Is(err, state.ErrProductNotFound):
		return http.StatusNotFound
	case errors.Is(err, state.ErrDuplicateSKU):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
