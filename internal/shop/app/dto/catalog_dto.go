package dto

import (
	"gemshop/internal/shop/domain/entities"
)

// ProductRequest содержит данные для создания или изменения позиции
// каталога административной консолью.
type ProductRequest struct {
	SKU         string                 `json:"sku" validate:"required"`
	Title       string                 `json:"title" validate:"required"`
	Description string                 `json:"description,omitempty"`
	BasePrice   int64                  `json:"base_price" validate:"required,min=0"`
	ImageURL    string                 `json:"image_url,omitempty"`
	Metals      []entities.MetalOption `json:"metals,omitempty"`
	Stones      []entities.StoneOption `json:"stones,omitempty"`
	RingSizes   []string               `json:"ring_sizes,omitempty"`
}

// ProductListResponse содержит страницу каталога.
type ProductListResponse struct {
	Products []entities.Product `json:"products"`
}
