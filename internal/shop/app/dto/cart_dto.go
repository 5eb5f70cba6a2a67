package dto

import (
	"gemshop/internal/shop/domain/entities"
)

// AddCartItemRequest содержит данные для добавления изделия в корзину.
type AddCartItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
	Metal     string `json:"metal,omitempty"`
	Stone     string `json:"stone,omitempty"`
	RingSize  string `json:"ring_size,omitempty"`
}

// UpdateCartItemRequest содержит данные для изменения позиции корзины.
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

// CartItemPayload описывает позицию корзины в обоих форматах ответа
// сервера: с плоскими полями изделия либо с вложенным объектом product.
// Нормализация в каноническую entities.CartItem выполняется сразу после
// декодирования, ниже по стеку формы не различаются.
type CartItemPayload struct {
	ID              string          `json:"id"`
	ProductID       string          `json:"product_id,omitempty"`
	Title           string          `json:"title,omitempty"`
	ImageURL        string          `json:"image_url,omitempty"`
	BasePrice       int64           `json:"base_price,omitempty"`
	Product         *ProductPayload `json:"product,omitempty"`
	Quantity        int             `json:"quantity"`
	CalculatedPrice *int64          `json:"calculated_price,omitempty"`
	Metal           string          `json:"metal,omitempty"`
	MetalMultiplierBP int64         `json:"metal_multiplier_bp,omitempty"`
	Stone           string          `json:"stone,omitempty"`
	StoneSurcharge  int64           `json:"stone_surcharge,omitempty"`
	RingSize        string          `json:"ring_size,omitempty"`
}

// ProductPayload описывает вложенный объект изделия в ответе корзины.
type ProductPayload struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	ImageURL  string `json:"image_url,omitempty"`
	BasePrice int64  `json:"base_price"`
}

// ToEntity нормализует позицию корзины в каноническую форму.
// Поля вложенного product имеют приоритет над плоскими.
func (p *CartItemPayload) ToEntity() entities.CartItem {
	item := entities.CartItem{
		ID:              p.ID,
		ProductID:       p.ProductID,
		Title:           p.Title,
		ImageURL:        p.ImageURL,
		BasePrice:       p.BasePrice,
		Quantity:        p.Quantity,
		CalculatedPrice: p.CalculatedPrice,
		Selection: entities.Selection{
			Metal:             p.Metal,
			MetalMultiplierBP: p.MetalMultiplierBP,
			Stone:             p.Stone,
			StoneSurcharge:    p.StoneSurcharge,
			RingSize:          p.RingSize,
		},
	}

	if p.Product != nil {
		item.ProductID = p.Product.ID
		item.Title = p.Product.Title
		item.ImageURL = p.Product.ImageURL
		item.BasePrice = p.Product.BasePrice
	}

	return item
}
