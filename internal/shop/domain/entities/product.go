package entities

// MetalOption описывает доступный металл изделия и его ценовой множитель
// в базисных пунктах (10000 = x1).
type MetalOption struct {
	Name         string `json:"name"`
	MultiplierBP int64  `json:"multiplier_bp"`
}

// StoneOption описывает доступный камень изделия и его надбавку к цене
// в минорных единицах валюты.
type StoneOption struct {
	Name      string `json:"name"`
	Surcharge int64  `json:"surcharge"`
}

// Product представляет позицию каталога.
// Все цены хранятся в минорных единицах валюты.
type Product struct {
	ID          string        `json:"id"`
	SKU         string        `json:"sku"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	BasePrice   int64         `json:"base_price"`
	ImageURL    string        `json:"image_url,omitempty"`
	Metals      []MetalOption `json:"metals,omitempty"`
	Stones      []StoneOption `json:"stones,omitempty"`
	RingSizes   []string      `json:"ring_sizes,omitempty"`
}
