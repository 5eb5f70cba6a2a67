package entities

// BasisPointsOne - ценовой множитель, соответствующий x1.
const BasisPointsOne int64 = 10000

// MinQuantity - минимально допустимое количество позиции корзины.
const MinQuantity = 1

// Selection описывает выбранные параметры изделия в корзине.
// Нулевые значения означают отсутствие выбора: множитель металла
// трактуется как x1, надбавка за камень как 0.
type Selection struct {
	Metal            string `json:"metal,omitempty"`
	MetalMultiplierBP int64 `json:"metal_multiplier_bp,omitempty"`
	Stone            string `json:"stone,omitempty"`
	StoneSurcharge   int64  `json:"stone_surcharge,omitempty"`
	RingSize         string `json:"ring_size,omitempty"`
}

// CartItem представляет каноническую позицию корзины.
// CalculatedPrice - цена позиции, рассчитанная сервером; nil означает,
// что серверная цена отсутствует и действует локальная формула.
type CartItem struct {
	ID              string    `json:"id"`
	ProductID       string    `json:"product_id"`
	Title           string    `json:"title"`
	ImageURL        string    `json:"image_url,omitempty"`
	BasePrice       int64     `json:"base_price"`
	Quantity        int       `json:"quantity"`
	CalculatedPrice *int64    `json:"calculated_price,omitempty"`
	Selection       Selection `json:"selection"`
}

// UnitPrice возвращает локальную цену за единицу:
// base * metalMultiplier + stoneSurcharge.
func (i CartItem) UnitPrice() int64 {
	multiplier := i.Selection.MetalMultiplierBP
	if multiplier == 0 {
		multiplier = BasisPointsOne
	}
	return i.BasePrice*multiplier/BasisPointsOne + i.Selection.StoneSurcharge
}

// EffectivePrice возвращает цену позиции: серверную CalculatedPrice,
// если она есть, иначе локальную формулу UnitPrice * Quantity.
func (i CartItem) EffectivePrice() int64 {
	if i.CalculatedPrice != nil {
		return *i.CalculatedPrice
	}
	return i.UnitPrice() * int64(i.Quantity)
}

// RescalePrice пересчитывает известную цену позиции под новое количество,
// сохраняя серверные надбавки пропорционально. Умножение выполняется до
// деления, чтобы не терять точность на целочисленной цене за единицу.
func RescalePrice(price int64, prevQuantity, newQuantity int) int64 {
	if prevQuantity <= 0 {
		return price
	}
	return price * int64(newQuantity) / int64(prevQuantity)
}

// CartTotals содержит агрегаты корзины, выводимые свёрткой по позициям.
type CartTotals struct {
	Quantity int   `json:"quantity"`
	Price    int64 `json:"price"`
}

// TotalsOf вычисляет агрегаты корзины. Это единственный способ получения
// totalQuantity и totalPrice: агрегаты никогда не изменяются отдельно
// от списка позиций.
func TotalsOf(items []CartItem) CartTotals {
	var totals CartTotals
	for _, item := range items {
		totals.Quantity += item.Quantity
		totals.Price += item.EffectivePrice()
	}
	return totals
}
