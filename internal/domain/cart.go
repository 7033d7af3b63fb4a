package domain

import "github.com/shopspring/decimal"

// CartItem представляет одну позицию корзины покупателя.
type CartItem struct {
	// ID — внешний идентификатор товара у провайдера печати.
	ID string `json:"id"`
	// Name — отображаемое название товара.
	Name string `json:"name"`
	// PriceUSD — цена за единицу в долларах США.
	PriceUSD decimal.Decimal `json:"price"`
	// Quantity — количество единиц, всегда >= 1.
	Quantity int `json:"quantity"`
	// Image — ссылка на изображение товара.
	Image string `json:"image"`
	// VariantID — идентификатор варианта (размер/цвет); опционален.
	VariantID string `json:"variantId,omitempty"`
}

// ValidateInvariants проверяет базовые инварианты позиции и возвращает список замечаний.
func (i *CartItem) ValidateInvariants() []error {
	var errs []error

	if i.ID == "" {
		errs = append(errs, ErrItemIDRequired)
	}
	if i.Quantity < 1 {
		errs = append(errs, ErrItemQtyInvalid)
	}
	if i.PriceUSD.IsNegative() {
		errs = append(errs, ErrItemPriceInvalid)
	}

	return errs
}

// CartTotal возвращает сумму корзины в долларах: qty * price по всем позициям.
func CartTotal(items []CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.PriceUSD.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// SnapshotCart делает копию позиций, чтобы чекаут работал со снимком,
// а не с живой корзиной.
func SnapshotCart(items []CartItem) []CartItem {
	snapshot := make([]CartItem, len(items))
	copy(snapshot, items)
	return snapshot
}
