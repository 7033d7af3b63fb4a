package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderRecord — локальная запись о завершённом заказе.
// Append-only: одна запись на успешный платёж, ключ — подпись транзакции.
// Запись неизменяема после создания и служит чеком покупателя.
type OrderRecord struct {
	// ID совпадает с подписью платёжной транзакции.
	ID string `json:"id"`
	// Items — снимок корзины на момент оплаты.
	Items []CartItem `json:"items"`
	// TotalUSD — сумма заказа в долларах.
	TotalUSD decimal.Decimal `json:"total"`
	// SOLAmount — фактически переведённая сумма в SOL.
	SOLAmount decimal.Decimal `json:"solAmount"`
	// Signature дублирует ID для удобства сериализации.
	Signature string `json:"signature"`
	// CreatedAt — момент записи заказа.
	CreatedAt time.Time `json:"timestamp"`
}

// FulfillmentLineItem — позиция заказа у провайдера печати.
type FulfillmentLineItem struct {
	ProductID string `json:"product_id"`
	VariantID int    `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}

// FulfillmentAddress — адрес в кодировке провайдера (штат и страна — кодами).
type FulfillmentAddress struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Address1  string `json:"address1"`
	Address2  string `json:"address2"`
	City      string `json:"city"`
	State     string `json:"state"`
	Country   string `json:"country"`
	Zip       string `json:"zip"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// FulfillmentCustomer — платёжный профиль покупателя для провайдера.
type FulfillmentCustomer struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone,omitempty"`
	CountryCode string `json:"country_code"`
	CountryName string `json:"country_name"`
	Region      string `json:"region,omitempty"`
	Address1    string `json:"address1"`
	Address2    string `json:"address2,omitempty"`
	City        string `json:"city"`
	Zip         string `json:"zip"`
}

// FulfillmentOrder — созданный у провайдера заказ.
// Создаётся только после подтверждённого платежа; его отсутствие
// не отменяет сам платёж.
type FulfillmentOrder struct {
	ExternalOrderID string                `json:"id"`
	Status          string                `json:"status"`
	LineItems       []FulfillmentLineItem `json:"line_items"`
	Address         FulfillmentAddress    `json:"shipping_address"`
	Customer        FulfillmentCustomer   `json:"customer"`
	CreatedAt       string                `json:"created_at"`
}
