package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// RateProvider отдаёт текущий курс: долларов за один SOL.
type RateProvider interface {
	// Rate возвращает кэшированный либо свежий курс или ErrRateUnavailable.
	Rate(ctx context.Context) (decimal.Decimal, error)
}

// PaymentService выполняет перевод на кошелёк магазина.
type PaymentService interface {
	// Pay проводит перевод на сумму из котировки. progress (опционален)
	// уведомляет о смене этапа внутри платёжного конвейера.
	Pay(ctx context.Context, quote PaymentQuote, progress func(Stage)) (PaymentResult, error)
}

// FulfillmentService создаёт заказ у провайдера печати.
// Вызывается только с подтверждённым платежом на руках.
type FulfillmentService interface {
	CreateOrder(ctx context.Context, items []CartItem, address ShippingAddress) (FulfillmentOrder, error)
}

// ReceiptNotifier отправляет чек на почту покупателя. Best-effort:
// неудача не влияет на итог заказа.
type ReceiptNotifier interface {
	SendReceipt(ctx context.Context, record OrderRecord, address ShippingAddress) error
}

// AddressConfirmer — интерактивный шаг подтверждения адреса перед подписью.
type AddressConfirmer interface {
	Confirm(ctx context.Context, address ShippingAddress) (ConfirmDecision, error)
}

// TimelineEvent — переход конечного автомата в рамках одной попытки чекаута.
type TimelineEvent struct {
	AttemptID string
	Stage     Stage
	Reason    string
	Occurred  time.Time
}
