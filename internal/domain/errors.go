package domain

import "errors"

var (
	// ErrRateUnavailable — курс недоступен и кэша нет; чекаут прерывается
	// до любого обращения к кошельку.
	ErrRateUnavailable = errors.New("exchange rate unavailable")
	// ErrInsufficientFunds — баланса не хватает на перевод плюс запас на комиссию.
	// Проверяется до запроса подписи.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrUserRejected — покупатель отклонил подпись; терминально, не повторяется.
	ErrUserRejected = errors.New("user rejected signature")
	// ErrSubmissionFailed — отправка транзакции не удалась после повторов.
	ErrSubmissionFailed = errors.New("transaction submission failed")
	// ErrConfirmationTimeout — подтверждение не получено в отведённое окно.
	// Неоднозначный исход: платёж мог пройти; повтор грозит двойным списанием.
	ErrConfirmationTimeout = errors.New("transaction confirmation timeout")
	// ErrFulfillmentFailed — провайдер печати не принял заказ; заказ всё равно
	// записывается, разбор — на операторе.
	ErrFulfillmentFailed = errors.New("fulfillment order creation failed")
	// ErrNotificationFailed — чек на почту не отправлен; только логируется.
	ErrNotificationFailed = errors.New("receipt notification failed")

	// ErrCartEmpty — пустая корзина не проходит входной контроль чекаута.
	ErrCartEmpty = errors.New("cart is empty")
	// ErrAddressRequired — в профиле нет адреса доставки.
	ErrAddressRequired = errors.New("shipping address is required")
	// ErrAddressInvalid — адрес структурно некорректен.
	ErrAddressInvalid = errors.New("shipping address is invalid")
	// ErrAmountNegative — отрицательная сумма корзины.
	ErrAmountNegative = errors.New("amount must be non-negative")
	// ErrCheckoutInFlight — чекаут уже выполняется для этой корзины.
	ErrCheckoutInFlight = errors.New("checkout already in flight")

	// ErrItemIDRequired — у позиции корзины нет идентификатора товара.
	ErrItemIDRequired = errors.New("cart item id is required")
	// ErrItemQtyInvalid — количество в позиции меньше единицы.
	ErrItemQtyInvalid = errors.New("cart item qty must be at least one")
	// ErrItemPriceInvalid — отрицательная цена позиции.
	ErrItemPriceInvalid = errors.New("cart item price must be non-negative")

	// ErrOrderNotFound возвращается, если записи заказа нет в хранилище.
	ErrOrderNotFound = errors.New("order record not found")
)

// userMessages — сообщения покупателю по таксономии ошибок.
// Для ErrConfirmationTimeout сообщение намеренно не говорит «платёж не прошёл»:
// исход неизвестен, повтор может привести ко второму переводу.
var userMessages = map[error]string{
	ErrRateUnavailable:     "Price feed is unavailable. Please try again in a minute.",
	ErrInsufficientFunds:   "Insufficient balance. Please add funds to cover the amount plus transaction fees.",
	ErrUserRejected:        "Transaction was cancelled.",
	ErrSubmissionFailed:    "Could not submit the transaction. Please try again.",
	ErrConfirmationTimeout: "Confirmation is taking too long. The payment may still have gone through — check the transaction before retrying.",
	ErrFulfillmentFailed:   "Payment successful, but there was an issue creating your order. Our team will contact you.",
	ErrNotificationFailed:  "Could not send receipt email. Please check your order history for details.",
	ErrCartEmpty:           "Your cart is empty.",
	ErrAddressRequired:     "Please add a shipping address to continue.",
	ErrAddressInvalid:      "Please check your shipping address.",
	ErrCheckoutInFlight:    "A payment is already being processed.",
}

// genericUserMessage показывается для неклассифицированных ошибок;
// сырые детали уходят только в лог.
const genericUserMessage = "Payment failed. Please try again."

// UserMessage возвращает человекочитаемое сообщение для ошибки чекаута.
func UserMessage(err error) string {
	for sentinel, msg := range userMessages {
		if errors.Is(err, sentinel) {
			return msg
		}
	}
	return genericUserMessage
}

// IsTerminalPaymentError — ошибки, после которых платёжный шаг не повторяется.
func IsTerminalPaymentError(err error) bool {
	return errors.Is(err, ErrUserRejected) || errors.Is(err, ErrInsufficientFunds)
}

// IsAmbiguousOutcome — исходы, при которых платёж мог пройти.
func IsAmbiguousOutcome(err error) bool {
	return errors.Is(err, ErrConfirmationTimeout)
}
