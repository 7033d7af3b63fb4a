package domain

// Stage описывает этап конечного автомата чекаута.
type Stage string

const (
	// StageIdle — чекаут не запущен.
	StageIdle Stage = "idle"
	// StageQuotingPrice — получение курса и пересчёт суммы.
	StageQuotingPrice Stage = "quoting_price"
	// StageConfirmingAddress — подтверждение адреса покупателем перед подписью.
	StageConfirmingAddress Stage = "confirming_address"
	// StageAwaitingSignature — запрошена подпись у кошелька.
	StageAwaitingSignature Stage = "awaiting_signature"
	// StageSubmittingPayment — отправка подписанной транзакции в сеть.
	StageSubmittingPayment Stage = "submitting_payment"
	// StageConfirmingPayment — ожидание подтверждения сетью.
	StageConfirmingPayment Stage = "confirming_payment"
	// StageCreatingFulfillment — создание заказа у провайдера печати.
	StageCreatingFulfillment Stage = "creating_fulfillment"
	// StageRecordingOrder — запись заказа в локальное хранилище.
	StageRecordingOrder Stage = "recording_order"
	// StageNotifyingReceipt — отправка чека на почту (опционально).
	StageNotifyingReceipt Stage = "notifying_receipt"
	// StageComplete — терминальный успех.
	StageComplete Stage = "complete"
	// StageFailed — терминальный отказ до записи заказа.
	StageFailed Stage = "failed"
)

// PaymentResult — итог работы платёжного конвейера.
// Создаётся pending и становится терминальным после ограниченного числа попыток.
type PaymentResult struct {
	// Signature — идентификатор транзакции в сети (base58).
	Signature string
	// Confirmed — сеть подтвердила перевод.
	Confirmed bool
}

// ConfirmDecision — решение покупателя на шаге подтверждения адреса.
type ConfirmDecision int

const (
	// DecisionProceed — адрес подтверждён, продолжаем к подписи.
	DecisionProceed ConfirmDecision = iota
	// DecisionEdit — покупатель хочет изменить адрес; чекаут прерывается без ошибки.
	DecisionEdit
)
