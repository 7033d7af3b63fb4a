package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LamportsPerSOL — количество минимальных единиц (лампортов) в одном SOL.
const LamportsPerSOL = 1_000_000_000

// FeeBufferLamports — фиксированный запас на сетевую комиссию.
// Участвует только в проверке достаточности баланса и никогда
// не добавляется к сумме самого перевода.
const FeeBufferLamports = 5_000

// PaymentQuote — снимок пересчёта суммы корзины в лампорты.
// Не персистится: живёт ровно одну попытку чекаута.
type PaymentQuote struct {
	// TotalUSD — сумма корзины в долларах.
	TotalUSD decimal.Decimal
	// Rate — курс: долларов за один SOL.
	Rate decimal.Decimal
	// Lamports — сумма перевода в минимальных единицах, округлённая вверх.
	Lamports uint64
	// ComputedAt — момент фиксации курса.
	ComputedAt time.Time
}

// NewPaymentQuote пересчитывает долларовую сумму в лампорты по курсу.
// Lamports = ceil(totalUSD / rate * 1e9); округление вверх, чтобы магазин
// никогда не получал меньше долларового эквивалента.
func NewPaymentQuote(totalUSD, rate decimal.Decimal, computedAt time.Time) (PaymentQuote, error) {
	if !rate.IsPositive() {
		return PaymentQuote{}, ErrRateUnavailable
	}
	if totalUSD.IsNegative() {
		return PaymentQuote{}, ErrAmountNegative
	}

	lamports := totalUSD.
		Div(rate).
		Mul(decimal.NewFromInt(LamportsPerSOL)).
		Ceil().
		IntPart()

	return PaymentQuote{
		TotalUSD:   totalUSD,
		Rate:       rate,
		Lamports:   uint64(lamports),
		ComputedAt: computedAt,
	}, nil
}

// TotalSOL возвращает сумму перевода в SOL (для чеков и логов).
func (q PaymentQuote) TotalSOL() decimal.Decimal {
	return decimal.NewFromInt(int64(q.Lamports)).Div(decimal.NewFromInt(LamportsPerSOL))
}

// RequiredBalance — минимальный баланс плательщика: сумма перевода плюс
// запас на комиссию.
func (q PaymentQuote) RequiredBalance() uint64 {
	return q.Lamports + FeeBufferLamports
}
