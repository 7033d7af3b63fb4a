package payment

import (
	"context"

	"github.com/gagliardetto/solana-go"
)

// Wallet — внешняя способность кошелька подписывать транзакции.
// Реализация принадлежит окружению покупателя; для нас она непрозрачна
// и может отказать (покупатель отклонил подпись).
type Wallet interface {
	// PublicKey — адрес плательщика.
	PublicKey() solana.PublicKey
	// SignTransaction запрашивает подпись. Отказ покупателя возвращается
	// как domain.ErrUserRejected и не повторяется.
	SignTransaction(ctx context.Context, tx *solana.Transaction) (*solana.Transaction, error)
}

// Blockhash — опорный blockhash сети и окно его валидности.
type Blockhash struct {
	Hash                 solana.Hash
	LastValidBlockHeight uint64
}

// SignatureStatus — статус подписи при опросе подтверждения.
type SignatureStatus struct {
	// Confirmed — сеть подтвердила транзакцию.
	Confirmed bool
	// Failed — транзакция исполнена с ошибкой (терминально).
	Failed bool
	// FailureDetail — текст сетевой ошибки для лога.
	FailureDetail string
}

// ChainClient — инжектируемое подключение к RPC сети.
type ChainClient interface {
	GetBalance(ctx context.Context, account solana.PublicKey) (uint64, error)
	GetLatestBlockhash(ctx context.Context) (Blockhash, error)
	SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
	GetSignatureStatus(ctx context.Context, sig solana.Signature) (SignatureStatus, error)
	GetBlockHeight(ctx context.Context) (uint64, error)
}
