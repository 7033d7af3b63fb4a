package chain

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/dinerolabs/solstore/internal/service/payment"
)

// DefaultRPCURL — RPC-узел по умолчанию.
const DefaultRPCURL = "https://api.devnet.solana.com"

// Client — адаптер RPC-подключения к сети под порт payment.ChainClient.
// Все запросы идут с commitment confirmed: этого уровня достаточно
// для финальности перевода в нашей модели.
type Client struct {
	rpc *rpc.Client
}

// NewClient создаёт подключение к RPC-узлу.
func NewClient(rpcURL string) *Client {
	if rpcURL == "" {
		rpcURL = DefaultRPCURL
	}
	return &Client{rpc: rpc.New(rpcURL)}
}

// GetBalance возвращает баланс аккаунта в лампортах.
func (c *Client) GetBalance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	out, err := c.rpc.GetBalance(ctx, account, rpc.CommitmentConfirmed)
	if err != nil {
		return 0, err
	}
	return out.Value, nil
}

// GetLatestBlockhash возвращает опорный blockhash и окно его валидности.
func (c *Client) GetLatestBlockhash(ctx context.Context) (payment.Blockhash, error) {
	out, err := c.rpc.GetLatestBlockhash(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		return payment.Blockhash{}, err
	}
	return payment.Blockhash{
		Hash:                 out.Value.Blockhash,
		LastValidBlockHeight: out.Value.LastValidBlockHeight,
	}, nil
}

// SendTransaction отправляет подписанную транзакцию в сеть.
func (c *Client) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	return c.rpc.SendTransaction(ctx, tx)
}

// GetSignatureStatus возвращает статус подписи для опроса подтверждения.
func (c *Client) GetSignatureStatus(ctx context.Context, sig solana.Signature) (payment.SignatureStatus, error) {
	out, err := c.rpc.GetSignatureStatuses(ctx, false, sig)
	if err != nil {
		return payment.SignatureStatus{}, err
	}
	if len(out.Value) == 0 || out.Value[0] == nil {
		return payment.SignatureStatus{}, nil
	}

	status := out.Value[0]
	if status.Err != nil {
		return payment.SignatureStatus{
			Failed:        true,
			FailureDetail: fmt.Sprintf("%v", status.Err),
		}, nil
	}

	confirmed := status.ConfirmationStatus == rpc.ConfirmationStatusConfirmed ||
		status.ConfirmationStatus == rpc.ConfirmationStatusFinalized
	return payment.SignatureStatus{Confirmed: confirmed}, nil
}

// GetBlockHeight возвращает текущую высоту блока.
func (c *Client) GetBlockHeight(ctx context.Context) (uint64, error) {
	return c.rpc.GetBlockHeight(ctx, rpc.CommitmentConfirmed)
}

// TransactionExists проверяет, что транзакция с данной подписью есть в сети.
// Используется почтовым мостом перед отправкой письма.
func (c *Client) TransactionExists(ctx context.Context, signature string) (bool, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return false, fmt.Errorf("invalid transaction signature: %w", err)
	}
	out, err := c.rpc.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
		Commitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return false, err
	}
	return out != nil, nil
}

var _ payment.ChainClient = (*Client)(nil)
