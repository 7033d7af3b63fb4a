package chain

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/dinerolabs/solstore/internal/service/payment"
)

// LocalWallet — кошелёк с локальным приватным ключом для headless-режима.
// Подпись выполняется сразу, без участия покупателя.
type LocalWallet struct {
	key solana.PrivateKey
}

// NewLocalWallet создаёт кошелёк из приватного ключа в base58.
func NewLocalWallet(base58Key string) (*LocalWallet, error) {
	key, err := solana.PrivateKeyFromBase58(base58Key)
	if err != nil {
		return nil, fmt.Errorf("parse wallet private key: %w", err)
	}
	return &LocalWallet{key: key}, nil
}

// PublicKey возвращает адрес плательщика.
func (w *LocalWallet) PublicKey() solana.PublicKey {
	return w.key.PublicKey()
}

// SignTransaction подписывает транзакцию локальным ключом.
func (w *LocalWallet) SignTransaction(_ context.Context, tx *solana.Transaction) (*solana.Transaction, error) {
	_, err := tx.Sign(func(pk solana.PublicKey) *solana.PrivateKey {
		if pk.Equals(w.key.PublicKey()) {
			return &w.key
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}
	return tx, nil
}

var _ payment.Wallet = (*LocalWallet)(nil)
