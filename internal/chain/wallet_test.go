package chain

import (
	"context"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
)

func TestLocalWallet_SignsOwnTransfer(t *testing.T) {
	generated := solana.NewWallet()

	wallet, err := NewLocalWallet(generated.PrivateKey.String())
	if err != nil {
		t.Fatalf("new wallet: %v", err)
	}
	if !wallet.PublicKey().Equals(generated.PublicKey()) {
		t.Fatal("public key must match the source keypair")
	}

	recipient := solana.NewWallet().PublicKey()
	tx, err := solana.NewTransaction(
		[]solana.Instruction{
			system.NewTransferInstruction(1_000, wallet.PublicKey(), recipient).Build(),
		},
		solana.Hash{},
		solana.TransactionPayer(wallet.PublicKey()),
	)
	if err != nil {
		t.Fatalf("build transaction: %v", err)
	}

	signed, err := wallet.SignTransaction(context.Background(), tx)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if len(signed.Signatures) != 1 {
		t.Fatalf("expected one signature, got %d", len(signed.Signatures))
	}
	if err := signed.VerifySignatures(); err != nil {
		t.Fatalf("signature does not verify: %v", err)
	}
}

func TestNewLocalWallet_RejectsGarbage(t *testing.T) {
	if _, err := NewLocalWallet("not-base58-!!!"); err == nil {
		t.Fatal("invalid key must be rejected")
	}
}
