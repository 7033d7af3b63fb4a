package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	log "github.com/sirupsen/logrus"

	"github.com/dinerolabs/solstore/internal/domain"
	"github.com/dinerolabs/solstore/internal/retry"
)

const (
	// lookupAttempts — попытки для запросов баланса, blockhash и отправки.
	lookupAttempts = 3
	// confirmAttempts — попытки опроса подтверждения.
	confirmAttempts = 30
	// stepDelay — пауза между попытками любого шага.
	stepDelay = time.Second
)

// Submitter проводит перевод лампортов на кошелёк магазина:
// blockhash → баланс → сборка → подпись → отправка → подтверждение.
// Каждый сетевой шаг ограничен своей политикой повторов.
type Submitter struct {
	chain       ChainClient
	wallet      Wallet
	storeWallet solana.PublicKey
	lookups     retry.Policy
	confirms    retry.Policy
	logger      *log.Entry
}

// NewSubmitter создаёт платёжный конвейер для одного покупателя.
func NewSubmitter(chain ChainClient, wallet Wallet, storeWallet solana.PublicKey, logger *log.Entry) *Submitter {
	if logger == nil {
		logger = log.New().WithField("component", "payment")
	}

	// Внутри опроса подтверждения терминальны сетевой провал транзакции
	// и истечение окна blockhash; повторяется только «ещё не подтверждено».
	confirms := retry.FixedDelay(confirmAttempts, stepDelay)
	confirms.Retryable = func(err error) bool {
		return !errors.Is(err, domain.ErrSubmissionFailed) &&
			!errors.Is(err, domain.ErrConfirmationTimeout)
	}

	return &Submitter{
		chain:       chain,
		wallet:      wallet,
		storeWallet: storeWallet,
		lookups:     retry.FixedDelay(lookupAttempts, stepDelay),
		confirms:    confirms,
		logger:      logger,
	}
}

// Pay выполняет перевод ровно на quote.Lamports. Запас на комиссию
// участвует только в проверке баланса. Побочных эффектов, кроме самого
// перевода, нет; подтверждённый перевод необратим.
func (s *Submitter) Pay(ctx context.Context, quote domain.PaymentQuote, progress func(domain.Stage)) (domain.PaymentResult, error) {
	notify := func(stage domain.Stage) {
		if progress != nil {
			progress(stage)
		}
	}

	blockhash, err := s.resolveBlockhash(ctx)
	if err != nil {
		return domain.PaymentResult{}, fmt.Errorf("resolve blockhash: %w", err)
	}

	// Баланс проверяется до запроса подписи: нет смысла просить покупателя
	// подписывать заведомо обречённый перевод.
	if err := s.checkBalance(ctx, quote); err != nil {
		return domain.PaymentResult{}, err
	}

	tx, err := s.buildTransfer(quote.Lamports, blockhash.Hash)
	if err != nil {
		return domain.PaymentResult{}, fmt.Errorf("build transfer: %w", err)
	}

	notify(domain.StageAwaitingSignature)
	signed, err := s.wallet.SignTransaction(ctx, tx)
	if err != nil {
		if errors.Is(err, domain.ErrUserRejected) {
			return domain.PaymentResult{}, domain.ErrUserRejected
		}
		return domain.PaymentResult{}, fmt.Errorf("request signature: %w", err)
	}

	notify(domain.StageSubmittingPayment)
	sig, err := s.submit(ctx, signed)
	if err != nil {
		return domain.PaymentResult{}, fmt.Errorf("%w: %v", domain.ErrSubmissionFailed, err)
	}

	notify(domain.StageConfirmingPayment)
	if err := s.awaitConfirmation(ctx, sig, blockhash.LastValidBlockHeight); err != nil {
		return domain.PaymentResult{Signature: sig.String()}, err
	}

	s.logger.WithFields(log.Fields{
		"signature": sig.String(),
		"lamports":  quote.Lamports,
	}).Info("transfer confirmed")

	return domain.PaymentResult{Signature: sig.String(), Confirmed: true}, nil
}

func (s *Submitter) resolveBlockhash(ctx context.Context) (Blockhash, error) {
	var blockhash Blockhash
	err := s.lookups.Do(ctx, "get-blockhash", s.logger, func() error {
		var err error
		blockhash, err = s.chain.GetLatestBlockhash(ctx)
		return err
	})
	return blockhash, err
}

func (s *Submitter) checkBalance(ctx context.Context, quote domain.PaymentQuote) error {
	var balance uint64
	err := s.lookups.Do(ctx, "get-balance", s.logger, func() error {
		var err error
		balance, err = s.chain.GetBalance(ctx, s.wallet.PublicKey())
		return err
	})
	if err != nil {
		return fmt.Errorf("get balance: %w", err)
	}

	if balance < quote.RequiredBalance() {
		s.logger.WithFields(log.Fields{
			"balance":  balance,
			"required": quote.RequiredBalance(),
		}).Warn("insufficient balance for transfer plus fee buffer")
		return domain.ErrInsufficientFunds
	}
	return nil
}

// buildTransfer собирает транзакцию с единственной инструкцией перевода
// ровно на amount лампортов на адрес магазина.
func (s *Submitter) buildTransfer(amount uint64, recent solana.Hash) (*solana.Transaction, error) {
	instr := system.NewTransferInstruction(amount, s.wallet.PublicKey(), s.storeWallet).Build()
	return solana.NewTransaction(
		[]solana.Instruction{instr},
		recent,
		solana.TransactionPayer(s.wallet.PublicKey()),
	)
}

func (s *Submitter) submit(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	var sig solana.Signature
	err := s.lookups.Do(ctx, "send-transaction", s.logger, func() error {
		var err error
		sig, err = s.chain.SendTransaction(ctx, tx)
		return err
	})
	return sig, err
}

// awaitConfirmation опрашивает статус подписи, соблюдая окно валидности
// blockhash. Исчерпание окна или лимита попыток — ErrConfirmationTimeout:
// исход неоднозначен, платёж мог пройти.
func (s *Submitter) awaitConfirmation(ctx context.Context, sig solana.Signature, lastValidHeight uint64) error {
	confirmed := false
	err := s.confirms.Do(ctx, "confirm-transaction", s.logger, func() error {
		status, err := s.chain.GetSignatureStatus(ctx, sig)
		if err != nil {
			return err
		}
		if status.Failed {
			return fmt.Errorf("%w: %s", domain.ErrSubmissionFailed, status.FailureDetail)
		}
		if status.Confirmed {
			confirmed = true
			return nil
		}

		height, heightErr := s.chain.GetBlockHeight(ctx)
		if heightErr == nil && height > lastValidHeight {
			return fmt.Errorf("%w: blockhash expired at height %d", domain.ErrConfirmationTimeout, height)
		}
		return fmt.Errorf("not yet confirmed")
	})

	if confirmed {
		return nil
	}
	if err == nil || (!errors.Is(err, domain.ErrSubmissionFailed) && !errors.Is(err, domain.ErrConfirmationTimeout)) {
		return fmt.Errorf("%w: %v", domain.ErrConfirmationTimeout, err)
	}
	return err
}

var _ domain.PaymentService = (*Submitter)(nil)
