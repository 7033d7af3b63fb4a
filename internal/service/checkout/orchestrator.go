package checkout

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/dinerolabs/solstore/internal/domain"
	"github.com/dinerolabs/solstore/internal/metrics"
)

// Input — параметры одной попытки чекаута.
type Input struct {
	// Address — адрес доставки из профиля; nil, если адрес не задан.
	Address *domain.ShippingAddress
	// WantReceipt — покупатель попросил чек на почту.
	WantReceipt bool
}

// Result — итог попытки чекаута.
type Result struct {
	// AttemptID — идентификатор попытки (ключ timeline).
	AttemptID string
	// Stage — терминальный этап: Complete, Failed или Idle (выход на правку адреса).
	Stage domain.Stage
	// Signature — подпись платёжной транзакции, если она была отправлена.
	Signature string
	// Record — записанный заказ (только при Complete).
	Record *domain.OrderRecord
	// Fulfillment — заказ у провайдера печати, если он создан.
	Fulfillment *domain.FulfillmentOrder
	// FulfillmentErr — провал провайдера после подтверждённого платежа (восстановимо).
	FulfillmentErr error
	// NotifyErr — провал отправки чека (только информация).
	NotifyErr error
}

// Orchestrator — конечный автомат чекаута:
// Idle → QuotingPrice → ConfirmingAddress → AwaitingSignature →
// SubmittingPayment → ConfirmingPayment → CreatingFulfillment →
// RecordingOrder → NotifyingReceipt → Complete.
// До записи заказа любой отказ терминален и не оставляет следов;
// начиная с RecordingOrder поток назад не откатывается.
type Orchestrator struct {
	rates       domain.RateProvider
	payments    domain.PaymentService
	fulfillment domain.FulfillmentService
	orders      domain.OrderRecordStore
	cart        domain.CartRepository
	timeline    domain.TimelineRepository
	notifier    domain.ReceiptNotifier
	confirmer   domain.AddressConfirmer
	metrics     *metrics.CheckoutMetrics
	logger      *log.Entry
	now         func() time.Time

	// inFlight запрещает параллельный чекаут той же корзины.
	inFlight atomic.Bool
}

// Deps — зависимости оркестратора. Notifier, Confirmer, Timeline и Metrics
// опциональны.
type Deps struct {
	Rates       domain.RateProvider
	Payments    domain.PaymentService
	Fulfillment domain.FulfillmentService
	Orders      domain.OrderRecordStore
	Cart        domain.CartRepository
	Timeline    domain.TimelineRepository
	Notifier    domain.ReceiptNotifier
	Confirmer   domain.AddressConfirmer
	Metrics     *metrics.CheckoutMetrics
	Logger      *log.Entry
	Clock       func() time.Time
}

// NewOrchestrator создаёт рабочий экземпляр оркестратора.
func NewOrchestrator(deps Deps) *Orchestrator {
	logger := deps.Logger
	if logger == nil {
		logger = log.New().WithField("component", "checkout")
	}
	now := deps.Clock
	if now == nil {
		now = time.Now
	}
	return &Orchestrator{
		rates:       deps.Rates,
		payments:    deps.Payments,
		fulfillment: deps.Fulfillment,
		orders:      deps.Orders,
		cart:        deps.Cart,
		timeline:    deps.Timeline,
		notifier:    deps.Notifier,
		confirmer:   deps.Confirmer,
		metrics:     deps.Metrics,
		logger:      logger,
		now:         now,
	}
}

// Run выполняет одну попытку чекаута от входного контроля до терминального
// состояния. Повторный вызов, пока попытка идёт, детерминированно
// отклоняется с ErrCheckoutInFlight.
func (o *Orchestrator) Run(ctx context.Context, in Input) (Result, error) {
	if !o.inFlight.CompareAndSwap(false, true) {
		return Result{Stage: domain.StageIdle}, domain.ErrCheckoutInFlight
	}
	defer o.inFlight.Store(false)

	start := o.now()
	if o.metrics != nil {
		o.metrics.RecordCheckoutStarted()
	}
	defer func() {
		if o.metrics != nil {
			o.metrics.RecordCheckoutFinished()
			o.metrics.RecordCheckoutDuration(o.now().Sub(start))
		}
	}()

	attempt := &attemptState{
		id:      uuid.NewString(),
		stage:   domain.StageIdle,
		stageAt: start,
	}
	logger := o.logger.WithField("attempt_id", attempt.id)

	items, err := o.guardEntry(in)
	if err != nil {
		return o.fail(attempt, logger, err)
	}
	totalUSD := domain.CartTotal(items)

	// Этап котировки: отказ курса прерывает чекаут до любого обращения
	// к кошельку.
	o.transition(attempt, logger, domain.StageQuotingPrice, "")
	rate, err := o.rates.Rate(ctx)
	if err != nil {
		return o.fail(attempt, logger, err)
	}
	quote, err := domain.NewPaymentQuote(totalUSD, rate, o.now())
	if err != nil {
		return o.fail(attempt, logger, err)
	}

	// Интерактивное подтверждение адреса перед подписью. Уход на правку
	// адреса — не ошибка: автомат возвращается в Idle без следов.
	if o.confirmer != nil {
		o.transition(attempt, logger, domain.StageConfirmingAddress, "")
		decision, err := o.confirmer.Confirm(ctx, *in.Address)
		if err != nil {
			return o.fail(attempt, logger, err)
		}
		if decision == domain.DecisionEdit {
			o.transition(attempt, logger, domain.StageIdle, "address edit requested")
			return Result{AttemptID: attempt.id, Stage: domain.StageIdle}, nil
		}
	}

	payResult, err := o.payments.Pay(ctx, quote, func(stage domain.Stage) {
		o.transition(attempt, logger, stage, "")
	})
	if err != nil {
		res, ferr := o.fail(attempt, logger, err)
		res.Signature = payResult.Signature
		return res, ferr
	}

	logger = logger.WithField("signature", payResult.Signature)

	// Платёж подтверждён: дальше поток не откатывается. Провал провайдера
	// печати логируется и не мешает записи заказа.
	o.transition(attempt, logger, domain.StageCreatingFulfillment, "")
	var fulfillmentOrder *domain.FulfillmentOrder
	var fulfillmentErr error
	created, err := o.fulfillment.CreateOrder(ctx, items, *in.Address)
	if err != nil {
		fulfillmentErr = err
		logger.WithError(err).Warn("fulfillment order creation failed, recording order anyway")
		if o.metrics != nil {
			o.metrics.RecordFulfillmentFailure()
		}
	} else {
		fulfillmentOrder = &created
	}

	// Запись заказа и очистка корзины: ровно один раз, только здесь.
	o.transition(attempt, logger, domain.StageRecordingOrder, "")
	record := domain.OrderRecord{
		ID:        payResult.Signature,
		Items:     items,
		TotalUSD:  totalUSD,
		SOLAmount: quote.TotalSOL(),
		Signature: payResult.Signature,
		CreatedAt: o.now(),
	}
	if err := o.orders.Put(record); err != nil {
		// Локальное хранилище не должно отказывать; платёж уже необратим,
		// поэтому фиксируем и продолжаем.
		logger.WithError(err).Error("failed to persist order record")
	}
	if err := o.cart.Clear(); err != nil {
		logger.WithError(err).Error("failed to clear cart")
	}

	var notifyErr error
	if in.WantReceipt && o.notifier != nil {
		o.transition(attempt, logger, domain.StageNotifyingReceipt, "")
		if err := o.notifier.SendReceipt(ctx, record, *in.Address); err != nil {
			notifyErr = err
			logger.WithError(err).Warn("receipt notification failed")
			if o.metrics != nil {
				o.metrics.RecordNotificationFailure()
			}
		}
	}

	o.transition(attempt, logger, domain.StageComplete, "")
	if o.metrics != nil {
		o.metrics.RecordCheckoutCompleted()
	}
	logger.WithFields(log.Fields{
		"total_usd": totalUSD.String(),
		"lamports":  quote.Lamports,
	}).Info("checkout completed")

	return Result{
		AttemptID:      attempt.id,
		Stage:          domain.StageComplete,
		Signature:      payResult.Signature,
		Record:         &record,
		Fulfillment:    fulfillmentOrder,
		FulfillmentErr: fulfillmentErr,
		NotifyErr:      notifyErr,
	}, nil
}

// guardEntry — входной контроль: непустая корзина, структурно валидный
// адрес, положительная сумма.
func (o *Orchestrator) guardEntry(in Input) ([]domain.CartItem, error) {
	items, err := o.cart.Items()
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, domain.ErrCartEmpty
	}
	for _, item := range items {
		if errs := item.ValidateInvariants(); len(errs) > 0 {
			return nil, errs[0]
		}
	}
	if in.Address == nil {
		return nil, domain.ErrAddressRequired
	}
	if err := in.Address.Validate(); err != nil {
		return nil, domain.ErrAddressInvalid
	}
	if !domain.CartTotal(items).IsPositive() {
		return nil, domain.ErrAmountNegative
	}
	return domain.SnapshotCart(items), nil
}

type attemptState struct {
	id      string
	stage   domain.Stage
	stageAt time.Time
}

// transition переводит автомат на следующий этап и пишет событие в timeline.
func (o *Orchestrator) transition(attempt *attemptState, logger *log.Entry, next domain.Stage, reason string) {
	if o.metrics != nil && attempt.stage != domain.StageIdle {
		o.metrics.RecordStageDuration(string(attempt.stage), o.now().Sub(attempt.stageAt))
	}
	attempt.stage = next
	attempt.stageAt = o.now()

	logger.WithField("stage", next).Debug("checkout stage")

	if o.timeline != nil {
		event := domain.TimelineEvent{
			AttemptID: attempt.id,
			Stage:     next,
			Reason:    reason,
			Occurred:  attempt.stageAt,
		}
		if err := o.timeline.Append(event); err != nil {
			logger.WithError(err).Warn("append timeline event failed")
		}
	}
}

// fail завершает попытку терминальным Failed. Сырая ошибка уходит в лог,
// покупателю показывается сообщение по таксономии. Неоднозначный
// ConfirmationTimeout логируется отдельно: повтор может привести
// ко второму переводу.
func (o *Orchestrator) fail(attempt *attemptState, logger *log.Entry, cause error) (Result, error) {
	o.transition(attempt, logger, domain.StageFailed, cause.Error())

	entry := logger.WithError(cause).WithField("user_message", domain.UserMessage(cause))
	if domain.IsAmbiguousOutcome(cause) {
		entry.Warn("checkout ended with ambiguous payment outcome")
	} else {
		entry.Warn("checkout failed")
	}

	if o.metrics != nil {
		o.metrics.RecordCheckoutFailed(failureReason(cause))
	}
	return Result{AttemptID: attempt.id, Stage: domain.StageFailed}, cause
}

// failureReason — короткая метка причины для метрик.
func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrRateUnavailable):
		return "rate_unavailable"
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, domain.ErrUserRejected):
		return "user_rejected"
	case errors.Is(err, domain.ErrSubmissionFailed):
		return "submission_failed"
	case errors.Is(err, domain.ErrConfirmationTimeout):
		return "confirmation_timeout"
	case errors.Is(err, domain.ErrCartEmpty),
		errors.Is(err, domain.ErrAddressRequired),
		errors.Is(err, domain.ErrAddressInvalid),
		errors.Is(err, domain.ErrAmountNegative):
		return "entry_guard"
	default:
		return "other"
	}
}
