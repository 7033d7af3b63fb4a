package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dinerolabs/solstore/internal/domain"
	"github.com/dinerolabs/solstore/internal/storage/memory"
)

type stubRates struct {
	mu    sync.Mutex
	rate  decimal.Decimal
	err   error
	calls int
}

func (s *stubRates) Rate(ctx context.Context) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.rate, s.err
}

type stubPayments struct {
	mu        sync.Mutex
	signature string
	err       error
	calls     int
	gotQuote  domain.PaymentQuote
	stages    []domain.Stage
	block     chan struct{} // если не nil, Pay ждёт закрытия канала
}

func (s *stubPayments) Pay(ctx context.Context, quote domain.PaymentQuote, progress func(domain.Stage)) (domain.PaymentResult, error) {
	s.mu.Lock()
	s.calls++
	s.gotQuote = quote
	block := s.block
	s.mu.Unlock()

	if block != nil {
		<-block
	}

	for _, stage := range []domain.Stage{
		domain.StageAwaitingSignature,
		domain.StageSubmittingPayment,
		domain.StageConfirmingPayment,
	} {
		s.mu.Lock()
		s.stages = append(s.stages, stage)
		s.mu.Unlock()
		if progress != nil {
			progress(stage)
		}
	}

	if s.err != nil {
		if errors.Is(s.err, domain.ErrConfirmationTimeout) {
			return domain.PaymentResult{Signature: s.signature}, s.err
		}
		return domain.PaymentResult{}, s.err
	}
	return domain.PaymentResult{Signature: s.signature, Confirmed: true}, nil
}

type stubFulfillment struct {
	mu       sync.Mutex
	order    domain.FulfillmentOrder
	err      error
	calls    int
	gotItems []domain.CartItem
}

func (s *stubFulfillment) CreateOrder(ctx context.Context, items []domain.CartItem, address domain.ShippingAddress) (domain.FulfillmentOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.gotItems = items
	return s.order, s.err
}

type stubNotifier struct {
	mu        sync.Mutex
	err       error
	calls     int
	gotRecord domain.OrderRecord
}

func (s *stubNotifier) SendReceipt(ctx context.Context, record domain.OrderRecord, address domain.ShippingAddress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.gotRecord = record
	return s.err
}

type stubConfirmer struct {
	decision domain.ConfirmDecision
	err      error
}

func (s *stubConfirmer) Confirm(ctx context.Context, address domain.ShippingAddress) (domain.ConfirmDecision, error) {
	return s.decision, s.err
}

func validAddress() *domain.ShippingAddress {
	return &domain.ShippingAddress{
		FirstName: "Jane",
		LastName:  "Doe",
		Address1:  "1 Main St",
		City:      "Austin",
		State:     "Texas",
		Country:   "United States",
		Zip:       "78701",
		Email:     "jane@example.com",
	}
}

func seedCart(t *testing.T, cart *memory.Cart) {
	t.Helper()
	cart.Add(domain.CartItem{
		ID:       "prod-1",
		Name:     "Tee",
		PriceUSD: decimal.RequireFromString("20"),
		Quantity: 2,
	})
	cart.Add(domain.CartItem{
		ID:       "prod-2",
		Name:     "Mug",
		PriceUSD: decimal.RequireFromString("10"),
		Quantity: 1,
	})
}

type fixture struct {
	rates       *stubRates
	payments    *stubPayments
	fulfillment *stubFulfillment
	notifier    *stubNotifier
	cart        *memory.Cart
	orders      domain.OrderRecordStore
	timeline    domain.TimelineRepository
}

func newFixture() *fixture {
	return &fixture{
		rates:       &stubRates{rate: decimal.RequireFromString("100")},
		payments:    &stubPayments{signature: "sig-abcdef1234567890"},
		fulfillment: &stubFulfillment{order: domain.FulfillmentOrder{ExternalOrderID: "po-1"}},
		notifier:    &stubNotifier{},
		cart:        memory.NewCart(),
		orders:      memory.NewOrderStore(),
		timeline:    memory.NewTimeline(),
	}
}

func (f *fixture) orchestrator() *Orchestrator {
	return NewOrchestrator(Deps{
		Rates:       f.rates,
		Payments:    f.payments,
		Fulfillment: f.fulfillment,
		Orders:      f.orders,
		Cart:        f.cart,
		Timeline:    f.timeline,
		Notifier:    f.notifier,
	})
}

func TestRun_SuccessFlow(t *testing.T) {
	f := newFixture()
	seedCart(t, f.cart)
	orc := f.orchestrator()

	result, err := orc.Run(context.Background(), Input{Address: validAddress(), WantReceipt: true})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Stage != domain.StageComplete {
		t.Fatalf("expected Complete, got %s", result.Stage)
	}

	// $50 при курсе $100/SOL: перевод ровно 0.5 SOL.
	if got := f.payments.gotQuote.Lamports; got != 500_000_000 {
		t.Fatalf("expected 500000000 lamports, got %d", got)
	}
	if !f.payments.gotQuote.TotalUSD.Equal(decimal.RequireFromString("50")) {
		t.Fatalf("expected total 50 USD, got %s", f.payments.gotQuote.TotalUSD)
	}

	record, err := f.orders.Get(f.payments.signature)
	if err != nil {
		t.Fatalf("order record not found: %v", err)
	}
	if record.ID != f.payments.signature {
		t.Fatalf("record id should equal signature, got %q", record.ID)
	}
	if !record.SOLAmount.Equal(decimal.RequireFromString("0.5")) {
		t.Fatalf("expected 0.5 SOL recorded, got %s", record.SOLAmount)
	}

	items, _ := f.cart.Items()
	if len(items) != 0 {
		t.Fatalf("cart should be cleared after recording, has %d items", len(items))
	}

	if f.notifier.calls != 1 {
		t.Fatalf("expected one receipt notification, got %d", f.notifier.calls)
	}

	events, _ := f.timeline.List(result.AttemptID)
	if len(events) == 0 {
		t.Fatalf("expected timeline events for attempt %s", result.AttemptID)
	}
	last := events[len(events)-1]
	if last.Stage != domain.StageComplete {
		t.Fatalf("last timeline stage should be Complete, got %s", last.Stage)
	}
}

func TestRun_UserRejectedLeavesNoTraces(t *testing.T) {
	f := newFixture()
	seedCart(t, f.cart)
	f.payments.err = domain.ErrUserRejected
	orc := f.orchestrator()

	_, err := orc.Run(context.Background(), Input{Address: validAddress()})
	if !errors.Is(err, domain.ErrUserRejected) {
		t.Fatalf("expected ErrUserRejected, got %v", err)
	}

	items, _ := f.cart.Items()
	if len(items) != 2 {
		t.Fatalf("cart must stay intact after rejection, has %d items", len(items))
	}
	if records, _ := f.orders.List(0); len(records) != 0 {
		t.Fatalf("no order record expected, got %d", len(records))
	}
	if f.fulfillment.calls != 0 {
		t.Fatalf("fulfillment must not be called after rejection")
	}
}

func TestRun_FulfillmentFailureStillCompletes(t *testing.T) {
	f := newFixture()
	seedCart(t, f.cart)
	f.fulfillment.err = domain.ErrFulfillmentFailed
	orc := f.orchestrator()

	result, err := orc.Run(context.Background(), Input{Address: validAddress()})
	if err != nil {
		t.Fatalf("run should succeed despite fulfillment failure: %v", err)
	}
	if result.Stage != domain.StageComplete {
		t.Fatalf("expected Complete, got %s", result.Stage)
	}
	if !errors.Is(result.FulfillmentErr, domain.ErrFulfillmentFailed) {
		t.Fatalf("expected fulfillment error in result, got %v", result.FulfillmentErr)
	}

	records, _ := f.orders.List(0)
	if len(records) != 1 {
		t.Fatalf("expected exactly one order record, got %d", len(records))
	}
	items, _ := f.cart.Items()
	if len(items) != 0 {
		t.Fatalf("cart should still be cleared, has %d items", len(items))
	}
}

func TestRun_ConfirmationTimeoutKeepsCart(t *testing.T) {
	f := newFixture()
	seedCart(t, f.cart)
	f.payments.err = domain.ErrConfirmationTimeout
	orc := f.orchestrator()

	result, err := orc.Run(context.Background(), Input{Address: validAddress()})
	if !errors.Is(err, domain.ErrConfirmationTimeout) {
		t.Fatalf("expected ErrConfirmationTimeout, got %v", err)
	}
	if result.Signature != f.payments.signature {
		t.Fatalf("signature must be preserved on ambiguous outcome, got %q", result.Signature)
	}

	items, _ := f.cart.Items()
	if len(items) != 2 {
		t.Fatalf("cart must not be cleared on timeout, has %d items", len(items))
	}
	if records, _ := f.orders.List(0); len(records) != 0 {
		t.Fatalf("no record expected on timeout, got %d", len(records))
	}
}

func TestRun_EntryGuards(t *testing.T) {
	t.Run("empty cart", func(t *testing.T) {
		f := newFixture()
		orc := f.orchestrator()

		_, err := orc.Run(context.Background(), Input{Address: validAddress()})
		if !errors.Is(err, domain.ErrCartEmpty) {
			t.Fatalf("expected ErrCartEmpty, got %v", err)
		}
		if f.rates.calls != 0 {
			t.Fatalf("rate must not be fetched for empty cart")
		}
	})

	t.Run("missing address", func(t *testing.T) {
		f := newFixture()
		seedCart(t, f.cart)
		orc := f.orchestrator()

		_, err := orc.Run(context.Background(), Input{})
		if !errors.Is(err, domain.ErrAddressRequired) {
			t.Fatalf("expected ErrAddressRequired, got %v", err)
		}
	})

	t.Run("invalid address", func(t *testing.T) {
		f := newFixture()
		seedCart(t, f.cart)
		orc := f.orchestrator()

		address := validAddress()
		address.Email = "not-an-email"
		_, err := orc.Run(context.Background(), Input{Address: address})
		if !errors.Is(err, domain.ErrAddressInvalid) {
			t.Fatalf("expected ErrAddressInvalid, got %v", err)
		}
		if f.payments.calls != 0 {
			t.Fatalf("payment must not run with invalid address")
		}
	})
}

func TestRun_RateUnavailableBeforeWallet(t *testing.T) {
	f := newFixture()
	seedCart(t, f.cart)
	f.rates.err = domain.ErrRateUnavailable
	orc := f.orchestrator()

	_, err := orc.Run(context.Background(), Input{Address: validAddress()})
	if !errors.Is(err, domain.ErrRateUnavailable) {
		t.Fatalf("expected ErrRateUnavailable, got %v", err)
	}
	if f.payments.calls != 0 {
		t.Fatalf("payment must not start without a rate")
	}
}

func TestRun_AddressEditReturnsToIdle(t *testing.T) {
	f := newFixture()
	seedCart(t, f.cart)

	orc := NewOrchestrator(Deps{
		Rates:       f.rates,
		Payments:    f.payments,
		Fulfillment: f.fulfillment,
		Orders:      f.orders,
		Cart:        f.cart,
		Confirmer:   &stubConfirmer{decision: domain.DecisionEdit},
	})

	result, err := orc.Run(context.Background(), Input{Address: validAddress()})
	if err != nil {
		t.Fatalf("address edit is not a failure: %v", err)
	}
	if result.Stage != domain.StageIdle {
		t.Fatalf("expected return to Idle, got %s", result.Stage)
	}
	if f.payments.calls != 0 {
		t.Fatalf("payment must not run after edit decision")
	}
	items, _ := f.cart.Items()
	if len(items) != 2 {
		t.Fatalf("cart must stay intact after edit, has %d items", len(items))
	}
}

func TestRun_SecondAttemptRejectedWhileInFlight(t *testing.T) {
	f := newFixture()
	seedCart(t, f.cart)
	f.payments.block = make(chan struct{})
	orc := f.orchestrator()

	done := make(chan error, 1)
	go func() {
		_, err := orc.Run(context.Background(), Input{Address: validAddress()})
		done <- err
	}()

	// Дожидаемся, пока первая попытка дойдёт до платёжного шага.
	deadline := time.After(2 * time.Second)
	for {
		f.payments.mu.Lock()
		started := f.payments.calls > 0
		f.payments.mu.Unlock()
		if started {
			break
		}
		select {
		case <-deadline:
			t.Fatal("first attempt did not reach payment step")
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}

	_, err := orc.Run(context.Background(), Input{Address: validAddress()})
	if !errors.Is(err, domain.ErrCheckoutInFlight) {
		t.Fatalf("expected ErrCheckoutInFlight, got %v", err)
	}

	close(f.payments.block)
	if err := <-done; err != nil {
		t.Fatalf("first attempt failed: %v", err)
	}
}

func TestRun_DuplicateSignatureRecordsOnce(t *testing.T) {
	f := newFixture()
	orc := f.orchestrator()

	for i := 0; i < 2; i++ {
		seedCart(t, f.cart)
		if _, err := orc.Run(context.Background(), Input{Address: validAddress()}); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}

	records, _ := f.orders.List(0)
	if len(records) != 1 {
		t.Fatalf("same signature must produce one record, got %d", len(records))
	}
}
