package pricing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dinerolabs/solstore/internal/domain"
)

type stubSource struct {
	mu    sync.Mutex
	rate  decimal.Decimal
	err   error
	calls int
}

func (s *stubSource) Fetch(ctx context.Context) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.rate, s.err
}

func (s *stubSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestRate_ServesFreshCacheWithoutFetch(t *testing.T) {
	source := &stubSource{rate: decimal.RequireFromString("150")}
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	oracle := NewOracle(source, nil, WithClock(clock.Now))

	if _, err := oracle.Rate(context.Background()); err != nil {
		t.Fatalf("first rate: %v", err)
	}

	// 45 секунд — внутри окна актуальности, второго похода быть не должно.
	clock.Advance(45 * time.Second)
	rate, err := oracle.Rate(context.Background())
	if err != nil {
		t.Fatalf("cached rate: %v", err)
	}
	if !rate.Equal(decimal.RequireFromString("150")) {
		t.Fatalf("expected cached 150, got %s", rate)
	}
	if source.callCount() != 1 {
		t.Fatalf("expected exactly one upstream fetch, got %d", source.callCount())
	}
}

func TestRate_RefetchesAfterFreshnessWindow(t *testing.T) {
	source := &stubSource{rate: decimal.RequireFromString("150")}
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	oracle := NewOracle(source, nil, WithClock(clock.Now))

	if _, err := oracle.Rate(context.Background()); err != nil {
		t.Fatalf("first rate: %v", err)
	}

	source.mu.Lock()
	source.rate = decimal.RequireFromString("160")
	source.mu.Unlock()

	clock.Advance(61 * time.Second)
	rate, err := oracle.Rate(context.Background())
	if err != nil {
		t.Fatalf("refetched rate: %v", err)
	}
	if !rate.Equal(decimal.RequireFromString("160")) {
		t.Fatalf("expected fresh 160, got %s", rate)
	}
	if source.callCount() != 2 {
		t.Fatalf("expected two upstream fetches, got %d", source.callCount())
	}
}

func TestRate_ServesStaleOnUpstreamFailure(t *testing.T) {
	source := &stubSource{rate: decimal.RequireFromString("150")}
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	oracle := NewOracle(source, nil, WithClock(clock.Now))

	if _, err := oracle.Rate(context.Background()); err != nil {
		t.Fatalf("first rate: %v", err)
	}

	source.mu.Lock()
	source.err = errors.New("upstream down")
	source.mu.Unlock()

	clock.Advance(5 * time.Minute)
	rate, err := oracle.Rate(context.Background())
	if err != nil {
		t.Fatalf("stale value should be served, got error: %v", err)
	}
	if !rate.Equal(decimal.RequireFromString("150")) {
		t.Fatalf("expected stale 150, got %s", rate)
	}
}

func TestRate_UnavailableWithoutCache(t *testing.T) {
	source := &stubSource{err: errors.New("upstream down")}
	oracle := NewOracle(source, nil)

	_, err := oracle.Rate(context.Background())
	if !errors.Is(err, domain.ErrRateUnavailable) {
		t.Fatalf("expected ErrRateUnavailable, got %v", err)
	}
}

func TestRate_NonPositiveRateRejected(t *testing.T) {
	source := &stubSource{rate: decimal.Zero}
	oracle := NewOracle(source, nil)

	_, err := oracle.Rate(context.Background())
	if !errors.Is(err, domain.ErrRateUnavailable) {
		t.Fatalf("expected ErrRateUnavailable for zero rate, got %v", err)
	}
}

func TestRate_BreakerOpensAndServesStale(t *testing.T) {
	source := &stubSource{rate: decimal.RequireFromString("150")}
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	breaker := NewBreaker(2, time.Hour, nil)
	oracle := NewOracle(source, nil, WithClock(clock.Now), WithBreaker(breaker))

	if _, err := oracle.Rate(context.Background()); err != nil {
		t.Fatalf("first rate: %v", err)
	}

	source.mu.Lock()
	source.err = errors.New("upstream down")
	source.mu.Unlock()

	// Две неудачи открывают breaker.
	for i := 0; i < 2; i++ {
		clock.Advance(2 * time.Minute)
		if _, err := oracle.Rate(context.Background()); err != nil {
			t.Fatalf("stale value expected during failures: %v", err)
		}
	}
	if breaker.State() != BreakerOpen {
		t.Fatalf("breaker should be open, state %v", breaker.State())
	}

	// Открытый breaker не пускает к источнику, но кэш продолжает отдаваться.
	before := source.callCount()
	clock.Advance(2 * time.Minute)
	rate, err := oracle.Rate(context.Background())
	if err != nil {
		t.Fatalf("stale value expected with open breaker: %v", err)
	}
	if !rate.Equal(decimal.RequireFromString("150")) {
		t.Fatalf("expected stale 150, got %s", rate)
	}
	if source.callCount() != before {
		t.Fatal("open breaker must not reach the upstream source")
	}
}

func TestBreaker_RecoversThroughHalfOpen(t *testing.T) {
	breaker := NewBreaker(1, 10*time.Millisecond, nil)

	failing := errors.New("boom")
	if err := breaker.Execute("op", func() error { return failing }); !errors.Is(err, failing) {
		t.Fatalf("expected operation error, got %v", err)
	}
	if breaker.State() != BreakerOpen {
		t.Fatalf("breaker should open after max failures, state %v", breaker.State())
	}
	if err := breaker.Execute("op", func() error { return nil }); !errors.Is(err, ErrBreakerOpen) {
		t.Fatalf("expected ErrBreakerOpen, got %v", err)
	}

	time.Sleep(15 * time.Millisecond)
	if err := breaker.Execute("op", func() error { return nil }); err != nil {
		t.Fatalf("half-open probe should pass: %v", err)
	}
	if breaker.State() != BreakerClosed {
		t.Fatalf("breaker should close after successful probe, state %v", breaker.State())
	}
}
