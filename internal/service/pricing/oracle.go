package pricing

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/dinerolabs/solstore/internal/domain"
)

// DefaultFreshness — окно актуальности кэшированного курса.
const DefaultFreshness = time.Minute

// Source — восходящий источник курса (долларов за один SOL).
type Source interface {
	Fetch(ctx context.Context) (decimal.Decimal, error)
}

// Oracle кэширует курс SOL/USD на фиксированное окно.
// Обновление атомарно с точки зрения читателей: конкурентный вызов Rate
// видит либо старое значение целиком, либо новое, но не промежуточное.
type Oracle struct {
	source    Source
	freshness time.Duration
	breaker   *Breaker
	now       func() time.Time
	logger    *log.Entry

	mu        sync.RWMutex
	rate      decimal.Decimal
	fetchedAt time.Time
	hasValue  bool
}

// Option настраивает Oracle при создании.
type Option func(*Oracle)

// WithFreshness задаёт окно актуальности кэша.
func WithFreshness(d time.Duration) Option {
	return func(o *Oracle) { o.freshness = d }
}

// WithClock подменяет источник времени (для тестов).
func WithClock(now func() time.Time) Option {
	return func(o *Oracle) { o.now = now }
}

// WithBreaker защищает восходящий источник circuit breaker-ом.
func WithBreaker(b *Breaker) Option {
	return func(o *Oracle) { o.breaker = b }
}

// NewOracle создаёт оракул с окном актуальности в одну минуту.
func NewOracle(source Source, logger *log.Entry, opts ...Option) *Oracle {
	if logger == nil {
		logger = log.New().WithField("component", "pricing")
	}
	o := &Oracle{
		source:    source,
		freshness: DefaultFreshness,
		now:       time.Now,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Rate возвращает курс: свежий кэш как есть, иначе один поход к источнику.
// При неудаче похода возвращается последнее известное значение, если оно
// есть; без него — ErrRateUnavailable.
func (o *Oracle) Rate(ctx context.Context) (decimal.Decimal, error) {
	o.mu.RLock()
	rate, fetchedAt, ok := o.rate, o.fetchedAt, o.hasValue
	o.mu.RUnlock()

	if ok && o.now().Sub(fetchedAt) < o.freshness {
		return rate, nil
	}

	fresh, err := o.fetch(ctx)
	if err != nil {
		if ok {
			o.logger.WithError(err).Warn("rate fetch failed, serving last known value")
			return rate, nil
		}
		o.logger.WithError(err).Warn("rate fetch failed, no cached value")
		return decimal.Zero, domain.ErrRateUnavailable
	}
	return fresh, nil
}

// fetch делает один поход к источнику и атомарно обновляет кэш.
func (o *Oracle) fetch(ctx context.Context) (decimal.Decimal, error) {
	var fresh decimal.Decimal
	call := func() error {
		var err error
		fresh, err = o.source.Fetch(ctx)
		if err != nil {
			return err
		}
		if !fresh.IsPositive() {
			return domain.ErrRateUnavailable
		}
		return nil
	}

	var err error
	if o.breaker != nil {
		err = o.breaker.Execute("rate-fetch", call)
	} else {
		err = call()
	}
	if err != nil {
		return decimal.Zero, err
	}

	o.mu.Lock()
	o.rate = fresh
	o.fetchedAt = o.now()
	o.hasValue = true
	o.mu.Unlock()

	o.logger.WithField("rate", fresh.String()).Debug("rate cache refreshed")
	return fresh, nil
}

// RunRefresher периодически освежает кэш в фоне до отмены контекста.
// Интервал по умолчанию равен окну актуальности. Фоновое обновление
// не влияет на котировки, уже захваченные идущим чекаутом: котировка —
// снимок значения, а не ссылка.
func (o *Oracle) RunRefresher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = o.freshness
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := o.fetch(ctx); err != nil {
				o.logger.WithError(err).Warn("background rate refresh failed")
			}
		}
	}
}

var _ domain.RateProvider = (*Oracle)(nil)
