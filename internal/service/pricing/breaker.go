package pricing

import (
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// ErrBreakerOpen возвращается, пока breaker не пропускает вызовы.
var ErrBreakerOpen = errors.New("circuit breaker is open")

// BreakerState — состояние circuit breaker.
type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

// Breaker — простой circuit breaker для восходящего источника курса:
// после серии неудач перестаёт ходить к источнику до истечения resetTimeout,
// оракул в это время отдаёт последнее известное значение.
type Breaker struct {
	maxFailures  int
	resetTimeout time.Duration

	mu          sync.Mutex
	failures    int
	lastFailure time.Time
	state       BreakerState
	logger      *log.Entry
}

// NewBreaker создаёт circuit breaker.
func NewBreaker(maxFailures int, resetTimeout time.Duration, logger *log.Entry) *Breaker {
	if logger == nil {
		logger = log.New().WithField("component", "breaker")
	}
	return &Breaker{
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
		state:        BreakerClosed,
		logger:       logger,
	}
}

// Execute выполняет операцию через breaker.
func (b *Breaker) Execute(operation string, fn func() error) error {
	b.mu.Lock()
	if b.state == BreakerOpen {
		if time.Since(b.lastFailure) > b.resetTimeout {
			b.state = BreakerHalfOpen
			b.logger.WithField("operation", operation).Info("circuit breaker half-open")
		} else {
			b.mu.Unlock()
			return ErrBreakerOpen
		}
	}
	b.mu.Unlock()

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil {
		b.failures++
		b.lastFailure = time.Now()
		if b.state == BreakerHalfOpen || b.failures >= b.maxFailures {
			b.state = BreakerOpen
			b.logger.WithFields(log.Fields{
				"operation": operation,
				"failures":  b.failures,
			}).Warn("circuit breaker opened")
		}
		return err
	}

	if b.state == BreakerHalfOpen {
		b.state = BreakerClosed
		b.logger.WithField("operation", operation).Info("circuit breaker closed")
	}
	b.failures = 0
	return nil
}

// State возвращает текущее состояние breaker.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
