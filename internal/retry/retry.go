package retry

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// Policy — единая конфигурация повторов для сетевых шагов чекаута:
// запрос баланса, blockhash, отправка транзакции, опрос подтверждения.
type Policy struct {
	// MaxAttempts — предел попыток, включая первую.
	MaxAttempts int
	// Delay — пауза между попытками.
	Delay time.Duration
	// BackoffFactor — множитель паузы после каждой неудачи (1.0 = без роста).
	BackoffFactor float64
	// MaxDelay — верхняя граница паузы при backoff > 1.
	MaxDelay time.Duration
	// Retryable решает, имеет ли смысл повторять после данной ошибки.
	// nil означает «повторять всё».
	Retryable func(error) bool
}

// FixedDelay возвращает политику с фиксированной паузой без backoff.
func FixedDelay(maxAttempts int, delay time.Duration) Policy {
	return Policy{
		MaxAttempts:   maxAttempts,
		Delay:         delay,
		BackoffFactor: 1.0,
	}
}

// Do выполняет fn с повторами по политике. Возвращает nil после первого
// успеха либо последнюю ошибку. Контекст проверяется перед каждой паузой.
func (p Policy) Do(ctx context.Context, operation string, logger *log.Entry, fn func() error) error {
	if logger == nil {
		logger = log.New().WithField("component", "retry")
	}

	var lastErr error
	delay := p.Delay

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			if attempt > 1 {
				logger.WithFields(log.Fields{
					"operation": operation,
					"attempt":   attempt,
				}).Info("operation succeeded after retry")
			}
			return nil
		}

		lastErr = err

		if p.Retryable != nil && !p.Retryable(err) {
			logger.WithError(err).WithField("operation", operation).
				Warn("operation failed with non-retryable error")
			return err
		}

		if attempt == p.MaxAttempts {
			break
		}

		logger.WithError(err).WithFields(log.Fields{
			"operation": operation,
			"attempt":   attempt,
			"delay":     delay,
		}).Warn("operation failed, retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		if p.BackoffFactor > 1 {
			delay = time.Duration(float64(delay) * p.BackoffFactor)
			if p.MaxDelay > 0 && delay > p.MaxDelay {
				delay = p.MaxDelay
			}
		}
	}

	logger.WithError(lastErr).WithFields(log.Fields{
		"operation":    operation,
		"max_attempts": p.MaxAttempts,
	}).Error("operation failed after all retry attempts")
	return lastErr
}
