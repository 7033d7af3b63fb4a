package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"
)

// Status — состояние компонента витрины.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// ErrDegraded помечает проверку как деградацию, а не отказ: витрина
// продолжает работать, но, например, отдаёт устаревший курс из кэша.
var ErrDegraded = errors.New("component degraded")

// CheckFunc выполняет проверку одного компонента. Ошибка, завёрнутая
// в ErrDegraded, даёт статус degraded, любая другая — unhealthy.
type CheckFunc func(ctx context.Context) error

// checkTimeout ограничивает каждую проверку по отдельности.
const checkTimeout = 2 * time.Second

// Check — результат одной проверки в ответе /healthz.
type Check struct {
	Status     Status `json:"status"`
	Message    string `json:"message,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

// Response — сводка состояния витрины.
type Response struct {
	Status        Status           `json:"status"`
	Timestamp     time.Time        `json:"timestamp"`
	Checks        map[string]Check `json:"checks,omitempty"`
	Version       string           `json:"version,omitempty"`
	UptimeSeconds int64            `json:"uptime_seconds"`
}

// Handler собирает проверки компонентов и отвечает на /healthz и /readyz.
type Handler struct {
	mu      sync.RWMutex
	checks  map[string]CheckFunc
	version string
	started time.Time
}

// NewHandler создаёт handler без проверок.
func NewHandler(version string) *Handler {
	return &Handler{
		checks:  make(map[string]CheckFunc),
		version: version,
		started: time.Now(),
	}
}

// Register добавляет именованную проверку компонента.
func (h *Handler) Register(name string, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = fn
}

func (h *Handler) snapshot() map[string]CheckFunc {
	h.mu.RLock()
	defer h.mu.RUnlock()
	checks := make(map[string]CheckFunc, len(h.checks))
	for name, fn := range h.checks {
		checks[name] = fn
	}
	return checks
}

func runCheck(ctx context.Context, fn CheckFunc) Check {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)

	switch {
	case err == nil:
		return Check{Status: StatusHealthy, DurationMs: elapsed.Milliseconds()}
	case errors.Is(err, ErrDegraded):
		return Check{Status: StatusDegraded, Message: err.Error(), DurationMs: elapsed.Milliseconds()}
	default:
		return Check{Status: StatusUnhealthy, Message: err.Error(), DurationMs: elapsed.Milliseconds()}
	}
}

// ServeHTTP отдаёт полную сводку. 503 только при unhealthy: деградация
// (устаревший курс, открытый breaker) не выводит витрину из ротации.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]Check)
	overall := StatusHealthy

	for name, fn := range h.snapshot() {
		check := runCheck(r.Context(), fn)
		checks[name] = check

		if check.Status == StatusUnhealthy {
			overall = StatusUnhealthy
		} else if check.Status == StatusDegraded && overall == StatusHealthy {
			overall = StatusDegraded
		}
	}

	statusCode := http.StatusOK
	if overall == StatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(Response{
		Status:        overall,
		Timestamp:     time.Now(),
		Checks:        checks,
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
	})
}

// LivenessHandler отвечает 200, пока процесс жив.
func LivenessHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// ReadinessHandler возвращает 503, если хотя бы один компонент unhealthy.
func (h *Handler) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	for _, fn := range h.snapshot() {
		if check := runCheck(r.Context(), fn); check.Status == StatusUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
