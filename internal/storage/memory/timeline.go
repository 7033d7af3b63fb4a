package memory

import (
	"sort"
	"sync"

	"github.com/dinerolabs/solstore/internal/domain"
)

// timelineInMemory хранит переходы этапов в памяти (для разработки/тестов).
type timelineInMemory struct {
	mu     sync.RWMutex
	events map[string][]domain.TimelineEvent
}

// NewTimeline создаёт in-memory реализацию TimelineRepository.
func NewTimeline() domain.TimelineRepository {
	return &timelineInMemory{events: make(map[string][]domain.TimelineEvent)}
}

// Append добавляет событие попытки чекаута.
func (r *timelineInMemory) Append(event domain.TimelineEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events[event.AttemptID] = append(r.events[event.AttemptID], event)

	sort.SliceStable(r.events[event.AttemptID], func(i, j int) bool {
		return r.events[event.AttemptID][i].Occurred.Before(r.events[event.AttemptID][j].Occurred)
	})

	return nil
}

// List возвращает события попытки в хронологическом порядке.
func (r *timelineInMemory) List(attemptID string) ([]domain.TimelineEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	events := r.events[attemptID]
	result := make([]domain.TimelineEvent, len(events))
	copy(result, events)
	return result, nil
}

var _ domain.TimelineRepository = (*timelineInMemory)(nil)
