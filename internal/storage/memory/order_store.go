package memory

import (
	"sync"

	"github.com/dinerolabs/solstore/internal/domain"
)

// orderStoreInMemory — простая in-memory реализация OrderRecordStore.
type orderStoreInMemory struct {
	mu      sync.RWMutex
	items   map[string]domain.OrderRecord
	ordered []string // подписи от новых к старым
}

// NewOrderStore возвращает in-memory хранилище заказов для разработки и тестов.
func NewOrderStore() domain.OrderRecordStore {
	return &orderStoreInMemory{
		items: make(map[string]domain.OrderRecord),
	}
}

// Put сохраняет запись идемпотентно: повторный вызов с той же подписью —
// no-op, существующая запись не перезаписывается.
func (s *orderStoreInMemory) Put(record domain.OrderRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[record.Signature]; exists {
		return nil
	}
	// Сохраняем копию позиций, чтобы избежать мутаций извне.
	record.Items = domain.SnapshotCart(record.Items)
	s.items[record.Signature] = record
	s.ordered = append([]string{record.Signature}, s.ordered...)
	return nil
}

// Get возвращает запись или ErrOrderNotFound, если её нет.
func (s *orderStoreInMemory) Get(signature string) (domain.OrderRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.items[signature]
	if !ok {
		return domain.OrderRecord{}, domain.ErrOrderNotFound
	}
	return record, nil
}

// List возвращает записи от новых к старым, ограничивая выборку limit (если >0).
func (s *orderStoreInMemory) List(limit int) ([]domain.OrderRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.OrderRecord, 0, len(s.ordered))
	for _, sig := range s.ordered {
		result = append(result, s.items[sig])
	}
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

var _ domain.OrderRecordStore = (*orderStoreInMemory)(nil)
