package file

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/dinerolabs/solstore/internal/domain"
)

// StorageKey — фиксированный ключ локального хранилища покупателя.
const StorageKey = "sol-store"

// state — весь локальный стейт одним плоским JSON-документом,
// без версионирования схемы.
type state struct {
	Cart        []domain.CartItem    `json:"cart"`
	UserProfile domain.UserProfile   `json:"userProfile"`
	Orders      []domain.OrderRecord `json:"orders"`
	Wishlist    []string             `json:"wishlist"`
}

// Store — файловая реализация локального хранилища: корзина, профиль,
// записи заказов и вишлист под одним ключом. Каждая мутация сразу
// сбрасывается на диск.
type Store struct {
	path string

	mu    sync.RWMutex
	state state
}

// Open загружает хранилище из каталога dir (файл <ключ>.json);
// отсутствующий файл означает пустой стейт.
func Open(dir string) (*Store, error) {
	s := &Store{path: filepath.Join(dir, StorageKey+".json")}

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("read store file: %w", err)
	}
	if err := json.Unmarshal(raw, &s.state); err != nil {
		return nil, fmt.Errorf("decode store file: %w", err)
	}
	return s, nil
}

// flush сериализует стейт на диск. Вызывается под mu.
func (s *Store) flush() error {
	raw, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(s.path, raw, 0o644)
}

// Put сохраняет запись заказа идемпотентно по подписи: дубликат — no-op.
func (s *Store) Put(record domain.OrderRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.state.Orders {
		if existing.Signature == record.Signature {
			return nil
		}
	}
	// Новые записи идут первыми, как в истории заказов покупателя.
	s.state.Orders = append([]domain.OrderRecord{record}, s.state.Orders...)
	return s.flush()
}

// Get возвращает запись заказа или ErrOrderNotFound.
func (s *Store) Get(signature string) (domain.OrderRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, record := range s.state.Orders {
		if record.Signature == signature {
			return record, nil
		}
	}
	return domain.OrderRecord{}, domain.ErrOrderNotFound
}

// List возвращает записи от новых к старым с опциональным лимитом.
func (s *Store) List(limit int) ([]domain.OrderRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.OrderRecord, len(s.state.Orders))
	copy(result, s.state.Orders)
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// Items возвращает копию позиций корзины.
func (s *Store) Items() ([]domain.CartItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.SnapshotCart(s.state.Cart), nil
}

// AddItem добавляет позицию в корзину; существующий товар наращивает количество.
func (s *Store) AddItem(item domain.CartItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.state.Cart {
		if s.state.Cart[i].ID == item.ID {
			s.state.Cart[i].Quantity += item.Quantity
			return s.flush()
		}
	}
	s.state.Cart = append(s.state.Cart, item)
	return s.flush()
}

// RemoveItem убирает позицию из корзины.
func (s *Store) RemoveItem(productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	filtered := s.state.Cart[:0]
	for _, item := range s.state.Cart {
		if item.ID != productID {
			filtered = append(filtered, item)
		}
	}
	s.state.Cart = filtered
	return s.flush()
}

// Clear очищает корзину целиком.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Cart = nil
	return s.flush()
}

// ShippingAddress возвращает адрес из профиля (nil, если не задан).
func (s *Store) ShippingAddress() *domain.ShippingAddress {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state.UserProfile.ShippingAddress == nil {
		return nil
	}
	address := *s.state.UserProfile.ShippingAddress
	return &address
}

// SetShippingAddress перезаписывает единственный адрес профиля.
func (s *Store) SetShippingAddress(address domain.ShippingAddress) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.UserProfile.ShippingAddress = &address
	return s.flush()
}

var (
	_ domain.OrderRecordStore = (*Store)(nil)
	_ domain.CartRepository   = (*Store)(nil)
)
