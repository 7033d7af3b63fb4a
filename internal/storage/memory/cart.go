package memory

import (
	"sync"

	"github.com/dinerolabs/solstore/internal/domain"
)

// Cart — in-memory корзина с операциями добавления, изменения количества
// и полной очистки.
type Cart struct {
	mu    sync.RWMutex
	items []domain.CartItem
}

// NewCart создаёт пустую корзину.
func NewCart() *Cart {
	return &Cart{}
}

// Add добавляет позицию; для уже существующего товара увеличивает количество.
func (c *Cart) Add(item domain.CartItem) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.items {
		if c.items[i].ID == item.ID {
			c.items[i].Quantity += item.Quantity
			return
		}
	}
	c.items = append(c.items, item)
}

// Remove убирает позицию по идентификатору товара.
func (c *Cart) Remove(productID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	filtered := c.items[:0]
	for _, item := range c.items {
		if item.ID != productID {
			filtered = append(filtered, item)
		}
	}
	c.items = filtered
}

// UpdateQuantity задаёт количество для позиции.
func (c *Cart) UpdateQuantity(productID string, quantity int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.items {
		if c.items[i].ID == productID {
			c.items[i].Quantity = quantity
			return
		}
	}
}

// Items возвращает копию позиций корзины.
func (c *Cart) Items() ([]domain.CartItem, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return domain.SnapshotCart(c.items), nil
}

// Clear очищает корзину целиком.
func (c *Cart) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
	return nil
}

var _ domain.CartRepository = (*Cart)(nil)
