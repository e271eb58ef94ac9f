package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/idgen"
)

// orderStoreInMemory: простая in-memory реализация OrderStore.
type orderStoreInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.Order
	ids   domain.IDGenerator
}

// NewOrderStore возвращает in-memory хранилище заказов.
func NewOrderStore(ids domain.IDGenerator) domain.OrderStore {
	return &orderStoreInMemory{
		items: make(map[string]domain.Order),
		ids:   ids,
	}
}

// Insert назначает ID (если не задан) и сохраняет копию заказа.
func (s *orderStoreInMemory) Insert(_ context.Context, order domain.Order) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if order.ID == "" {
		order.ID = s.ids.NewID()
	}
	if _, exists := s.items[order.ID]; exists {
		return domain.Order{}, domain.ErrOrderExists
	}
	// Сохраняем копию, чтобы снимок позиций не менялся извне.
	s.items[order.ID] = order.Clone()
	return order, nil
}

func (s *orderStoreInMemory) List(_ context.Context) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Order, 0, len(s.items))
	for _, order := range s.items {
		result = append(result, order.Clone())
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})

	return result, nil
}

func (s *orderStoreInMemory) Get(_ context.Context, id string) (domain.Order, error) {
	if _, err := idgen.Parse(id); err != nil {
		return domain.Order{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.items[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return order.Clone(), nil
}

func (s *orderStoreInMemory) UpdateStatus(_ context.Context, id string, status domain.OrderStatus) error {
	if _, err := idgen.Parse(id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.items[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if order.Status == status {
		return domain.ErrOrderStatusUnchanged
	}
	order.Status = status
	s.items[id] = order
	return nil
}

var _ domain.OrderStore = (*orderStoreInMemory)(nil)
