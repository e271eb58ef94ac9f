package memory

import (
	"context"
	"sync"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/idgen"
)

// productStoreInMemory хранит каталог в срезе в порядке добавления: поиск по slug берёт первое совпадение.
type productStoreInMemory struct {
	mu    sync.RWMutex
	items []domain.Product
	ids   domain.IDGenerator
}

// NewProductStore возвращает in-memory хранилище товаров для режима без БД и тестов.
func NewProductStore(ids domain.IDGenerator) domain.ProductStore {
	return &productStoreInMemory{ids: ids}
}

func (s *productStoreInMemory) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items), nil
}

// InsertMany добавляет товары в конец каталога, сохраняя уже заданные ID.
func (s *productStoreInMemory) InsertMany(_ context.Context, products []domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range products {
		if p.ID == "" {
			p.ID = s.ids.NewID()
		}
		s.items = append(s.items, p)
	}
	return nil
}

func (s *productStoreInMemory) List(_ context.Context, includeHidden bool) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Product, 0, len(s.items))
	for _, p := range s.items {
		if !includeHidden && !p.IsVisible {
			continue
		}
		result = append(result, p)
	}
	return result, nil
}

func (s *productStoreInMemory) Get(_ context.Context, id string) (domain.Product, error) {
	if _, err := idgen.Parse(id); err != nil {
		return domain.Product{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if idx := s.indexOf(id); idx >= 0 {
		return s.items[idx], nil
	}
	return domain.Product{}, domain.ErrProductNotFound
}

func (s *productStoreInMemory) FindBySlug(_ context.Context, slug string) (domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.items {
		if p.Slug == slug {
			return p, nil
		}
	}
	return domain.Product{}, domain.ErrProductNotFound
}

// Insert добавляет товар в конец каталога.
func (s *productStoreInMemory) Insert(_ context.Context, product domain.Product) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	product.ID = s.ids.NewID()
	s.items = append(s.items, product)
	return product, nil
}

// ApplyPatch читает и пишет запись под одной блокировкой, списания не теряются.
func (s *productStoreInMemory) ApplyPatch(_ context.Context, id string, patch domain.ProductPatch) (domain.Product, domain.Product, error) {
	if _, err := idgen.Parse(id); err != nil {
		return domain.Product{}, domain.Product{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return domain.Product{}, domain.Product{}, domain.ErrProductNotFound
	}
	before := s.items[idx]
	after := patch.Apply(before)
	s.items[idx] = after
	return before, after, nil
}

func (s *productStoreInMemory) Delete(_ context.Context, id string) (domain.Product, error) {
	if _, err := idgen.Parse(id); err != nil {
		return domain.Product{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return domain.Product{}, domain.ErrProductNotFound
	}
	removed := s.items[idx]
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	return removed, nil
}

// DecreaseStock применяет списания последовательно под одной блокировкой.
func (s *productStoreInMemory) DecreaseStock(_ context.Context, items []domain.StockDecrement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range items {
		if item.Quantity <= 0 {
			continue
		}
		if _, err := idgen.Parse(item.ProductID); err != nil {
			continue
		}
		idx := s.indexOf(item.ProductID)
		if idx < 0 {
			continue
		}
		s.items[idx].AvailableQuantity = domain.RemainingStock(s.items[idx].AvailableQuantity, item.Quantity)
	}
	return nil
}

// indexOf ищет позицию товара; вызывать под блокировкой.
func (s *productStoreInMemory) indexOf(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

var _ domain.ProductStore = (*productStoreInMemory)(nil)
