// Package catalog реализует репозиторий товаров витрины поверх выбранного ProductStore:
// начальное заполнение, видимость, slug и сигналы сброса представлений.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/invalidation"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
)

// Service: репозиторий товаров.
type Service struct {
	store       domain.ProductStore
	invalidator domain.Invalidator
	metrics     *metrics.StorefrontMetrics
	logger      *log.Entry

	seedMu sync.Mutex
	seeded atomic.Bool
}

// Option настраивает Service.
type Option func(*Service)

// WithMetrics подключает метрики.
func WithMetrics(m *metrics.StorefrontMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger задаёт logger.
func WithLogger(logger *log.Entry) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService создаёт репозиторий товаров. nil invalidator заменяется на no-op.
func NewService(store domain.ProductStore, invalidator domain.Invalidator, opts ...Option) *Service {
	if invalidator == nil {
		invalidator = invalidation.Nop{}
	}
	s := &Service{
		store:       store,
		invalidator: invalidator,
		logger:      log.WithField("component", "catalog"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List возвращает все товары или только видимые. Пустое хранилище заполняется стартовым каталогом.
func (s *Service) List(ctx context.Context, includeHidden bool) ([]domain.Product, error) {
	defer s.observe("catalog.list", time.Now())

	if err := s.ensureSeeded(ctx); err != nil {
		return nil, err
	}
	products, err := s.store.List(ctx, includeHidden)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// GetByID возвращает товар независимо от видимости.
func (s *Service) GetByID(ctx context.Context, id string) (domain.Product, error) {
	defer s.observe("catalog.get", time.Now())
	return s.store.Get(ctx, id)
}

// GetBySlug возвращает первый товар с таким slug; скрытый товар считается отсутствующим.
func (s *Service) GetBySlug(ctx context.Context, slug string) (domain.Product, error) {
	defer s.observe("catalog.get_by_slug", time.Now())

	product, err := s.store.FindBySlug(ctx, slug)
	if err != nil {
		return domain.Product{}, err
	}
	if !product.IsVisible {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return product, nil
}

// Add создаёт товар из данных админки.
func (s *Service) Add(ctx context.Context, input domain.ProductInput) (domain.Product, error) {
	defer s.observe("catalog.add", time.Now())

	created, err := s.store.Insert(ctx, domain.NewProduct(input))
	if err != nil {
		s.metrics.RecordProductMutation("add", metrics.OutcomeFailed)
		return domain.Product{}, fmt.Errorf("insert product: %w", err)
	}
	s.metrics.RecordProductMutation("add", metrics.OutcomeOK)

	s.logger.WithFields(log.Fields{"product_id": created.ID, "slug": created.Slug}).Info("product added")
	s.invalidator.Invalidate(ctx, domain.ViewInventory, domain.ViewHomepage, domain.ProductView(created.Slug))
	return created, nil
}

// Update применяет патч в хранилище атомарно, остаток от параллельных заказов сохраняется.
// Неизвестный или некорректный ID: тихий no-op.
// При смене названия сбрасываются карточки и по старому, и по новому slug.
func (s *Service) Update(ctx context.Context, id string, patch domain.ProductPatch) error {
	defer s.observe("catalog.update", time.Now())

	if patch.IsEmpty() {
		return nil
	}

	before, after, err := s.store.ApplyPatch(ctx, id, patch)
	if err != nil {
		return s.silenceMissing("update", id, err)
	}
	s.metrics.RecordProductMutation("update", metrics.OutcomeOK)

	s.logger.WithFields(log.Fields{"product_id": id, "slug": after.Slug}).Info("product updated")
	s.invalidator.Invalidate(ctx, invalidation.Dedupe([]domain.ViewKey{
		domain.ViewInventory,
		domain.ViewHomepage,
		domain.ProductView(before.Slug),
		domain.ProductView(after.Slug),
	})...)
	return nil
}

// Delete удаляет товар. Отсутствующий или некорректный ID: тихий no-op.
func (s *Service) Delete(ctx context.Context, id string) error {
	defer s.observe("catalog.delete", time.Now())

	removed, err := s.store.Delete(ctx, id)
	if err != nil {
		return s.silenceMissing("delete", id, err)
	}
	s.metrics.RecordProductMutation("delete", metrics.OutcomeOK)

	s.logger.WithField("product_id", id).Info("product deleted")
	s.invalidator.Invalidate(ctx, domain.ViewInventory, domain.ViewHomepage, domain.ProductView(removed.Slug))
	return nil
}

// DecreaseQuantity списывает остатки по позициям заказа, не опуская их ниже нуля.
// Некорректные и неизвестные ID, а также непозитивные количества пропускаются.
func (s *Service) DecreaseQuantity(ctx context.Context, items []domain.StockDecrement) error {
	defer s.observe("catalog.decrease_quantity", time.Now())

	if len(items) == 0 {
		return nil
	}

	err := s.store.DecreaseStock(ctx, items)
	if err != nil {
		s.metrics.RecordStockDecrement(metrics.OutcomeFailed)
		s.logger.WithError(err).WithField("items", len(items)).Error("failed to decrease stock")
	} else {
		s.metrics.RecordStockDecrement(metrics.OutcomeOK)
	}

	// Частичная запись возможна и при ошибке, поэтому представления сбрасываются в любом случае.
	s.invalidator.Invalidate(ctx, s.stockViews(ctx, items)...)

	if err != nil {
		return fmt.Errorf("decrease stock: %w", err)
	}
	return nil
}

func (s *Service) stockViews(ctx context.Context, items []domain.StockDecrement) []domain.ViewKey {
	keys := []domain.ViewKey{domain.ViewInventory, domain.ViewHomepage}
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}

		product, err := s.store.Get(ctx, item.ProductID)
		if err != nil {
			continue
		}
		keys = append(keys, domain.ProductView(product.Slug))
	}
	return invalidation.Dedupe(keys)
}

// ensureSeeded заполняет пустое хранилище один раз за процесс.
func (s *Service) ensureSeeded(ctx context.Context) error {
	if s.seeded.Load() {
		return nil
	}

	s.seedMu.Lock()
	defer s.seedMu.Unlock()
	if s.seeded.Load() {
		return nil
	}

	count, err := s.store.Count(ctx)
	if err != nil {
		return fmt.Errorf("count products: %w", err)
	}
	if count == 0 {
		seed := SeedProducts()
		if err := s.store.InsertMany(ctx, seed); err != nil {
			return fmt.Errorf("seed products: %w", err)
		}
		s.logger.WithField("products", len(seed)).Info("catalog seeded")
	}
	s.seeded.Store(true)
	return nil
}

func (s *Service) silenceMissing(operation, id string, err error) error {
	if errors.Is(err, domain.ErrInvalidID) || errors.Is(err, domain.ErrProductNotFound) {
		s.metrics.RecordProductMutation(operation, metrics.OutcomeNotFound)
		s.logger.WithField("product_id", id).Debugf("%s skipped: %v", operation, err)
		return nil
	}
	s.metrics.RecordProductMutation(operation, metrics.OutcomeFailed)
	return fmt.Errorf("%s product %s: %w", operation, id, err)
}

func (s *Service) observe(operation string, started time.Time) {
	s.metrics.ObserveOperation(operation, time.Since(started))
}
