// Package orders реализует репозиторий заказов: оформление со снимком корзины,
// последующее списание остатков и смену статуса администратором.
package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/invalidation"
	"github.com/vladislavdragonenkov/storefront/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
)

// StockDecreaser списывает остатки товаров; реализуется catalog.Service.
type StockDecreaser interface {
	DecreaseQuantity(ctx context.Context, items []domain.StockDecrement) error
}

// Service: репозиторий заказов.
type Service struct {
	store       domain.OrderStore
	stock       StockDecreaser
	invalidator domain.Invalidator
	events      domain.EventPublisher
	metrics     *metrics.StorefrontMetrics
	logger      *log.Entry
	now         func() time.Time
}

// Option настраивает Service.
type Option func(*Service)

// WithEvents включает публикацию событий заказа в kafka.TopicOrderEvents.
func WithEvents(publisher domain.EventPublisher) Option {
	return func(s *Service) { s.events = publisher }
}

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

// WithClock подменяет источник времени createdAt.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService создаёт репозиторий заказов.
func NewService(store domain.OrderStore, stock StockDecreaser, invalidator domain.Invalidator, opts ...Option) *Service {
	if invalidator == nil {
		invalidator = invalidation.Nop{}
	}
	s := &Service{
		store:       store,
		stock:       stock,
		invalidator: invalidator,
		logger:      log.WithField("component", "orders"),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List возвращает заказы, новые первыми.
func (s *Service) List(ctx context.Context) ([]domain.Order, error) {
	defer s.observe("orders.list", time.Now())

	orders, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// Get возвращает заказ по ID. Ошибки: ErrInvalidID, ErrOrderNotFound.
func (s *Service) Get(ctx context.Context, id string) (domain.Order, error) {
	defer s.observe("orders.get", time.Now())

	order, err := s.store.Get(ctx, id)
	if err != nil {
		if isExpected(err) {
			return domain.Order{}, err
		}
		return domain.Order{}, fmt.Errorf("get order %s: %w", id, err)
	}
	return order, nil
}

// Create сохраняет заказ и затем списывает остатки.
//
// Операция не атомарна. Если запись прошла, а списание нет, возвращается сохранённый
// заказ вместе с ошибкой, обёрнутой в domain.ErrStockNotDecreased. Заказ не откатывается.
// total берётся у клиента как есть и не пересчитывается.
func (s *Service) Create(ctx context.Context, customer domain.Customer, cart []domain.CartItem, total decimal.Decimal) (domain.Order, error) {
	defer s.observe("orders.create", time.Now())

	order := domain.Order{
		CustomerName:  customer.Name,
		CustomerEmail: customer.Email,
		Items:         domain.SnapshotItems(cart),
		Total:         total,
		Status:        domain.OrderStatusProcessing,
		CreatedAt:     s.now().UTC(),
	}

	created, err := s.store.Insert(ctx, order)
	if err != nil {
		return domain.Order{}, fmt.Errorf("insert order: %w", err)
	}
	s.metrics.RecordOrderCreated()

	entry := s.logger.WithFields(log.Fields{
		"order_id": created.ID,
		"items":    len(created.Items),
		"total":    created.Total.String(),
	})
	entry.Info("order created")

	s.invalidator.Invalidate(ctx, domain.ViewOrders)
	s.publish(kafka.EventTypeOrderCreated, created)

	if s.stock == nil {
		return created, nil
	}
	if err := s.stock.DecreaseQuantity(ctx, domain.StockDecrements(cart)); err != nil {
		s.metrics.RecordStockNotDecreased()
		entry.WithError(err).Error("order persisted but stock was not decreased")
		return created, fmt.Errorf("order %s: %w: %w", created.ID, domain.ErrStockNotDecreased, err)
	}
	return created, nil
}

// UpdateStatus выставляет любой из четырёх статусов без проверки переходов.
// Ошибки: ErrInvalidOrderStatus, ErrInvalidID, ErrOrderNotFound, ErrOrderStatusUnchanged.
func (s *Service) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	defer s.observe("orders.update_status", time.Now())

	if !status.Valid() {
		s.metrics.RecordOrderStatusUpdate(metrics.OutcomeInvalid)
		return domain.ErrInvalidOrderStatus
	}

	if err := s.store.UpdateStatus(ctx, id, status); err != nil {
		s.metrics.RecordOrderStatusUpdate(statusOutcome(err))
		if isExpected(err) {
			return err
		}
		return fmt.Errorf("update order %s status: %w", id, err)
	}
	s.metrics.RecordOrderStatusUpdate(metrics.OutcomeOK)

	s.logger.WithFields(log.Fields{"order_id": id, "status": status}).Info("order status updated")
	s.invalidator.Invalidate(ctx, domain.ViewOrders)
	s.publish(kafka.EventTypeOrderStatusChanged, domain.Order{ID: id, Status: status})
	return nil
}

func (s *Service) publish(eventType kafka.EventType, order domain.Order) {
	if s.events == nil {
		return
	}
	event := kafka.NewOrderEvent(eventType, order.ID, string(order.Status))
	if eventType == kafka.EventTypeOrderCreated {
		event.CustomerEmail = order.CustomerEmail
		event.Total = order.Total.String()
		event.Items = len(order.Items)
	}
	if err := s.events.PublishEvent(kafka.TopicOrderEvents, order.ID, event); err != nil {
		s.logger.WithError(err).WithField("order_id", order.ID).Warn("failed to publish order event")
	}
}

func (s *Service) observe(operation string, started time.Time) {
	s.metrics.ObserveOperation(operation, time.Since(started))
}

func isExpected(err error) bool {
	return errors.Is(err, domain.ErrInvalidID) ||
		errors.Is(err, domain.ErrOrderNotFound) ||
		errors.Is(err, domain.ErrOrderStatusUnchanged)
}

func statusOutcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidID):
		return metrics.OutcomeInvalid
	case errors.Is(err, domain.ErrOrderNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, domain.ErrOrderStatusUnchanged):
		return metrics.OutcomeUnchanged
	default:
		return metrics.OutcomeFailed
	}
}
