package orders

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/idgen"
	"github.com/vladislavdragonenkov/storefront/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/service/catalog"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
)

type stubStock struct {
	mu    sync.Mutex
	calls [][]domain.StockDecrement
	err   error
}

func (s *stubStock) DecreaseQuantity(_ context.Context, items []domain.StockDecrement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, items)
	return s.err
}

type keyRecorder struct {
	mu   sync.Mutex
	keys []domain.ViewKey
}

func (r *keyRecorder) Invalidate(_ context.Context, keys ...domain.ViewKey) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = append(r.keys, keys...)
}

type capturedEvent struct {
	topic string
	key   string
	event *kafka.OrderEvent
}

type eventSink struct {
	events []capturedEvent
	err    error
}

func (s *eventSink) PublishEvent(topic, key string, event interface{}) error {
	s.events = append(s.events, capturedEvent{topic: topic, key: key, event: event.(*kafka.OrderEvent)})
	return s.err
}

func newOrderStore(t *testing.T) domain.OrderStore {
	t.Helper()
	ids, err := idgen.New(5)
	require.NoError(t, err)
	return memory.NewOrderStore(ids)
}

var testCustomer = domain.Customer{Name: "Ann Lee", Email: "ann@example.com"}

func TestCreate_SnapshotsCartAndDecrementsStock(t *testing.T) {
	stock := &stubStock{}
	inv := &keyRecorder{}
	fixed := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	svc := NewService(newOrderStore(t), stock, inv, WithClock(func() time.Time { return fixed }))

	cart := []domain.CartItem{{ProductID: "1", Name: "Classic Denim Jacket", Price: decimal.RequireFromString("10.0"), Quantity: 2}}
	order, err := svc.Create(context.Background(), testCustomer, cart, decimal.RequireFromString("20.0"))
	require.NoError(t, err)

	require.NotEmpty(t, order.ID)
	require.Equal(t, domain.OrderStatusProcessing, order.Status)
	require.Equal(t, fixed, order.CreatedAt)
	require.Len(t, order.Items, 1)
	require.Equal(t, "1", order.Items[0].ProductID)
	require.Equal(t, 2, order.Items[0].Quantity)
	require.True(t, order.Total.Equal(decimal.NewFromInt(20)))

	require.Len(t, stock.calls, 1)
	require.Equal(t, []domain.StockDecrement{{ProductID: "1", Quantity: 2}}, stock.calls[0])
	require.Equal(t, []domain.ViewKey{domain.ViewOrders}, inv.keys)
}

func TestCreate_TotalIsNotRecomputed(t *testing.T) {
	svc := NewService(newOrderStore(t), &stubStock{}, nil)

	cart := []domain.CartItem{{ProductID: "1", Price: decimal.NewFromInt(10), Quantity: 3}}
	order, err := svc.Create(context.Background(), testCustomer, cart, decimal.NewFromInt(1))
	require.NoError(t, err)
	require.True(t, order.Total.Equal(decimal.NewFromInt(1)))
}

func TestCreate_SnapshotIsIndependentOfCart(t *testing.T) {
	svc := NewService(newOrderStore(t), &stubStock{}, nil)
	ctx := context.Background()

	cart := []domain.CartItem{{ProductID: "1", Name: "Jacket", Price: decimal.NewFromInt(10), Quantity: 1}}
	order, err := svc.Create(ctx, testCustomer, cart, decimal.NewFromInt(10))
	require.NoError(t, err)

	cart[0].Name = "Changed"
	listed, err := svc.List(ctx)
	require.NoError(t, err)
	require.Equal(t, "Jacket", listed[0].Items[0].Name)
	require.Equal(t, order.ID, listed[0].ID)
}

func TestCreate_StockFailureKeepsOrder(t *testing.T) {
	boom := errors.New("stock store down")
	reg := prometheus.NewRegistry()
	svc := NewService(newOrderStore(t), &stubStock{err: boom}, nil, WithMetrics(metrics.NewWithRegisterer(reg)))
	ctx := context.Background()

	order, err := svc.Create(ctx, testCustomer, []domain.CartItem{{ProductID: "1", Quantity: 1, Price: decimal.NewFromInt(5)}}, decimal.NewFromInt(5))
	require.ErrorIs(t, err, domain.ErrStockNotDecreased)
	require.ErrorIs(t, err, boom)
	require.NotEmpty(t, order.ID, "persisted order must be returned with the error")

	listed, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, order.ID, listed[0].ID)
}

func TestCreate_WithCatalogDecrementsRealStock(t *testing.T) {
	ids, err := idgen.New(6)
	require.NoError(t, err)
	products := catalog.NewService(memory.NewProductStore(ids), nil)
	ctx := context.Background()

	_, err = products.List(ctx, true)
	require.NoError(t, err)

	svc := NewService(memory.NewOrderStore(ids), products, nil)
	_, err = svc.Create(ctx, testCustomer, []domain.CartItem{
		{ProductID: "1", Quantity: 2, Price: decimal.NewFromInt(10)},
		{ProductID: "7", Quantity: 99, Price: decimal.NewFromInt(10)},
	}, decimal.NewFromInt(1010))
	require.NoError(t, err)

	jacket, err := products.GetByID(ctx, "1")
	require.NoError(t, err)
	blazer, err := products.GetByID(ctx, "7")
	require.NoError(t, err)
	require.Equal(t, 8, jacket.AvailableQuantity)
	require.Equal(t, 0, blazer.AvailableQuantity)
}

func TestList_NewestFirst(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	svc := NewService(newOrderStore(t), nil, nil, WithClock(func() time.Time {
		now = now.Add(time.Minute)
		return now
	}))
	ctx := context.Background()

	first, err := svc.Create(ctx, testCustomer, nil, decimal.Zero)
	require.NoError(t, err)
	second, err := svc.Create(ctx, testCustomer, nil, decimal.Zero)
	require.NoError(t, err)

	listed, err := svc.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{second.ID, first.ID}, []string{listed[0].ID, listed[1].ID})
}

func TestGet_ReturnsStoredOrder(t *testing.T) {
	svc := NewService(newOrderStore(t), nil, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, testCustomer, []domain.CartItem{{ProductID: "1", Name: "Jacket", Price: decimal.NewFromInt(10), Quantity: 2}}, decimal.NewFromInt(20))
	require.NoError(t, err)
	require.NoError(t, svc.UpdateStatus(ctx, created.ID, domain.OrderStatusDelivered))

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusDelivered, got.Status)
	require.Equal(t, created.Items, got.Items)

	_, err = svc.Get(ctx, "123456789")
	require.ErrorIs(t, err, domain.ErrOrderNotFound)
	_, err = svc.Get(ctx, "zzz")
	require.ErrorIs(t, err, domain.ErrInvalidID)
}

func TestUpdateStatus_Outcomes(t *testing.T) {
	inv := &keyRecorder{}
	svc := NewService(newOrderStore(t), nil, inv)
	ctx := context.Background()

	order, err := svc.Create(ctx, testCustomer, nil, decimal.Zero)
	require.NoError(t, err)
	inv.keys = nil

	require.NoError(t, svc.UpdateStatus(ctx, order.ID, domain.OrderStatusShipped))
	require.Equal(t, []domain.ViewKey{domain.ViewOrders}, inv.keys)

	err = svc.UpdateStatus(ctx, order.ID, domain.OrderStatusShipped)
	require.ErrorIs(t, err, domain.ErrOrderStatusUnchanged)
	require.False(t, errors.Is(err, domain.ErrOrderNotFound))

	require.ErrorIs(t, svc.UpdateStatus(ctx, "123456789", domain.OrderStatusShipped), domain.ErrOrderNotFound)
	require.ErrorIs(t, svc.UpdateStatus(ctx, "zzz", domain.OrderStatusShipped), domain.ErrInvalidID)
	require.ErrorIs(t, svc.UpdateStatus(ctx, order.ID, domain.OrderStatus("Lost")), domain.ErrInvalidOrderStatus)

	// Граф переходов не навязывается: из Cancelled можно вернуться в Processing.
	require.NoError(t, svc.UpdateStatus(ctx, order.ID, domain.OrderStatusCancelled))
	require.NoError(t, svc.UpdateStatus(ctx, order.ID, domain.OrderStatusProcessing))
	require.Len(t, inv.keys, 3)
}

func TestEvents_PublishedAndFailuresIgnored(t *testing.T) {
	sink := &eventSink{err: errors.New("kafka down")}
	svc := NewService(newOrderStore(t), nil, nil, WithEvents(sink))
	ctx := context.Background()

	order, err := svc.Create(ctx, testCustomer, []domain.CartItem{{ProductID: "1", Quantity: 1, Price: decimal.NewFromInt(3)}}, decimal.NewFromInt(3))
	require.NoError(t, err)
	require.NoError(t, svc.UpdateStatus(ctx, order.ID, domain.OrderStatusDelivered))

	require.Len(t, sink.events, 2)
	created := sink.events[0]
	require.Equal(t, kafka.TopicOrderEvents, created.topic)
	require.Equal(t, order.ID, created.key)
	require.Equal(t, kafka.EventTypeOrderCreated, created.event.EventType)
	require.Equal(t, "3", created.event.Total)
	require.Equal(t, 1, created.event.Items)

	changed := sink.events[1].event
	require.Equal(t, kafka.EventTypeOrderStatusChanged, changed.EventType)
	require.Equal(t, "Delivered", changed.Status)
}
