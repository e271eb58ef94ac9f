package invalidation

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
)

type recorder struct {
	mu   sync.Mutex
	keys []domain.ViewKey
}

func (r *recorder) Invalidate(_ context.Context, keys ...domain.ViewKey) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = append(r.keys, keys...)
}

func (r *recorder) snapshot() []domain.ViewKey {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.ViewKey(nil), r.keys...)
}

func TestDedupe(t *testing.T) {
	got := Dedupe([]domain.ViewKey{domain.ViewInventory, "", domain.ViewHomepage, domain.ViewInventory})
	require.Equal(t, []domain.ViewKey{domain.ViewInventory, domain.ViewHomepage}, got)
}

func TestFanout_SkipsNilAndEmpty(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	fan := Fanout{a, nil, b}

	fan.Invalidate(context.Background())
	fan.Invalidate(context.Background(), domain.ViewOrders)

	require.Equal(t, []domain.ViewKey{domain.ViewOrders}, a.snapshot())
	require.Equal(t, []domain.ViewKey{domain.ViewOrders}, b.snapshot())
}

func TestBus_DeliversEachKeyOnce(t *testing.T) {
	bus := NewBus()

	got := &recorder{}
	require.NoError(t, bus.Subscribe(func(ctx context.Context, key domain.ViewKey) {
		got.Invalidate(ctx, key)
	}))

	bus.Invalidate(context.Background(), domain.ViewInventory, domain.ProductView("blue-shirt"), domain.ViewInventory)

	require.Equal(t, []domain.ViewKey{domain.ViewInventory, "product:blue-shirt"}, got.snapshot())
}

func TestCounting_RecordsByKind(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegisterer(reg)
	next := &recorder{}

	NewCounting(next, m).Invalidate(context.Background(),
		domain.ViewInventory, domain.ProductView("a"), domain.ProductView("b"))

	require.Len(t, next.snapshot(), 3)

	families, err := reg.Gather()
	require.NoError(t, err)
	byKind := map[string]float64{}
	for _, family := range families {
		if family.GetName() != "storefront_view_invalidations_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "kind" {
					byKind[label.GetValue()] = metric.GetCounter().GetValue()
				}
			}
		}
	}
	require.Equal(t, map[string]float64{"inventory": 1, "product": 2}, byKind)
}

type fakePublisher struct {
	topic string
	key   string
	event interface{}
	err   error
}

func (f *fakePublisher) PublishEvent(topic, key string, event interface{}) error {
	f.topic, f.key, f.event = topic, key, event
	return f.err
}

func TestKafkaPublisher_PublishesOneEventPerCall(t *testing.T) {
	pub := &fakePublisher{}
	p := NewKafkaPublisher(pub, "", "node-1", nil)

	p.Invalidate(context.Background(), domain.ViewHomepage, domain.ViewHomepage, domain.ProductView("x"))

	require.Equal(t, kafka.TopicViewInvalidations, pub.topic)
	require.Equal(t, "homepage", pub.key)
	event, ok := pub.event.(*kafka.ViewInvalidatedEvent)
	require.True(t, ok)
	require.Equal(t, []string{"homepage", "product:x"}, event.Keys)
	require.Equal(t, "node-1", event.Origin)
}

func TestKafkaPublisher_ErrorIsSwallowed(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	p := NewKafkaPublisher(pub, "custom", "node-1", nil)

	require.NotPanics(t, func() { p.Invalidate(context.Background(), domain.ViewOrders) })
	require.Equal(t, "custom", pub.topic)

	empty := &fakePublisher{}
	NewKafkaPublisher(empty, "", "", nil).Invalidate(context.Background())
	require.Nil(t, empty.event)
}

type fakeRedis struct {
	values  map[string][]byte
	deleted []string
	failGet error
	failDel error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: map[string][]byte{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if f.failGet != nil {
		return redis.NewStringResult("", f.failGet)
	}
	v, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(string(v), nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	f.values[key] = value.([]byte)
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	if f.failDel != nil {
		return redis.NewIntResult(0, f.failDel)
	}
	f.deleted = append(f.deleted, keys...)
	for _, k := range keys {
		delete(f.values, k)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func TestRedisViewCache_GetSetInvalidate(t *testing.T) {
	client := newFakeRedis()
	cache := NewRedisViewCache(client, 0, nil)
	ctx := context.Background()

	_, ok := cache.Get(ctx, domain.ViewInventory)
	require.False(t, ok)

	cache.Set(ctx, domain.ViewInventory, []byte(`[1]`))
	payload, ok := cache.Get(ctx, domain.ViewInventory)
	require.True(t, ok)
	require.Equal(t, `[1]`, string(payload))

	cache.Invalidate(ctx, domain.ViewInventory, domain.ViewInventory, domain.ViewHomepage)
	require.Equal(t, []string{"storefront:view:inventory", "storefront:view:homepage"}, client.deleted)
	_, ok = cache.Get(ctx, domain.ViewInventory)
	require.False(t, ok)
}

func TestRedisViewCache_ErrorsAreMisses(t *testing.T) {
	client := newFakeRedis()
	client.failGet = errors.New("timeout")
	client.failDel = errors.New("timeout")
	cache := NewRedisViewCache(client, time.Minute, nil)

	_, ok := cache.Get(context.Background(), domain.ViewHomepage)
	require.False(t, ok)
	require.NotPanics(t, func() { cache.Invalidate(context.Background(), domain.ViewHomepage) })
}

func TestLocalViewCache_ExpiresAndInvalidates(t *testing.T) {
	cache, err := NewLocalViewCache(0, time.Minute)
	require.NoError(t, err)

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }
	ctx := context.Background()

	original := []byte("homepage")
	cache.Set(ctx, domain.ViewHomepage, original)
	original[0] = 'X'

	got, ok := cache.Get(ctx, domain.ViewHomepage)
	require.True(t, ok)
	require.Equal(t, "homepage", string(got))

	now = now.Add(2 * time.Minute)
	_, ok = cache.Get(ctx, domain.ViewHomepage)
	require.False(t, ok, "entry must expire after ttl")
	require.Equal(t, 0, cache.Len())

	cache.Set(ctx, domain.ViewOrders, []byte("orders"))
	cache.Invalidate(ctx, domain.ViewOrders)
	_, ok = cache.Get(ctx, domain.ViewOrders)
	require.False(t, ok)
}

func TestRemoteApplier_SkipsOwnEvents(t *testing.T) {
	target := &recorder{}
	applier := NewRemoteApplier("node-1", target, nil)
	ctx := context.Background()

	own, _ := json.Marshal(kafka.NewViewInvalidatedEvent("node-1", []string{"inventory"}))
	require.NoError(t, applier.Handle(ctx, &sarama.ConsumerMessage{Value: own}))
	require.Empty(t, target.snapshot())

	foreign, _ := json.Marshal(kafka.NewViewInvalidatedEvent("node-2", []string{"inventory", "product:a"}))
	require.NoError(t, applier.Handle(ctx, &sarama.ConsumerMessage{Value: foreign}))
	require.Equal(t, []domain.ViewKey{domain.ViewInventory, "product:a"}, target.snapshot())

	require.Error(t, applier.Handle(ctx, &sarama.ConsumerMessage{Value: []byte("nope")}))
}

func TestViewCaches_RejectWriteBuiltBeforeInvalidate(t *testing.T) {
	local, err := NewLocalViewCache(8, time.Minute)
	require.NoError(t, err)
	caches := map[string]ViewCache{
		"local": local,
		"redis": NewRedisViewCache(newFakeRedis(), time.Minute, nil),
	}
	for name, cache := range caches {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			key := domain.ProductView("blue-shirt")

			gen := cache.Generation(key)
			cache.Invalidate(ctx, key)
			require.False(t, cache.SetIfCurrent(ctx, key, []byte("old"), gen))
			_, ok := cache.Get(ctx, key)
			require.False(t, ok, "payload built before the purge must not be stored")

			gen = cache.Generation(key)
			require.True(t, cache.SetIfCurrent(ctx, key, []byte("new"), gen))
			payload, ok := cache.Get(ctx, key)
			require.True(t, ok)
			require.Equal(t, "new", string(payload))

			require.Equal(t, gen, cache.Generation(domain.ProductView("blue-shirt")))
			require.Zero(t, cache.Generation(domain.ViewOrders), "other keys keep their generation")
		})
	}
}
