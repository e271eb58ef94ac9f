package invalidation

import (
	"context"

	evbus "github.com/asaskevich/EventBus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// TopicViewInvalidated: внутренний topic шины.
const TopicViewInvalidated = "view:invalidated"

// Handler получает один устаревший ключ.
type Handler func(ctx context.Context, key domain.ViewKey)

// Bus: синхронная in-process шина поверх EventBus.
// Подписчики вызываются в горутине мутации, поэтому не должны блокироваться надолго.
type Bus struct {
	bus evbus.Bus
}

// NewBus создаёт пустую шину.
func NewBus() *Bus {
	return &Bus{bus: evbus.New()}
}

// Subscribe регистрирует обработчик для всех будущих сбросов.
func (b *Bus) Subscribe(handler Handler) error {
	return b.bus.Subscribe(TopicViewInvalidated, func(ctx context.Context, key domain.ViewKey) {
		handler(ctx, key)
	})
}

// Invalidate публикует каждый ключ отдельным событием.
func (b *Bus) Invalidate(ctx context.Context, keys ...domain.ViewKey) {
	for _, key := range Dedupe(keys) {
		b.bus.Publish(TopicViewInvalidated, ctx, key)
	}
}

var _ domain.Invalidator = (*Bus)(nil)
