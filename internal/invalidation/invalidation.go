// Package invalidation доставляет сигналы об устаревших представлениях витрины:
// в процессе через шину, наружу через Kafka и в кеш представлений (Redis или LRU).
package invalidation

import (
	"context"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
)

// Nop: Invalidator по умолчанию, когда доставка не настроена.
type Nop struct{}

// Invalidate ничего не делает.
func (Nop) Invalidate(context.Context, ...domain.ViewKey) {}

// Fanout рассылает ключи всем вложенным Invalidator по порядку.
type Fanout []domain.Invalidator

// Invalidate вызывает каждый вложенный Invalidator; nil пропускается.
func (f Fanout) Invalidate(ctx context.Context, keys ...domain.ViewKey) {
	if len(keys) == 0 {
		return
	}
	for _, target := range f {
		if target != nil {
			target.Invalidate(ctx, keys...)
		}
	}
}

// Counting учитывает сброшенные представления в метриках и передаёт ключи дальше.
type Counting struct {
	next    domain.Invalidator
	metrics *metrics.StorefrontMetrics
}

// NewCounting оборачивает next счётчиком storefront_view_invalidations_total.
func NewCounting(next domain.Invalidator, m *metrics.StorefrontMetrics) *Counting {
	if next == nil {
		next = Nop{}
	}
	return &Counting{next: next, metrics: m}
}

// Invalidate считает ключи по виду и вызывает next.
func (c *Counting) Invalidate(ctx context.Context, keys ...domain.ViewKey) {
	for _, key := range keys {
		c.metrics.RecordViewInvalidation(key.Kind())
	}
	c.next.Invalidate(ctx, keys...)
}

// Dedupe убирает повторы, сохраняя порядок первого появления.
func Dedupe(keys []domain.ViewKey) []domain.ViewKey {
	seen := make(map[domain.ViewKey]struct{}, len(keys))
	out := make([]domain.ViewKey, 0, len(keys))
	for _, key := range keys {
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out
}

var (
	_ domain.Invalidator = Nop{}
	_ domain.Invalidator = Fanout(nil)
	_ domain.Invalidator = (*Counting)(nil)
)
