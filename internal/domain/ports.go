package domain

import "context"

// Invalidator сигнализирует веб-слою, что представления устарели.
// Реализация не должна блокировать мутацию при сбое доставки.
type Invalidator interface {
	Invalidate(ctx context.Context, keys ...ViewKey)
}

// IDGenerator выдаёт новые идентификаторы для хранилищ без собственной генерации.
type IDGenerator interface {
	NewID() string
}

// RecommendationGenerator: внешний (непрозрачный) генератор рекомендаций.
type RecommendationGenerator interface {
	Recommend(ctx context.Context, flow RecommendationFlow, inputs []string) ([]Recommendation, error)
}

// EventPublisher публикует доменные события наружу.
type EventPublisher interface {
	PublishEvent(topic string, key string, event interface{}) error
}
