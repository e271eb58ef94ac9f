package invalidation

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/messaging/kafka"
)

// KafkaPublisher отправляет сбросы одним событием в topic инвалидаций.
// Ошибка доставки только логируется: мутация уже выполнена.
type KafkaPublisher struct {
	publisher domain.EventPublisher
	topic     string
	origin    string
	logger    *log.Entry
}

// NewKafkaPublisher создаёт паблишер; пустой topic заменяется на kafka.TopicViewInvalidations.
func NewKafkaPublisher(publisher domain.EventPublisher, topic, origin string, logger *log.Entry) *KafkaPublisher {
	if topic == "" {
		topic = kafka.TopicViewInvalidations
	}
	if logger == nil {
		logger = log.WithField("component", "invalidation-kafka")
	}
	return &KafkaPublisher{publisher: publisher, topic: topic, origin: origin, logger: logger}
}

// Invalidate публикует ViewInvalidatedEvent. Ключ сообщения: первый ключ пачки.
func (p *KafkaPublisher) Invalidate(_ context.Context, keys ...domain.ViewKey) {
	keys = Dedupe(keys)
	if len(keys) == 0 || p.publisher == nil {
		return
	}

	raw := make([]string, 0, len(keys))
	for _, key := range keys {
		raw = append(raw, string(key))
	}

	event := kafka.NewViewInvalidatedEvent(p.origin, raw)
	if err := p.publisher.PublishEvent(p.topic, raw[0], event); err != nil {
		p.logger.WithError(err).WithField("keys", raw).Warn("failed to publish view invalidation")
	}
}

var _ domain.Invalidator = (*KafkaPublisher)(nil)
