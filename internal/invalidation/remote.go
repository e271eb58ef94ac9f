package invalidation

import (
	"context"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/messaging/kafka"
)

// RemoteApplier применяет сбросы, опубликованные другими инстансами, к локальному target.
// Собственные события (Origin == self) пропускаются: они уже применены при мутации.
type RemoteApplier struct {
	self   string
	target domain.Invalidator
	logger *log.Entry
}

// NewRemoteApplier создаёт обработчик для kafka.Consumer.
func NewRemoteApplier(self string, target domain.Invalidator, logger *log.Entry) *RemoteApplier {
	if logger == nil {
		logger = log.WithField("component", "invalidation-remote")
	}
	return &RemoteApplier{self: self, target: target, logger: logger}
}

// Handle реализует kafka.MessageHandler.
func (a *RemoteApplier) Handle(ctx context.Context, message *sarama.ConsumerMessage) error {
	event, err := kafka.ParseViewInvalidatedEvent(message)
	if err != nil {
		return err
	}
	if event.Origin != "" && event.Origin == a.self {
		return nil
	}

	keys := make([]domain.ViewKey, 0, len(event.Keys))
	for _, key := range event.Keys {
		keys = append(keys, domain.ViewKey(key))
	}
	a.target.Invalidate(ctx, keys...)

	a.logger.WithFields(log.Fields{
		"origin": event.Origin,
		"keys":   event.Keys,
	}).Debug("applied remote view invalidation")
	return nil
}
