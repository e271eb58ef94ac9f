package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/messaging/kafka"
)

// initKafkaProducer инициализирует Kafka producer если brokers не пустой.
// Возвращает nil, nil если brokers пустой; при ошибке витрина продолжает работу без Kafka.
func initKafkaProducer(brokers []string, logger *log.Entry) (*kafka.Producer, error) {
	if len(brokers) == 0 {
		return nil, nil
	}

	producer, err := kafka.NewProducer(brokers)
	if err != nil {
		logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
		return nil, err
	}

	logger.WithField("brokers", brokers).Info("kafka producer initialized")
	return producer, nil
}

// closeKafka закрывает Kafka producer если он не nil.
func closeKafka(producer *kafka.Producer, logger *log.Entry) {
	if producer == nil {
		return
	}

	if err := producer.Close(); err != nil {
		logger.WithError(err).Warn("failed to close kafka producer")
	} else {
		logger.Info("kafka producer closed")
	}
}

// startInvalidationConsumer подписывает инстанс на сбросы представлений от соседей.
// Группа уникальна для инстанса, чтобы каждый получал все события.
func startInvalidationConsumer(ctx context.Context, cfg Config, handler kafka.MessageHandler, logger *log.Entry) (*kafka.Consumer, error) {
	brokers := cfg.brokerList()
	if len(brokers) == 0 {
		return nil, nil
	}

	groupID := fmt.Sprintf("storefront-views-%d", cfg.NodeID)
	consumer, err := kafka.NewConsumer(brokers, groupID, []string{cfg.InvalidationTopic}, handler)
	if err != nil {
		logger.WithError(err).Warn("failed to create invalidation consumer, remote invalidations disabled")
		return nil, err
	}
	if err := consumer.Start(ctx); err != nil {
		_ = consumer.Stop()
		return nil, err
	}
	return consumer, nil
}

func stopConsumer(consumer *kafka.Consumer, logger *log.Entry) {
	if consumer == nil {
		return
	}
	if err := consumer.Stop(); err != nil {
		logger.WithError(err).Warn("failed to stop invalidation consumer")
	}
}
