// Package recommendation передаёт описания товаров внешнему генератору
// и возвращает не больше трёх предложений.
package recommendation

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
)

// Service: фасад над внешним генератором рекомендаций.
type Service struct {
	generator domain.RecommendationGenerator
	metrics   *metrics.StorefrontMetrics
	logger    *log.Entry
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

// NewService создаёт сервис. generator может быть nil: тогда любой непустой
// запрос завершается ErrRecommendationsUnavailable.
func NewService(generator domain.RecommendationGenerator, opts ...Option) *Service {
	s := &Service{
		generator: generator,
		logger:    log.WithField("component", "recommendation"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ForCart рекомендует товары по описаниям из корзины.
func (s *Service) ForCart(ctx context.Context, descriptions []string) ([]domain.Recommendation, error) {
	return s.recommend(ctx, domain.RecommendationFlowCart, descriptions)
}

// ForHistory рекомендует товары по истории просмотров.
func (s *Service) ForHistory(ctx context.Context, history []string) ([]domain.Recommendation, error) {
	return s.recommend(ctx, domain.RecommendationFlowHistory, history)
}

func (s *Service) recommend(ctx context.Context, flow domain.RecommendationFlow, inputs []string) ([]domain.Recommendation, error) {
	if len(inputs) == 0 {
		s.metrics.RecordRecommendation(string(flow), metrics.OutcomeSkipped)
		return []domain.Recommendation{}, nil
	}

	if s.generator == nil {
		s.metrics.RecordRecommendation(string(flow), metrics.OutcomeFailed)
		s.logger.WithField("flow", flow).Warn("recommendation generator is not configured")
		return nil, domain.ErrRecommendationsUnavailable
	}

	start := time.Now()
	recs, err := s.generator.Recommend(ctx, flow, inputs)
	s.metrics.ObserveOperation("recommendation."+string(flow), time.Since(start))
	if err != nil {
		s.metrics.RecordRecommendation(string(flow), metrics.OutcomeFailed)
		entry := s.logger.WithError(err).WithFields(log.Fields{"flow": flow, "inputs": len(inputs)})
		if errors.Is(err, context.Canceled) {
			entry.Debug("recommendation request cancelled")
		} else {
			entry.Error("recommendation generator failed")
		}
		return nil, domain.ErrRecommendationsUnavailable
	}

	if len(recs) > domain.MaxRecommendations {
		recs = recs[:domain.MaxRecommendations]
	}
	if recs == nil {
		recs = []domain.Recommendation{}
	}
	s.metrics.RecordRecommendation(string(flow), metrics.OutcomeOK)
	return recs, nil
}
