// Package metrics содержит prometheus-метрики витрины.
package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Исходы операций для label "outcome"/"result".
const (
	OutcomeOK        = "ok"
	OutcomeFailed    = "failed"
	OutcomeNotFound  = "not_found"
	OutcomeUnchanged = "unchanged"
	OutcomeInvalid   = "invalid"
	OutcomeSkipped   = "skipped"
)

// StorefrontMetrics собирает счётчики слоя доступа к данным и HTTP-слоя.
// Все методы безопасны для nil-получателя, чтобы сервисы в тестах работали без метрик.
type StorefrontMetrics struct {
	ordersCreated        prometheus.Counter
	stockNotDecreased    prometheus.Counter
	orderStatusUpdates   *prometheus.CounterVec
	stockDecrements      *prometheus.CounterVec
	viewInvalidations    *prometheus.CounterVec
	recommendations      *prometheus.CounterVec
	productMutations     *prometheus.CounterVec
	storageBackend       *prometheus.GaugeVec
	operationDuration    *prometheus.HistogramVec
	httpRequests         *prometheus.CounterVec
	httpRequestDurations *prometheus.HistogramVec
}

// New регистрирует метрики в DefaultRegisterer.
func New() *StorefrontMetrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer регистрирует метрики в переданном реестре.
// Повторная регистрация возвращает уже существующие коллекторы.
func NewWithRegisterer(registerer prometheus.Registerer) *StorefrontMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &StorefrontMetrics{
		ordersCreated: register(registerer, "storefront_orders_created_total", prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_orders_created_total",
			Help: "Total number of orders persisted",
		})),
		stockNotDecreased: register(registerer, "storefront_orders_stock_not_decreased_total", prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_orders_stock_not_decreased_total",
			Help: "Orders persisted whose stock decrement failed afterwards",
		})),
		orderStatusUpdates: register(registerer, "storefront_order_status_updates_total", prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_order_status_updates_total",
			Help: "Order status update attempts by outcome",
		}, []string{"outcome"})),
		stockDecrements: register(registerer, "storefront_stock_decrements_total", prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_stock_decrements_total",
			Help: "Bulk stock decrement calls by result",
		}, []string{"result"})),
		viewInvalidations: register(registerer, "storefront_view_invalidations_total", prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_view_invalidations_total",
			Help: "Invalidated views by kind",
		}, []string{"kind"})),
		recommendations: register(registerer, "storefront_recommendation_requests_total", prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_recommendation_requests_total",
			Help: "Recommendation requests by flow and result",
		}, []string{"flow", "result"})),
		productMutations: register(registerer, "storefront_product_mutations_total", prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_product_mutations_total",
			Help: "Admin product mutations by operation and outcome",
		}, []string{"operation", "outcome"})),
		storageBackend: register(registerer, "storefront_storage_backend", prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "storefront_storage_backend",
			Help: "Active storage backend (1 for the selected driver)",
		}, []string{"driver"})),
		operationDuration: register(registerer, "storefront_store_operation_duration_seconds", prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "storefront_store_operation_duration_seconds",
			Help:    "Duration of repository operations in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
		}, []string{"operation"})),
		httpRequests: register(registerer, "storefront_http_requests_total", prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_http_requests_total",
			Help: "HTTP API requests by route and status code",
		}, []string{"route", "code"})),
		httpRequestDurations: register(registerer, "storefront_http_request_duration_seconds", prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "storefront_http_request_duration_seconds",
			Help:    "HTTP API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"})),
	}
}

func register[C prometheus.Collector](registerer prometheus.Registerer, name string, collector C) C {
	if err := registerer.Register(collector); err != nil {
		var alreadyRegistered prometheus.AlreadyRegisteredError
		if errors.As(err, &alreadyRegistered) {
			existing, ok := alreadyRegistered.ExistingCollector.(C)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", name))
			}
			return existing
		}
		panic(fmt.Sprintf("register collector %q: %v", name, err))
	}
	return collector
}

// RecordOrderCreated увеличивает счётчик сохранённых заказов.
func (m *StorefrontMetrics) RecordOrderCreated() {
	if m == nil {
		return
	}
	m.ordersCreated.Inc()
}

// RecordStockNotDecreased отмечает заказ, у которого не удалось списать остатки.
func (m *StorefrontMetrics) RecordStockNotDecreased() {
	if m == nil {
		return
	}
	m.stockNotDecreased.Inc()
}

// RecordOrderStatusUpdate учитывает попытку смены статуса.
func (m *StorefrontMetrics) RecordOrderStatusUpdate(outcome string) {
	if m == nil {
		return
	}
	m.orderStatusUpdates.WithLabelValues(outcome).Inc()
}

// RecordStockDecrement учитывает вызов пакетного списания.
func (m *StorefrontMetrics) RecordStockDecrement(result string) {
	if m == nil {
		return
	}
	m.stockDecrements.WithLabelValues(result).Inc()
}

// RecordViewInvalidation учитывает сброс представления вида kind.
func (m *StorefrontMetrics) RecordViewInvalidation(kind string) {
	if m == nil {
		return
	}
	m.viewInvalidations.WithLabelValues(kind).Inc()
}

// RecordRecommendation учитывает запрос к сервису рекомендаций.
func (m *StorefrontMetrics) RecordRecommendation(flow, result string) {
	if m == nil {
		return
	}
	m.recommendations.WithLabelValues(flow, result).Inc()
}

// RecordProductMutation учитывает add/update/delete товара.
func (m *StorefrontMetrics) RecordProductMutation(operation, outcome string) {
	if m == nil {
		return
	}
	m.productMutations.WithLabelValues(operation, outcome).Inc()
}

// SetStorageBackend выставляет 1 для активного драйвера и 0 для остальных.
func (m *StorefrontMetrics) SetStorageBackend(active string, drivers ...string) {
	if m == nil {
		return
	}
	for _, driver := range drivers {
		m.storageBackend.WithLabelValues(driver).Set(0)
	}
	m.storageBackend.WithLabelValues(active).Set(1)
}

// ObserveOperation записывает длительность операции хранилища.
func (m *StorefrontMetrics) ObserveOperation(operation string, duration time.Duration) {
	if m == nil {
		return
	}
	m.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordHTTPRequest учитывает обработанный HTTP-запрос.
func (m *StorefrontMetrics) RecordHTTPRequest(route string, code int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, fmt.Sprint(code)).Inc()
	m.httpRequestDurations.WithLabelValues(route).Observe(duration.Seconds())
}
