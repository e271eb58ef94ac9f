package kafka

import (
	"time"

	"github.com/google/uuid"
)

// EventType определяет тип события
type EventType string

const (
	EventTypeViewInvalidated    EventType = "view.invalidated"
	EventTypeOrderCreated       EventType = "order.created"
	EventTypeOrderStatusChanged EventType = "order.status_changed"
)

// Topics для Kafka
const (
	TopicViewInvalidations = "storefront.view.invalidations"
	TopicOrderEvents       = "storefront.order.events"
)

// ViewInvalidatedEvent сообщает веб-слою (и другим инстансам), какие представления устарели.
type ViewInvalidatedEvent struct {
	EventID   string    `json:"event_id"`
	EventType EventType `json:"event_type"`
	Keys      []string  `json:"keys"`
	Origin    string    `json:"origin,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderEvent описывает изменение заказа для внешних потребителей.
type OrderEvent struct {
	EventID       string    `json:"event_id"`
	EventType     EventType `json:"event_type"`
	OrderID       string    `json:"order_id"`
	CustomerEmail string    `json:"customer_email,omitempty"`
	Status        string    `json:"status"`
	Total         string    `json:"total,omitempty"`
	Items         int       `json:"items,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewViewInvalidatedEvent создает событие сброса представлений.
func NewViewInvalidatedEvent(origin string, keys []string) *ViewInvalidatedEvent {
	return &ViewInvalidatedEvent{
		EventID:   uuid.NewString(),
		EventType: EventTypeViewInvalidated,
		Keys:      append([]string(nil), keys...),
		Origin:    origin,
		Timestamp: time.Now().UTC(),
	}
}

// NewOrderEvent создает новое событие заказа
func NewOrderEvent(eventType EventType, orderID, status string) *OrderEvent {
	return &OrderEvent{
		EventID:   uuid.NewString(),
		EventType: eventType,
		OrderID:   orderID,
		Status:    status,
		Timestamp: time.Now().UTC(),
	}
}
