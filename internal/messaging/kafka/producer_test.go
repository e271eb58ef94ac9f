package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
)

func TestProducer_PublishViewInvalidatedEvent(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)
	producer := newProducer(mockProducer)

	mockProducer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(value []byte) error {
		var event ViewInvalidatedEvent
		if err := json.Unmarshal(value, &event); err != nil {
			return err
		}
		if len(event.Keys) != 2 || event.Keys[0] != "inventory" || event.Keys[1] != "product:blue-shirt" {
			t.Errorf("unexpected keys: %v", event.Keys)
		}
		return nil
	})

	event := NewViewInvalidatedEvent("node-1", []string{"inventory", "product:blue-shirt"})
	if err := producer.PublishEvent(TopicViewInvalidations, "inventory", event); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestProducer_PublishEvent_Error(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)
	producer := newProducer(mockProducer)

	mockProducer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	event := NewOrderEvent(EventTypeOrderCreated, "order-123", "Processing")
	if err := producer.PublishEvent(TopicOrderEvents, "order-123", event); err == nil {
		t.Fatal("expected error, got nil")
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestProducer_MarshalError(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)
	producer := newProducer(mockProducer)

	if err := producer.PublishEvent(TopicOrderEvents, "k", make(chan int)); err == nil {
		t.Fatal("expected marshal error")
	}
	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestProducer_NilGuards(t *testing.T) {
	var producer *Producer
	if err := producer.PublishEvent(TopicOrderEvents, "k", struct{}{}); err == nil {
		t.Fatal("expected error for nil producer")
	}
	if err := producer.Close(); err != nil {
		t.Fatalf("close nil producer should not fail: %v", err)
	}
}

func TestNewViewInvalidatedEvent(t *testing.T) {
	keys := []string{"homepage"}
	event := NewViewInvalidatedEvent("node-7", keys)
	keys[0] = "mutated"

	if event.EventType != EventTypeViewInvalidated {
		t.Errorf("expected event type %s, got %s", EventTypeViewInvalidated, event.EventType)
	}
	if event.Keys[0] != "homepage" {
		t.Error("event keys must be copied")
	}
	if event.EventID == "" || event.Origin != "node-7" {
		t.Errorf("unexpected event identity: %+v", event)
	}
	if time.Since(event.Timestamp) > time.Second {
		t.Error("timestamp should be close to current time")
	}
}

func TestNewOrderEvent(t *testing.T) {
	event := NewOrderEvent(EventTypeOrderStatusChanged, "order-1", "Shipped")

	if event.EventType != EventTypeOrderStatusChanged {
		t.Errorf("expected event type %s, got %s", EventTypeOrderStatusChanged, event.EventType)
	}
	if event.OrderID != "order-1" || event.Status != "Shipped" {
		t.Errorf("unexpected event: %+v", event)
	}
	if event.Timestamp.IsZero() {
		t.Error("timestamp should not be zero")
	}
}
