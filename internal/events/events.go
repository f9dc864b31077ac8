package events

import (
	"context"
	"encoding/json"
	"time"

	"tailorshop-be/internal/logger"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	TopicOrderCreated       = "order-created"
	TopicOrderStatusUpdated = "order-status-updated"
	TopicOrderReady         = "order-ready"
	TopicDueSettled         = "due-settled"
	TopicPaymentCompleted   = "payment-completed"
)

type Publisher interface {
	Publish(ctx context.Context, topic, key string, payload any) error
	Close() error
}

// Writer is the subset of *kafka.Writer the publisher needs.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	w Writer
}

// NewKafkaWriter builds a writer without a fixed topic so every message
// carries its own. Messages with the same key land on the same partition.
func NewKafkaWriter(brokers []string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
}

func NewKafkaPublisher(w Writer) *KafkaPublisher {
	return &KafkaPublisher{w: w}
}

func messageFor(topic, key string, payload any) (kafka.Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Time:  time.Now().UTC(),
	}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, topic, key string, payload any) error {
	msg, err := messageFor(topic, key, payload)
	if err != nil {
		return err
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		logger.For(ctx, "events", "Publish").Error("failed to write message to kafka",
			zap.String("topic", topic),
			zap.String("key", key),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}

// Nop drops every event. Used when no brokers are configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, string, any) error { return nil }
func (Nop) Close() error { return nil }

// New returns a Kafka publisher, or Nop when brokers is empty.
func New(brokers []string) Publisher {
	if len(brokers) == 0 {
		return Nop{}
	}
	return NewKafkaPublisher(NewKafkaWriter(brokers))
}

// OrderEvent is the payload for every order topic.
type OrderEvent struct {
	OrderID        string    `json:"orderId"`
	OrderNumber    string    `json:"orderNumber"`
	CustomerEmail  string    `json:"customerEmail,omitempty"`
	Status         string    `json:"status,omitempty"`
	ProductionStep string    `json:"productionStep,omitempty"`
	PaymentStatus  string    `json:"paymentStatus,omitempty"`
	Total          string    `json:"total,omitempty"`
	At             time.Time `json:"at"`
}
