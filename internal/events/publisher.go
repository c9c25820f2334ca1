// Package events carries customer and order lifecycle notifications to an
// external stream. Delivery is best-effort, at-most-once: failures are
// logged and never surfaced to the request path.
package events

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/segmentio/kafka-go"

	"bookstore/internal/logger"
)

const (
	TopicCustomer = "customer_topic"
	TopicOrders   = "order_topic"
)

// Payload is a flat key-value record. Amounts go in as decimal strings,
// timestamps as ISO-8601.
type Payload map[string]string

// Publisher is the event-stream capability handed to services at
// construction time. Publish must not block the caller on broker I/O.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload Payload)
	Close() error
}

// KafkaPublisher writes JSON-encoded payloads through async writers, one
// per topic. WriteMessages returns as soon as the message is enqueued;
// delivery errors surface in the completion callback and are only logged.
type KafkaPublisher struct {
	mu      sync.Mutex
	brokers []string
	writers map[string]*kafka.Writer
}

func NewKafkaPublisher(brokers []string) *KafkaPublisher {
	return &KafkaPublisher{
		brokers: brokers,
		writers: make(map[string]*kafka.Writer),
	}
}

func (p *KafkaPublisher) writer(topic string) *kafka.Writer {
	p.mu.Lock()
	defer p.mu.Unlock()
	if w, ok := p.writers[topic]; ok {
		return w
	}
	w := &kafka.Writer{
		Addr:     kafka.TCP(p.brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
		Async:    true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Log.Warnw("event delivery failed", "topic", topic, "error", err)
			}
		},
	}
	p.writers[topic] = w
	return w
}

func (p *KafkaPublisher) Publish(ctx context.Context, topic string, payload Payload) {
	body, err := json.Marshal(payload)
	if err != nil {
		logger.Log.Warnw("event encode failed", "topic", topic, "error", err)
		return
	}
	if err := p.writer(topic).WriteMessages(ctx, kafka.Message{Value: body}); err != nil {
		logger.Log.Warnw("event enqueue failed", "topic", topic, "error", err)
	}
}

func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var first error
	for _, w := range p.writers {
		if err := w.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// NopPublisher drops everything. Used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, topic string, payload Payload) {}
func (NopPublisher) Close() error                                               { return nil }

// Event is a published record captured by the Recorder.
type Event struct {
	Topic   string
	Payload Payload
}

// Recorder collects events in memory for assertions in tests.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Publish(ctx context.Context, topic string, payload Payload) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{Topic: topic, Payload: payload})
}

func (r *Recorder) Close() error { return nil }

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// ByTopic filters recorded events by topic.
func (r *Recorder) ByTopic(topic string) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Topic == topic {
			out = append(out, e)
		}
	}
	return out
}
