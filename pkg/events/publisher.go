package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/hashicorp-forge/contentsync/pkg/content"
)

// producer is the part of *kgo.Client the publisher uses.
type producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

// Publisher produces item events. The CMS calls it after saving or deleting
// an item.
type Publisher struct {
	client producer
	topic  string
	logger hclog.Logger
}

// PublisherConfig holds configuration for the publisher.
type PublisherConfig struct {
	Brokers []string
	Topic   string
	Logger  hclog.Logger
}

// NewPublisher creates a Publisher connected to the configured brokers.
func NewPublisher(cfg PublisherConfig) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if cfg.Topic == "" {
		cfg.Topic = DefaultTopic
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.RetryBackoffFn(func(tries int) time.Duration {
			backoff := time.Duration(tries) * 100 * time.Millisecond
			if backoff > 2*time.Second {
				backoff = 2 * time.Second
			}
			return backoff
		}),
		kgo.RequestRetries(5),
		kgo.ProducerLinger(5*time.Millisecond),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}
	return newPublisher(client, cfg.Topic, cfg.Logger), nil
}

func newPublisher(client producer, topic string, log hclog.Logger) *Publisher {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Publisher{client: client, topic: topic, logger: log.Named("publisher")}
}

// PublishSaved publishes an item.saved event for item.
func (p *Publisher) PublishSaved(ctx context.Context, item *content.Item) error {
	return p.Publish(ctx, Saved(item))
}

// PublishDeleted publishes an item.deleted event.
func (p *Publisher) PublishDeleted(ctx context.Context, itemID, applicationID int64, typeID string) error {
	return p.Publish(ctx, Deleted(itemID, applicationID, typeID))
}

// Publish validates and produces e, waiting for the broker to acknowledge.
func (p *Publisher) Publish(ctx context.Context, e Event) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("invalid event: %w", err)
	}

	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   e.Key(),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "event_type", Value: []byte(e.EventType)},
		},
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("failed to produce %s for item %d: %w", e.EventType, e.ItemID, err)
	}

	p.logger.Debug("published item event", "event_type", e.EventType, "item_id", e.ItemID)
	return nil
}

// Close flushes and closes the client.
func (p *Publisher) Close() {
	p.client.Close()
}
