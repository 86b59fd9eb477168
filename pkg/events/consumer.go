package events

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/go-hclog"
	"github.com/twmb/franz-go/pkg/kgo"
)

// DefaultConsumerGroup is the consumer group of sync workers.
const DefaultConsumerGroup = "contentsync-workers"

// Consumer reads item events from Redpanda and hands them to a Handler.
type Consumer struct {
	kafkaClient *kgo.Client
	handler     Handler
	logger      hclog.Logger
	stopCh      chan struct{}
}

// ConsumerConfig holds configuration for the consumer.
type ConsumerConfig struct {
	Brokers       []string
	Topic         string
	ConsumerGroup string

	// ConsumeFromStart reads the topic from the beginning when the group has
	// no committed offsets. New groups start at the end otherwise.
	ConsumeFromStart bool

	Handler Handler
	Logger  hclog.Logger
}

// NewConsumer creates a new item event consumer.
func NewConsumer(cfg ConsumerConfig) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("topic is required")
	}
	if cfg.Handler == nil {
		return nil, fmt.Errorf("event handler is required")
	}
	if cfg.ConsumerGroup == "" {
		cfg.ConsumerGroup = DefaultConsumerGroup
	}
	if cfg.Logger == nil {
		cfg.Logger = hclog.NewNullLogger()
	}

	offset := kgo.NewOffset().AtEnd()
	if cfg.ConsumeFromStart {
		offset = kgo.NewOffset().AtStart()
	}

	kafkaClient, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ConsumerGroup(cfg.ConsumerGroup),
		kgo.ConsumeTopics(cfg.Topic),
		kgo.ConsumeResetOffset(offset),
		kgo.SessionTimeout(10*time.Second),
		kgo.RebalanceTimeout(30*time.Second),
		kgo.DisableAutoCommit(),
		kgo.FetchMaxWait(500*time.Millisecond),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}

	return newConsumer(kafkaClient, cfg.Handler, cfg.Logger), nil
}

func newConsumer(client *kgo.Client, handler Handler, log hclog.Logger) *Consumer {
	return &Consumer{
		kafkaClient: client,
		handler:     handler,
		logger:      log.Named("consumer"),
		stopCh:      make(chan struct{}),
	}
}

// Start polls for events until ctx is done or Stop is called. Offsets are
// committed after an event was handled; failed events are logged and left
// uncommitted.
func (c *Consumer) Start(ctx context.Context) error {
	group, _ := c.kafkaClient.GroupMetadata()
	c.logger.Info("starting item event consumer", "consumer_group", group)

	// Back off between polls while the brokers keep failing.
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 0
	bo.MaxInterval = 30 * time.Second

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("item event consumer stopped by context")
			return ctx.Err()

		case <-c.stopCh:
			c.logger.Info("item event consumer stopped")
			return nil

		default:
			fetches := c.kafkaClient.PollFetches(ctx)
			if fetches.IsClientClosed() {
				return nil
			}
			if errs := fetches.Errors(); len(errs) > 0 {
				for _, err := range errs {
					c.logger.Error("kafka fetch error", "topic", err.Topic, "error", err.Err)
				}
				wait := bo.NextBackOff()
				select {
				case <-ctx.Done():
				case <-c.stopCh:
				case <-time.After(wait):
				}
				continue
			}
			bo.Reset()

			fetches.EachRecord(func(record *kgo.Record) {
				if err := c.processRecord(ctx, record); err != nil {
					c.logger.Error("failed to process record",
						"partition", record.Partition,
						"offset", record.Offset,
						"error", err,
					)
					return
				}

				if err := c.kafkaClient.CommitRecords(ctx, record); err != nil {
					c.logger.Warn("failed to commit kafka offset",
						"partition", record.Partition,
						"offset", record.Offset,
						"error", err,
					)
				}
			})
		}
	}
}

// Stop stops the polling loop and closes the client.
func (c *Consumer) Stop() {
	select {
	case <-c.stopCh:
		return
	default:
		close(c.stopCh)
		c.kafkaClient.Close()
	}
}

func (c *Consumer) processRecord(ctx context.Context, record *kgo.Record) error {
	c.logger.Debug("processing record",
		"partition", record.Partition,
		"offset", record.Offset,
		"key", string(record.Key),
	)

	event, err := Decode(record.Value)
	if err != nil {
		return err
	}

	if err := c.handler.Handle(ctx, event); err != nil {
		return fmt.Errorf("error handling %s for item %d: %w", event.EventType, event.ItemID, err)
	}
	return nil
}
