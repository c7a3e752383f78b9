// Package kafka carries the order-placed events that feed the notification
// worker. Producing is best effort from the webhook's point of view; a lost
// event costs an email, never an order.
package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/twmb/franz-go/pkg/kgo"
)

const TopicOrderPlaced = `orders.order-placed`

// Conf wraps a kafka client for producing or consuming.
type Conf struct {
	client *kgo.Client
}

// NewConf builds a producer client and waits for the brokers to answer.
func NewConf(brokers []string) (*Conf, error) {
	client, err := kgo.NewClient(kgo.SeedBrokers(brokers...))
	if err != nil {
		return nil, fmt.Errorf("creating kafka client: %w", err)
	}
	if err := pingBrokers(client); err != nil {
		client.Close()
		return nil, err
	}
	return &Conf{client: client}, nil
}

// NewConsumerConf builds a group consumer for the given topics.
func NewConsumerConf(brokers []string, group string, topics ...string) (*Conf, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ConsumerGroup(group),
		kgo.ConsumeTopics(topics...),
	)
	if err != nil {
		return nil, fmt.Errorf("creating kafka consumer: %w", err)
	}
	if err := pingBrokers(client); err != nil {
		client.Close()
		return nil, err
	}
	return &Conf{client: client}, nil
}

// pingBrokers retries the initial broker ping so the service survives kafka
// coming up after it.
func pingBrokers(client *kgo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	backoff := retry.WithMaxRetries(5, retry.NewExponential(time.Second))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := client.Ping(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("pinging kafka brokers: %w", err)
	}
	return nil
}

// ProduceMessage synchronously publishes one record.
func (c *Conf) ProduceMessage(ctx context.Context, topic string, key, value []byte) error {
	record := &kgo.Record{Topic: topic, Key: key, Value: value}
	if err := c.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("producing to %s: %w", topic, err)
	}
	return nil
}

// Consume polls records until the context is cancelled, invoking fn for each.
func (c *Conf) Consume(ctx context.Context, fn func(key, value []byte)) error {
	for {
		fetches := c.client.PollFetches(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errs := fetches.Errors(); len(errs) > 0 {
			return fmt.Errorf("fetching records: %v", errs[0].Err)
		}
		fetches.EachRecord(func(r *kgo.Record) {
			fn(r.Key, r.Value)
		})
	}
}

func (c *Conf) Close() {
	c.client.Close()
}
