package broker

import (
	"context"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"device-sync-backend/config"
	"device-sync-backend/internal/event"
)

// produceClient is the slice of kgo.Client the publisher needs; tests swap in
// a fake.
type produceClient interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

// Publisher sends encoded lifecycle envelopes to the device topic. It routes
// by Partition(deviceID) and produces synchronously with acks from all
// in-sync replicas, so a nil return means the broker has durably appended the
// record. The publisher does not retry; callers decide that.
type Publisher struct {
	client     produceClient
	topic      string
	partitions int32
	timeout    time.Duration
}

// NewPublisher connects a publisher to the broker described by cfg.
func NewPublisher(cfg *config.BrokerConfig) (*Publisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Seeds...),
		kgo.RecordPartitioner(kgo.ManualPartitioner()),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProduceRequestTimeout(cfg.SendTimeout),
		kgo.RecordDeliveryTimeout(2*cfg.SendTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create broker client: %w", err)
	}
	return &Publisher{
		client:     client,
		topic:      cfg.Topic,
		partitions: cfg.Partitions,
		timeout:    cfg.SendTimeout,
	}, nil
}

// Publish encodes env and sends it keyed by the device id. It blocks until
// the broker acknowledges the append or the send timeout elapses.
func (p *Publisher) Publish(ctx context.Context, env event.Envelope) error {
	value, err := event.Encode(env)
	if err != nil {
		return err
	}

	rec := &kgo.Record{
		Topic:     p.topic,
		Key:       []byte(env.DeviceID.String()),
		Value:     value,
		Partition: Partition(env.DeviceID, p.partitions),
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.client.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return fmt.Errorf("publish %s event for device %s: %w", env.Kind, env.DeviceID, err)
	}
	return nil
}

// Close releases the broker client.
func (p *Publisher) Close() {
	p.client.Close()
}
