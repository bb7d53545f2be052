package broker

import (
	"context"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	"device-sync-backend/config"
)

// kgoSource adapts a franz-go consumer-group client to the Source interface.
type kgoSource struct {
	client *kgo.Client
}

// DialSource returns a Connect that joins the configured consumer group. The
// offset reset policy is earliest, so a fresh deployment replays the full
// device history into its projection. Commits are explicit: a record is only
// committed after the handler has applied it.
func DialSource(cfg *config.BrokerConfig) Connect {
	return func(ctx context.Context) (Source, error) {
		client, err := kgo.NewClient(
			kgo.SeedBrokers(cfg.Seeds...),
			kgo.ConsumerGroup(cfg.ConsumerGroup),
			kgo.ConsumeTopics(cfg.Topic),
			kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
			kgo.DisableAutoCommit(),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create consumer client: %w", err)
		}
		if err := client.Ping(ctx); err != nil {
			client.Close()
			return nil, fmt.Errorf("broker unreachable: %w", err)
		}
		return &kgoSource{client: client}, nil
	}
}

func (s *kgoSource) Poll(ctx context.Context) ([]Record, error) {
	fetches := s.client.PollFetches(ctx)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if errs := fetches.Errors(); len(errs) > 0 {
		first := errs[0]
		return nil, fmt.Errorf("fetch from %s partition %d: %w", first.Topic, first.Partition, first.Err)
	}

	var recs []Record
	fetches.EachRecord(func(r *kgo.Record) {
		recs = append(recs, Record{
			Topic:       r.Topic,
			Partition:   r.Partition,
			Offset:      r.Offset,
			LeaderEpoch: r.LeaderEpoch,
			Key:         r.Key,
			Value:       r.Value,
		})
	})
	return recs, nil
}

func (s *kgoSource) Commit(ctx context.Context, rec Record) error {
	return s.client.CommitRecords(ctx, &kgo.Record{
		Topic:       rec.Topic,
		Partition:   rec.Partition,
		Offset:      rec.Offset,
		LeaderEpoch: rec.LeaderEpoch,
	})
}

func (s *kgoSource) Close() {
	s.client.Close()
}
