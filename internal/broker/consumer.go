package broker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"device-sync-backend/internal/event"
	"device-sync-backend/internal/model"
)

// Record is one event-log record as seen by the consumer loop.
type Record struct {
	Topic       string
	Partition   int32
	Offset      int64
	LeaderEpoch int32
	Key         []byte
	Value       []byte
}

// Source is one subscribed session with the event log. Poll blocks until
// records arrive or ctx is cancelled; records within a partition arrive in
// log order. Commit marks a record processed so it is not redelivered after
// a restart.
type Source interface {
	Poll(ctx context.Context) ([]Record, error)
	Commit(ctx context.Context, rec Record) error
	Close()
}

// Connect opens a fresh Source. The consumer loop owns each Source for one
// connect-to-error lifetime and dials again after recovery.
type Connect func(ctx context.Context) (Source, error)

// Handler applies decoded lifecycle events to local state. Implementations
// must be idempotent: the loop delivers at least once.
type Handler interface {
	ApplyRegistered(ctx context.Context, dev model.Device) error
	ApplyDeleted(ctx context.Context, id uuid.UUID) error
}

// ConsumerLoop subscribes to the device topic and keeps the local projection
// in sync. The outer loop reconnects with a fixed backoff after any
// non-cancellation error from the inner poll loop; cancellation at any point
// is a clean stop, never an error. A failed (re)subscription is returned to
// the caller, which is expected to supervise restarts.
type ConsumerLoop struct {
	connect Connect
	handler Handler
	backoff time.Duration
}

// NewConsumerLoop creates a consumer loop. backoff is the wait between an
// inner-loop error and the next subscription attempt.
func NewConsumerLoop(connect Connect, handler Handler, backoff time.Duration) *ConsumerLoop {
	return &ConsumerLoop{
		connect: connect,
		handler: handler,
		backoff: backoff,
	}
}

// Run drives the loop until ctx is cancelled (returns nil) or a subscription
// attempt fails (returns the error for the supervisor to handle).
func (l *ConsumerLoop) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			log.Println("consumer: shutdown requested before subscribe, stopping")
			return nil
		}

		src, err := l.connect(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("subscribe to device events: %w", err)
		}
		log.Println("consumer: subscribed to device events")

		err = l.poll(ctx, src)
		src.Close()

		if err == nil || ctx.Err() != nil || errors.Is(err, context.Canceled) {
			log.Println("consumer: shutting down")
			return nil
		}

		log.Printf("consumer: %v; resuming in %v", err, l.backoff)
		timer := time.NewTimer(l.backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Println("consumer: shutting down")
			return nil
		case <-timer.C:
		}
	}
}

// poll is the inner loop: pull, decode, dispatch, commit. Any error bubbles
// up to Run, which recovers; the committed offset makes the failed record
// redeliverable.
func (l *ConsumerLoop) poll(ctx context.Context, src Source) error {
	for {
		recs, err := src.Poll(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("poll device events: %w", err)
		}

		for _, rec := range recs {
			if err := l.handle(ctx, rec); err != nil {
				return err
			}
			if err := src.Commit(ctx, rec); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("commit offset %d on partition %d: %w", rec.Offset, rec.Partition, err)
			}
		}
	}
}

func (l *ConsumerLoop) handle(ctx context.Context, rec Record) error {
	env, err := event.Decode(rec.Value)
	if err != nil {
		// Malformed records signal an upstream contract violation; surface it
		// and let redelivery decide whether it was transient.
		return err
	}

	// The message key is the routing identity; it wins over the body.
	deviceID, err := uuid.ParseBytes(rec.Key)
	if err != nil {
		return &event.DecodeError{Reason: fmt.Sprintf("invalid message key %q", rec.Key), Err: err}
	}

	switch env.Kind {
	case event.KindRegistered:
		if env.Details == nil {
			return fmt.Errorf("registered event for device %s carries no details", deviceID)
		}
		dev, err := deviceFromDetails(deviceID, env.Details)
		if err != nil {
			return err
		}
		return l.handler.ApplyRegistered(ctx, dev)
	case event.KindDeleted:
		return l.handler.ApplyDeleted(ctx, deviceID)
	default:
		// Newer producers may emit kinds this consumer does not know yet.
		log.Printf("consumer: skipping unrecognized event kind %q for device %s (partition %d, offset %d)",
			env.Kind, deviceID, rec.Partition, rec.Offset)
		return nil
	}
}

func deviceFromDetails(id uuid.UUID, d *event.RegisteredDetails) (model.Device, error) {
	ownerID, err := uuid.Parse(d.UserID)
	if err != nil {
		return model.Device{}, fmt.Errorf("registered event for device %s: invalid userId %q: %w", id, d.UserID, err)
	}
	homeID, err := uuid.Parse(d.HomeID)
	if err != nil {
		return model.Device{}, fmt.Errorf("registered event for device %s: invalid homeId %q: %w", id, d.HomeID, err)
	}
	return model.Device{
		ID:           id,
		DeviceType:   d.DeviceType,
		Name:         d.Name,
		Model:        d.Model,
		Address:      d.DeviceAddress,
		SerialNumber: d.SerialNumber,
		Status:       d.Status,
		OwnerUserID:  ownerID,
		HomeID:       homeID,
	}, nil
}
