package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	audit "vifm-portal/pkg/platform/audit"
)

// Kafka publishes audit events to a pre-provisioned topic. Delivery is
// asynchronous; a failed produce surfaces through the callback log only,
// matching the portal's rule that audit never blocks domain paths.
type Kafka struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// NewKafka connects to the given seed brokers. Returns nil if no seeds are
// configured (audit falls back to the local store).
func NewKafka(seeds []string, topic string, logger *slog.Logger) (*Kafka, error) {
	if len(seeds) == 0 {
		return nil, nil
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(seeds...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	return &Kafka{client: client, topic: topic, logger: logger}, nil
}

func (k *Kafka) Emit(ctx context.Context, event audit.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	record := &kgo.Record{
		Topic: k.topic,
		Key:   []byte(event.SubjectID),
		Value: payload,
	}
	// Fire-and-forget produce; the per-record callback is the only failure
	// observer.
	k.client.Produce(ctx, record, k.onProduce)
	return nil
}

// onProduce is the per-record promise. A failed produce is logged with the
// event key so the trail gap is visible; it never reaches the caller.
func (k *Kafka) onProduce(record *kgo.Record, err error) {
	if err != nil {
		k.logger.Error("audit event publish failed",
			"topic", record.Topic, "subject_id", string(record.Key), "error", err)
	}
}

// Close flushes outstanding records and releases the client.
func (k *Kafka) Close(ctx context.Context) error {
	if err := k.client.Flush(ctx); err != nil {
		return err
	}
	k.client.Close()
	return nil
}

// StoreBridge adapts a Store into a Publisher so single-node deployments
// without Kafka keep an audit trail.
type StoreBridge struct {
	Store audit.Store
}

func (b StoreBridge) Emit(ctx context.Context, event audit.Event) error {
	return b.Store.Append(ctx, event)
}
