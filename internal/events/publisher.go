// Package events batches conversion events and ships them to Kafka.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/spacesedan/hinglishflow/internal/clients/kafka_client"
	"github.com/spacesedan/hinglishflow/internal/models"
	"github.com/spacesedan/hinglishflow/internal/utils"
)

// Sink delivers a batch of records to a topic.
type Sink interface {
	Publish(topic string, records []kafka_client.Record) error
}

type Publisher struct {
	sink      Sink
	topic     string
	buffer    *utils.BatchBuffer[models.ConversionEvent]
	batchSize int
	interval  time.Duration
	flushCh   chan struct{}
}

func NewPublisher(sink Sink, topic string, batchSize int, interval time.Duration) *Publisher {
	if batchSize <= 0 {
		batchSize = kafka_client.BATCH_SIZE
	}
	if interval <= 0 {
		interval = kafka_client.BATCH_TIMEOUT
	}
	return &Publisher{
		sink:      sink,
		topic:     topic,
		buffer:    utils.NewBatchBuffer[models.ConversionEvent](batchSize),
		batchSize: batchSize,
		interval:  interval,
		flushCh:   make(chan struct{}, 1),
	}
}

// Publish buffers ev. It never blocks the caller; a full batch only signals
// the Run loop to flush early. A nil Publisher drops the event.
func (p *Publisher) Publish(ev models.ConversionEvent) {
	if p == nil {
		return
	}
	if ev.EventID == "" {
		ev.EventID = uuid.NewString()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}

	if p.buffer.Add(ev) >= p.batchSize {
		select {
		case p.flushCh <- struct{}{}:
		default:
		}
	}
}

// Run flushes on every tick and whenever a batch fills up. It performs a
// final flush when ctx is cancelled.
func (p *Publisher) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	slog.Info("[EventPublisher] Publishing conversion events",
		slog.String("topic", p.topic),
		slog.Int("batch_size", p.batchSize))

	for {
		select {
		case <-ctx.Done():
			p.flush()
			return nil
		case <-ticker.C:
			p.flush()
		case <-p.flushCh:
			p.flush()
		}
	}
}

func (p *Publisher) flush() {
	batch := p.buffer.GetAndClear()
	if len(batch) == 0 {
		return
	}

	records := make([]kafka_client.Record, 0, len(batch))
	for _, ev := range batch {
		value, err := json.Marshal(ev)
		if err != nil {
			slog.Error("[EventPublisher] Failed to marshal event",
				slog.String("event_id", ev.EventID),
				slog.String("error", err.Error()))
			continue
		}
		records = append(records, kafka_client.Record{Key: []byte(ev.EventID), Value: value})
	}

	if err := p.sink.Publish(p.topic, records); err != nil {
		slog.Warn("[EventPublisher] Failed to publish batch, dropping events",
			slog.Int("batch_size", len(records)),
			slog.String("error", err.Error()))
		return
	}
	slog.Debug("[EventPublisher] Flushed batch", slog.Int("batch_size", len(records)))
}
