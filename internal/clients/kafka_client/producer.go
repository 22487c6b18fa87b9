package kafka_client

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
)

// Record is a keyed payload ready to be produced.
type Record struct {
	Key   []byte
	Value []byte
}

type Producer struct {
	producer *kafka.Producer
	events   sync.WaitGroup
	closed   sync.Once
}

func NewProducer(cfg KafkaConfig) (*Producer, error) {
	return newProducer(&kafka.ConfigMap{
		"bootstrap.servers":            cfg.Broker,
		"client.id":                    cfg.ClientID,
		"security.protocol":            "PLAINTEXT",
		"api.version.request":          "true",
		"enable.idempotence":           true,
		"acks":                         "all",
		"queue.buffering.max.messages": QUEUE_BUFFERED,
	})
}

func newProducer(configMap *kafka.ConfigMap) (*Producer, error) {
	slog.Info("[KafkaClient] Initializing Kafka Producer...")

	p, err := kafka.NewProducer(configMap)
	if err != nil {
		return nil, fmt.Errorf("[KafkaClient] Failed to create producer: %w", err)
	}

	out := &Producer{producer: p}
	out.events.Add(1)
	go out.watchDeliveries()

	slog.Info("[KafkaClient] Kafka Producer initialized successfully")
	return out, nil
}

// watchDeliveries drains the events channel so delivery reports never block
// the producer. It exits when the producer is closed.
func (p *Producer) watchDeliveries() {
	defer p.events.Done()
	for ev := range p.producer.Events() {
		switch e := ev.(type) {
		case *kafka.Message:
			if e.TopicPartition.Error != nil {
				slog.Warn("[KafkaClient] Delivery failed",
					slog.String("topic", topicName(e)),
					slog.String("error", e.TopicPartition.Error.Error()))
			}
		case kafka.Error:
			slog.Warn("[KafkaClient] Producer error",
				slog.String("code", e.Code().String()),
				slog.String("error", e.Error()))
		}
	}
}

// Publish enqueues every record on topic. A full local queue is retried
// after a short wait; any other error stops the batch.
func (p *Producer) Publish(topic string, records []Record) error {
	for i, rec := range records {
		msg := &kafka.Message{
			TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
			Key:            rec.Key,
			Value:          rec.Value,
		}

		var err error
		for attempt := 0; attempt < MAX_RETRIES; attempt++ {
			err = p.producer.Produce(msg, nil)
			if err == nil || !isQueueFull(err) {
				break
			}
			slog.Warn("[KafkaClient] Producer queue full, retrying...",
				slog.Int("attempt", attempt+1))
			p.producer.Flush(int(RETRY_DELAY / time.Millisecond))
		}
		if err != nil {
			return fmt.Errorf("[KafkaClient] failed to produce record %d of %d: %w", i+1, len(records), err)
		}
	}
	return nil
}

func (p *Producer) Close() {
	p.closed.Do(func() {
		slog.Info("[KafkaClient] Flushing Kafka producer before shutdown...")
		if remaining := p.producer.Flush(int(FLUSH_TIMEOUT / time.Millisecond)); remaining > 0 {
			slog.Warn("[KafkaClient] Not all messages were delivered before shutdown",
				slog.Int("remaining", remaining))
		}
		p.producer.Close()
		p.events.Wait()
		slog.Info("[KafkaClient] Kafka producer shut down")
	})
}

func isQueueFull(err error) bool {
	var kerr kafka.Error
	return errors.As(err, &kerr) && kerr.Code() == kafka.ErrQueueFull
}

func topicName(m *kafka.Message) string {
	if m.TopicPartition.Topic == nil {
		return ""
	}
	return *m.TopicPartition.Topic
}
