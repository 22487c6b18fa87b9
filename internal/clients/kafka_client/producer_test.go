package kafka_client

import (
	"testing"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetKafkaConfig(t *testing.T) {
	t.Setenv("KAFKA_BROKER", "")
	t.Setenv("KAFKA_TOPIC_CONVERSIONS", "")

	cfg := GetKafkaConfig()
	assert.Empty(t, cfg.Broker)
	assert.Equal(t, "hinglishflow", cfg.ClientID)
	assert.Equal(t, KAFKA_TOPIC_CONVERSIONS, cfg.Topic)
}

// The mock cluster is built into librdkafka, so no broker is needed.
func TestProducer_PublishToMockCluster(t *testing.T) {
	if testing.Short() {
		t.Skip("starts a librdkafka mock cluster")
	}

	p, err := newProducer(&kafka.ConfigMap{
		"test.mock.num.brokers": 1,
		"client.id":             "hinglishflow-test",
	})
	require.NoError(t, err)
	defer p.Close()

	err = p.Publish("conversion-events", []Record{
		{Key: []byte("a"), Value: []byte(`{"input_method":"keyboard"}`)},
		{Key: []byte("b"), Value: []byte(`{"input_method":"file"}`)},
	})
	require.NoError(t, err)
	assert.Zero(t, p.producer.Flush(5000))
}

func TestIsQueueFull(t *testing.T) {
	assert.True(t, isQueueFull(kafka.NewError(kafka.ErrQueueFull, "queue full", false)))
	assert.False(t, isQueueFull(kafka.NewError(kafka.ErrMsgSizeTooLarge, "too large", false)))
	assert.False(t, isQueueFull(assert.AnError))
}
