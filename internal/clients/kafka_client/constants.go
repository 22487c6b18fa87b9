package kafka_client

import "time"

const (
	KAFKA_TOPIC_CONVERSIONS = "conversion-events" // one record per completed conversion, no user text
)

const (
	BATCH_SIZE     = 50
	BATCH_TIMEOUT  = 5 * time.Second
	MAX_RETRIES    = 5
	RETRY_DELAY    = 2 * time.Second
	FLUSH_TIMEOUT  = 5 * time.Second
	QUEUE_BUFFERED = 10000
)
