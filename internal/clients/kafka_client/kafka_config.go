package kafka_client

import "os"

type KafkaConfig struct {
	Broker   string
	ClientID string
	Topic    string
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

// GetKafkaConfig reads producer settings from the environment. An empty
// Broker means publishing is disabled.
func GetKafkaConfig() KafkaConfig {
	return KafkaConfig{
		Broker:   getEnv("KAFKA_BROKER", ""),
		ClientID: getEnv("KAFKA_CLIENT_ID", "hinglishflow"),
		Topic:    getEnv("KAFKA_TOPIC_CONVERSIONS", KAFKA_TOPIC_CONVERSIONS),
	}
}
