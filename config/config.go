package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	NotationBackendMemory   = "memory"
	NotationBackendDynamoDB = "dynamodb"
	NotationBackendPostgres = "postgres"

	TranslatorBackendOpenAI         = "openai"
	TranslatorBackendLibreTranslate = "libretranslate"
	TranslatorBackendNone           = "none"

	NotationCacheValkey = "valkey"
	NotationCacheNone   = "none"
)

// DefaultMaxUploadBytes caps the whole form submission, file included.
const DefaultMaxUploadBytes = 16 << 20

type AppConfig struct {
	Env        string
	ListenAddr string
	LogLevel   slog.Level

	NotationBackend  string
	NotationFile     string
	NotationTable    string
	DatabaseURL      string
	NotationCache    string
	NotationCacheTTL time.Duration

	TranslatorBackend string
	OpenAIModel       string
	LibreTranslateURL string
	TranslatorTimeout time.Duration
	IdiomTimeout      time.Duration

	DictionaryPath string
	IdiomFile      string

	MaxUploadBytes int64
	StripMarkdown  bool
	AllowedOrigins []string

	KafkaBroker          string
	KafkaConversionTopic string
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		slog.Warn("[Config] Invalid duration, using default",
			slog.String("key", key),
			slog.String("value", raw),
			slog.Duration("default", defaultValue))
		return defaultValue
	}
	return d
}

func getBool(key string, defaultValue bool) bool {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return defaultValue
	}
	return b
}

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(raw) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Load reads the application configuration from the environment. LoadEnv
// should run first so .env values are visible here.
func Load() (AppConfig, error) {
	cfg := AppConfig{
		Env:        getEnv("APP_ENV", "dev"),
		ListenAddr: getEnv("LISTEN_ADDR", ":8080"),
		LogLevel:   parseLevel(getEnv("LOG_LEVEL", "info")),

		NotationBackend:  strings.ToLower(getEnv("NOTATION_BACKEND", NotationBackendMemory)),
		NotationFile:     getEnv("NOTATION_FILE", "data/notations.yaml"),
		NotationTable:    getEnv("NOTATION_TABLE", "Notations"),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		NotationCache:    strings.ToLower(getEnv("NOTATION_CACHE", NotationCacheNone)),
		NotationCacheTTL: getDuration("NOTATION_CACHE_TTL", time.Hour),

		TranslatorBackend: strings.ToLower(getEnv("TRANSLATOR_BACKEND", TranslatorBackendNone)),
		OpenAIModel:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		LibreTranslateURL: getEnv("LIBRETRANSLATE_URL", "http://localhost:5000"),
		TranslatorTimeout: getDuration("TRANSLATOR_TIMEOUT", 10*time.Second),
		IdiomTimeout:      getDuration("IDIOM_TIMEOUT", 2*time.Second),

		DictionaryPath: getEnv("DICTIONARY_PATH", ""),
		IdiomFile:      getEnv("IDIOM_FILE", ""),

		StripMarkdown: getBool("STRIP_MARKDOWN", false),

		KafkaBroker:          getEnv("KAFKA_BROKER", ""),
		KafkaConversionTopic: getEnv("KAFKA_TOPIC_CONVERSIONS", "conversion-events"),
	}

	maxUpload := getEnv("MAX_UPLOAD_BYTES", "")
	cfg.MaxUploadBytes = DefaultMaxUploadBytes
	if maxUpload != "" {
		n, err := strconv.ParseInt(maxUpload, 10, 64)
		if err != nil || n <= 0 {
			return cfg, fmt.Errorf("[Config] MAX_UPLOAD_BYTES must be a positive integer, got %q", maxUpload)
		}
		cfg.MaxUploadBytes = n
	}

	for _, origin := range strings.Split(getEnv("CORS_ALLOWED_ORIGINS", ""), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
		}
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c AppConfig) Validate() error {
	switch c.NotationBackend {
	case NotationBackendMemory, NotationBackendDynamoDB:
	case NotationBackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("[Config] DATABASE_URL is required for the postgres notation backend")
		}
	default:
		return fmt.Errorf("[Config] unknown NOTATION_BACKEND %q", c.NotationBackend)
	}

	switch c.NotationCache {
	case NotationCacheValkey, NotationCacheNone:
	default:
		return fmt.Errorf("[Config] unknown NOTATION_CACHE %q", c.NotationCache)
	}

	switch c.TranslatorBackend {
	case TranslatorBackendOpenAI, TranslatorBackendLibreTranslate, TranslatorBackendNone:
	default:
		return fmt.Errorf("[Config] unknown TRANSLATOR_BACKEND %q", c.TranslatorBackend)
	}

	if c.TranslatorTimeout <= 0 || c.IdiomTimeout <= 0 {
		return fmt.Errorf("[Config] TRANSLATOR_TIMEOUT and IDIOM_TIMEOUT must be positive")
	}
	return nil
}
