package monitoring

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/spacesedan/hinglishflow/internal/observe"
	"github.com/spacesedan/hinglishflow/internal/translate"
)

const HEALTHCHECK_TIMER = 15

const healthCheckTimeout = 5 * time.Second

// MonitorTranslatorHealth probes the translator immediately and then on every
// tick, storing the outcome in healthy until ctx is cancelled.
func MonitorTranslatorHealth(ctx context.Context, translator translate.Translator, healthy *atomic.Bool, metrics *observe.Metrics) {
	monitorTranslatorHealth(ctx, translator, healthy, metrics, time.Second*HEALTHCHECK_TIMER)
}

func monitorTranslatorHealth(ctx context.Context, translator translate.Translator, healthy *atomic.Bool, metrics *observe.Metrics, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	probeTranslator(ctx, translator, healthy, metrics)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			probeTranslator(ctx, translator, healthy, metrics)
		}
	}
}

func probeTranslator(ctx context.Context, translator translate.Translator, healthy *atomic.Bool, metrics *observe.Metrics) {
	probeCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	err := translator.HealthCheck(probeCtx)
	isHealthy := err == nil

	if was := healthy.Swap(isHealthy); was != isHealthy {
		if isHealthy {
			slog.Info("[HealthCheck] Translator recovered", slog.String("backend", translator.Name()))
		} else {
			slog.Warn("[HealthCheck] Translator is unhealthy",
				slog.String("backend", translator.Name()),
				slog.String("error", err.Error()))
		}
	}
	metrics.SetTranslatorHealthy(ctx, translator.Name(), isHealthy)
}
