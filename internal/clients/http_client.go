package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// JSONClient posts JSON to upstream services, retrying transport errors and
// 5xx responses with exponential backoff.
type JSONClient struct {
	Client         *http.Client
	MaxRetries     int
	InitialBackoff time.Duration
	name           string
}

func NewJSONClient(name string, timeout time.Duration) *JSONClient {
	slog.Info("[JSONClient] Initializing Client",
		slog.String("upstream", name),
		slog.Duration("timeout", timeout))
	return &JSONClient{
		Client:         &http.Client{Timeout: timeout},
		MaxRetries:     MAX_RETRIES,
		InitialBackoff: INITIAL_BACKOFF,
		name:           name,
	}
}

// HTTPStatusError reports a non-2xx response that was not retried away.
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// DoWithRetry builds a fresh request for every attempt so request bodies are
// never reused.
func (h *JSONClient) DoWithRetry(ctx context.Context, newRequest func(context.Context) (*http.Request, error)) (*http.Response, error) {
	var resp *http.Response
	var err error
	backoff := h.InitialBackoff

	attempts := max(h.MaxRetries, 1)
	for attempt := 0; attempt < attempts; attempt++ {
		var req *http.Request
		req, err = newRequest(ctx)
		if err != nil {
			return nil, err
		}

		resp, err = h.Client.Do(req)
		if err == nil && resp.StatusCode < 500 {
			return resp, nil
		}

		slog.Warn("[JSONClient] Request failed, will retry",
			slog.String("upstream", h.name),
			slog.Int("attempt", attempt+1),
			slog.String("error", errMsg(err, resp)))

		if attempt == attempts-1 {
			break
		}
		if resp != nil {
			resp.Body.Close()
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, MAX_BACKOFF)
	}

	return resp, err
}

func (h *JSONClient) PostJSON(ctx context.Context, endpoint string, input any, output any) error {
	body, err := json.Marshal(input)
	if err != nil {
		return fmt.Errorf("failed to marshal input: %w", err)
	}

	resp, err := h.DoWithRetry(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("failed to build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", USER_AGENT)
		return req, nil
	})
	if err != nil {
		slog.Error("[JSONClient] Failed request after retries",
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()))
		return fmt.Errorf("request failed after retries: %w", err)
	}
	defer resp.Body.Close()

	return decodeResponse(endpoint, resp, output)
}

func (h *JSONClient) GetJSON(ctx context.Context, endpoint string, output any) error {
	resp, err := h.DoWithRetry(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build request: %w", err)
		}
		req.Header.Set("User-Agent", USER_AGENT)
		return req, nil
	})
	if err != nil {
		return fmt.Errorf("request failed after retries: %w", err)
	}
	defer resp.Body.Close()

	return decodeResponse(endpoint, resp, output)
}

func decodeResponse(endpoint string, resp *http.Response, output any) error {
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &HTTPStatusError{StatusCode: resp.StatusCode, Body: preview(respBody)}
	}

	if output == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, output); err != nil {
		slog.Error("[JSONClient] Failed to unmarshal response",
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()),
			slog.String("raw_response", preview(respBody)),
			slog.Int("raw_response_length", len(respBody)))
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

func preview(respBody []byte) string {
	raw := string(respBody)
	if len(raw) > 50 {
		raw = raw[:50]
	}
	return raw
}

func errMsg(err error, resp *http.Response) string {
	if err != nil {
		return err.Error()
	}
	if resp != nil {
		return fmt.Sprintf("status code %d", resp.StatusCode)
	}
	return "unknown error"
}
