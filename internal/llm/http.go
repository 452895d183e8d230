package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// maxResponseBytes bounds how much of a reply is read into memory.
const maxResponseBytes = 4 << 20

// Reply is a raw provider response.
type Reply struct {
	RequestID string
	Status    int
	Body      []byte
}

// PostJSON posts body as JSON to url with the given headers. Non-2xx replies
// are returned together with an error carrying the start of the body.
func PostJSON(ctx context.Context, client *http.Client, url string, body any, headers map[string]string, logger *slog.Logger) (Reply, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if client == nil {
		client = &http.Client{Timeout: 45 * time.Second}
	}
	reply := Reply{RequestID: uuid.NewString()}
	start := time.Now()

	payload, err := json.Marshal(body)
	if err != nil {
		return reply, fmt.Errorf("encode json: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return reply, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", reply.RequestID)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	logger.Debug("llm.http.request", "req_id", reply.RequestID, "url", url, "content_length", len(payload))

	resp, err := client.Do(req)
	if err != nil {
		logger.Error("llm.http.send_error", "req_id", reply.RequestID, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return reply, fmt.Errorf("send: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Warn("llm.http.response_body_close_error", "req_id", reply.RequestID, "error", err)
		}
	}()

	reply.Status = resp.StatusCode
	reply.Body, err = io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return reply, fmt.Errorf("read body: %w", err)
	}

	logger.Info("llm.http.response",
		"req_id", reply.RequestID,
		"status", reply.Status,
		"bytes", len(reply.Body),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		return reply, fmt.Errorf("status %d: %s", resp.StatusCode, snippet(reply.Body, 300))
	}
	return reply, nil
}

func snippet(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
