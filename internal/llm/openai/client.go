package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joseph-ayodele/product-extractor/internal/llm"
)

// ErrNoAPIKey is returned before any request when no key is configured.
var ErrNoAPIKey = errors.New("openai: api key not configured")

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// ExtractEntities implements llm.EntityExtractor over /chat/completions with
// a JSON object response format.
func (c *Client) ExtractEntities(ctx context.Context, req llm.EntityRequest) (map[string][]string, []byte, error) {
	if c.cfg.APIKey == "" {
		return nil, nil, ErrNoAPIKey
	}
	model := c.cfg.Model
	if req.Model != "" {
		model = req.Model
	}
	start := time.Now()

	c.logger.Info("llm.entities.start",
		"model", model,
		"file", req.Filename,
		"text_len", len(req.Text),
		"labels", len(req.Labels),
	)

	schema := llm.BuildEntityJSONSchema(req.Labels)
	body := map[string]any{
		"model":           model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": llm.BuildSystemPrompt(req.Labels)},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(schema)},
			{"role": "user", "content": llm.BuildUserPrompt(req.Text, req.Filename)},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	reply, err := llm.PostJSON(ctx, c.http, endpoint, body, map[string]string{
		"Authorization": "Bearer " + c.cfg.APIKey,
	}, c.logger)
	if err != nil {
		c.logger.Error("llm.entities.http_error", "req_id", reply.RequestID, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return nil, reply.Body, fmt.Errorf("openai: %w", err)
	}

	var cc chatResponse
	if err := json.Unmarshal(reply.Body, &cc); err != nil {
		return nil, reply.Body, fmt.Errorf("decode openai response: %w", err)
	}
	if len(cc.Choices) == 0 {
		return nil, reply.Body, fmt.Errorf("no choices in openai response")
	}
	content := []byte(strings.TrimSpace(cc.Choices[0].Message.Content))

	if err := llm.ValidateJSONAgainstSchema(schema, content); err != nil {
		if c.cfg.Strict {
			c.logger.Error("llm.entities.schema_validation_failed", "req_id", reply.RequestID, "error", err)
			return nil, content, fmt.Errorf("schema validation failed: %w", err)
		}
		cleaned, dropped, sErr := llm.SanitizeEntities(content, req.Labels, c.logger)
		if sErr != nil {
			return nil, content, fmt.Errorf("sanitize failed: %w", sErr)
		}
		if vErr := llm.ValidateJSONAgainstSchema(schema, cleaned); vErr != nil {
			c.logger.Error("llm.entities.schema_validation_failed", "req_id", reply.RequestID, "error", vErr)
			return nil, cleaned, fmt.Errorf("schema validation failed: %w", vErr)
		}
		c.logger.Warn("llm.entities.lenient_sanitize_applied", "req_id", reply.RequestID, "dropped", dropped)
		content = cleaned
	}

	var out struct {
		Entities map[string][]string `json:"entities"`
	}
	if err := json.Unmarshal(content, &out); err != nil {
		return nil, content, fmt.Errorf("unmarshal entities: %w", err)
	}

	c.logger.Info("llm.entities.ok",
		"req_id", reply.RequestID,
		"labels", len(out.Entities),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out.Entities, content, nil
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
