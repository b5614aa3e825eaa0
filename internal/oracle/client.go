package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// ClientConfig configures the HTTP oracle client. The endpoint is any
// OpenAI-compatible chat-completions API.
type ClientConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration

	MaxIdleConns        int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration
}

// Client calls a chat-completions endpoint with forced JSON output.
// One request per Generate call; no internal retries.
type Client struct {
	cfg    ClientConfig
	client *http.Client
	log    *slog.Logger
}

func NewClient(cfg ClientConfig, log *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = 10
	}
	if cfg.MaxIdleConnsPerHost == 0 {
		cfg.MaxIdleConnsPerHost = 5
	}
	if cfg.IdleConnTimeout == 0 {
		cfg.IdleConnTimeout = 90 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	transport := &http.Transport{
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
		ForceAttemptHTTP2:   true,
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Transport: transport, Timeout: cfg.Timeout},
		log:    log,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
	Temperature float64 `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Generate sends the segments as chat messages and returns the content of
// the first choice as a raw JSON object.
func (c *Client) Generate(ctx context.Context, segments []Segment) (json.RawMessage, error) {
	req := chatRequest{Model: c.cfg.Model}
	req.ResponseFormat.Type = "json_object"
	for _, s := range segments {
		req.Messages = append(req.Messages, chatMessage{Role: string(s.Role), Content: s.Content})
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, &TransportError{Message: err.Error()}
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	url := strings.TrimSuffix(c.cfg.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{Message: err.Error()}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	c.log.Debug("oracle request", "model", c.cfg.Model, "segments", len(segments))
	started := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			c.log.Warn("oracle timeout", "timeout", c.cfg.Timeout)
			return nil, &TimeoutError{Timeout: c.cfg.Timeout}
		}
		return nil, &TransportError{Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Message: err.Error()}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Warn("oracle non-2xx", "status", resp.StatusCode)
		return nil, &TransportError{StatusCode: resp.StatusCode, Message: string(raw)}
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &ParseError{RawResponse: string(raw), Cause: err}
	}
	if parsed.Error != nil {
		return nil, &TransportError{StatusCode: resp.StatusCode, Message: parsed.Error.Message}
	}
	if len(parsed.Choices) == 0 {
		return nil, &ParseError{RawResponse: string(raw), Cause: errors.New("no choices in response")}
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)
	if !json.Valid([]byte(content)) {
		return nil, &ParseError{RawResponse: content, Cause: errors.New("content is not a JSON object")}
	}
	c.log.Debug("oracle response", "latency", time.Since(started), "bytes", len(content))
	return json.RawMessage(content), nil
}
