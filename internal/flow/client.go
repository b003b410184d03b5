// Package flow talks to the conversational flow engine. Inbound channel
// text is forwarded to the engine's receive endpoint; the engine answers
// asynchronously through the callback endpoint served by internal/server.
package flow

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"flowbridge/internal/config"
	"flowbridge/internal/transport"
)

// Client forwards inbound messages to the flow engine.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

type ClientConfig struct {
	Config config.FlowConfig
	Logger *slog.Logger
	Client *http.Client
}

func NewClient(cfg ClientConfig) *Client {
	client := cfg.Client
	if client == nil {
		client = transport.NewClient(time.Duration(cfg.Config.TimeoutSeconds) * time.Second)
	}
	return &Client{
		baseURL: cfg.Config.BaseURL,
		client:  client,
		logger:  cfg.Logger,
	}
}

// Forward hands one piece of inbound text to the flow engine, tagged with
// the sender id. The engine treats list-reply ids and free text alike, so
// both arrive through this single call.
func (c *Client) Forward(ctx context.Context, sender, text string) error {
	query := url.Values{}
	query.Set("text", text)
	query.Set("sender", sender)
	endpoint := c.baseURL + "/receive?" + query.Encode()

	resp, err := transport.DoWithRetry(ctx, c.client, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	}, c.logger)
	if err != nil {
		return fmt.Errorf("forward to flow engine: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("flow engine %d: %s", resp.StatusCode, string(body))
	}

	c.logger.Debug("forwarded to flow engine", "sender", sender, "text_len", len(text))
	return nil
}

// CallbackPayload is the message the flow engine posts back to the bridge.
// Text carries the reply; it may be prose or an encoded directive.
type CallbackPayload struct {
	ID         string `json:"id"`
	To         string `json:"to"`
	ToNoPlus   string `json:"to_no_plus"`
	From       string `json:"from"`
	FromNoPlus string `json:"from_no_plus"`
	Channel    string `json:"channel"`
	Text       string `json:"text"`
}
