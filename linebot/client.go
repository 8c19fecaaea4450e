// Package linebot is a minimal client for the chat platform's reply API.
// Delivery is fire-and-forget: callers log failures, never retry, and
// never roll back conversation state on a failed send.
package linebot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/nonthapat/dosebot-api/interfaces"
)

// DefaultEndpoint is the production reply endpoint.
const DefaultEndpoint = "https://api.line.me/v2/bot/message/reply"

// A reply call can carry at most five messages.
const maxMessagesPerReply = 5

// Compile-time check to ensure Client implements ReplySender
var _ interfaces.ReplySender = (*Client)(nil)

// Client posts reply messages with channel-token auth.
type Client struct {
	endpoint    string
	accessToken string
	httpClient  *http.Client
}

// NewClient creates a reply client for the given channel access token.
func NewClient(accessToken string) *Client {
	return &Client{
		endpoint:    DefaultEndpoint,
		accessToken: accessToken,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

// NewClientWithEndpoint creates a client against a custom endpoint, used
// by tests.
func NewClientWithEndpoint(accessToken, endpoint string) *Client {
	c := NewClient(accessToken)
	c.endpoint = endpoint
	return c
}

type textMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type replyRequest struct {
	ReplyToken string        `json:"replyToken"`
	Messages   []textMessage `json:"messages"`
}

// Reply sends up to five text messages against a reply token. Each call
// carries a fresh idempotency key so the platform can dedupe retried
// deliveries on its side.
func (c *Client) Reply(ctx context.Context, replyToken string, messages []string) error {
	if len(messages) == 0 {
		return nil
	}
	if len(messages) > maxMessagesPerReply {
		messages = messages[:maxMessagesPerReply]
	}

	req := replyRequest{ReplyToken: replyToken}
	for _, m := range messages {
		req.Messages = append(req.Messages, textMessage{Type: "text", Text: m})
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to encode reply: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build reply request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.accessToken)
	httpReq.Header.Set("X-Line-Retry-Key", uuid.NewString())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("reply request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("reply rejected with status %d: %s", resp.StatusCode, string(detail))
	}
	return nil
}
