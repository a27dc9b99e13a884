package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"option_monitor/internal/logger"
)

const defaultBaseURL = "https://api.telegram.org"

// Client talks to the Telegram Bot API for one bot and one chat.
type Client struct {
	token   string
	chatID  string
	baseURL string
	http    *http.Client
}

// NewClient returns a client for the bot token, sending to chatID.
func NewClient(token, chatID string) *Client {
	return &Client{
		token:   token,
		chatID:  chatID,
		baseURL: defaultBaseURL,
		// long polling holds requests for up to a minute
		http: &http.Client{Timeout: 75 * time.Second},
	}
}

func (c *Client) method(name string) string {
	return fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, name)
}

// Notify sends an alert as a Markdown message with a bold title.
func (c *Client) Notify(title, message string) error {
	return c.Send(context.Background(), fmt.Sprintf("*%s*\n\n%s", title, message))
}

// Send posts text to the configured chat.
func (c *Client) Send(ctx context.Context, text string) error {
	payload := map[string]string{
		"chat_id":    c.chatID,
		"text":       text,
		"parse_mode": "Markdown",
	}
	logger.Debugf("Telegram Notify: %s", text)

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.method("sendMessage"), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram send: status %s", resp.Status)
	}
	return nil
}
