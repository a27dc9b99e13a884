package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"option_monitor/internal/logger"
)

// Update represents a Telegram Update object (partial schema)
type Update struct {
	UpdateID int `json:"update_id"`
	Message  struct {
		Text string `json:"text"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
		From struct {
			Username string `json:"username"`
		} `json:"from"`
	} `json:"message"`
}

type UpdateResponse struct {
	Ok          bool     `json:"ok"`
	Result      []Update `json:"result"`
	Description string   `json:"description"`
	ErrorCode   int      `json:"error_code"`
}

// CommandHandler turns a slash command into the reply text.
type CommandHandler func(command string) string

// retryDelay is the pause after a failed getUpdates call.
var retryDelay = 5 * time.Second

// Listen long-polls for commands until ctx is cancelled. Only messages
// from the configured chat are handled.
func (c *Client) Listen(ctx context.Context, handler CommandHandler) {
	authChatID, err := strconv.ParseInt(c.chatID, 10, 64)
	if err != nil {
		logger.Errorf("Telegram Listener: invalid chat id %q, disabled", c.chatID)
		return
	}

	offset := 0
	logger.Infof("Telegram Listener: Started")

	for ctx.Err() == nil {
		updates, err := c.getUpdates(ctx, offset, 60)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			logger.Warnf("Telegram Listener Error: %v", err)
			select {
			case <-ctx.Done():
			case <-time.After(retryDelay):
			}
			continue
		}

		for _, update := range updates {
			offset = update.UpdateID + 1

			if update.Message.Chat.ID != authChatID {
				logger.Warnf("UNAUTHORIZED ACCESS ATTEMPT: User %s (ID: %d) tried: %s",
					update.Message.From.Username, update.Message.Chat.ID, update.Message.Text)
				// no reply to strangers
				continue
			}

			text := strings.TrimSpace(update.Message.Text)
			if strings.HasPrefix(text, "/") {
				logger.Infof("Command received: %s", text)
				if err := c.Send(ctx, handler(text)); err != nil {
					logger.Warnf("Telegram reply failed: %v", err)
				}
			}
		}
	}
	logger.Infof("Telegram Listener: Stopped")
}

func (c *Client) getUpdates(ctx context.Context, offset, timeoutSec int) ([]Update, error) {
	url := fmt.Sprintf("%s?offset=%d&timeout=%d", c.method("getUpdates"), offset, timeoutSec)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result UpdateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if !result.Ok {
		return nil, fmt.Errorf("api error: %s (code %d)", result.Description, result.ErrorCode)
	}
	return result.Result, nil
}
