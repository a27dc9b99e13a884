package discord

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// maxMessageLen is Discord's per-message content limit.
const maxMessageLen = 2000

// Notifier posts alerts to one Discord channel through a bot session.
type Notifier struct {
	ChannelID string
	send      func(channelID, content string) error
}

// NewNotifier creates a bot session for token. The session is only used
// for REST calls, so no gateway connection is opened.
func NewNotifier(token, channelID string) (*Notifier, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	return &Notifier{
		ChannelID: channelID,
		send: func(ch, content string) error {
			_, err := s.ChannelMessageSend(ch, content)
			return err
		},
	}, nil
}

// Notify implements notifications.Sink.
func (n *Notifier) Notify(title, message string) error {
	if err := n.send(n.ChannelID, FormatMessage(title, message)); err != nil {
		return fmt.Errorf("discord send: %w", err)
	}
	return nil
}

// FormatMessage renders an alert for Discord, trimmed to the message limit.
func FormatMessage(title, message string) string {
	var sb strings.Builder
	sb.WriteString("🚨 **")
	sb.WriteString(title)
	sb.WriteString("**\n")
	if message != "" {
		sb.WriteString("```\n")
		sb.WriteString(strings.TrimRight(message, "\n"))
		sb.WriteString("\n```")
	}

	out := sb.String()
	if len(out) <= maxMessageLen {
		return out
	}
	const tail = "\n…```"
	cut := maxMessageLen - len(tail)
	// keep the cut on a rune boundary
	for cut > 0 && !utf8Start(out[cut]) {
		cut--
	}
	return out[:cut] + tail
}

func utf8Start(b byte) bool { return b&0xC0 != 0x80 }
