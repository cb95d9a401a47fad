package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/scrubdub/hewbot/internal/models"
)

// Messenger adapts a Discord session to the scheduling engine's
// transport boundary
type Messenger struct {
	session *discordgo.Session
}

// NewMessenger wraps a Discord session
func NewMessenger(session *discordgo.Session) *Messenger {
	return &Messenger{session: session}
}

// Send posts a message and returns its ID
func (m *Messenger) Send(ctx context.Context, channelID, text string) (string, error) {
	msg, err := m.session.ChannelMessageSend(channelID, text)
	if err != nil {
		return "", fmt.Errorf("failed to send message to channel %s: %w", channelID, err)
	}

	return msg.ID, nil
}

// Update replaces a previously sent message's text
func (m *Messenger) Update(ctx context.Context, ref models.MessageRef, text string) error {
	if _, err := m.session.ChannelMessageEdit(ref.ChannelID, ref.MessageID, text); err != nil {
		return fmt.Errorf("failed to edit message %s: %w", ref.MessageID, err)
	}

	return nil
}
