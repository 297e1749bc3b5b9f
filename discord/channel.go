package discord

import "time"

type Channel struct {
	ID      ChannelID   `json:"id"`
	GuildID GuildID     `json:"guild_id,omitempty"`
	Type    ChannelType `json:"type"`

	Name  string `json:"name,omitempty"`
	Topic string `json:"topic,omitempty"`

	Position int  `json:"position,omitempty"`
	NSFW     bool `json:"nsfw,omitempty"`

	// DMRecipients are the recipients of a direct message channel.
	DMRecipients []User `json:"recipients,omitempty"`

	LastMessageID    MessageID `json:"last_message_id,omitempty"`
	LastPinTimestamp Timestamp `json:"last_pin_timestamp,omitempty"`

	CategoryID ChannelID `json:"parent_id,omitempty"`
}

// CreatedAt returns a time object representing when the channel was created.
func (ch Channel) CreatedAt() time.Time {
	return ch.ID.Time()
}

// Mention returns a mention of the channel.
func (ch Channel) Mention() string {
	return ch.ID.Mention()
}

type ChannelType uint8

const (
	GuildText ChannelType = iota
	DirectMessage
	GuildVoice
	GroupDM
	GuildCategory
	GuildNews
	GuildStore
)
