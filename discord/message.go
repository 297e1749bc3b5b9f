package discord

import "time"

type Message struct {
	ID        MessageID `json:"id"`
	ChannelID ChannelID `json:"channel_id"`
	GuildID   GuildID   `json:"guild_id,omitempty"`

	Author User `json:"author"`

	Content string `json:"content"`

	Timestamp       Timestamp `json:"timestamp,omitempty"`
	EditedTimestamp Timestamp `json:"edited_timestamp,omitempty"`

	TTS    bool `json:"tts"`
	Pinned bool `json:"pinned"`

	MentionEveryone bool   `json:"mention_everyone"`
	Mentions        []User `json:"mentions"`

	Reactions []Reaction `json:"reactions,omitempty"`

	Type MessageType `json:"type"`
}

// CreatedAt returns a time object representing when the message was created.
func (m Message) CreatedAt() time.Time {
	return m.ID.Time()
}

// URL generates a Discord client URL to the message. If the message doesn't
// have a GuildID, it will generate a URL with the guild "@me".
func (m Message) URL() string {
	var guildID = "@me"
	if m.GuildID.IsValid() {
		guildID = m.GuildID.String()
	}

	return "https://discord.com/channels/" +
		guildID + "/" + m.ChannelID.String() + "/" + m.ID.String()
}

type MessageType uint8

const (
	DefaultMessage MessageType = iota
	RecipientAddMessage
	RecipientRemoveMessage
	CallMessage
	ChannelNameChangeMessage
	ChannelIconChangeMessage
	ChannelPinnedMessage
	GuildMemberJoinMessage
	NitroBoostMessage
	NitroTier1Message
	NitroTier2Message
	NitroTier3Message
	ChannelFollowAddMessage
	_
	GuildDiscoveryDisqualifiedMessage
	GuildDiscoveryRequalifiedMessage
	_
	_
	_
	InlinedReplyMessage
)

type Reaction struct {
	Count int   `json:"count"`
	Me    bool  `json:"me"` // for the current user
	Emoji Emoji `json:"emoji"`
}
