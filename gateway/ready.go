package gateway

import "github.com/Rapptz/discord.py-sub002/discord"

// ReadyEvent is the first dispatch of a fresh session. Guilds arrive
// unavailable; each becomes available through a later GuildCreate.
type ReadyEvent struct {
	Version int `json:"v"`

	User      discord.User `json:"user"`
	SessionID string       `json:"session_id"`

	Guilds []GuildCreateEvent `json:"guilds"`
	Shard  *Shard             `json:"shard,omitempty"`
}
