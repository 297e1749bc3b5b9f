package api

import "github.com/Rapptz/discord.py-sub002/discord"

// Channels lists a guild's channels.
func (c *Client) Channels(guildID discord.GuildID) ([]discord.Channel, error) {
	var chs []discord.Channel
	return chs, c.RequestJSON(&chs, "GET", EndpointGuilds+guildID.String()+"/channels")
}

// Channel returns a channel by its ID.
func (c *Client) Channel(channelID discord.ChannelID) (*discord.Channel, error) {
	var ch *discord.Channel
	return ch, c.RequestJSON(&ch, "GET", EndpointChannels+channelID.String())
}

// DeleteChannel deletes a channel, or closes it if it's a direct message.
func (c *Client) DeleteChannel(channelID discord.ChannelID, reason AuditLogReason) error {
	return c.FastRequest(
		"DELETE", EndpointChannels+channelID.String(),
		WithAuditLogReason(reason),
	)
}

// Typing posts a typing indicator to the channel. Users typically see it
// for about 10 seconds.
func (c *Client) Typing(channelID discord.ChannelID) error {
	return c.FastRequest("POST", EndpointChannels+channelID.String()+"/typing")
}
