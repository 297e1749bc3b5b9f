package api

import (
	"github.com/Rapptz/discord.py-sub002/discord"
	"github.com/Rapptz/discord.py-sub002/utils/httputil"
)

// Guild returns a guild by its ID.
func (c *Client) Guild(guildID discord.GuildID) (*discord.Guild, error) {
	var g *discord.Guild
	return g, c.RequestJSON(&g, "GET", EndpointGuilds+guildID.String())
}

// GuildWithCount is Guild with approximate member and presence counts
// filled.
func (c *Client) GuildWithCount(guildID discord.GuildID) (*discord.Guild, error) {
	var g *discord.Guild
	return g, c.RequestJSON(
		&g, "GET",
		EndpointGuilds+guildID.String()+"?with_counts=true",
	)
}

// LeaveGuild leaves a guild.
func (c *Client) LeaveGuild(guildID discord.GuildID) error {
	return c.FastRequest("DELETE", EndpointMe+"/guilds/"+guildID.String())
}

// Member returns a guild member by their ID.
func (c *Client) Member(guildID discord.GuildID, userID discord.UserID) (*discord.Member, error) {
	var m *discord.Member
	return m, c.RequestJSON(
		&m, "GET",
		EndpointGuilds+guildID.String()+"/members/"+userID.String(),
	)
}

// Members lists up to limit members of a guild, from after the given user
// ID onwards. Limit caps out at 1000; 0 means the server default.
func (c *Client) Members(
	guildID discord.GuildID, limit uint, after discord.UserID) ([]discord.Member, error) {

	var param struct {
		Limit uint              `schema:"limit,omitempty"`
		After discord.Snowflake `schema:"after,omitempty"`
	}

	param.Limit = limit
	param.After = discord.Snowflake(after)

	var members []discord.Member
	return members, c.RequestJSON(
		&members, "GET",
		EndpointGuilds+guildID.String()+"/members",
		httputil.WithSchema(c, param),
	)
}

// Roles lists a guild's roles.
func (c *Client) Roles(guildID discord.GuildID) ([]discord.Role, error) {
	var roles []discord.Role
	return roles, c.RequestJSON(
		&roles, "GET",
		EndpointGuilds+guildID.String()+"/roles",
	)
}

// KickMember removes a member from a guild. The reason, if not empty, shows
// up in the guild's audit log.
func (c *Client) KickMember(
	guildID discord.GuildID, userID discord.UserID, reason AuditLogReason) error {

	return c.FastRequest(
		"DELETE",
		EndpointGuilds+guildID.String()+"/members/"+userID.String(),
		WithAuditLogReason(reason),
	)
}
