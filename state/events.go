package state

import (
	"github.com/Rapptz/discord.py-sub002/discord"
	"github.com/Rapptz/discord.py-sub002/gateway"
)

// events that originated from GuildCreate:
type (
	// GuildReadyEvent gets fired for every guild the bot is in, as found in
	// the Ready event.
	//
	// Guilds that are unavailable when connecting will not trigger a
	// GuildReadyEvent until they become available again.
	GuildReadyEvent struct {
		*gateway.GuildCreateEvent
	}

	// GuildAvailableEvent gets fired when a guild becomes available again,
	// after being previously declared unavailable through a
	// GuildUnavailableEvent. This event will not be fired for guilds that
	// were already unavailable when connecting to the gateway.
	GuildAvailableEvent struct {
		*gateway.GuildCreateEvent
	}

	// GuildJoinEvent gets fired if the bot joins a guild.
	GuildJoinEvent struct {
		*gateway.GuildCreateEvent
	}
)

// events that originated from GuildDelete:
type (
	// GuildLeaveEvent gets fired if the bot left a guild, was removed or the
	// owner deleted the guild.
	GuildLeaveEvent struct {
		*gateway.GuildDeleteEvent
	}

	// GuildUnavailableEvent gets fired if a guild becomes unavailable.
	GuildUnavailableEvent struct {
		*gateway.GuildDeleteEvent
	}
)

// events that carry the cached copy from before the update was applied:
type (
	// GuildUpdatedEvent is dispatched alongside GuildUpdateEvent. Old is nil
	// if the guild wasn't cached.
	GuildUpdatedEvent struct {
		*gateway.GuildUpdateEvent
		Old *discord.Guild
	}

	// MemberUpdatedEvent is dispatched alongside GuildMemberUpdateEvent. Old
	// is nil if the member wasn't cached.
	MemberUpdatedEvent struct {
		*gateway.GuildMemberUpdateEvent
		Old *discord.Member
	}

	// MessageUpdatedEvent is dispatched alongside MessageUpdateEvent. Old is
	// nil if the message wasn't cached.
	MessageUpdatedEvent struct {
		*gateway.MessageUpdateEvent
		Old *discord.Message
	}
)
