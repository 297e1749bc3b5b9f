package state

import (
	"github.com/pkg/errors"

	"github.com/Rapptz/discord.py-sub002/discord"
	"github.com/Rapptz/discord.py-sub002/gateway"
)

func (s *State) hookSession() error {
	s.unhooker = s.Session.AddHandler(func(ev interface{}) {
		if s.PreHandler != nil {
			s.PreHandler.Call(ev)
		}

		// Apply the event to the store before the user can observe it.
		s.onEvent(ev)

		switch ev := ev.(type) {
		case *gateway.ReadyEvent:
			s.handleReady(ev)
		case *gateway.GuildCreateEvent:
			s.handleGuildCreate(ev)
		case *gateway.GuildDeleteEvent:
			s.handleGuildDelete(ev)
		}

		s.Handler.Call(ev)
	})

	return nil
}

func (s *State) handleReady(ev *gateway.ReadyEvent) {
	for i := range ev.Guilds {
		g := &ev.Guilds[i]

		// Store the unavailable guilds, so we know to dispatch a belated
		// GuildReadyEvent when they come online.
		if g.Unavailable {
			s.unreadyGuilds.Add(g.ID)
		} else {
			s.Handler.Call(&GuildReadyEvent{GuildCreateEvent: g})
		}
	}
}

func (s *State) handleGuildCreate(ev *gateway.GuildCreateEvent) {
	switch {
	// The guild was previously declared unavailable, but has come back
	// online.
	case s.unavailableGuilds.Delete(ev.ID):
		s.Handler.Call(&GuildAvailableEvent{GuildCreateEvent: ev})

	// The guild was already unavailable when connecting to the gateway, so
	// we dispatch a belated GuildReadyEvent.
	case s.unreadyGuilds.Delete(ev.ID):
		s.Handler.Call(&GuildReadyEvent{GuildCreateEvent: ev})

	// We don't know this guild, hence we just joined it.
	default:
		s.Handler.Call(&GuildJoinEvent{GuildCreateEvent: ev})
	}
}

func (s *State) handleGuildDelete(ev *gateway.GuildDeleteEvent) {
	// If the guild is just unavailable, remember it so we can dispatch a
	// GuildAvailableEvent once it comes back.
	if ev.Unavailable {
		s.unavailableGuilds.Add(ev.ID)

		s.Handler.Call(&GuildUnavailableEvent{GuildDeleteEvent: ev})
		return
	}

	// It might have been unavailable before we left.
	s.unavailableGuilds.Delete(ev.ID)

	s.Handler.Call(&GuildLeaveEvent{GuildDeleteEvent: ev})
}

func (s *State) onEvent(iface interface{}) {
	switch ev := iface.(type) {
	case *gateway.ReadyEvent:
		// A Ready starts the session over; the old cache is stale.
		if err := s.Store.Reset(); err != nil {
			s.stateErr(err, "failed to reset state on Ready")
		}

		s.Ready = *ev

		if err := s.Store.MeSet(ev.User); err != nil {
			s.stateErr(err, "failed to set self in state")
		}

		for i := range ev.Guilds {
			s.batchLog(storeGuildCreate(s.Store, &ev.Guilds[i])...)
		}

	case *gateway.GuildCreateEvent:
		s.batchLog(storeGuildCreate(s.Store, ev)...)

	case *gateway.GuildUpdateEvent:
		old, _ := s.Store.Guild(ev.ID)

		if err := s.Store.GuildSet(ev.Guild); err != nil {
			s.stateErr(err, "failed to update guild in state")
		}

		s.Handler.Call(&GuildUpdatedEvent{GuildUpdateEvent: ev, Old: old})

	case *gateway.GuildDeleteEvent:
		if err := s.Store.GuildRemove(ev.ID); err != nil && !ev.Unavailable {
			s.stateErr(err, "failed to delete guild in state")
		}

	case *gateway.GuildMemberAddEvent:
		if err := s.Store.MemberSet(ev.GuildID, ev.Member); err != nil {
			s.stateErr(err, "failed to add a member in state")
		}

	case *gateway.GuildMemberUpdateEvent:
		old, _ := s.Store.Member(ev.GuildID, ev.User.ID)

		var m discord.Member
		if old != nil {
			m = *old
		}

		// Update available fields from ev into m
		ev.UpdateMember(&m)

		if err := s.Store.MemberSet(ev.GuildID, m); err != nil {
			s.stateErr(err, "failed to update a member in state")
		}

		s.Handler.Call(&MemberUpdatedEvent{GuildMemberUpdateEvent: ev, Old: old})

	case *gateway.GuildMemberRemoveEvent:
		if err := s.Store.MemberRemove(ev.GuildID, ev.User.ID); err != nil {
			s.stateErr(err, "failed to remove a member in state")
		}

	case *gateway.GuildMembersChunkEvent:
		for _, m := range ev.Members {
			if err := s.Store.MemberSet(ev.GuildID, m); err != nil {
				s.stateErr(err, "failed to add a member from chunk in state")
			}
		}

		for _, p := range ev.Presences {
			if err := s.Store.PresenceSet(ev.GuildID, p); err != nil {
				s.stateErr(err, "failed to add a presence from chunk in state")
			}
		}

	case *gateway.GuildRoleCreateEvent:
		if err := s.Store.RoleSet(ev.GuildID, ev.Role); err != nil {
			s.stateErr(err, "failed to add a role in state")
		}

	case *gateway.GuildRoleUpdateEvent:
		if err := s.Store.RoleSet(ev.GuildID, ev.Role); err != nil {
			s.stateErr(err, "failed to update a role in state")
		}

	case *gateway.GuildRoleDeleteEvent:
		if err := s.Store.RoleRemove(ev.GuildID, ev.RoleID); err != nil {
			s.stateErr(err, "failed to remove a role in state")
		}

	case *gateway.GuildEmojisUpdateEvent:
		if err := s.Store.EmojiSet(ev.GuildID, ev.Emojis); err != nil {
			s.stateErr(err, "failed to update emojis in state")
		}

	case *gateway.ChannelCreateEvent:
		if err := s.Store.ChannelSet(ev.Channel); err != nil {
			s.stateErr(err, "failed to create a channel in state")
		}

	case *gateway.ChannelUpdateEvent:
		if err := s.Store.ChannelSet(ev.Channel); err != nil {
			s.stateErr(err, "failed to update a channel in state")
		}

	case *gateway.ChannelDeleteEvent:
		if err := s.Store.ChannelRemove(ev.Channel); err != nil {
			s.stateErr(err, "failed to remove a channel in state")
		}

	case *gateway.ChannelPinsUpdateEvent:
		// not tracked.

	case *gateway.MessageCreateEvent:
		if err := s.Store.MessageSet(ev.Message); err != nil {
			s.stateErr(err, "failed to add a message in state")
		}

	case *gateway.MessageUpdateEvent:
		old, _ := s.Store.Message(ev.ChannelID, ev.ID)

		if err := s.Store.MessageSet(ev.Message); err != nil {
			s.stateErr(err, "failed to update a message in state")
		}

		s.Handler.Call(&MessageUpdatedEvent{MessageUpdateEvent: ev, Old: old})

	case *gateway.MessageDeleteEvent:
		if err := s.Store.MessageRemove(ev.ChannelID, ev.ID); err != nil {
			s.stateErr(err, "failed to delete a message in state")
		}

	case *gateway.MessageDeleteBulkEvent:
		for _, id := range ev.IDs {
			if err := s.Store.MessageRemove(ev.ChannelID, id); err != nil {
				s.stateErr(err, "failed to delete bulk messages in state")
			}
		}

	case *gateway.MessageReactionAddEvent:
		s.editMessage(ev.ChannelID, ev.MessageID, func(m *discord.Message) bool {
			var me bool
			if u, _ := s.Store.Me(); u != nil {
				me = ev.UserID == u.ID
			}

			if i := findReaction(m.Reactions, ev.Emoji); i > -1 {
				m.Reactions[i].Count++
				if me {
					m.Reactions[i].Me = true
				}
			} else {
				m.Reactions = append(m.Reactions, discord.Reaction{
					Count: 1,
					Me:    me,
					Emoji: ev.Emoji,
				})
			}
			return true
		})

	case *gateway.MessageReactionRemoveEvent:
		s.editMessage(ev.ChannelID, ev.MessageID, func(m *discord.Message) bool {
			var i = findReaction(m.Reactions, ev.Emoji)
			if i < 0 {
				return false
			}

			r := &m.Reactions[i]
			r.Count--

			switch {
			case r.Count < 1: // If the count is 0:
				// Remove the reaction.
				m.Reactions = append(m.Reactions[:i], m.Reactions[i+1:]...)

			case r.Me: // If reaction removal is the user's
				u, err := s.Store.Me()
				if err == nil && ev.UserID == u.ID {
					r.Me = false
				}
			}

			return true
		})

	case *gateway.MessageReactionRemoveAllEvent:
		s.editMessage(ev.ChannelID, ev.MessageID, func(m *discord.Message) bool {
			m.Reactions = nil
			return true
		})

	case *gateway.MessageReactionRemoveEmojiEvent:
		s.editMessage(ev.ChannelID, ev.MessageID, func(m *discord.Message) bool {
			var i = findReaction(m.Reactions, ev.Emoji)
			if i < 0 {
				return false
			}
			m.Reactions = append(m.Reactions[:i], m.Reactions[i+1:]...)
			return true
		})

	case *gateway.PresenceUpdateEvent:
		if err := s.Store.PresenceSet(ev.GuildID, ev.Presence); err != nil {
			s.stateErr(err, "failed to update presence in state")
		}

	case *gateway.UserUpdateEvent:
		if err := s.Store.MeSet(ev.User); err != nil {
			s.stateErr(err, "failed to update myself from USER_UPDATE")
		}
	}
}

func (s *State) stateErr(err error, wrap string) {
	s.StateLog(errors.Wrap(err, wrap))
}

func (s *State) batchLog(errors ...error) {
	for _, err := range errors {
		s.StateLog(err)
	}
}

// Helper functions

func (s *State) editMessage(
	ch discord.ChannelID, msg discord.MessageID, fn func(m *discord.Message) bool) {

	m, err := s.Store.Message(ch, msg)
	if err != nil {
		return
	}
	if !fn(m) {
		return
	}
	if err := s.Store.MessageSet(*m); err != nil {
		s.stateErr(err, "failed to save message in reaction event")
	}
}

func findReaction(rs []discord.Reaction, emoji discord.Emoji) int {
	for i := range rs {
		if rs[i].Emoji.ID == emoji.ID && rs[i].Emoji.Name == emoji.Name {
			return i
		}
	}
	return -1
}

func storeGuildCreate(store Store, guild *gateway.GuildCreateEvent) []error {
	if guild.Unavailable {
		return nil
	}

	stack, errs := newErrorStack()

	if err := store.GuildSet(guild.Guild); err != nil {
		errs(err, "failed to set guild in state")
	}

	// Handle guild members
	for _, m := range guild.Members {
		if err := store.MemberSet(guild.ID, m); err != nil {
			errs(err, "failed to set guild member in state")
		}
	}

	// Handle guild channels
	for _, ch := range guild.Channels {
		// I HATE Discord.
		ch.GuildID = guild.ID

		if err := store.ChannelSet(ch); err != nil {
			errs(err, "failed to set guild channel in state")
		}
	}

	// Handle guild presences
	for _, p := range guild.Presences {
		if err := store.PresenceSet(guild.ID, p); err != nil {
			errs(err, "failed to set guild presence in state")
		}
	}

	return *stack
}

func newErrorStack() (*[]error, func(error, string)) {
	var errs = new([]error)
	return errs, func(err error, wrap string) {
		*errs = append(*errs, errors.Wrap(err, wrap))
	}
}
