// Package state provides an in-memory cache of the Discord state that is
// kept consistent with the gateway event stream. Lookups that miss the cache
// fall back to the REST API and backfill the store.
package state

import (
	"github.com/Rapptz/discord.py-sub002/discord"
	"github.com/Rapptz/discord.py-sub002/gateway"
	"github.com/Rapptz/discord.py-sub002/handler"
	"github.com/Rapptz/discord.py-sub002/internal/moreatomic"
	"github.com/Rapptz/discord.py-sub002/session"
)

type State struct {
	*session.Session
	Store

	// Ready is a copy of the last Ready event. It is updated by the state's
	// event hook and must only be read from event handlers.
	Ready gateway.ReadyEvent

	// StateLog logs errors from applying events to the store. Defaults to
	// noop.
	StateLog func(error)

	// PreHandler is the manual hook that is executed before the State
	// handler is. This should only be used for low-level operations. It's
	// recommended to set Synchronous to true if you mutate the events.
	PreHandler *handler.Handler // default nil

	// Handler is the user-facing handler. Events are dispatched here only
	// after the store has applied them, so lookups from inside a handler see
	// the post-event state.
	*handler.Handler

	unreadyGuilds     *moreatomic.GuildIDSet
	unavailableGuilds *moreatomic.GuildIDSet

	unhooker func()
}

// New creates a new state with the default in-memory store.
func New(token string) (*State, error) {
	return NewWithStore(token, NewDefaultStore(nil))
}

// NewWithIntents creates a new state with the given gateway intents.
func NewWithIntents(token string, intents ...gateway.Intents) (*State, error) {
	s, err := session.NewWithIntents(token, intents...)
	if err != nil {
		return nil, err
	}

	return NewFromSession(s, NewDefaultStore(nil))
}

func NewWithStore(token string, store Store) (*State, error) {
	s, err := session.New(token)
	if err != nil {
		return nil, err
	}

	return NewFromSession(s, store)
}

// NewFromSession wraps the given session. The session's own handler becomes
// internal to the state; use the state's handler instead.
func NewFromSession(s *session.Session, store Store) (*State, error) {
	state := &State{
		Session:  s,
		Store:    store,
		Handler:  handler.New(),
		StateLog: func(error) {},

		unreadyGuilds:     moreatomic.NewGuildIDSet(),
		unavailableGuilds: moreatomic.NewGuildIDSet(),
	}

	// The store must see events in receipt order.
	s.Handler.Synchronous = true

	return state, state.hookSession()
}

// Unhook removes all state handlers from the session handler.
func (s *State) Unhook() {
	s.unhooker()
}

//// Getters with API fallbacks.

func (s *State) Me() (*discord.User, error) {
	u, err := s.Store.Me()
	if err == nil {
		return u, nil
	}

	u, err = s.Session.Me()
	if err != nil {
		return nil, err
	}

	return u, s.Store.MeSet(*u)
}

func (s *State) Channel(id discord.ChannelID) (*discord.Channel, error) {
	c, err := s.Store.Channel(id)
	if err == nil {
		return c, nil
	}

	c, err = s.Session.Channel(id)
	if err != nil {
		return nil, err
	}

	return c, s.Store.ChannelSet(*c)
}

func (s *State) Channels(guildID discord.GuildID) ([]discord.Channel, error) {
	cs, err := s.Store.Channels(guildID)
	if err == nil {
		return cs, nil
	}

	cs, err = s.Session.Channels(guildID)
	if err != nil {
		return nil, err
	}

	for _, c := range cs {
		if err := s.Store.ChannelSet(c); err != nil {
			return nil, err
		}
	}

	return cs, nil
}

func (s *State) Guild(id discord.GuildID) (*discord.Guild, error) {
	g, err := s.Store.Guild(id)
	if err == nil {
		return g, nil
	}

	g, err = s.Session.Guild(id)
	if err != nil {
		return nil, err
	}

	return g, s.Store.GuildSet(*g)
}

// Guilds is cache-only; the gateway streams every guild in on Ready, so a
// miss means the guild doesn't exist for this session.
func (s *State) Guilds() ([]discord.Guild, error) {
	return s.Store.Guilds()
}

func (s *State) Member(
	guildID discord.GuildID, userID discord.UserID) (*discord.Member, error) {

	m, err := s.Store.Member(guildID, userID)
	if err == nil {
		return m, nil
	}

	m, err = s.Session.Member(guildID, userID)
	if err != nil {
		return nil, err
	}

	return m, s.Store.MemberSet(guildID, *m)
}

func (s *State) Members(guildID discord.GuildID) ([]discord.Member, error) {
	ms, err := s.Store.Members(guildID)
	if err == nil {
		return ms, nil
	}

	ms, err = s.Session.Members(guildID, 0, 0)
	if err != nil {
		return nil, err
	}

	for _, m := range ms {
		if err := s.Store.MemberSet(guildID, m); err != nil {
			return nil, err
		}
	}

	return ms, nil
}

func (s *State) Message(
	channelID discord.ChannelID, messageID discord.MessageID) (*discord.Message, error) {

	m, err := s.Store.Message(channelID, messageID)
	if err == nil {
		return m, nil
	}

	m, err = s.Session.Message(channelID, messageID)
	if err != nil {
		return nil, err
	}

	return m, s.Store.MessageSet(*m)
}

// Messages returns the latest messages of a channel, newest first. The
// returned slice holds at most MaxMessages entries.
func (s *State) Messages(channelID discord.ChannelID) ([]discord.Message, error) {
	ms, err := s.Store.Messages(channelID)
	if err == nil {
		return ms, nil
	}

	ms, err = s.Session.Messages(channelID, uint(s.Store.MaxMessages()))
	if err != nil {
		return nil, err
	}

	// The API returns the newest first; feed them through backwards so the
	// store ends up in the same order.
	for i := len(ms) - 1; i >= 0; i-- {
		if err := s.Store.MessageSet(ms[i]); err != nil {
			return nil, err
		}
	}

	return ms, nil
}

// Presence is gateway-only; there is no endpoint to fetch a presence from.
func (s *State) Presence(
	guildID discord.GuildID, userID discord.UserID) (*discord.Presence, error) {

	return s.Store.Presence(guildID, userID)
}

func (s *State) Role(
	guildID discord.GuildID, roleID discord.RoleID) (*discord.Role, error) {

	r, err := s.Store.Role(guildID, roleID)
	if err == nil {
		return r, nil
	}

	roles, err := s.Session.Roles(guildID)
	if err != nil {
		return nil, err
	}

	var role *discord.Role

	for i, r := range roles {
		if r.ID == roleID {
			role = &roles[i]
		}

		// The guild may not be cached yet; the lookup still succeeded.
		if err := s.Store.RoleSet(guildID, r); err != nil {
			s.StateLog(err)
		}
	}

	if role == nil {
		return nil, ErrStoreNotFound
	}

	return role, nil
}

func (s *State) Roles(guildID discord.GuildID) ([]discord.Role, error) {
	rs, err := s.Store.Roles(guildID)
	if err == nil {
		return rs, nil
	}

	rs, err = s.Session.Roles(guildID)
	if err != nil {
		return nil, err
	}

	for _, r := range rs {
		if err := s.Store.RoleSet(guildID, r); err != nil {
			s.StateLog(err)
		}
	}

	return rs, nil
}
