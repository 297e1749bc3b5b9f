package state

import (
	"sort"
	"sync"

	"github.com/Rapptz/discord.py-sub002/discord"
)

// DefaultStore is the default in-memory store. All of its methods are
// thread-safe, and returned slices are copies.
type DefaultStore struct {
	opts DefaultStoreOptions

	self discord.User

	guilds    map[discord.GuildID]*discord.Guild
	channels  map[discord.GuildID][]discord.Channel
	privates  map[discord.ChannelID]discord.Channel
	members   map[discord.GuildID][]discord.Member
	presences map[discord.GuildID][]discord.Presence
	messages  map[discord.ChannelID][]discord.Message

	mut sync.Mutex
}

type DefaultStoreOptions struct {
	MaxMessages int // default 50
}

var _ Store = (*DefaultStore)(nil)

func NewDefaultStore(opts *DefaultStoreOptions) *DefaultStore {
	if opts == nil {
		opts = &DefaultStoreOptions{
			MaxMessages: 50,
		}
	}

	ds := &DefaultStore{
		opts: *opts,
	}
	ds.Reset()

	return ds
}

func (s *DefaultStore) Reset() error {
	s.mut.Lock()
	defer s.mut.Unlock()

	s.self = discord.User{}

	s.guilds = map[discord.GuildID]*discord.Guild{}
	s.channels = map[discord.GuildID][]discord.Channel{}
	s.privates = map[discord.ChannelID]discord.Channel{}
	s.members = map[discord.GuildID][]discord.Member{}
	s.presences = map[discord.GuildID][]discord.Presence{}
	s.messages = map[discord.ChannelID][]discord.Message{}

	return nil
}

////

func (s *DefaultStore) Me() (*discord.User, error) {
	s.mut.Lock()
	defer s.mut.Unlock()

	if !s.self.ID.IsValid() {
		return nil, ErrStoreNotFound
	}

	self := s.self
	return &self, nil
}

func (s *DefaultStore) MeSet(me discord.User) error {
	s.mut.Lock()
	s.self = me
	s.mut.Unlock()

	return nil
}

////

func (s *DefaultStore) Channel(id discord.ChannelID) (*discord.Channel, error) {
	s.mut.Lock()
	defer s.mut.Unlock()

	if ch, ok := s.privates[id]; ok {
		return &ch, nil
	}

	for _, chs := range s.channels {
		for _, ch := range chs {
			if ch.ID == id {
				ch := ch
				return &ch, nil
			}
		}
	}

	return nil, ErrStoreNotFound
}

func (s *DefaultStore) Channels(guildID discord.GuildID) ([]discord.Channel, error) {
	s.mut.Lock()
	defer s.mut.Unlock()

	chs, ok := s.channels[guildID]
	if !ok {
		return nil, ErrStoreNotFound
	}

	return append([]discord.Channel(nil), chs...), nil
}

func (s *DefaultStore) PrivateChannels() ([]discord.Channel, error) {
	s.mut.Lock()

	var chs = make([]discord.Channel, 0, len(s.privates))
	for _, ch := range s.privates {
		chs = append(chs, ch)
	}

	s.mut.Unlock()

	sort.Slice(chs, func(i, j int) bool {
		// Latest first
		return chs[i].LastMessageID > chs[j].LastMessageID
	})

	return chs, nil
}

func (s *DefaultStore) ChannelSet(channel discord.Channel) error {
	s.mut.Lock()
	defer s.mut.Unlock()

	switch channel.Type {
	case discord.DirectMessage, discord.GroupDM:
		s.privates[channel.ID] = channel

	default:
		chs := s.channels[channel.GuildID]

		for i, ch := range chs {
			if ch.ID == channel.ID {
				// Found, just edit
				chs[i] = channel
				return nil
			}
		}

		s.channels[channel.GuildID] = append(chs, channel)
	}

	return nil
}

func (s *DefaultStore) ChannelRemove(channel discord.Channel) error {
	s.mut.Lock()
	defer s.mut.Unlock()

	if _, ok := s.privates[channel.ID]; ok {
		delete(s.privates, channel.ID)
		return nil
	}

	chs, ok := s.channels[channel.GuildID]
	if !ok {
		return ErrStoreNotFound
	}

	for i, ch := range chs {
		if ch.ID == channel.ID {
			s.channels[channel.GuildID] = append(chs[:i], chs[i+1:]...)
			return nil
		}
	}

	return ErrStoreNotFound
}

////

func (s *DefaultStore) Emoji(
	guildID discord.GuildID, emojiID discord.EmojiID) (*discord.Emoji, error) {

	s.mut.Lock()
	defer s.mut.Unlock()

	gd, ok := s.guilds[guildID]
	if !ok {
		return nil, ErrStoreNotFound
	}

	for _, emoji := range gd.Emojis {
		if emoji.ID == emojiID {
			emoji := emoji
			return &emoji, nil
		}
	}

	return nil, ErrStoreNotFound
}

func (s *DefaultStore) Emojis(guildID discord.GuildID) ([]discord.Emoji, error) {
	s.mut.Lock()
	defer s.mut.Unlock()

	gd, ok := s.guilds[guildID]
	if !ok {
		return nil, ErrStoreNotFound
	}

	return append([]discord.Emoji(nil), gd.Emojis...), nil
}

func (s *DefaultStore) EmojiSet(guildID discord.GuildID, emojis []discord.Emoji) error {
	s.mut.Lock()
	defer s.mut.Unlock()

	gd, ok := s.guilds[guildID]
	if !ok {
		return ErrStoreNotFound
	}

	// The event is the full emoji list; old ones are gone.
	gd.Emojis = append([]discord.Emoji(nil), emojis...)
	return nil
}

////

func (s *DefaultStore) Guild(id discord.GuildID) (*discord.Guild, error) {
	s.mut.Lock()
	defer s.mut.Unlock()

	gd, ok := s.guilds[id]
	if !ok {
		return nil, ErrStoreNotFound
	}

	return copyGuild(gd), nil
}

func (s *DefaultStore) Guilds() ([]discord.Guild, error) {
	s.mut.Lock()

	var gs = make([]discord.Guild, 0, len(s.guilds))
	for _, g := range s.guilds {
		gs = append(gs, *copyGuild(g))
	}

	s.mut.Unlock()

	sort.Slice(gs, func(i, j int) bool {
		return gs[i].ID > gs[j].ID
	})

	return gs, nil
}

func (s *DefaultStore) GuildSet(guild discord.Guild) error {
	s.mut.Lock()
	defer s.mut.Unlock()

	if old, ok := s.guilds[guild.ID]; ok {
		// Empty fields on partial updates keep their old values.
		if guild.Roles == nil {
			guild.Roles = old.Roles
		}
		if guild.Emojis == nil {
			guild.Emojis = old.Emojis
		}
	}

	s.guilds[guild.ID] = &guild
	return nil
}

func (s *DefaultStore) GuildRemove(id discord.GuildID) error {
	s.mut.Lock()
	defer s.mut.Unlock()

	if _, ok := s.guilds[id]; !ok {
		return ErrStoreNotFound
	}

	delete(s.guilds, id)
	delete(s.channels, id)
	delete(s.members, id)
	delete(s.presences, id)

	return nil
}

////

func (s *DefaultStore) Member(
	guildID discord.GuildID, userID discord.UserID) (*discord.Member, error) {

	s.mut.Lock()
	defer s.mut.Unlock()

	for _, m := range s.members[guildID] {
		if m.User.ID == userID {
			m := m
			return &m, nil
		}
	}

	return nil, ErrStoreNotFound
}

func (s *DefaultStore) Members(guildID discord.GuildID) ([]discord.Member, error) {
	s.mut.Lock()
	defer s.mut.Unlock()

	ms, ok := s.members[guildID]
	if !ok {
		return nil, ErrStoreNotFound
	}

	return append([]discord.Member(nil), ms...), nil
}

func (s *DefaultStore) MemberSet(guildID discord.GuildID, member discord.Member) error {
	s.mut.Lock()
	defer s.mut.Unlock()

	ms := s.members[guildID]

	// Try and see if this member is already in the slice
	for i, m := range ms {
		if m.User.ID == member.User.ID {
			// If it is, we simply replace it
			ms[i] = member
			return nil
		}
	}

	s.members[guildID] = append(ms, member)
	return nil
}

func (s *DefaultStore) MemberRemove(guildID discord.GuildID, userID discord.UserID) error {
	s.mut.Lock()
	defer s.mut.Unlock()

	ms, ok := s.members[guildID]
	if !ok {
		return ErrStoreNotFound
	}

	for i, m := range ms {
		if m.User.ID == userID {
			s.members[guildID] = append(ms[:i], ms[i+1:]...)
			return nil
		}
	}

	return ErrStoreNotFound
}

////

func (s *DefaultStore) Message(
	channelID discord.ChannelID, messageID discord.MessageID) (*discord.Message, error) {

	s.mut.Lock()
	defer s.mut.Unlock()

	for _, m := range s.messages[channelID] {
		if m.ID == messageID {
			m := m
			return &m, nil
		}
	}

	return nil, ErrStoreNotFound
}

func (s *DefaultStore) Messages(channelID discord.ChannelID) ([]discord.Message, error) {
	s.mut.Lock()
	defer s.mut.Unlock()

	ms, ok := s.messages[channelID]
	if !ok {
		return nil, ErrStoreNotFound
	}

	return append([]discord.Message(nil), ms...), nil
}

func (s *DefaultStore) MaxMessages() int {
	return s.opts.MaxMessages
}

func (s *DefaultStore) MessageSet(message discord.Message) error {
	s.mut.Lock()
	defer s.mut.Unlock()

	ms, ok := s.messages[message.ChannelID]
	if !ok {
		ms = make([]discord.Message, 0, s.opts.MaxMessages+1)
	}

	// Check if we already have the message; if so, patch it in place.
	for i, m := range ms {
		if m.ID == message.ID {
			DiffMessage(message, &ms[i])
			return nil
		}
	}

	// Prepend the latest message at the front.
	if len(ms) > 0 {
		ms = append(ms, discord.Message{})
		copy(ms[1:], ms)
		ms[0] = message
	} else {
		ms = append(ms, message)
	}

	if len(ms) > s.opts.MaxMessages {
		ms = ms[:s.opts.MaxMessages]
	}

	s.messages[message.ChannelID] = ms
	return nil
}

func (s *DefaultStore) MessageRemove(
	channelID discord.ChannelID, messageID discord.MessageID) error {

	s.mut.Lock()
	defer s.mut.Unlock()

	ms, ok := s.messages[channelID]
	if !ok {
		return ErrStoreNotFound
	}

	for i, m := range ms {
		if m.ID == messageID {
			s.messages[channelID] = append(ms[:i], ms[i+1:]...)
			return nil
		}
	}

	return ErrStoreNotFound
}

////

func (s *DefaultStore) Presence(
	guildID discord.GuildID, userID discord.UserID) (*discord.Presence, error) {

	s.mut.Lock()
	defer s.mut.Unlock()

	for _, p := range s.presences[guildID] {
		if p.User.ID == userID {
			p := p
			return &p, nil
		}
	}

	return nil, ErrStoreNotFound
}

func (s *DefaultStore) Presences(guildID discord.GuildID) ([]discord.Presence, error) {
	s.mut.Lock()
	defer s.mut.Unlock()

	ps, ok := s.presences[guildID]
	if !ok {
		return nil, ErrStoreNotFound
	}

	return append([]discord.Presence(nil), ps...), nil
}

func (s *DefaultStore) PresenceSet(guildID discord.GuildID, presence discord.Presence) error {
	s.mut.Lock()
	defer s.mut.Unlock()

	ps := s.presences[guildID]

	for i, p := range ps {
		if p.User.ID == presence.User.ID {
			ps[i] = presence
			return nil
		}
	}

	s.presences[guildID] = append(ps, presence)
	return nil
}

func (s *DefaultStore) PresenceRemove(guildID discord.GuildID, userID discord.UserID) error {
	s.mut.Lock()
	defer s.mut.Unlock()

	ps, ok := s.presences[guildID]
	if !ok {
		return ErrStoreNotFound
	}

	for i, p := range ps {
		if p.User.ID == userID {
			s.presences[guildID] = append(ps[:i], ps[i+1:]...)
			return nil
		}
	}

	return ErrStoreNotFound
}

////

func (s *DefaultStore) Role(
	guildID discord.GuildID, roleID discord.RoleID) (*discord.Role, error) {

	s.mut.Lock()
	defer s.mut.Unlock()

	gd, ok := s.guilds[guildID]
	if !ok {
		return nil, ErrStoreNotFound
	}

	for _, r := range gd.Roles {
		if r.ID == roleID {
			r := r
			return &r, nil
		}
	}

	return nil, ErrStoreNotFound
}

func (s *DefaultStore) Roles(guildID discord.GuildID) ([]discord.Role, error) {
	s.mut.Lock()
	defer s.mut.Unlock()

	gd, ok := s.guilds[guildID]
	if !ok {
		return nil, ErrStoreNotFound
	}

	return append([]discord.Role(nil), gd.Roles...), nil
}

func (s *DefaultStore) RoleSet(guildID discord.GuildID, role discord.Role) error {
	s.mut.Lock()
	defer s.mut.Unlock()

	gd, ok := s.guilds[guildID]
	if !ok {
		return ErrStoreNotFound
	}

	for i, r := range gd.Roles {
		if r.ID == role.ID {
			gd.Roles[i] = role
			return nil
		}
	}

	gd.Roles = append(gd.Roles, role)
	return nil
}

func (s *DefaultStore) RoleRemove(guildID discord.GuildID, roleID discord.RoleID) error {
	s.mut.Lock()
	defer s.mut.Unlock()

	gd, ok := s.guilds[guildID]
	if !ok {
		return ErrStoreNotFound
	}

	for i, r := range gd.Roles {
		if r.ID == roleID {
			gd.Roles = append(gd.Roles[:i], gd.Roles[i+1:]...)
			return nil
		}
	}

	return ErrStoreNotFound
}

// copyGuild copies the guild and its slices, so that callers can't mutate
// the store through a returned guild.
func copyGuild(g *discord.Guild) *discord.Guild {
	cpy := *g
	cpy.Roles = append([]discord.Role(nil), g.Roles...)
	cpy.Emojis = append([]discord.Emoji(nil), g.Emojis...)
	return &cpy
}
