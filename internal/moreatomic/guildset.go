package moreatomic

import (
	"sync"

	"github.com/Rapptz/discord.py-sub002/discord"
)

// GuildIDSet is a thread-safe set of guild IDs.
type GuildIDSet struct {
	set map[discord.GuildID]struct{}
	mut sync.Mutex
}

// NewGuildIDSet creates a new GuildIDSet.
func NewGuildIDSet() *GuildIDSet {
	return &GuildIDSet{
		set: make(map[discord.GuildID]struct{}),
	}
}

// Add adds the guild ID to the set.
func (s *GuildIDSet) Add(guildID discord.GuildID) {
	s.mut.Lock()
	s.set[guildID] = struct{}{}
	s.mut.Unlock()
}

// Contains returns whether the guild ID is in the set.
func (s *GuildIDSet) Contains(guildID discord.GuildID) bool {
	s.mut.Lock()
	defer s.mut.Unlock()

	_, ok := s.set[guildID]
	return ok
}

// Delete removes the guild ID, reporting whether it was present.
func (s *GuildIDSet) Delete(guildID discord.GuildID) bool {
	s.mut.Lock()
	defer s.mut.Unlock()

	if _, ok := s.set[guildID]; ok {
		delete(s.set, guildID)
		return true
	}

	return false
}
