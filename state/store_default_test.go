package state

import (
	"errors"
	"testing"

	"github.com/Rapptz/discord.py-sub002/discord"
)

func TestStoreMessageOrder(t *testing.T) {
	store := NewDefaultStore(&DefaultStoreOptions{MaxMessages: 3})

	const chID = discord.ChannelID(10)

	for i := 1; i <= 5; i++ {
		err := store.MessageSet(discord.Message{
			ID:        discord.MessageID(i),
			ChannelID: chID,
			Content:   "hime arikawa",
		})
		if err != nil {
			t.Fatal("failed to set message:", err)
		}
	}

	ms, err := store.Messages(chID)
	if err != nil {
		t.Fatal("failed to get messages:", err)
	}

	if len(ms) != 3 {
		t.Fatal("expected 3 messages, got", len(ms))
	}

	// Latest first.
	for i, want := range []discord.MessageID{5, 4, 3} {
		if ms[i].ID != want {
			t.Errorf("message %d: expected ID %d, got %d", i, want, ms[i].ID)
		}
	}

	// Dropped off the back.
	if _, err := store.Message(chID, 1); !errors.Is(err, ErrStoreNotFound) {
		t.Fatal("expected ErrStoreNotFound for evicted message, got", err)
	}
}

func TestStoreMessagePatch(t *testing.T) {
	store := NewDefaultStore(nil)

	msg := discord.Message{
		ID:        1,
		ChannelID: 10,
		Content:   "before",
		Author:    discord.User{ID: 2, Username: "yukari"},
	}

	if err := store.MessageSet(msg); err != nil {
		t.Fatal("failed to set message:", err)
	}

	// Partial update: only the content changes. The author must survive.
	update := discord.Message{
		ID:        1,
		ChannelID: 10,
		Content:   "after",
	}

	if err := store.MessageSet(update); err != nil {
		t.Fatal("failed to update message:", err)
	}

	m, err := store.Message(10, 1)
	if err != nil {
		t.Fatal("failed to get message:", err)
	}

	if m.Content != "after" {
		t.Error("expected patched content, got", m.Content)
	}
	if m.Author.Username != "yukari" {
		t.Error("expected author to survive the patch, got", m.Author.Username)
	}

	// Patching must not change the message count.
	ms, _ := store.Messages(10)
	if len(ms) != 1 {
		t.Fatal("expected 1 message, got", len(ms))
	}
}

func TestStoreGuildCopy(t *testing.T) {
	store := NewDefaultStore(nil)

	err := store.GuildSet(discord.Guild{
		ID:    1,
		Name:  "Summertime Render",
		Roles: []discord.Role{{ID: 2, Name: "shadow"}},
	})
	if err != nil {
		t.Fatal("failed to set guild:", err)
	}

	g, err := store.Guild(1)
	if err != nil {
		t.Fatal("failed to get guild:", err)
	}

	// Mutating the returned copy must not touch the store.
	g.Roles[0].Name = "mutated"
	g.Name = "mutated"

	g2, err := store.Guild(1)
	if err != nil {
		t.Fatal("failed to get guild again:", err)
	}

	if g2.Name != "Summertime Render" {
		t.Error("store guild name was mutated:", g2.Name)
	}
	if g2.Roles[0].Name != "shadow" {
		t.Error("store guild roles were mutated:", g2.Roles[0].Name)
	}
}

func TestStoreGuildPartialUpdate(t *testing.T) {
	store := NewDefaultStore(nil)

	store.GuildSet(discord.Guild{
		ID:     1,
		Name:   "old",
		Roles:  []discord.Role{{ID: 2, Name: "role"}},
		Emojis: []discord.Emoji{{ID: 3, Name: "emoji"}},
	})

	// Guild updates come without roles or emojis; the old ones must be kept.
	store.GuildSet(discord.Guild{ID: 1, Name: "new"})

	g, err := store.Guild(1)
	if err != nil {
		t.Fatal("failed to get guild:", err)
	}

	if g.Name != "new" {
		t.Error("expected updated name, got", g.Name)
	}
	if len(g.Roles) != 1 || g.Roles[0].Name != "role" {
		t.Error("expected roles to be kept on partial update")
	}
	if len(g.Emojis) != 1 || g.Emojis[0].Name != "emoji" {
		t.Error("expected emojis to be kept on partial update")
	}
}

func TestStoreGuildRemove(t *testing.T) {
	store := NewDefaultStore(nil)

	store.GuildSet(discord.Guild{ID: 1})
	store.ChannelSet(discord.Channel{ID: 10, GuildID: 1, Type: discord.GuildText})
	store.MemberSet(1, discord.Member{User: discord.User{ID: 2}})
	store.PresenceSet(1, discord.Presence{User: discord.User{ID: 2}})

	if err := store.GuildRemove(1); err != nil {
		t.Fatal("failed to remove guild:", err)
	}

	if _, err := store.Guild(1); !errors.Is(err, ErrStoreNotFound) {
		t.Error("expected guild to be gone, got", err)
	}
	if _, err := store.Channels(1); !errors.Is(err, ErrStoreNotFound) {
		t.Error("expected channels to be gone, got", err)
	}
	if _, err := store.Member(1, 2); !errors.Is(err, ErrStoreNotFound) {
		t.Error("expected member to be gone, got", err)
	}
	if _, err := store.Presence(1, 2); !errors.Is(err, ErrStoreNotFound) {
		t.Error("expected presence to be gone, got", err)
	}
}

func TestStorePrivateChannel(t *testing.T) {
	store := NewDefaultStore(nil)

	err := store.ChannelSet(discord.Channel{
		ID:   10,
		Type: discord.DirectMessage,
	})
	if err != nil {
		t.Fatal("failed to set DM channel:", err)
	}

	if _, err := store.Channel(10); err != nil {
		t.Fatal("failed to get DM channel:", err)
	}

	chs, err := store.PrivateChannels()
	if err != nil {
		t.Fatal("failed to get private channels:", err)
	}
	if len(chs) != 1 {
		t.Fatal("expected 1 private channel, got", len(chs))
	}

	if err := store.ChannelRemove(discord.Channel{ID: 10, Type: discord.DirectMessage}); err != nil {
		t.Fatal("failed to remove DM channel:", err)
	}

	if _, err := store.Channel(10); !errors.Is(err, ErrStoreNotFound) {
		t.Fatal("expected DM channel to be gone, got", err)
	}
}

func TestStoreRoles(t *testing.T) {
	store := NewDefaultStore(nil)

	// Roles live inside the guild; setting one without the guild must fail.
	if err := store.RoleSet(1, discord.Role{ID: 2}); !errors.Is(err, ErrStoreNotFound) {
		t.Fatal("expected ErrStoreNotFound without the guild, got", err)
	}

	store.GuildSet(discord.Guild{ID: 1})

	store.RoleSet(1, discord.Role{ID: 2, Name: "old"})
	store.RoleSet(1, discord.Role{ID: 2, Name: "new"}) // replaces, not appends
	store.RoleSet(1, discord.Role{ID: 3, Name: "other"})

	rs, err := store.Roles(1)
	if err != nil {
		t.Fatal("failed to get roles:", err)
	}
	if len(rs) != 2 {
		t.Fatal("expected 2 roles, got", len(rs))
	}

	r, err := store.Role(1, 2)
	if err != nil {
		t.Fatal("failed to get role:", err)
	}
	if r.Name != "new" {
		t.Error("expected replaced role, got", r.Name)
	}

	if err := store.RoleRemove(1, 3); err != nil {
		t.Fatal("failed to remove role:", err)
	}
	if _, err := store.Role(1, 3); !errors.Is(err, ErrStoreNotFound) {
		t.Fatal("expected removed role to be gone, got", err)
	}
}

func TestStoreReset(t *testing.T) {
	store := NewDefaultStore(nil)

	store.MeSet(discord.User{ID: 1})
	store.GuildSet(discord.Guild{ID: 2})
	store.MessageSet(discord.Message{ID: 3, ChannelID: 4})

	if err := store.Reset(); err != nil {
		t.Fatal("failed to reset:", err)
	}

	if _, err := store.Me(); !errors.Is(err, ErrStoreNotFound) {
		t.Error("expected self to be gone, got", err)
	}
	if _, err := store.Guild(2); !errors.Is(err, ErrStoreNotFound) {
		t.Error("expected guild to be gone, got", err)
	}
	if _, err := store.Messages(4); !errors.Is(err, ErrStoreNotFound) {
		t.Error("expected messages to be gone, got", err)
	}
}
