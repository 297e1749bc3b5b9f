package state

import (
	"fmt"
	"testing"

	"github.com/Rapptz/discord.py-sub002/discord"
	"github.com/Rapptz/discord.py-sub002/gateway"
	"github.com/Rapptz/discord.py-sub002/handler"
	"github.com/Rapptz/discord.py-sub002/session"
)

// newTestState makes a state around a session that never opens a gateway.
// Events are injected by calling dispatch, which mimics the session's event
// loop. Both handlers are synchronous so tests observe events in order.
func newTestState(t *testing.T) (*State, func(ev interface{})) {
	t.Helper()

	ses := &session.Session{
		Handler: handler.New(),
	}

	st, err := NewFromSession(ses, NewDefaultStore(nil))
	if err != nil {
		t.Fatal("failed to make state:", err)
	}

	st.Handler.Synchronous = true
	st.StateLog = func(err error) {
		t.Error("state error:", err)
	}

	return st, ses.Handler.Call
}

func TestStateReady(t *testing.T) {
	st, dispatch := newTestState(t)

	var guildEvents []interface{}
	st.AddHandler(func(ev *GuildReadyEvent) {
		guildEvents = append(guildEvents, ev)
	})

	dispatch(&gateway.ReadyEvent{
		Version:   9,
		User:      discord.User{ID: 1, Username: "bot"},
		SessionID: "winter",
		Guilds: []gateway.GuildCreateEvent{
			{
				Guild: discord.Guild{ID: 2, Name: "available"},
				Members: []discord.Member{
					{User: discord.User{ID: 1}},
				},
				Channels: []discord.Channel{
					// Discord omits guild_id in guild create channels.
					{ID: 3, Type: discord.GuildText},
				},
				Presences: []discord.Presence{
					{User: discord.User{ID: 1}, Status: discord.OnlineStatus},
				},
			},
			{
				Guild:       discord.Guild{ID: 4},
				Unavailable: true,
			},
		},
	})

	if st.Ready.SessionID != "winter" {
		t.Error("expected Ready to be kept, got session ID", st.Ready.SessionID)
	}

	me, err := st.Store.Me()
	if err != nil {
		t.Fatal("failed to get self:", err)
	}
	if me.Username != "bot" {
		t.Error("unexpected self:", me.Username)
	}

	// Only the available guild is ready.
	if len(guildEvents) != 1 {
		t.Fatal("expected 1 GuildReadyEvent, got", len(guildEvents))
	}

	// The unavailable guild must not be in the store yet.
	if _, err := st.Store.Guild(4); err == nil {
		t.Error("expected unavailable guild to not be stored")
	}

	// The available guild's contents must all be applied, and the channel
	// must have inherited the guild ID.
	ch, err := st.Store.Channel(3)
	if err != nil {
		t.Fatal("failed to get channel:", err)
	}
	if ch.GuildID != 2 {
		t.Error("expected channel to inherit the guild ID, got", ch.GuildID)
	}

	if _, err := st.Store.Member(2, 1); err != nil {
		t.Error("failed to get member:", err)
	}
	if _, err := st.Store.Presence(2, 1); err != nil {
		t.Error("failed to get presence:", err)
	}

	// The unready guild coming online dispatches a belated GuildReadyEvent.
	dispatch(&gateway.GuildCreateEvent{
		Guild: discord.Guild{ID: 4, Name: "late"},
	})

	if len(guildEvents) != 2 {
		t.Fatal("expected a belated GuildReadyEvent, got", len(guildEvents))
	}
	if _, err := st.Store.Guild(4); err != nil {
		t.Error("expected the late guild to be stored:", err)
	}
}

func TestStateGuildLifecycle(t *testing.T) {
	st, dispatch := newTestState(t)

	var events []interface{}
	st.AddHandler(func(ev interface{}) {
		switch ev.(type) {
		case *GuildJoinEvent, *GuildUnavailableEvent,
			*GuildAvailableEvent, *GuildLeaveEvent:
			events = append(events, ev)
		}
	})

	assertNext := func(expect interface{}) {
		t.Helper()
		if len(events) == 0 {
			t.Fatalf("expected %T, got no event", expect)
		}
		got := events[0]
		events = events[1:]

		if fmt.Sprintf("%T", got) != fmt.Sprintf("%T", expect) {
			t.Fatalf("expected %T, got %T", expect, got)
		}
	}

	// A guild we've never seen: joined.
	dispatch(&gateway.GuildCreateEvent{Guild: discord.Guild{ID: 1}})
	assertNext(&GuildJoinEvent{})

	// An outage: unavailable, then available again.
	dispatch(&gateway.GuildDeleteEvent{ID: 1, Unavailable: true})
	assertNext(&GuildUnavailableEvent{})

	dispatch(&gateway.GuildCreateEvent{Guild: discord.Guild{ID: 1}})
	assertNext(&GuildAvailableEvent{})

	// Actually removed.
	dispatch(&gateway.GuildDeleteEvent{ID: 1})
	assertNext(&GuildLeaveEvent{})

	if _, err := st.Store.Guild(1); err == nil {
		t.Error("expected the guild to be gone from the store")
	}

	if len(events) > 0 {
		t.Errorf("unexpected trailing events: %#v", events)
	}
}

func TestStateMessageUpdated(t *testing.T) {
	st, dispatch := newTestState(t)

	var updated *MessageUpdatedEvent
	st.AddHandler(func(ev *MessageUpdatedEvent) {
		updated = ev
	})

	dispatch(&gateway.MessageCreateEvent{
		Message: discord.Message{ID: 1, ChannelID: 2, Content: "before"},
	})

	dispatch(&gateway.MessageUpdateEvent{
		Message: discord.Message{ID: 1, ChannelID: 2, Content: "after"},
	})

	if updated == nil {
		t.Fatal("expected a MessageUpdatedEvent")
	}
	if updated.Old == nil || updated.Old.Content != "before" {
		t.Errorf("expected old content %q, got %#v", "before", updated.Old)
	}

	m, err := st.Store.Message(2, 1)
	if err != nil {
		t.Fatal("failed to get message:", err)
	}
	if m.Content != "after" {
		t.Error("expected the store to have the new content, got", m.Content)
	}
}

func TestStateMemberUpdated(t *testing.T) {
	st, dispatch := newTestState(t)

	var updated *MemberUpdatedEvent
	st.AddHandler(func(ev *MemberUpdatedEvent) {
		updated = ev
	})

	dispatch(&gateway.GuildCreateEvent{Guild: discord.Guild{ID: 1}})
	dispatch(&gateway.GuildMemberAddEvent{
		GuildID: 1,
		Member: discord.Member{
			User: discord.User{ID: 2, Username: "astolfo"},
			Nick: "before",
		},
	})

	dispatch(&gateway.GuildMemberUpdateEvent{
		GuildID: 1,
		User:    discord.User{ID: 2, Username: "astolfo"},
		Nick:    "after",
		RoleIDs: []discord.RoleID{3},
	})

	if updated == nil {
		t.Fatal("expected a MemberUpdatedEvent")
	}
	if updated.Old == nil || updated.Old.Nick != "before" {
		t.Errorf("expected old nick %q, got %#v", "before", updated.Old)
	}

	m, err := st.Store.Member(1, 2)
	if err != nil {
		t.Fatal("failed to get member:", err)
	}
	if m.Nick != "after" {
		t.Error("expected updated nick, got", m.Nick)
	}
	if len(m.RoleIDs) != 1 || m.RoleIDs[0] != 3 {
		t.Error("expected updated roles, got", m.RoleIDs)
	}
}

func TestStateReactions(t *testing.T) {
	st, dispatch := newTestState(t)

	dispatch(&gateway.ReadyEvent{
		User: discord.User{ID: 9, Username: "bot"},
	})
	dispatch(&gateway.MessageCreateEvent{
		Message: discord.Message{ID: 1, ChannelID: 2, Content: "react to me"},
	})

	emoji := discord.Emoji{Name: "🧡"}

	// Someone else reacts, then we do.
	dispatch(&gateway.MessageReactionAddEvent{
		UserID: 3, ChannelID: 2, MessageID: 1, Emoji: emoji,
	})
	dispatch(&gateway.MessageReactionAddEvent{
		UserID: 9, ChannelID: 2, MessageID: 1, Emoji: emoji,
	})

	m, err := st.Store.Message(2, 1)
	if err != nil {
		t.Fatal("failed to get message:", err)
	}
	if len(m.Reactions) != 1 {
		t.Fatal("expected 1 reaction, got", len(m.Reactions))
	}
	if m.Reactions[0].Count != 2 {
		t.Error("expected count 2, got", m.Reactions[0].Count)
	}

	// Our own removal clears Me.
	dispatch(&gateway.MessageReactionRemoveEvent{
		UserID: 9, ChannelID: 2, MessageID: 1, Emoji: emoji,
	})

	m, _ = st.Store.Message(2, 1)
	if m.Reactions[0].Count != 1 {
		t.Error("expected count 1, got", m.Reactions[0].Count)
	}
	if m.Reactions[0].Me {
		t.Error("expected Me to be cleared")
	}

	// Last removal drops the reaction entirely.
	dispatch(&gateway.MessageReactionRemoveEvent{
		UserID: 3, ChannelID: 2, MessageID: 1, Emoji: emoji,
	})

	m, _ = st.Store.Message(2, 1)
	if len(m.Reactions) != 0 {
		t.Error("expected no reactions, got", len(m.Reactions))
	}
}

func TestStateReactionMe(t *testing.T) {
	st, dispatch := newTestState(t)

	dispatch(&gateway.ReadyEvent{
		User: discord.User{ID: 9},
	})
	dispatch(&gateway.MessageCreateEvent{
		Message: discord.Message{ID: 1, ChannelID: 2},
	})
	dispatch(&gateway.MessageReactionAddEvent{
		UserID: 9, ChannelID: 2, MessageID: 1,
		Emoji: discord.Emoji{Name: "🧡"},
	})

	m, err := st.Store.Message(2, 1)
	if err != nil {
		t.Fatal("failed to get message:", err)
	}
	if len(m.Reactions) != 1 || !m.Reactions[0].Me {
		t.Errorf("expected own reaction to set Me, got %#v", m.Reactions)
	}
}

func TestStateUnhook(t *testing.T) {
	st, dispatch := newTestState(t)

	st.Unhook()

	dispatch(&gateway.MessageCreateEvent{
		Message: discord.Message{ID: 1, ChannelID: 2},
	})

	if _, err := st.Store.Message(2, 1); err == nil {
		t.Error("expected the store to not see events after Unhook")
	}
}
