package shard

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/Rapptz/discord.py-sub002/discord"
	"github.com/Rapptz/discord.py-sub002/gateway"
	"github.com/Rapptz/discord.py-sub002/utils/json"
	"github.com/Rapptz/discord.py-sub002/utils/wsutil"
)

var upgrader = websocket.Upgrader{}

// fakeGateway accepts shard connections, checks their IDENTIFY and reports
// the identified shards in order.
func fakeGateway(t *testing.T, identified chan<- gateway.Shard) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Error("failed to upgrade:", err)
			return
		}

		go func() {
			defer conn.Close()

			hello, _ := json.Marshal(wsutil.OP{
				Code: gateway.HelloOP,
				Data: json.Raw(`{"heartbeat_interval":60000}`),
			})
			if err := conn.WriteMessage(websocket.TextMessage, hello); err != nil {
				t.Error("failed to write HELLO:", err)
				return
			}

			_, b, err := conn.ReadMessage()
			if err != nil {
				t.Error("failed to read IDENTIFY:", err)
				return
			}

			var op wsutil.OP
			if err := json.Unmarshal(b, &op); err != nil {
				t.Error("malformed IDENTIFY frame:", err)
				return
			}
			if op.Code != gateway.IdentifyOP {
				t.Errorf("expected IDENTIFY, got OP %d", op.Code)
				return
			}

			var id gateway.IdentifyData
			if err := op.UnmarshalData(&id); err != nil {
				t.Error("malformed IDENTIFY payload:", err)
				return
			}
			if id.Shard == nil {
				t.Error("IDENTIFY carries no shard tuple")
				return
			}

			identified <- *id.Shard

			ready, _ := json.Marshal(wsutil.OP{
				Code:      gateway.DispatchOP,
				Sequence:  1,
				EventName: "READY",
				Data:      json.Raw(`{"v":9,"user":{"id":"123"},"session_id":"s"}`),
			})
			if err := conn.WriteMessage(websocket.TextMessage, ready); err != nil {
				t.Error("failed to write READY:", err)
				return
			}

			// Stay up until the shard hangs up.
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	}))

	t.Cleanup(srv.Close)
	return srv
}

func TestManager(t *testing.T) {
	identified := make(chan gateway.Shard, 2)
	srv := fakeGateway(t, identified)

	m := NewManagerWithShards("ws"+strings.TrimPrefix(srv.URL, "http"), "iriya", 2)

	if len(m.Shards) != 2 {
		t.Fatalf("unexpected shard count: %d", len(m.Shards))
	}

	// The daily session-start allowance must be shared across the fleet.
	if m.Shards[0].Gateway.Identifier.IdentifyGlobalLimit !=
		m.Shards[1].Gateway.Identifier.IdentifyGlobalLimit {
		t.Fatal("shards do not share the global IDENTIFY limiter")
	}

	// Strip the Discord-shaped throttles so the test runs instantly.
	unlimited := rate.NewLimiter(rate.Inf, 1)
	for _, s := range m.Shards {
		s.Gateway.Identifier.IdentifyShortLimit = unlimited
		s.Gateway.WS.DialLimiter = rate.NewLimiter(rate.Inf, 1)
		s.Gateway.WS.SendLimiter = rate.NewLimiter(rate.Inf, 1)
		s.Gateway.ErrorLog = func(error) {}
	}

	if err := m.Open(); err != nil {
		t.Fatal("failed to open the manager:", err)
	}
	defer m.Close()

	// Shards identify in order.
	for want := 0; want < 2; want++ {
		select {
		case shard := <-identified:
			if shard.ShardID() != want || shard.NumShards() != 2 {
				t.Fatalf("unexpected shard tuple: %v", shard)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for shard", want)
		}
	}

	if !m.AllReady() {
		t.Fatal("manager is not ready after opening all shards")
	}

	// Guild IDs route by their upper bits.
	if s := m.FromGuildID(discord.GuildID(4 << 22)); s != m.Shards[0] {
		t.Fatal("guild 4<<22 did not route to shard 0")
	}
	if s := m.FromGuildID(discord.GuildID(5 << 22)); s != m.Shards[1] {
		t.Fatal("guild 5<<22 did not route to shard 1")
	}

	if err := m.Close(); err != nil {
		t.Fatal("failed to close the manager:", err)
	}
	if m.AllReady() {
		t.Fatal("manager still ready after close")
	}

	// Closing again is a no-op.
	if err := m.Close(); err != nil {
		t.Fatal("second close errored:", err)
	}
}
