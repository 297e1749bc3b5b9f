package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/Rapptz/discord.py-sub002/discord"
	"github.com/Rapptz/discord.py-sub002/utils/json"
	"github.com/Rapptz/discord.py-sub002/utils/wsutil"
)

var upgrader = websocket.Upgrader{}

// fakeGateway runs an in-process gateway server. Each accepted connection is
// handed to serve on its own goroutine, along with its 1-based ordinal.
func fakeGateway(t *testing.T, serve func(n int, conn *websocket.Conn)) *httptest.Server {
	t.Helper()

	var n int

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Error("failed to upgrade:", err)
			return
		}

		n++
		go serve(n, conn)
	}))

	t.Cleanup(srv.Close)
	return srv
}

// newTestGateway makes a gateway pointed at srv with the throttlers that only
// matter against Discord removed.
func newTestGateway(srv *httptest.Server, token string) *Gateway {
	g := NewCustomGateway("ws"+strings.TrimPrefix(srv.URL, "http"), token)
	g.WSTimeout = 5 * time.Second
	g.ReconnectTimeout = 5 * time.Second
	g.ErrorLog = func(error) {} // reconnect tests produce expected errors

	g.WS.DialLimiter = rate.NewLimiter(rate.Inf, 1)
	g.WS.SendLimiter = rate.NewLimiter(rate.Inf, 1)
	g.Identifier.IdentifyShortLimit = rate.NewLimiter(rate.Inf, 1)

	return g
}

func writeOP(t *testing.T, conn *websocket.Conn, op wsutil.OP) {
	t.Helper()

	b, err := json.Marshal(op)
	if err != nil {
		t.Error("server failed to marshal OP:", err)
		return
	}

	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		t.Error("server failed to write OP:", err)
	}
}

func readOP(conn *websocket.Conn) (*wsutil.OP, error) {
	_, b, err := conn.ReadMessage()
	if err != nil {
		return nil, err
	}

	var op wsutil.OP
	if err := json.Unmarshal(b, &op); err != nil {
		return nil, err
	}

	return &op, nil
}

func sendHello(t *testing.T, conn *websocket.Conn, interval string) {
	t.Helper()
	writeOP(t, conn, wsutil.OP{
		Code: HelloOP,
		Data: json.Raw(`{"heartbeat_interval":` + interval + `}`),
	})
}

func sendReady(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	writeOP(t, conn, wsutil.OP{
		Code:      DispatchOP,
		Sequence:  1,
		EventName: "READY",
		Data:      json.Raw(`{"v":9,"user":{"id":"123","username":"bot"},"session_id":"winter"}`),
	})
}

func nextEvent(t *testing.T, g *Gateway) Event {
	t.Helper()

	select {
	case ev := <-g.Events:
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a gateway event")
		return nil
	}
}

func TestGatewayOpenAndDispatch(t *testing.T) {
	srv := fakeGateway(t, func(n int, conn *websocket.Conn) {
		defer conn.Close()

		sendHello(t, conn, "60000")

		op, err := readOP(conn)
		if err != nil {
			t.Error("server failed to read:", err)
			return
		}
		if op.Code != IdentifyOP {
			t.Errorf("expected IDENTIFY, got OP %d", op.Code)
			return
		}

		var id IdentifyData
		if err := op.UnmarshalData(&id); err != nil {
			t.Error("malformed IDENTIFY payload:", err)
			return
		}
		if id.Token != "iriya" {
			t.Errorf("unexpected token in IDENTIFY: %q", id.Token)
		}

		sendReady(t, conn)
		writeOP(t, conn, wsutil.OP{
			Code:      DispatchOP,
			Sequence:  2,
			EventName: "MESSAGE_CREATE",
			Data:      json.Raw(`{"id":"456","channel_id":"789","content":"ufo"}`),
		})
		writeOP(t, conn, wsutil.OP{
			Code:      DispatchOP,
			Sequence:  3,
			EventName: "UFO_SIGHTING",
			Data:      json.Raw(`{"count":1}`),
		})

		// Stay up until the client hangs up.
		for {
			if _, err := readOP(conn); err != nil {
				return
			}
		}
	})

	g := newTestGateway(srv, "iriya")

	if err := g.Open(); err != nil {
		t.Fatal("failed to open:", err)
	}
	defer g.Close()

	if s := g.Status(); s != StatusConnected {
		t.Fatalf("unexpected status after open: %v", s)
	}

	ready, ok := nextEvent(t, g).(*ReadyEvent)
	if !ok {
		t.Fatal("first event is not *ReadyEvent")
	}
	if ready.SessionID != "winter" {
		t.Fatalf("unexpected session ID: %q", ready.SessionID)
	}
	if g.SessionID != "winter" {
		t.Fatalf("gateway did not store the session ID: %q", g.SessionID)
	}

	msg, ok := nextEvent(t, g).(*MessageCreateEvent)
	if !ok {
		t.Fatal("second event is not *MessageCreateEvent")
	}
	if msg.Content != "ufo" {
		t.Fatalf("unexpected message content: %q", msg.Content)
	}

	unknown, ok := nextEvent(t, g).(*UnknownEvent)
	if !ok {
		t.Fatal("third event is not *UnknownEvent")
	}
	if unknown.Name != "UFO_SIGHTING" {
		t.Fatalf("unexpected unknown event name: %q", unknown.Name)
	}
	if string(unknown.Raw) != `{"count":1}` {
		t.Fatalf("unexpected unknown event payload: %q", unknown.Raw)
	}

	if data := g.SessionData(); data.SessionID != "winter" || data.Sequence != 3 {
		t.Fatalf("unexpected session data: %#v", data)
	}

	if err := g.Close(); err != nil {
		t.Fatal("failed to close:", err)
	}
	if s := g.Status(); s != StatusClosed {
		t.Fatalf("unexpected status after close: %v", s)
	}
}

func TestGatewayResume(t *testing.T) {
	srv := fakeGateway(t, func(n int, conn *websocket.Conn) {
		defer conn.Close()

		sendHello(t, conn, "60000")

		op, err := readOP(conn)
		if err != nil {
			t.Error("server failed to read:", err)
			return
		}

		switch n {
		case 1:
			if op.Code != IdentifyOP {
				t.Errorf("conn 1: expected IDENTIFY, got OP %d", op.Code)
				return
			}

			sendReady(t, conn)

			// Boot the client off with a recoverable close code.
			conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(4000, "unknown error"),
				time.Now().Add(time.Second),
			)

		case 2:
			if op.Code != ResumeOP {
				t.Errorf("conn 2: expected RESUME, got OP %d", op.Code)
				return
			}

			var resume ResumeData
			if err := op.UnmarshalData(&resume); err != nil {
				t.Error("malformed RESUME payload:", err)
				return
			}
			if resume.SessionID != "winter" || resume.Sequence != 1 {
				t.Errorf("unexpected RESUME payload: %#v", resume)
			}

			writeOP(t, conn, wsutil.OP{
				Code:      DispatchOP,
				Sequence:  2,
				EventName: "RESUMED",
				Data:      json.Raw(`{}`),
			})

			for {
				if _, err := readOP(conn); err != nil {
					return
				}
			}
		}
	})

	g := newTestGateway(srv, "iriya")

	if err := g.Open(); err != nil {
		t.Fatal("failed to open:", err)
	}
	defer g.Close()

	if _, ok := nextEvent(t, g).(*ReadyEvent); !ok {
		t.Fatal("first event is not *ReadyEvent")
	}

	if _, ok := nextEvent(t, g).(*ResumedEvent); !ok {
		t.Fatal("expected *ResumedEvent after server closed with code 4000")
	}

	if s := g.Status(); s != StatusConnected {
		t.Fatalf("unexpected status after resume: %v", s)
	}
	if data := g.SessionData(); data.SessionID != "winter" || data.Sequence != 2 {
		t.Fatalf("unexpected session data after resume: %#v", data)
	}
}

func TestGatewayFatalClose(t *testing.T) {
	srv := fakeGateway(t, func(n int, conn *websocket.Conn) {
		defer conn.Close()

		if n > 1 {
			t.Error("client reconnected after a fatal close code")
			return
		}

		sendHello(t, conn, "60000")

		if _, err := readOP(conn); err != nil {
			t.Error("server failed to read:", err)
			return
		}

		sendReady(t, conn)

		conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(4004, "authentication failed"),
			time.Now().Add(time.Second),
		)
	})

	g := newTestGateway(srv, "bogus")

	fatal := make(chan error, 1)
	g.FatalErrorCallback = func(err error) { fatal <- err }

	if err := g.Open(); err != nil {
		t.Fatal("failed to open:", err)
	}
	defer g.Close()

	if _, ok := nextEvent(t, g).(*ReadyEvent); !ok {
		t.Fatal("first event is not *ReadyEvent")
	}

	select {
	case err := <-fatal:
		closeErr, ok := err.(*CloseError)
		if !ok {
			t.Fatalf("fatal error is not *CloseError: %v", err)
		}
		if closeErr.Code != 4004 {
			t.Fatalf("unexpected close code: %d", closeErr.Code)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the fatal error callback")
	}

	if g.SessionID != "" || g.Sequence.Get() != 0 {
		t.Fatal("session was not invalidated after a fatal close")
	}
	if s := g.Status(); s != StatusClosed {
		t.Fatalf("unexpected status after fatal close: %v", s)
	}
}

func TestGatewayWaitForOP(t *testing.T) {
	srv := fakeGateway(t, func(n int, conn *websocket.Conn) {
		defer conn.Close()

		sendHello(t, conn, "60000")

		if _, err := readOP(conn); err != nil {
			t.Error("server failed to read:", err)
			return
		}

		sendReady(t, conn)

		// Answer member requests with a chunk; swallow everything else.
		for {
			op, err := readOP(conn)
			if err != nil {
				return
			}
			if op.Code == RequestGuildMembersOP {
				writeOP(t, conn, wsutil.OP{
					Code:      DispatchOP,
					Sequence:  2,
					EventName: "GUILD_MEMBERS_CHUNK",
					Data:      json.Raw(`{"guild_id":"1","members":[{"user":{"id":"2"}}]}`),
				})
			}
		}
	})

	g := newTestGateway(srv, "iriya")

	if err := g.Open(); err != nil {
		t.Fatal("failed to open:", err)
	}
	defer g.Close()

	if _, ok := nextEvent(t, g).(*ReadyEvent); !ok {
		t.Fatal("first event is not *ReadyEvent")
	}

	// Fire the request once the waiter below is registered.
	go func() {
		time.Sleep(50 * time.Millisecond)
		err := g.RequestGuildMembers(RequestGuildMembersData{
			GuildIDs: []discord.GuildID{1},
		})
		if err != nil {
			t.Error("failed to request members:", err)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	op, err := g.WaitForOP(ctx, func(op *wsutil.OP) bool {
		return op.EventName == "GUILD_MEMBERS_CHUNK"
	})
	if err != nil {
		t.Fatal("failed to wait for the chunk:", err)
	}
	if op.EventName != "GUILD_MEMBERS_CHUNK" {
		t.Fatalf("unexpected OP: %#v", op)
	}

	// The chunk still reaches the Events channel.
	chunk, ok := nextEvent(t, g).(*GuildMembersChunkEvent)
	if !ok {
		t.Fatal("second event is not *GuildMembersChunkEvent")
	}
	if len(chunk.Members) != 1 || chunk.Members[0].User.ID != 2 {
		t.Fatalf("unexpected chunk payload: %#v", chunk)
	}
}

func TestGatewayMissedAcks(t *testing.T) {
	srv := fakeGateway(t, func(n int, conn *websocket.Conn) {
		defer conn.Close()

		sendHello(t, conn, "100")

		op, err := readOP(conn)
		if err != nil {
			t.Error("server failed to read:", err)
			return
		}

		switch n {
		case 1:
			if op.Code != IdentifyOP {
				t.Errorf("conn 1: expected IDENTIFY, got OP %d", op.Code)
				return
			}

			sendReady(t, conn)

			// Swallow heartbeats without acking; the client must declare
			// the connection dead and redial.
			for {
				if _, err := readOP(conn); err != nil {
					return
				}
			}

		case 2:
			if op.Code != ResumeOP {
				t.Errorf("conn 2: expected RESUME, got OP %d", op.Code)
				return
			}

			writeOP(t, conn, wsutil.OP{
				Code:      DispatchOP,
				Sequence:  2,
				EventName: "RESUMED",
				Data:      json.Raw(`{}`),
			})

			// This time, answer every heartbeat.
			for {
				op, err := readOP(conn)
				if err != nil {
					return
				}
				if op.Code == HeartbeatOP {
					writeOP(t, conn, wsutil.OP{Code: HeartbeatAckOP})
				}
			}
		}
	})

	g := newTestGateway(srv, "iriya")

	if err := g.Open(); err != nil {
		t.Fatal("failed to open:", err)
	}
	defer g.Close()

	if _, ok := nextEvent(t, g).(*ReadyEvent); !ok {
		t.Fatal("first event is not *ReadyEvent")
	}

	if _, ok := nextEvent(t, g).(*ResumedEvent); !ok {
		t.Fatal("expected *ResumedEvent after heartbeats went unacknowledged")
	}
}
