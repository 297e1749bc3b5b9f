package handler

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Rapptz/discord.py-sub002/gateway"
)

func newMessage(content string) *gateway.MessageCreateEvent {
	var msg gateway.MessageCreateEvent
	msg.Content = content
	return &msg
}

func TestCall(t *testing.T) {
	var h = New()
	h.Synchronous = true

	var results = make(chan string, 2)

	rm := h.AddHandler(func(m *gateway.MessageCreateEvent) {
		results <- m.Content
	})

	h.Call(newMessage("hime arikawa"))

	if got := <-results; got != "hime arikawa" {
		t.Fatalf("unexpected content: %q", got)
	}

	// Remove and make sure the handler is gone.
	rm()

	h.Call(newMessage("astolfo"))

	select {
	case got := <-results:
		t.Fatal("unexpected call after removal:", got)
	default:
	}
}

func TestCallInterface(t *testing.T) {
	var h = New()
	h.Synchronous = true

	var results = make(chan interface{}, 2)

	h.AddHandler(func(v interface{}) {
		results <- v
	})

	h.Call(newMessage("hime arikawa"))
	h.Call(&gateway.TypingStartEvent{})

	if _, ok := (<-results).(*gateway.MessageCreateEvent); !ok {
		t.Fatal("first event is not a MessageCreateEvent")
	}
	if _, ok := (<-results).(*gateway.TypingStartEvent); !ok {
		t.Fatal("second event is not a TypingStartEvent")
	}
}

func TestCallAsync(t *testing.T) {
	var h = New()

	var wg sync.WaitGroup
	wg.Add(3)

	for i := 0; i < 3; i++ {
		h.AddHandler(func(*gateway.MessageCreateEvent) {
			wg.Done()
		})
	}

	h.Call(newMessage("himegoto"))

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for async handlers")
	}
}

func TestPanicRecovery(t *testing.T) {
	oldHook := ErrorHook
	t.Cleanup(func() { ErrorHook = oldHook })

	var hooked = make(chan error, 2)
	ErrorHook = func(err error) { hooked <- err }

	var h = New()
	h.Synchronous = true

	var survived bool

	h.AddHandler(func(*gateway.MessageCreateEvent) {
		panic("boom")
	})
	h.AddHandler(func(*gateway.MessageCreateEvent) {
		survived = true
	})

	h.Call(newMessage("panic"))

	select {
	case err := <-hooked:
		if !strings.Contains(err.Error(), "boom") {
			t.Fatal("hook got the wrong error:", err)
		}
	default:
		t.Fatal("ErrorHook was not called")
	}

	select {
	case err := <-hooked:
		t.Fatal("ErrorHook called more than once:", err)
	default:
	}

	if !survived {
		t.Fatal("sibling handler was not called after a panic")
	}
}

func TestAddHandlerCheck(t *testing.T) {
	var h = New()

	invalids := []interface{}{
		"not a function",
		func() {},
		func(a, b *gateway.MessageCreateEvent) {},
		func(*gateway.MessageCreateEvent) error { return nil },
		func(gateway.MessageCreateEvent) {}, // not a pointer
	}

	for _, invalid := range invalids {
		if _, err := h.AddHandlerCheck(invalid); err == nil {
			t.Fatalf("expected an error for %T", invalid)
		}
	}

	if _, err := h.AddHandlerCheck(func(*gateway.MessageCreateEvent) {}); err != nil {
		t.Fatal("unexpected error for a valid handler:", err)
	}
}

func TestWaitFor(t *testing.T) {
	h := New()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Dispatch on a ticker; WaitFor may register after the first few rounds.
	go func() {
		tick := time.NewTicker(10 * time.Millisecond)
		defer tick.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-tick.C:
				h.Call(newMessage("no"))
				h.Call(newMessage("yes"))
			}
		}
	}()

	v := h.WaitFor(ctx, func(v interface{}) bool {
		m, ok := v.(*gateway.MessageCreateEvent)
		return ok && m.Content == "yes"
	})

	if v == nil {
		t.Fatal("WaitFor timed out")
	}
	if m := v.(*gateway.MessageCreateEvent); m.Content != "yes" {
		t.Fatalf("unexpected content: %q", m.Content)
	}
}

func TestWaitForCancel(t *testing.T) {
	h := New()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if v := h.WaitFor(ctx, func(interface{}) bool { return true }); v != nil {
		t.Fatal("expected nil from a cancelled WaitFor, got", v)
	}
}

func TestChanFor(t *testing.T) {
	h := New()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ch := h.ChanFor(ctx, func(v interface{}) bool {
		_, ok := v.(*gateway.MessageCreateEvent)
		return ok
	})

	go func() {
		h.Call(&gateway.TypingStartEvent{})
		h.Call(newMessage("hello"))
	}()

	select {
	case v := <-ch:
		if m := v.(*gateway.MessageCreateEvent); m.Content != "hello" {
			t.Fatalf("unexpected content: %q", m.Content)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for ChanFor")
	}
}
