package wsutil

import (
	"testing"

	"github.com/pkg/errors"
)

func TestDecodeOP(t *testing.T) {
	ev := Event{Data: []byte(`{"op":0,"s":42,"t":"MESSAGE_CREATE","d":{"id":"1"}}`)}

	op, err := DecodeOP(ev)
	if err != nil {
		t.Fatal("unexpected error:", err)
	}

	if op.Code != 0 {
		t.Error("unexpected op code:", op.Code)
	}
	if op.Sequence != 42 {
		t.Error("unexpected sequence:", op.Sequence)
	}
	if op.EventName != "MESSAGE_CREATE" {
		t.Error("unexpected event name:", op.EventName)
	}

	var data struct {
		ID string `json:"id"`
	}
	if err := op.UnmarshalData(&data); err != nil {
		t.Fatal("failed to unmarshal data:", err)
	}
	if data.ID != "1" {
		t.Error("unexpected data id:", data.ID)
	}
}

func TestDecodeOPMalformed(t *testing.T) {
	if _, err := DecodeOP(Event{Data: []byte(`{"op":`)}); err == nil {
		t.Fatal("expected error on malformed frame")
	}
}

func TestDecodeOPEmpty(t *testing.T) {
	if _, err := DecodeOP(Event{}); !errors.Is(err, ErrEmptyPayload) {
		t.Fatal("expected ErrEmptyPayload, got:", err)
	}
}

func TestDecodeOPError(t *testing.T) {
	sentinel := errors.New("socket exploded")

	if _, err := DecodeOP(Event{Error: sentinel}); !errors.Is(err, sentinel) {
		t.Fatal("expected passthrough error, got:", err)
	}
}

func TestAssertEvent(t *testing.T) {
	ev := Event{Data: []byte(`{"op":10,"d":{"heartbeat_interval":45000}}`)}

	var hello struct {
		HeartbeatInterval float64 `json:"heartbeat_interval"`
	}

	if _, err := AssertEvent(ev, 10, &hello); err != nil {
		t.Fatal("unexpected error:", err)
	}
	if hello.HeartbeatInterval != 45000 {
		t.Error("unexpected interval:", hello.HeartbeatInterval)
	}

	if _, err := AssertEvent(ev, 11, &hello); err == nil {
		t.Fatal("expected op code mismatch error")
	}
}

func TestIsBrokenConnection(t *testing.T) {
	err := ErrBrokenConnection(errors.New("underlying"))

	if !IsBrokenConnection(err) {
		t.Fatal("expected broken connection error")
	}
	if !IsBrokenConnection(errors.Wrap(err, "wrapped")) {
		t.Fatal("expected wrapped broken connection error")
	}
	if IsBrokenConnection(errors.New("other")) {
		t.Fatal("unexpected broken connection error")
	}
}
