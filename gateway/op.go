package gateway

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/pkg/errors"

	"github.com/Rapptz/discord.py-sub002/utils/json"
	"github.com/Rapptz/discord.py-sub002/utils/wsutil"
)

type OPCode = wsutil.OPCode

const (
	DispatchOP            OPCode = 0 // recv
	HeartbeatOP           OPCode = 1 // send/recv
	IdentifyOP            OPCode = 2 // send
	StatusUpdateOP        OPCode = 3 // send
	VoiceStateUpdateOP    OPCode = 4 // send
	ResumeOP              OPCode = 6 // send
	ReconnectOP           OPCode = 7 // recv
	RequestGuildMembersOP OPCode = 8 // send
	InvalidSessionOP      OPCode = 9 // recv
	HelloOP               OPCode = 10
	HeartbeatAckOP        OPCode = 11
)

var _ wsutil.EventLoopHandler = (*Gateway)(nil)

// HandleOP steps the session state machine with one received OP.
func (g *Gateway) HandleOP(op *wsutil.OP) error {
	switch op.Code {
	case HeartbeatAckOP:
		// The peer saw our last beat.
		if g.PacerLoop.Pacemaker != nil {
			g.PacerLoop.Echo()
		}

	case HeartbeatOP:
		// Server requesting an immediate heartbeat.
		return g.Heartbeat()

	case ReconnectOP:
		// Server requests to reconnect, die and retry.
		wsutil.WSDebug("ReconnectOP received.")
		// We must reconnect in another goroutine, as running Reconnect
		// synchronously would prevent the main event loop from exiting.
		go g.Reconnect()
		return nil

	case InvalidSessionOP:
		var resumable bool
		if err := op.UnmarshalData(&resumable); err != nil {
			resumable = false
		}

		if resumable {
			// The session survived; redial and RESUME.
			go g.Reconnect()
			return nil
		}

		// The session is gone. Discord wants a random 1-5s wait before the
		// fresh IDENTIFY.
		g.SessionID = ""
		g.Sequence.Set(0)

		time.Sleep(time.Duration(rand.Intn(5)+1) * time.Second)

		ctx, cancel := context.WithTimeout(context.Background(), g.WSTimeout)
		defer cancel()

		if err := g.IdentifyCtx(ctx); err != nil {
			return wsutil.ErrBrokenConnection(
				errors.Wrap(err, "failed to identify after INVALID_SESSION"))
		}
		return nil

	case HelloOP:
		// The initial Hello is consumed by start(); a stray one changes
		// nothing.
		return nil

	case DispatchOP:
		// Set the sequence
		if op.Sequence > 0 {
			g.Sequence.Set(op.Sequence)
		}

		// Check if we know the event
		fn, ok := EventCreator[op.EventName]
		if !ok {
			// Unknown events are not errors; raw listeners still get them.
			raw := make(json.Raw, len(op.Data))
			copy(raw, op.Data)

			g.Events <- &UnknownEvent{Name: op.EventName, Raw: raw}
			return nil
		}

		// Make a new pointer to the event
		var ev = fn()

		// Try and parse the event
		if err := json.Unmarshal(op.Data, ev); err != nil {
			return errors.Wrap(err, "failed to parse event "+op.EventName)
		}

		switch ev := ev.(type) {
		case *ReadyEvent:
			// If the event is a Ready, we'll want its session ID.
			g.SessionID = ev.SessionID
			g.setStatus(StatusConnected)
		case *ResumedEvent:
			g.setStatus(StatusConnected)
		}

		// Throw the event into a channel; it's valid now.
		g.Events <- ev
		return nil

	default:
		return fmt.Errorf("unknown OP code %d (event %s)", op.Code, op.EventName)
	}

	return nil
}
