// Package gateway handles the Discord gateway (or Websocket) connection, its
// events, and everything related to it. This includes logging into the
// Websocket.
//
// This package does not abstract events and function handlers; instead, it
// leaves that to the session package. This package exposes only a single
// Events channel.
package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"github.com/Rapptz/discord.py-sub002/api"
	"github.com/Rapptz/discord.py-sub002/discord"
	"github.com/Rapptz/discord.py-sub002/utils/httputil"
	"github.com/Rapptz/discord.py-sub002/utils/json"
	"github.com/Rapptz/discord.py-sub002/utils/wsutil"
)

var (
	EndpointGateway    = api.Endpoint + "gateway"
	EndpointGatewayBot = EndpointGateway + "/bot"

	Version  = api.APIVersion
	Encoding = "json"
)

var (
	ErrMissingForResume = errors.New("missing session ID or sequence for resuming")
	ErrWSMaxTries       = errors.New("max tries reached")
)

// FatalCloseCodes are the close codes that a reconnect cannot recover from.
// The session is dead and the error is reported through FatalErrorCallback.
var FatalCloseCodes = map[int]string{
	4004: "authentication failed",
	4010: "invalid shard",
	4011: "sharding required",
	4012: "invalid API version",
	4013: "invalid intents",
	4014: "disallowed intents",
}

// nonResumableCloseCodes invalidate the session but permit reconnecting with
// a fresh IDENTIFY.
var nonResumableCloseCodes = map[int]bool{
	4007: true, // invalid seq
	4009: true, // session timed out
}

// CloseError is a fatal gateway close code.
type CloseError struct {
	Code   int
	Reason string
}

func (err *CloseError) Error() string {
	return fmt.Sprintf("gateway closed with code %d: %s", err.Code, err.Reason)
}

// BotData contains the GatewayURL as well as extra metadata on how to shard
// bots.
type BotData struct {
	URL        string             `json:"url"`
	Shards     int                `json:"shards,omitempty"`
	StartLimit *SessionStartLimit `json:"session_start_limit"`
}

// SessionStartLimit is the information on the current session start limit.
// It's used in BotData.
type SessionStartLimit struct {
	Total          int                  `json:"total"`
	Remaining      int                  `json:"remaining"`
	ResetAfter     discord.Milliseconds `json:"reset_after"`
	MaxConcurrency int                  `json:"max_concurrency"`
}

// URL asks Discord for a Websocket URL to the Gateway.
func URL() (string, error) {
	var g BotData

	return g.URL, httputil.NewClient().RequestJSON(
		&g, "GET",
		EndpointGateway,
	)
}

// BotURL fetches the Gateway URL along with extra metadata. The token passed
// in will NOT be prefixed with Bot.
func BotURL(token string) (*BotData, error) {
	var g *BotData

	return g, httputil.NewClient().RequestJSON(
		&g, "GET",
		EndpointGatewayBot,
		httputil.WithHeaders(http.Header{
			"Authorization": {token},
		}),
	)
}

// SessionData is the state needed to RESUME a gateway session. It survives
// marshaling, so callers may persist it across process restarts.
type SessionData struct {
	SessionID string `json:"session_id"`
	Sequence  int64  `json:"sequence"`
}

type Gateway struct {
	WS        *wsutil.Websocket
	WSTimeout time.Duration
	// ReconnectTimeout is the timeout used during reconnection. If a
	// connection to the gateway can't be established before the duration
	// passes, the Gateway will be closed and FatalErrorCallback will be
	// called.
	//
	// Setting this to 0 is equivalent to no timeout.
	ReconnectTimeout time.Duration

	// All events sent over are pointers to Event structs (structs suffixed
	// with "Event"). This shouldn't be accessed if the Gateway is created
	// with a Session.
	Events chan Event

	// SessionID is used to store the session ID received after Ready. It is
	// not thread-safe.
	SessionID string

	Identifier *Identifier
	Sequence   *Sequence

	PacerLoop wsutil.PacemakerLoop

	status atomic.Int32

	ErrorLog func(err error) // default to log.Println

	// FatalErrorCallback is called if the Gateway exits fatally: either the
	// reconnect timeout elapsed (err is ErrWSMaxTries), or the server closed
	// with a code in FatalCloseCodes (err is a *CloseError). At the point of
	// calling, the gateway is already closed.
	//
	// Defaults to noop.
	FatalErrorCallback func(err error)

	// AfterClose is called after each close. Error can be non-nil, as this
	// is called even when the Gateway is gracefully closed. It's used mainly
	// for reconnections or any type of connection interruptions.
	AfterClose func(err error) // noop by default

	waitGroup sync.WaitGroup
}

// NewGatewayWithIntents creates a new Gateway with the given intents. Refer
// to NewGateway and AddIntents.
func NewGatewayWithIntents(token string, intents ...Intents) (*Gateway, error) {
	g, err := NewGateway(token)
	if err != nil {
		return nil, err
	}

	for _, intent := range intents {
		g.AddIntents(intent)
	}

	return g, nil
}

// NewGateway fetches the gateway URL and creates a new Gateway around it.
func NewGateway(token string) (*Gateway, error) {
	gatewayURL, err := URL()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get gateway endpoint")
	}

	// Parameters for the gateway
	param := url.Values{
		"v":        {Version},
		"encoding": {Encoding},
	}

	// Append the form to the URL
	gatewayURL += "?" + param.Encode()

	return NewCustomGateway(gatewayURL, token), nil
}

func NewCustomGateway(gatewayURL, token string) *Gateway {
	return &Gateway{
		WS:        wsutil.NewCustom(wsutil.NewConn(), gatewayURL),
		WSTimeout: wsutil.WSTimeout,

		Events:     make(chan Event, wsutil.WSBuffer),
		Identifier: DefaultIdentifier(token),
		Sequence:   NewSequence(),

		ErrorLog:   wsutil.WSError,
		AfterClose: func(error) {},
	}
}

// AddIntents adds a Gateway Intent before connecting to the Gateway. As
// such, this function will only work before Open() is called.
func (g *Gateway) AddIntents(i Intents) {
	g.Identifier.Intents |= i
}

// Status returns the connection's lifecycle state. It is safe to call from
// any goroutine.
func (g *Gateway) Status() Status {
	return Status(g.status.Load())
}

func (g *Gateway) setStatus(s Status) {
	g.status.Store(int32(s))
}

// SessionData returns the state needed to resume this session later, for
// example from another process. It is only meaningful once READY was
// received.
func (g *Gateway) SessionData() SessionData {
	return SessionData{
		SessionID: g.SessionID,
		Sequence:  g.Sequence.Get(),
	}
}

// RestoreSession primes the gateway to RESUME instead of IDENTIFY on the
// next Open. It must be called before Open.
func (g *Gateway) RestoreSession(data SessionData) {
	g.SessionID = data.SessionID
	g.Sequence.Set(data.Sequence)
}

// Close closes the underlying Websocket connection.
func (g *Gateway) Close() error {
	wsutil.WSDebug("Trying to close.")

	wsutil.WSDebug("Closing the Websocket...")
	err := g.WS.Close()

	if errors.Is(err, wsutil.ErrWebsocketClosed) {
		wsutil.WSDebug("Websocket already closed.")
		return nil
	}

	wsutil.WSDebug("Websocket closed; error:", err)

	wsutil.WSDebug("Waiting for the Pacemaker loop to exit.")
	g.waitGroup.Wait()
	wsutil.WSDebug("Pacemaker loop exited.")

	g.setStatus(StatusClosed)

	g.AfterClose(err)
	wsutil.WSDebug("AfterClose callback finished.")

	return err
}

// Reconnect tries to reconnect until the ReconnectTimeout is reached, or if
// set to 0 reconnects indefinitely.
func (g *Gateway) Reconnect() {
	ctx := context.Background()

	if g.ReconnectTimeout > 0 {
		var cancel func()
		ctx, cancel = context.WithTimeout(ctx, g.ReconnectTimeout)

		defer cancel()
	}

	// Ignore the error; it is already logged and FatalErrorCallback was
	// called.
	g.ReconnectCtx(ctx)
}

// ReconnectCtx attempts to reconnect until context expires. If the context
// expires, FatalErrorCallback will be called with ErrWSMaxTries, and the
// last error returned by Open will be returned.
func (g *Gateway) ReconnectCtx(ctx context.Context) (err error) {
	wsutil.WSDebug("Reconnecting...")

	g.setStatus(StatusReconnecting)

	// Guarantee the gateway is already closed. Ignore its error, as we're
	// redialing anyway.
	g.Close()

	for i := 1; ; i++ {
		select {
		case <-ctx.Done():
			if g.FatalErrorCallback != nil {
				g.FatalErrorCallback(ErrWSMaxTries)
			}
			return err

		default:
		}

		wsutil.WSDebug("Trying to dial, attempt", i)

		// make sure we don't overwrite our last error
		if err = g.OpenContext(ctx); err != nil {
			g.ErrorLog(err)
			continue
		}

		wsutil.WSDebug("Started after attempt:", i)

		return nil
	}
}

// Open connects to the Websocket and authenticates it. You should usually
// use this function over Start().
func (g *Gateway) Open() error {
	ctx, cancel := context.WithTimeout(context.Background(), g.WSTimeout)
	defer cancel()

	return g.OpenContext(ctx)
}

// OpenContext connects to the Websocket and authenticates it. The given
// context provides cancellation and timeout.
func (g *Gateway) OpenContext(ctx context.Context) error {
	g.setStatus(StatusConnecting)

	// Reconnect to the Gateway
	if err := g.WS.Dial(ctx); err != nil {
		g.setStatus(StatusClosed)
		return errors.Wrap(err, "failed to dial")
	}

	wsutil.WSDebug("Trying to start...")

	// Try to resume the connection
	if err := g.StartCtx(ctx); err != nil {
		return err
	}

	// Started successfully, return
	return nil
}

// Start calls StartCtx with a background context. You wouldn't usually use
// this function, but Open() instead.
func (g *Gateway) Start() error {
	ctx, cancel := context.WithTimeout(context.Background(), g.WSTimeout)
	defer cancel()

	return g.StartCtx(ctx)
}

// StartCtx authenticates with the websocket, or resumes from a dead
// Websocket connection. You wouldn't usually use this function, but
// OpenContext() instead.
func (g *Gateway) StartCtx(ctx context.Context) error {
	if err := g.start(ctx); err != nil {
		wsutil.WSDebug("Start failed:", err)

		// Close can be called with the mutex still acquired here, as the
		// pacemaker hasn't started yet.
		if err := g.Close(); err != nil {
			wsutil.WSDebug("Failed to close after start fail:", err)
		}
		return err
	}

	return nil
}

func (g *Gateway) start(ctx context.Context) error {
	// This is where we'll get our events
	ch := g.WS.Listen()

	// Create a new Hello event and wait for it.
	var hello HelloEvent
	// Wait for an OP 10 Hello.
	select {
	case e, ok := <-ch:
		if !ok {
			return errors.New("unexpected ws close while waiting for Hello")
		}
		if _, err := wsutil.AssertEvent(e, HelloOP, &hello); err != nil {
			return errors.Wrap(err, "error at Hello")
		}
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "failed to wait for Hello event")
	}

	wsutil.WSDebug("Hello received; duration:", hello.HeartbeatInterval)

	// Send Discord either the Identify packet (if it's a fresh connection),
	// or a Resume packet (if it's a dead connection).
	if g.SessionID == "" {
		// SessionID is empty, so this is a completely new session.
		if err := g.IdentifyCtx(ctx); err != nil {
			return errors.Wrap(err, "failed to identify")
		}
	} else {
		if err := g.ResumeCtx(ctx); err != nil {
			return errors.Wrap(err, "failed to resume")
		}
	}

	// Expect either READY or RESUMED before continuing.
	wsutil.WSDebug("Waiting for either READY or RESUMED.")

	err := wsutil.WaitForEvent(ctx, g, ch, func(op *wsutil.OP) bool {
		switch op.EventName {
		case "READY":
			wsutil.WSDebug("Found READY event.")
			return true
		case "RESUMED":
			wsutil.WSDebug("Found RESUMED event.")
			return true
		}
		return false
	})

	if err != nil {
		return errors.Wrap(err, "first error")
	}

	// Start the event handler, which also handles the pacemaker death
	// signal.
	g.waitGroup.Add(1)

	g.PacerLoop.ErrorLog = g.ErrorLog
	g.PacerLoop.RunAsync(hello.HeartbeatInterval.Duration(), ch, g, g.handleLoopExit)

	wsutil.WSDebug("Started successfully.")

	return nil
}

// handleLoopExit is given to the pacemaker loop to decide the connection's
// afterlife: clean stop, reconnect, or fatal teardown.
func (g *Gateway) handleLoopExit(err error) {
	g.waitGroup.Done() // mark so Close() can exit.
	wsutil.WSDebug("Event loop stopped with error:", err)

	if err == nil {
		return
	}

	g.ErrorLog(err)

	if code := wsutil.CloseStatus(err); code != -1 {
		if reason, ok := FatalCloseCodes[code]; ok {
			// Nothing to resume and nothing to retry.
			g.SessionID = ""
			g.Sequence.Set(0)
			g.Close()

			if g.FatalErrorCallback != nil {
				g.FatalErrorCallback(&CloseError{Code: code, Reason: reason})
			}
			return
		}

		if nonResumableCloseCodes[code] {
			// The session is gone but the token is fine; reconnect with a
			// fresh IDENTIFY.
			g.SessionID = ""
			g.Sequence.Set(0)
		}
	}

	g.Reconnect()
}

// WaitForOP blocks until the connection receives an OP that fn returns true
// for, and returns that OP. The pacer loop feeds it, so it only works while
// the gateway is open. Regular dispatch to the Events channel is unaffected.
func (g *Gateway) WaitForOP(ctx context.Context, fn func(*wsutil.OP) bool) (*wsutil.OP, error) {
	ch, cancel := g.PacerLoop.Extras.Add(fn)
	defer cancel()

	select {
	case op := <-ch:
		return op, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// SendCtx is a low-level function to send an OP payload to the Gateway.
// Most users shouldn't touch this, unless they know what they're doing.
func (g *Gateway) SendCtx(ctx context.Context, code OPCode, v interface{}) error {
	var op = wsutil.OP{
		Code: wsutil.OPCode(code),
	}

	if v != nil {
		b, err := json.Marshal(v)
		if err != nil {
			return errors.Wrap(err, "failed to encode v")
		}

		op.Data = b
	}

	b, err := json.Marshal(op)
	if err != nil {
		return errors.Wrap(err, "failed to encode payload")
	}

	// WS should already be thread-safe.
	return g.WS.SendCtx(ctx, b)
}
