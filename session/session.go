// Package session abstracts around the REST API and the Gateway, managing
// both at once. It offers a handler interface similar to that in discordgo
// for Gateway events.
package session

import (
	"github.com/pkg/errors"

	"github.com/Rapptz/discord.py-sub002/api"
	"github.com/Rapptz/discord.py-sub002/gateway"
	"github.com/Rapptz/discord.py-sub002/handler"
)

// Closed is an event that's sent to Session's command handler. This works by
// using (*Gateway).AfterClose. If the user sets this callback, no Closed
// events would be sent.
//
// Usage
//
//    ses.AddHandler(func(*session.Closed) {})
//
type Closed struct {
	Error error
}

// Session manages both the API and Gateway. As such, Session inherits all of
// API's methods, as well has the Handler used for Gateway.
type Session struct {
	*api.Client
	Gateway *gateway.Gateway

	// Command handler with inherited methods.
	*handler.Handler

	hstop chan struct{}
}

// New creates a new session from the given token.
func New(token string) (*Session, error) {
	g, err := gateway.NewGateway(token)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to Gateway")
	}

	return NewWithGateway(g), nil
}

// NewWithIntents creates a new session with the given gateway intents.
func NewWithIntents(token string, intents ...gateway.Intents) (*Session, error) {
	g, err := gateway.NewGatewayWithIntents(token, intents...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to Gateway")
	}

	return NewWithGateway(g), nil
}

// NewWithGateway creates a new session with the given gateway. The session
// nabs the gateway's token for its API client.
func NewWithGateway(gw *gateway.Gateway) *Session {
	return &Session{
		Gateway: gw,
		Client:  api.NewClient(gw.Identifier.Token),
		Handler: handler.New(),
	}
}

func (s *Session) Open() error {
	// Stop a previous handler, if any. A supervised restart reuses the
	// session; two pumps racing for one Events channel would lose the
	// receipt order.
	if s.hstop != nil {
		close(s.hstop)
	}

	// Start the handler beforehand so no events are missed.
	stop := make(chan struct{})
	s.hstop = stop
	go s.startHandler(stop)

	// Set the AfterClose's handler.
	s.Gateway.AfterClose = func(err error) {
		s.Handler.Call(&Closed{
			Error: err,
		})
	}

	if err := s.Gateway.Open(); err != nil {
		return errors.Wrap(err, "failed to start gateway")
	}

	return nil
}

func (s *Session) startHandler(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case ev := <-s.Gateway.Events:
			s.Call(ev)
		}
	}
}

func (s *Session) Close() error {
	// Stop the event handler
	if s.hstop != nil {
		close(s.hstop)
		s.hstop = nil
	}

	// Close the websocket
	return s.Gateway.Close()
}
